package transcription

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/types"
)

func newTestClient(url string, retries uint64) *ElevenLabs {
	return NewElevenLabs(Options{
		BaseURL:    url,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	}, logger.Discard())
}

func TestElevenLabsTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech-to-text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("model_id"); got != "scribe_v1" {
			t.Errorf("model_id = %q", got)
		}
		if got := r.FormValue("diarize"); got != "false" {
			t.Errorf("diarize = %q", got)
		}
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if string(data) != "RIFFdata" || fh.Filename != "clip.wav" {
			t.Errorf("file = %q (%s)", data, fh.Filename)
		}
		w.Write([]byte(`{"language_code":"hin","language_probability":0.97,"text":" मुझे मदद चाहिए "}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 0).Transcribe(context.Background(), []byte("RIFFdata"), "clip.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.LanguageCode != "hin" || got.Text != "मुझे मदद चाहिए" {
		t.Errorf("got %+v", got)
	}
}

func TestElevenLabsSingleCallOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Transcribe(context.Background(), []byte("x"), "a.wav")
	var te *types.TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestElevenLabsRetriesWhenConfigured(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"language_code":"eng","text":"fire"}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 1).Transcribe(context.Background(), []byte("x"), "a.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "fire" || atomic.LoadInt32(&calls) != 2 {
		t.Errorf("got %+v after %d calls", got, atomic.LoadInt32(&calls))
	}
}

func TestElevenLabsClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, 3).Transcribe(context.Background(), []byte("x"), "a.wav"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestElevenLabsUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Transcribe(context.Background(), []byte("x"), "a.wav")
	var te *types.TranscriptionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
}

func TestStatic(t *testing.T) {
	s := Static{Text: "hello", LanguageCode: "eng"}
	got, err := s.Transcribe(context.Background(), []byte("x"), "")
	if err != nil || got.Text != "hello" {
		t.Fatalf("got %+v, %v", got, err)
	}
	if _, err := s.Transcribe(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"eng": "English",
		"hin": "Hindi",
		"ITA": "Italian",
		"jpn": "jpn",
		"":    "Unknown",
		"  ":  "Unknown",
	}
	for code, want := range tests {
		if got := LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", code, got, want)
		}
	}
}
