package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestRecordingName(t *testing.T) {
	at := time.UnixMilli(1736950000123)
	re := regexp.MustCompile(`^recording_1736950000123_[0-9a-f]{8}\.(wav|webm)$`)

	for _, orig := range []string{"blob", "clip.WAV", "voice.webm", "weird.extension"} {
		name := RecordingName(at, orig)
		if !re.MatchString(name) {
			t.Errorf("RecordingName(%q) = %q", orig, name)
		}
	}
	if RecordingName(at, "a.wav") == RecordingName(at, "a.wav") {
		t.Error("names submitted in the same millisecond must differ")
	}
}

func TestLocalSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "recordings")
	l, err := NewLocal(dir, "/recordings/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	url, err := l.Save(context.Background(), "recording_1.wav", []byte("RIFF"), "audio/wav")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/recordings/recording_1.wav" {
		t.Errorf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "recording_1.wav"))
	if err != nil || string(data) != "RIFF" {
		t.Fatalf("stored data = %q, %v", data, err)
	}

	if _, err := l.Save(context.Background(), "../escape.wav", []byte("x"), ""); err == nil {
		t.Error("expected rejection of path traversal")
	}
}
