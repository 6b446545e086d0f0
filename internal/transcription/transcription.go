package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/types"
)

// Transcriber turns raw audio into text plus a provider language code.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (types.Transcription, error)
}

type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
}

// ElevenLabs calls the Scribe speech-to-text endpoint.
type ElevenLabs struct {
	opts       Options
	httpClient *http.Client
	log        *logger.Logger
}

type sttResponse struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
}

func NewElevenLabs(opts Options, log *logger.Logger) *ElevenLabs {
	if opts.Model == "" {
		opts.Model = "scribe_v1"
	}
	return &ElevenLabs{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log.Component("transcription"),
	}
}

func (e *ElevenLabs) Transcribe(ctx context.Context, audio []byte, filename string) (types.Transcription, error) {
	if len(audio) == 0 {
		return types.Transcription{}, &types.TranscriptionError{Err: fmt.Errorf("empty audio")}
	}
	body, contentType, err := e.buildForm(audio, filename)
	if err != nil {
		return types.Transcription{}, &types.TranscriptionError{Err: err}
	}
	endpoint := strings.TrimRight(e.opts.BaseURL, "/") + "/v1/speech-to-text"

	var out sttResponse
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("xi-api-key", e.opts.APIKey)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			e.log.WithError(err).WithField("attempt", attempt).Warn("speech-to-text request failed")
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, string(raw))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("request rejected %d: %s", resp.StatusCode, string(raw)))
		}
		if len(raw) == 0 {
			return backoff.Permanent(fmt.Errorf("empty body"))
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, string(raw)))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.opts.MaxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return types.Transcription{}, &types.TranscriptionError{Err: err}
	}

	e.log.WithField("language_code", out.LanguageCode).
		WithField("chars", len(out.Text)).
		Info("transcription completed")
	return types.Transcription{Text: strings.TrimSpace(out.Text), LanguageCode: out.LanguageCode}, nil
}

func (e *ElevenLabs) buildForm(audio []byte, filename string) ([]byte, string, error) {
	if filename == "" {
		filename = "recording.wav"
	}
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, "", err
	}
	_ = w.WriteField("model_id", e.opts.Model)
	_ = w.WriteField("tag_audio_events", "true")
	_ = w.WriteField("diarize", "false")
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return b.Bytes(), w.FormDataContentType(), nil
}

// Static returns a fixed transcript. Enabled with USE_MOCK_TRANSCRIBE=true
// for offline demos.
type Static struct {
	Text         string
	LanguageCode string
}

func (s Static) Transcribe(_ context.Context, audio []byte, _ string) (types.Transcription, error) {
	if len(audio) == 0 {
		return types.Transcription{}, &types.TranscriptionError{Err: fmt.Errorf("empty audio")}
	}
	return types.Transcription{Text: s.Text, LanguageCode: s.LanguageCode}, nil
}
