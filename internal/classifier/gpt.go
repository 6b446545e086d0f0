package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/types"
)

const ProviderGPT = "gpt"

type GPTOptions struct {
	GatewayURL  string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  uint64
}

// GPT talks to an OpenAI-compatible chat completions endpoint.
type GPT struct {
	opts       GPTOptions
	httpClient *http.Client
	log        *logger.Logger
}

func NewGPT(opts GPTOptions, log *logger.Logger) *GPT {
	if opts.Model == "" {
		opts.Model = "gpt-4"
	}
	return &GPT{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		log:        log.Component("classifier.gpt"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *GPT) Classify(ctx context.Context, transcript, language string) (types.ClassificationResult, error) {
	fail := func(err error) (types.ClassificationResult, error) {
		return types.ClassificationResult{}, &types.ClassificationError{Provider: ProviderGPT, Err: err}
	}

	data, err := json.Marshal(chatRequest{
		Model:       g.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: BuildPrompt(transcript, language)}},
		Temperature: g.opts.Temperature,
	})
	if err != nil {
		return fail(err)
	}

	var content string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.GatewayURL, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			g.log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		g.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

		if resp.StatusCode >= 500 {
			return fmt.Errorf("llm server error %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("llm rejected request %d: %s", resp.StatusCode, truncate(string(body), 200)))
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode chat response: %w", err))
		}
		if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
			return backoff.Permanent(errors.New("no response from GPT"))
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.opts.MaxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return fail(err)
	}

	res, err := Decode(content, transcript)
	if err != nil {
		return fail(err)
	}
	res.Provider = ProviderGPT
	return res, nil
}
