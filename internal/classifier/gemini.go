package classifier

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/types"
)

const ProviderGemini = "gemini"

// Gemini classifies with Google's generative models.
type Gemini struct {
	model    string
	log      *logger.Logger
	generate func(ctx context.Context, prompt string) (string, error)
}

func NewGemini(ctx context.Context, apiKey, model string, log *logger.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	g := &Gemini{model: model, log: log.Component("classifier.gemini")}
	g.generate = func(ctx context.Context, prompt string) (string, error) {
		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			return "", errors.New("empty response from Gemini")
		}
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		return text, nil
	}
	return g, nil
}

func (g *Gemini) Classify(ctx context.Context, transcript, language string) (types.ClassificationResult, error) {
	text, err := g.generate(ctx, BuildPrompt(transcript, language))
	if err != nil {
		g.log.WithError(err).Warn("gemini request failed")
		return types.ClassificationResult{}, &types.ClassificationError{Provider: ProviderGemini, Err: err}
	}
	res, err := Decode(text, transcript)
	if err != nil {
		return types.ClassificationResult{}, &types.ClassificationError{Provider: ProviderGemini, Err: err}
	}
	res.Provider = ProviderGemini
	return res, nil
}
