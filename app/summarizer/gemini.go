package summarizer

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/digestbot/digest/app/config"
)

type geminiProvider struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func newGeminiProvider(ctx context.Context, cfg config.SummarizerConfig) (*geminiProvider, error) {
	apiKey := cmp.Or(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiProvider{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (p *geminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.maxTokens),
	})
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			content.WriteString(part.Text)
		}
	}

	if content.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	return content.String(), nil
}
