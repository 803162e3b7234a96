package summarizer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/digestbot/digest/app/config"
)

type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func newAnthropicProvider(cfg config.SummarizerConfig) (*anthropicProvider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	return &anthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (p *anthropicProvider) generate(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(textBlock.Text)
		}
	}

	if content.Len() == 0 {
		return "", fmt.Errorf("empty response from Anthropic API")
	}

	return content.String(), nil
}
