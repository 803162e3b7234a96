package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
	"github.com/digestbot/digest/app/feed"
)

// provider is one LLM backend. Providers only turn a prompt into text; all
// prompt assembly lives here.
type provider interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces the digest body from the pipeline's output. A
// summarization failure is fatal to the run, unlike source errors.
type Summarizer struct {
	config   config.SummarizerConfig
	provider provider
}

func New(ctx context.Context, cfg config.SummarizerConfig) (*Summarizer, error) {
	var p provider
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		p, err = newOpenAIProvider(cfg)
	case "anthropic":
		p, err = newAnthropicProvider(cfg)
	case "gemini", "google":
		p, err = newGeminiProvider(ctx, cfg)
	case "ollama":
		p, err = newOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &Summarizer{config: cfg, provider: p}, nil
}

// Summarize renders the prompt from the configured template and asks the
// provider for the digest text. With no items it skips the LLM entirely and
// returns a static empty-digest body.
func (s *Summarizer) Summarize(ctx context.Context, items []digest.Item, errors []digest.SourceError, timeWindow string) (string, error) {
	if len(items) == 0 {
		return emptyDigest(errors), nil
	}

	prompt := strings.NewReplacer(
		"{time_window}", timeWindow,
		"{content}", buildContent(items),
		"{errors_section}", buildErrorsSection(errors),
	).Replace(s.config.Prompt)

	text, err := s.provider.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	return text, nil
}

// buildContent lays the items out for the prompt, grouped by source in
// first-seen order, with bodies truncated to keep the prompt bounded.
func buildContent(items []digest.Item) string {
	var order []string
	bySource := make(map[string][]digest.Item)
	for _, item := range items {
		if _, ok := bySource[item.SourceName]; !ok {
			order = append(order, item.SourceName)
		}
		bySource[item.SourceName] = append(bySource[item.SourceName], item)
	}

	var parts []string
	for _, sourceName := range order {
		parts = append(parts, fmt.Sprintf("\n### Source: %s\n", sourceName))

		for _, item := range bySource[sourceName] {
			parts = append(parts, fmt.Sprintf("**%s**", item.Title))
			parts = append(parts, fmt.Sprintf("- URL: %s", item.URL))
			parts = append(parts, fmt.Sprintf("- Date: %s", item.Date.Format("2006-01-02 15:04 UTC")))
			if item.Author != "" {
				parts = append(parts, fmt.Sprintf("- Author: %s", item.Author))
			}
			parts = append(parts, fmt.Sprintf("- Content: %s", feed.Truncate(item.Body, 2000)))
			parts = append(parts, "")
		}
	}

	return strings.Join(parts, "\n")
}

func buildErrorsSection(errors []digest.SourceError) string {
	if len(errors) == 0 {
		return ""
	}

	lines := []string{
		"\nNote: The following sources could not be fetched. " +
			"Please mention these in the Source Errors section of the digest:\n",
	}
	for _, sourceError := range errors {
		lines = append(lines, fmt.Sprintf("- %s: %s", sourceError.SourceName, sourceError.Error))
	}

	return strings.Join(lines, "\n")
}

func emptyDigest(errors []digest.SourceError) string {
	parts := []string{
		"## No New Content\n",
		"No new content was found in the configured time window.\n",
	}

	if len(errors) > 0 {
		parts = append(parts, "\n## Source Errors\n")
		parts = append(parts, "The following sources could not be fetched:\n")
		for _, sourceError := range errors {
			parts = append(parts, fmt.Sprintf("- **%s**: %s", sourceError.SourceName, sourceError.Error))
		}
	}

	return strings.Join(parts, "\n")
}
