package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
)

// MarkdownWriter writes the digest to a markdown file with optional YAML
// frontmatter.
type MarkdownWriter struct {
	pathTemplate string
	frontmatter  bool
}

type frontmatterDoc struct {
	Title          string             `yaml:"title"`
	Date           string             `yaml:"date"`
	GeneratedAt    string             `yaml:"generated_at"`
	Config         string             `yaml:"config"`
	SourcesFetched int                `yaml:"sources_fetched"`
	SourcesFailed  int                `yaml:"sources_failed"`
	ItemsProcessed int                `yaml:"items_processed"`
	TimeWindow     string             `yaml:"time_window"`
	Errors         []frontmatterError `yaml:"errors,omitempty"`
}

type frontmatterError struct {
	Source string `yaml:"source"`
	Error  string `yaml:"error"`
}

func newMarkdownWriter(section map[string]any) (*MarkdownWriter, error) {
	cfg := struct {
		Path        string `yaml:"path"`
		Frontmatter *bool  `yaml:"frontmatter"`
	}{}
	if err := config.DecodeSection(section, &cfg); err != nil {
		return nil, fmt.Errorf("markdown output: invalid config: %w", err)
	}

	if cfg.Path == "" {
		cfg.Path = "digests/{slug}/{date}.md"
	}

	frontmatter := true
	if cfg.Frontmatter != nil {
		frontmatter = *cfg.Frontmatter
	}

	return &MarkdownWriter{pathTemplate: cfg.Path, frontmatter: frontmatter}, nil
}

func (w *MarkdownWriter) Type() string { return "markdown" }

func (w *MarkdownWriter) Write(ctx context.Context, content string, metadata digest.Metadata, items []digest.Item) (string, error) {
	outputPath := strings.NewReplacer(
		"{slug}", metadata.Config,
		"{date}", metadata.Date,
		"{title}", metadata.Title,
	).Replace(w.pathTemplate)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	fileContent, err := w.buildContent(content, metadata)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(outputPath, []byte(fileContent), 0o644); err != nil {
		return "", fmt.Errorf("failed to write digest file: %w", err)
	}

	slog.Info("Markdown output written", "path", outputPath)

	return outputPath, nil
}

func (w *MarkdownWriter) buildContent(content string, metadata digest.Metadata) (string, error) {
	var parts []string

	if w.frontmatter {
		doc := frontmatterDoc{
			Title:          metadata.Title,
			Date:           metadata.Date,
			GeneratedAt:    metadata.GeneratedAt,
			Config:         metadata.Config,
			SourcesFetched: metadata.SourcesFetched,
			SourcesFailed:  metadata.SourcesFailed,
			ItemsProcessed: metadata.ItemsProcessed,
			TimeWindow:     metadata.TimeWindow,
		}
		for _, sourceError := range metadata.Errors {
			doc.Errors = append(doc.Errors, frontmatterError{
				Source: sourceError.SourceName,
				Error:  sourceError.Error,
			})
		}

		rendered, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to render frontmatter: %w", err)
		}

		parts = append(parts, "---", strings.TrimSpace(string(rendered)), "---", "")
	}

	parts = append(parts, content)

	if len(metadata.Errors) > 0 {
		parts = append(parts, "", "## Source Errors", "", "The following sources could not be fetched:")
		for _, sourceError := range metadata.Errors {
			parts = append(parts, fmt.Sprintf("- **%s**: %s", sourceError.SourceName, sourceError.Error))
		}
	}

	return strings.Join(parts, "\n"), nil
}
