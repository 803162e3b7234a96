package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
	"github.com/digestbot/digest/app/feed"
)

// DiscourseAdapter fans out over the RSS feeds a Discourse forum exposes
// per category and per tag, and accumulates items across all of them. The
// source fails only when every category and tag fetch failed and nothing
// was recovered.
type DiscourseAdapter struct {
	name       string
	baseURL    string
	categories []discourseCategory
	tags       []string
	client     *http.Client
	parser     *feed.Parser
	userAgent  string
}

type discourseCategory struct {
	Path string `yaml:"path"`
	ID   int    `yaml:"id"`
}

func newDiscourseAdapter(sourceConfig config.SourceConfig, client *http.Client, parser *feed.Parser, userAgent string) (*DiscourseAdapter, error) {
	var cfg struct {
		BaseURL    string              `yaml:"base_url"`
		Categories []discourseCategory `yaml:"categories"`
		Tags       []string            `yaml:"tags"`
	}
	if err := config.DecodeSection(sourceConfig.Config, &cfg); err != nil {
		return nil, fmt.Errorf("discourse source %q: invalid config: %w", sourceConfig.Name, err)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("discourse source %q missing 'base_url' field", sourceConfig.Name)
	}
	if len(cfg.Categories) == 0 && len(cfg.Tags) == 0 {
		return nil, fmt.Errorf("discourse source %q must have at least one category or tag", sourceConfig.Name)
	}

	return &DiscourseAdapter{
		name:       sourceConfig.Name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		categories: cfg.Categories,
		tags:       cfg.Tags,
		client:     client,
		parser:     parser,
		userAgent:  userAgent,
	}, nil
}

func (a *DiscourseAdapter) Name() string { return a.name }
func (a *DiscourseAdapter) Type() string { return TypeDiscourse }

func (a *DiscourseAdapter) Fetch(ctx context.Context, delay time.Duration) digest.FetchResult {
	var allItems []digest.Item
	var partialErrors []string

	pace := newPacer(delay)

	for _, category := range a.categories {
		items, err := a.fetchFeed(ctx, pace, a.categoryURL(category))
		if err != nil {
			message := fmt.Sprintf("Category %q: %v", category.Path, err)
			slog.Warn("Discourse sub-fetch failed", "source", a.name, "error", message)
			partialErrors = append(partialErrors, message)
			continue
		}
		allItems = append(allItems, items...)
	}

	for _, tag := range a.tags {
		items, err := a.fetchFeed(ctx, pace, fmt.Sprintf("%s/tag/%s.rss", a.baseURL, tag))
		if err != nil {
			message := fmt.Sprintf("Tag %q: %v", tag, err)
			slog.Warn("Discourse sub-fetch failed", "source", a.name, "error", message)
			partialErrors = append(partialErrors, message)
			continue
		}
		allItems = append(allItems, items...)
	}

	slog.Info("Fetched Discourse source", "source", a.name, "items", len(allItems))

	var sourceError *digest.SourceError
	if len(partialErrors) > 0 && len(allItems) == 0 {
		sourceError = digest.NewSourceError(a.name, TypeDiscourse, strings.Join(partialErrors, "; "))
	}

	return digest.FetchResult{SourceName: a.name, Items: allItems, Error: sourceError}
}

func (a *DiscourseAdapter) categoryURL(category discourseCategory) string {
	if category.ID != 0 {
		return fmt.Sprintf("%s/c/%s/%d.rss", a.baseURL, category.Path, category.ID)
	}
	return fmt.Sprintf("%s/c/%s.rss", a.baseURL, category.Path)
}

func (a *DiscourseAdapter) fetchFeed(ctx context.Context, pace *pacer, url string) ([]digest.Item, error) {
	if err := pace.wait(ctx); err != nil {
		return nil, err
	}

	data, err := fetchBytes(ctx, a.client, url, a.userAgent)
	if err != nil {
		return nil, err
	}

	items, err := a.parser.Run(data, a.name, TypeDiscourse)
	if err != nil {
		return nil, fmt.Errorf("feed parse error: %w", err)
	}

	return items, nil
}
