package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
	"github.com/digestbot/digest/app/feed"
)

// RSSAdapter fetches a single RSS/Atom feed URL.
type RSSAdapter struct {
	name      string
	url       string
	client    *http.Client
	parser    *feed.Parser
	userAgent string
}

func newRSSAdapter(sourceConfig config.SourceConfig, client *http.Client, parser *feed.Parser, userAgent string) (*RSSAdapter, error) {
	var cfg struct {
		URL string `yaml:"url"`
	}
	if err := config.DecodeSection(sourceConfig.Config, &cfg); err != nil {
		return nil, fmt.Errorf("rss source %q: invalid config: %w", sourceConfig.Name, err)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("rss source %q missing 'url' field", sourceConfig.Name)
	}

	return &RSSAdapter{
		name:      sourceConfig.Name,
		url:       cfg.URL,
		client:    client,
		parser:    parser,
		userAgent: userAgent,
	}, nil
}

func (a *RSSAdapter) Name() string { return a.name }
func (a *RSSAdapter) Type() string { return TypeRSS }

func (a *RSSAdapter) Fetch(ctx context.Context, delay time.Duration) digest.FetchResult {
	data, err := fetchBytes(ctx, a.client, a.url, a.userAgent)
	if err != nil {
		return digest.FetchResult{
			SourceName: a.name,
			Error:      digest.NewSourceError(a.name, TypeRSS, err.Error()),
		}
	}

	items, err := a.parser.Run(data, a.name, TypeRSS)
	if err != nil {
		return digest.FetchResult{
			SourceName: a.name,
			Error:      digest.NewSourceError(a.name, TypeRSS, fmt.Sprintf("feed parse error: %v", err)),
		}
	}

	slog.Info("Fetched RSS source", "source", a.name, "items", len(items))

	return digest.FetchResult{SourceName: a.name, Items: items}
}
