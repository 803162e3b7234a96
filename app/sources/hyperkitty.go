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

// HyperKittyAdapter reads a Mailman 3 (HyperKitty) mailing list archive.
// Deployments differ in which feed endpoint they expose, so a fixed ordered
// list of candidate URL patterns is tried and the first one that parses as
// a well-formed feed wins. A 404 or unparsable response falls through to
// the next candidate; the source fails only when all are exhausted.
type HyperKittyAdapter struct {
	name        string
	baseURL     string
	listAddress string
	client      *http.Client
	parser      *feed.Parser
	userAgent   string
}

func newHyperKittyAdapter(sourceConfig config.SourceConfig, client *http.Client, parser *feed.Parser, userAgent string) (*HyperKittyAdapter, error) {
	var cfg struct {
		BaseURL     string `yaml:"base_url"`
		ListAddress string `yaml:"list_address"`
	}
	if err := config.DecodeSection(sourceConfig.Config, &cfg); err != nil {
		return nil, fmt.Errorf("hyperkitty source %q: invalid config: %w", sourceConfig.Name, err)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("hyperkitty source %q missing 'base_url' field", sourceConfig.Name)
	}
	if cfg.ListAddress == "" {
		return nil, fmt.Errorf("hyperkitty source %q missing 'list_address' field", sourceConfig.Name)
	}

	return &HyperKittyAdapter{
		name:        sourceConfig.Name,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		listAddress: cfg.ListAddress,
		client:      client,
		parser:      parser,
		userAgent:   userAgent,
	}, nil
}

func (a *HyperKittyAdapter) Name() string { return a.name }
func (a *HyperKittyAdapter) Type() string { return TypeHyperKitty }

func (a *HyperKittyAdapter) Fetch(ctx context.Context, delay time.Duration) digest.FetchResult {
	// Fedora-style deployments use /archives/list/{list}/feed/; older ones
	// expose latest.rss or atom.xml.
	candidates := []string{
		fmt.Sprintf("%s/%s/feed/", a.baseURL, a.listAddress),
		fmt.Sprintf("%s/%s/latest.rss", a.baseURL, a.listAddress),
		fmt.Sprintf("%s/%s/atom.xml", a.baseURL, a.listAddress),
	}

	pace := newPacer(delay)

	for _, url := range candidates {
		if err := pace.wait(ctx); err != nil {
			break
		}

		items, err := a.tryFetchFeed(ctx, url)
		if err != nil {
			slog.Debug("HyperKitty candidate failed", "source", a.name, "url", url, "error", err)
			continue
		}

		slog.Info("Fetched HyperKitty source", "source", a.name, "url", url, "items", len(items))
		return digest.FetchResult{SourceName: a.name, Items: items}
	}

	return digest.FetchResult{
		SourceName: a.name,
		Error: digest.NewSourceError(a.name, TypeHyperKitty,
			"could not fetch feed (tried RSS and Atom URLs)"),
	}
}

func (a *HyperKittyAdapter) tryFetchFeed(ctx context.Context, url string) ([]digest.Item, error) {
	data, err := fetchBytes(ctx, a.client, url, a.userAgent)
	if err != nil {
		return nil, err
	}

	items, err := a.parser.Run(data, a.name, TypeHyperKitty)
	if err != nil {
		return nil, fmt.Errorf("feed parse error: %w", err)
	}

	return items, nil
}
