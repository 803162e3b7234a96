package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
	"github.com/digestbot/digest/app/feed"
)

// Source type tags as they appear in configuration files.
const (
	TypeRSS        = "rss"
	TypeDiscourse  = "discourse"
	TypeHyperKitty = "hyperkitty"
	TypeRestAPI    = "rest_api"
)

// Adapter fetches raw records from one configured source and produces
// normalized items. Fetch never returns a Go error: all fetch and parse
// failures are captured in FetchResult.Error, and an error is set only when
// the entire source is unusable for this run. delay is applied before each
// paginated or multi-endpoint sub-request, not before the first.
type Adapter interface {
	Name() string
	Type() string
	Fetch(ctx context.Context, delay time.Duration) digest.FetchResult
}

// New builds the adapter for a source configuration. An unknown type tag or
// a missing mandatory field is a configuration error, reported here at
// construction time rather than at fetch time.
func New(sourceConfig config.SourceConfig, client *http.Client, userAgent string) (Adapter, error) {
	parser := feed.NewParser()

	switch sourceConfig.Type {
	case TypeRSS:
		return newRSSAdapter(sourceConfig, client, parser, userAgent)
	case TypeDiscourse:
		return newDiscourseAdapter(sourceConfig, client, parser, userAgent)
	case TypeHyperKitty:
		return newHyperKittyAdapter(sourceConfig, client, parser, userAgent)
	case TypeRestAPI:
		return newRestAPIAdapter(sourceConfig, client, userAgent)
	default:
		return nil, fmt.Errorf("unknown source type: %q", sourceConfig.Type)
	}
}
