package pipeline

import (
	"cmp"
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
	"github.com/digestbot/digest/app/filter"
	"github.com/digestbot/digest/app/sources"
	"github.com/digestbot/digest/app/state"
)

// Result is the pipeline's handoff to the summarizer and output writers:
// deduplicated items in date-descending order, the accumulated source
// errors, and the time window label. An empty item list is a valid result.
type Result struct {
	Items      []digest.Item
	Errors     []digest.SourceError
	TimeWindow string
}

// Runner walks the configured sources strictly sequentially: fetch, filter,
// advance state, wait, next. A failing source is recorded and skipped; it
// never aborts the run.
type Runner struct {
	config    *config.Config
	filter    *filter.ContentFilter
	state     *state.Store
	client    *http.Client
	userAgent string
}

func NewRunner(cfg *config.Config, contentFilter *filter.ContentFilter, stateStore *state.Store, client *http.Client, userAgent string) *Runner {
	return &Runner{
		config:    cfg,
		filter:    contentFilter,
		state:     stateStore,
		client:    client,
		userAgent: userAgent,
	}
}

func (r *Runner) Run(ctx context.Context) Result {
	var allItems []digest.Item
	var allErrors []digest.SourceError

	requestDelay := r.config.RateLimit.GetRequestDelay()
	sourceDelay := r.config.RateLimit.GetSourceDelay()

	for _, sourceConfig := range r.config.Sources {
		slog.Info("Fetching source", "source", sourceConfig.Name, "type", sourceConfig.Type)

		adapter, err := sources.New(sourceConfig, r.client, r.userAgent)
		if err != nil {
			// A source that cannot even be constructed is treated like a
			// fetch failure: recorded, not fatal to the run.
			slog.Warn("Failed to build source adapter", "source", sourceConfig.Name, "error", err)
			allErrors = append(allErrors, *digest.NewSourceError(sourceConfig.Name, sourceConfig.Type, err.Error()))
			timedWait(ctx, sourceDelay)
			continue
		}

		result := adapter.Fetch(ctx, requestDelay)

		if result.Error != nil {
			slog.Warn("Source error", "source", sourceConfig.Name, "error", result.Error.Error)
			allErrors = append(allErrors, *result.Error)
		}

		if len(result.Items) > 0 {
			filtered := r.filter.Run(result.Items, sourceConfig.Name)
			allItems = append(allItems, filtered...)

			// Only items that survived filtering advance state, so dropped
			// items stay eligible on a later run where the window permits.
			if len(filtered) > 0 {
				newest := filtered[0]
				for _, item := range filtered[1:] {
					if item.Date.After(newest.Date) {
						newest = item
					}
				}
				r.state.UpdateSource(sourceConfig.Name, newest.Date, cmp.Or(newest.ItemID, newest.URL))
			}
		}

		timedWait(ctx, sourceDelay)
	}

	items := dedupeByURL(allItems)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})

	slog.Info("Pipeline run complete",
		"sources", len(r.config.Sources),
		"items", len(items),
		"errors", len(allErrors))

	return Result{
		Items:      items,
		Errors:     allErrors,
		TimeWindow: r.config.Filters.TimeWindow,
	}
}

// dedupeByURL keeps the first occurrence of each URL, preserving insertion
// order.
func dedupeByURL(items []digest.Item) []digest.Item {
	seen := make(map[string]bool, len(items))
	unique := make([]digest.Item, 0, len(items))

	for _, item := range items {
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		unique = append(unique, item)
	}

	return unique
}

// timedWait blocks for the inter-source delay or until the context is done.
func timedWait(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
