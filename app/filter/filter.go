package filter

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
)

// StateReader supplies per-source incremental cutoffs. Implemented by the
// state store; nil disables state-based filtering.
type StateReader interface {
	GetLastSeenDate(sourceName string) (time.Time, bool)
}

// ContentFilter applies the three filter stages in fixed order: cutoff,
// keywords, minimum length.
type ContentFilter struct {
	config        config.FilterConfig
	window        time.Duration
	state         StateReader
	referenceDate *time.Time
}

// New builds a ContentFilter. The time window string is parsed once here so
// an invalid window fails before any network activity. A non-nil
// referenceDate puts the filter in backfill mode: the cutoff is the
// reference date itself and state is bypassed entirely.
func New(cfg config.FilterConfig, state StateReader, referenceDate *time.Time) (*ContentFilter, error) {
	window, err := ParseWindow(cfg.TimeWindow)
	if err != nil {
		return nil, err
	}

	return &ContentFilter{
		config:        cfg,
		window:        window,
		state:         state,
		referenceDate: referenceDate,
	}, nil
}

// Run filters items for one source. sourceName keys the state lookup; pass
// an empty string to skip state-based cutoffs.
func (f *ContentFilter) Run(items []digest.Item, sourceName string) []digest.Item {
	originalCount := len(items)

	items = f.filterByCutoff(items, sourceName)
	items = f.filterByKeywords(items)
	items = f.filterByLength(items)

	slog.Debug("Filtered items", "source", sourceName, "before", originalCount, "after", len(items))

	return items
}

// filterByCutoff keeps items strictly after the active cutoff. Exactly one
// cutoff applies per invocation: reference date, state, or time window, in
// that precedence order.
func (f *ContentFilter) filterByCutoff(items []digest.Item, sourceName string) []digest.Item {
	var cutoff time.Time
	haveCutoff := false

	if f.referenceDate != nil {
		cutoff = *f.referenceDate
		haveCutoff = true
	}

	if !haveCutoff && f.config.UseState && f.state != nil && sourceName != "" {
		if lastSeen, ok := f.state.GetLastSeenDate(sourceName); ok {
			cutoff = lastSeen
			haveCutoff = true
		}
	}

	if !haveCutoff {
		cutoff = time.Now().UTC().Add(-f.window)
	}

	kept := make([]digest.Item, 0, len(items))
	for _, item := range items {
		if item.Date.After(cutoff) {
			kept = append(kept, item)
		}
	}
	return kept
}

func (f *ContentFilter) filterByKeywords(items []digest.Item) []digest.Item {
	kept := items

	if len(f.config.KeywordsInclude) > 0 {
		included := make([]digest.Item, 0, len(kept))
		for _, item := range kept {
			if matchesAny(item, f.config.KeywordsInclude) {
				included = append(included, item)
			}
		}
		kept = included
	}

	if len(f.config.KeywordsExclude) > 0 {
		retained := make([]digest.Item, 0, len(kept))
		for _, item := range kept {
			if !matchesAny(item, f.config.KeywordsExclude) {
				retained = append(retained, item)
			}
		}
		kept = retained
	}

	return kept
}

func (f *ContentFilter) filterByLength(items []digest.Item) []digest.Item {
	if f.config.MinContentLength <= 0 {
		return items
	}

	kept := make([]digest.Item, 0, len(items))
	for _, item := range items {
		// The threshold counts characters, not bytes.
		if utf8.RuneCountInString(item.Body) >= f.config.MinContentLength {
			kept = append(kept, item)
		}
	}
	return kept
}

func matchesAny(item digest.Item, keywords []string) bool {
	text := strings.ToLower(item.Title + " " + item.Body)
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
