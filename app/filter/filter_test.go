package filter

import (
	"testing"
	"time"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
)

type stubState map[string]time.Time

func (s stubState) GetLastSeenDate(sourceName string) (time.Time, bool) {
	lastSeen, ok := s[sourceName]
	return lastSeen, ok
}

func itemAt(url string, date time.Time) digest.Item {
	return digest.Item{
		Title: "Item",
		URL:   url,
		Date:  date,
		Body:  "some body text that is long enough to pass default filters here",
	}
}

func baseConfig() config.FilterConfig {
	return config.FilterConfig{
		TimeWindow: "24h",
		UseState:   true,
	}
}

func TestContentFilter_Run_TimeWindowCutoff(t *testing.T) {
	contentFilter, err := New(baseConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	now := time.Now().UTC()
	items := []digest.Item{
		itemAt("https://a", now.Add(-1*time.Hour)),
		itemAt("https://b", now.Add(-48*time.Hour)),
	}

	result := contentFilter.Run(items, "src")

	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].URL != "https://a" {
		t.Errorf("Expected recent item to survive, got %s", result[0].URL)
	}
}

func TestContentFilter_Run_StateCutoff(t *testing.T) {
	now := time.Now().UTC()
	lastSeen := now.Add(-2 * time.Hour)
	stateReader := stubState{"src": lastSeen}

	contentFilter, err := New(baseConfig(), stateReader, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	items := []digest.Item{
		itemAt("https://new", now.Add(-1*time.Hour)),
		itemAt("https://seen", now.Add(-3*time.Hour)),
	}

	result := contentFilter.Run(items, "src")

	if len(result) != 1 || result[0].URL != "https://new" {
		t.Errorf("Expected only the item newer than the state cutoff, got %d items", len(result))
	}

	// A source with no recorded state falls back to the time window.
	result = contentFilter.Run(items, "other")
	if len(result) != 2 {
		t.Errorf("Expected time-window fallback to keep both items, got %d", len(result))
	}
}

func TestContentFilter_Run_ReferenceDateWinsOverState(t *testing.T) {
	now := time.Now().UTC()
	lastSeen := now.Add(-2 * time.Hour)
	stateReader := stubState{"src": lastSeen}

	// Reference date earlier than the state cutoff must let more items pass
	// than state-based filtering alone would allow.
	referenceDate := now.Add(-72 * time.Hour)

	withState, err := New(baseConfig(), stateReader, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	withReference, err := New(baseConfig(), stateReader, &referenceDate)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	items := []digest.Item{
		itemAt("https://a", now.Add(-1*time.Hour)),
		itemAt("https://b", now.Add(-24*time.Hour)),
		itemAt("https://c", now.Add(-48*time.Hour)),
	}

	stateResult := withState.Run(items, "src")
	referenceResult := withReference.Run(items, "src")

	if len(referenceResult) <= len(stateResult) {
		t.Errorf("Reference date should pass more items than state cutoff: got %d vs %d",
			len(referenceResult), len(stateResult))
	}
	if len(referenceResult) != 3 {
		t.Errorf("Expected all 3 items after the reference date, got %d", len(referenceResult))
	}
}

func TestContentFilter_Run_CutoffIsIdempotent(t *testing.T) {
	referenceDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	contentFilter, err := New(baseConfig(), nil, &referenceDate)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	items := []digest.Item{
		itemAt("https://a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		itemAt("https://b", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}

	first := contentFilter.Run(items, "src")
	second := contentFilter.Run(first, "src")

	if len(first) != len(second) {
		t.Errorf("Filter is not idempotent: %d items then %d", len(first), len(second))
	}
}

func TestContentFilter_Run_ExcludeWinsOverInclude(t *testing.T) {
	cfg := baseConfig()
	cfg.KeywordsInclude = []string{"alpha"}
	cfg.KeywordsExclude = []string{"beta"}

	contentFilter, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	item := itemAt("https://a", time.Now().UTC())
	item.Body = "alpha beta"

	result := contentFilter.Run([]digest.Item{item}, "src")

	if len(result) != 0 {
		t.Errorf("Item matching both include and exclude must be dropped, got %d items", len(result))
	}
}

func TestContentFilter_Run_IncludeRequiresMatch(t *testing.T) {
	cfg := baseConfig()
	cfg.KeywordsInclude = []string{"Kernel"}

	contentFilter, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	now := time.Now().UTC()
	matching := itemAt("https://a", now)
	matching.Title = "New kernel release"
	nonMatching := itemAt("https://b", now)
	nonMatching.Title = "Gardening tips"
	nonMatching.Body = "nothing relevant in this body but it is long enough anyway"

	result := contentFilter.Run([]digest.Item{matching, nonMatching}, "src")

	if len(result) != 1 || result[0].URL != "https://a" {
		t.Errorf("Expected only the matching item to survive (case-insensitive), got %d items", len(result))
	}
}

func TestContentFilter_Run_LengthBoundaryIsInclusive(t *testing.T) {
	cfg := baseConfig()
	cfg.MinContentLength = 10

	contentFilter, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	now := time.Now().UTC()
	exact := itemAt("https://exact", now)
	exact.Body = "0123456789" // exactly 10
	short := itemAt("https://short", now)
	short.Body = "012345678" // 9

	result := contentFilter.Run([]digest.Item{exact, short}, "src")

	if len(result) != 1 || result[0].URL != "https://exact" {
		t.Errorf("Expected exact-length item kept and shorter dropped, got %d items", len(result))
	}
}

func TestContentFilter_Run_LengthCountsCharactersNotBytes(t *testing.T) {
	cfg := baseConfig()
	cfg.MinContentLength = 6

	contentFilter, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	now := time.Now().UTC()
	short := itemAt("https://short", now)
	short.Body = "ééééé" // 5 characters, 10 bytes
	exact := itemAt("https://exact", now)
	exact.Body = "éééééé" // 6 characters, 12 bytes

	result := contentFilter.Run([]digest.Item{short, exact}, "src")

	if len(result) != 1 || result[0].URL != "https://exact" {
		t.Errorf("Threshold must count characters, not bytes, got %d items", len(result))
	}
}

func TestContentFilter_Run_LengthStageDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.MinContentLength = 0

	contentFilter, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	item := itemAt("https://a", time.Now().UTC())
	item.Body = ""

	result := contentFilter.Run([]digest.Item{item}, "src")

	if len(result) != 1 {
		t.Errorf("Non-positive threshold must disable the length stage, got %d items", len(result))
	}
}

func TestNew_InvalidWindow(t *testing.T) {
	cfg := baseConfig()
	cfg.TimeWindow = "yesterday"

	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("New should reject an invalid time window")
	}
}
