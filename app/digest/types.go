package digest

import "time"

// Item is a content record reduced to the common schema, independent of
// which source type produced it. Date is always UTC; Body is plain text.
type Item struct {
	Title      string
	URL        string
	Date       time.Time
	Author     string
	Body       string
	SourceName string
	SourceType string
	ItemID     string
}

// SourceError records a single source's fetch failure for the current run.
type SourceError struct {
	SourceName string
	SourceType string
	Error      string
	Timestamp  time.Time
}

// FetchResult is what an adapter hands back to the pipeline. Error is set
// only when the entire source is unusable for this run; per-entry
// normalization failures are dropped silently.
type FetchResult struct {
	SourceName string
	Items      []Item
	Error      *SourceError
}

// Metadata describes a generated digest.
type Metadata struct {
	Title          string
	Date           string
	GeneratedAt    string
	Config         string
	SourcesFetched int
	SourcesFailed  int
	ItemsProcessed int
	TimeWindow     string
	Errors         []SourceError
}

func NewSourceError(sourceName, sourceType, message string) *SourceError {
	return &SourceError{
		SourceName: sourceName,
		SourceType: sourceType,
		Error:      message,
		Timestamp:  time.Now().UTC(),
	}
}
