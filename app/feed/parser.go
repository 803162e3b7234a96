package feed

import (
	"bytes"
	"cmp"
	"log/slog"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/digestbot/digest/app/digest"
)

// Parser parses RSS/Atom feed payloads and normalizes entries to the
// common item schema. A single Parser is shared by all feed-backed
// adapters; gofeed.Parser is stateless across Parse calls.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses feed data and returns the normalized items. Entries that fail
// normalization are dropped individually; a parse failure of the whole
// payload is the only error condition.
func (p *Parser) Run(data []byte, sourceName, sourceType string) ([]digest.Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	items := make([]digest.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			slog.Warn("Skipping nil feed entry", "source", sourceName)
			continue
		}
		items = append(items, p.normalizeEntry(entry, sourceName, sourceType))
	}

	return items, nil
}

func (p *Parser) normalizeEntry(entry *gofeed.Item, sourceName, sourceType string) digest.Item {
	url := entry.Link
	if url == "" && len(entry.Links) > 0 {
		url = entry.Links[0]
	}

	body := cmp.Or(entry.Content, entry.Description)

	item := digest.Item{
		Title:      cmp.Or(entry.Title, "Untitled"),
		URL:        url,
		Date:       p.extractDate(entry),
		Author:     p.extractAuthor(entry),
		Body:       CleanHTML(body),
		SourceName: sourceName,
		SourceType: sourceType,
		ItemID:     cmp.Or(entry.GUID, url),
	}

	return item
}

// extractDate resolves an entry date: structured parsed times first
// (published, then updated), then raw date strings, falling back to the
// current time. Results are always UTC.
func (p *Parser) extractDate(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}

	for _, raw := range []string{entry.Published, entry.Updated} {
		if raw == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(raw); err == nil {
			return parsed.UTC()
		}
	}

	return time.Now().UTC()
}

func (p *Parser) extractAuthor(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		return entry.Authors[0].Name
	}
	return ""
}
