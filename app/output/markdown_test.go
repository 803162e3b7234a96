package output

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/digestbot/digest/app/config"
	"github.com/digestbot/digest/app/digest"
)

func testMetadata() digest.Metadata {
	return digest.Metadata{
		Title:          "Go Weekly - 2025-06-02",
		Date:           "2025-06-02",
		GeneratedAt:    "2025-06-02T12:00:00Z",
		Config:         "go-weekly",
		SourcesFetched: 3,
		SourcesFailed:  0,
		ItemsProcessed: 7,
		TimeWindow:     "7d",
	}
}

func TestNew_UnknownOutputType(t *testing.T) {
	_, err := New(config.OutputConfig{Type: "carrier-pigeon"})
	if err == nil {
		t.Error("Expected error for unknown output type")
	}
}

func TestMarkdownWriter_Write_PathTemplate(t *testing.T) {
	dir := t.TempDir()
	writer, err := newMarkdownWriter(map[string]any{
		"path": filepath.Join(dir, "{slug}", "{date}.md"),
	})
	if err != nil {
		t.Fatalf("newMarkdownWriter failed: %v", err)
	}

	path, err := writer.Write(context.Background(), "# Digest", testMetadata(), nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := filepath.Join(dir, "go-weekly", "2025-06-02.md")
	if path != expected {
		t.Errorf("Expected path %q, got %q", expected, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Digest file not written: %v", err)
	}
}

func TestMarkdownWriter_Write_Frontmatter(t *testing.T) {
	dir := t.TempDir()
	writer, err := newMarkdownWriter(map[string]any{
		"path": filepath.Join(dir, "digest.md"),
	})
	if err != nil {
		t.Fatalf("newMarkdownWriter failed: %v", err)
	}

	metadata := testMetadata()
	metadata.SourcesFailed = 1
	metadata.Errors = []digest.SourceError{
		{SourceName: "Dead Feed", Error: "HTTP 404 - Not Found"},
	}

	path, err := writer.Write(context.Background(), "# Digest body", metadata, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		t.Fatalf("Expected frontmatter delimiter at start, got %q", content[:20])
	}

	sections := strings.SplitN(content, "---", 3)
	if len(sections) != 3 {
		t.Fatalf("Expected frontmatter block, got %d sections", len(sections))
	}

	var parsed struct {
		Title          string `yaml:"title"`
		Date           string `yaml:"date"`
		SourcesFailed  int    `yaml:"sources_failed"`
		ItemsProcessed int    `yaml:"items_processed"`
		TimeWindow     string `yaml:"time_window"`
		Errors         []struct {
			Source string `yaml:"source"`
			Error  string `yaml:"error"`
		} `yaml:"errors"`
	}
	if err := yaml.Unmarshal([]byte(sections[1]), &parsed); err != nil {
		t.Fatalf("Frontmatter is not valid YAML: %v", err)
	}
	if parsed.Title != "Go Weekly - 2025-06-02" || parsed.TimeWindow != "7d" {
		t.Errorf("Unexpected frontmatter contents: %+v", parsed)
	}
	if parsed.ItemsProcessed != 7 || parsed.SourcesFailed != 1 {
		t.Errorf("Counters missing from frontmatter: %+v", parsed)
	}
	if len(parsed.Errors) != 1 || parsed.Errors[0].Source != "Dead Feed" {
		t.Errorf("Errors missing from frontmatter: %+v", parsed.Errors)
	}

	if !strings.Contains(sections[2], "# Digest body") {
		t.Error("Digest content missing after frontmatter")
	}
}

func TestMarkdownWriter_Write_FrontmatterDisabled(t *testing.T) {
	dir := t.TempDir()
	writer, err := newMarkdownWriter(map[string]any{
		"path":        filepath.Join(dir, "digest.md"),
		"frontmatter": false,
	})
	if err != nil {
		t.Fatalf("newMarkdownWriter failed: %v", err)
	}

	path, err := writer.Write(context.Background(), "# Digest body", testMetadata(), nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.HasPrefix(string(data), "---") {
		t.Error("Frontmatter should be omitted when disabled")
	}
}

func TestMarkdownWriter_Write_ErrorsSection(t *testing.T) {
	dir := t.TempDir()
	writer, err := newMarkdownWriter(map[string]any{
		"path":        filepath.Join(dir, "digest.md"),
		"frontmatter": false,
	})
	if err != nil {
		t.Fatalf("newMarkdownWriter failed: %v", err)
	}

	metadata := testMetadata()
	metadata.Errors = []digest.SourceError{
		{SourceName: "Dead Feed", Error: "timeout"},
	}

	path, err := writer.Write(context.Background(), "# Body", metadata, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)

	if !strings.Contains(content, "## Source Errors") {
		t.Error("Expected Source Errors section")
	}
	if !strings.Contains(content, "- **Dead Feed**: timeout") {
		t.Errorf("Expected error entry, got:\n%s", content)
	}
}

func TestMarkdownWriter_Write_CleanRunOmitsErrorsSection(t *testing.T) {
	dir := t.TempDir()
	writer, _ := newMarkdownWriter(map[string]any{
		"path":        filepath.Join(dir, "digest.md"),
		"frontmatter": false,
	})

	path, err := writer.Write(context.Background(), "# Body", testMetadata(), nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "## Source Errors") {
		t.Error("Clean run should not include a Source Errors section")
	}
}
