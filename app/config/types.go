package config

import "fmt"

// Config is a complete digest configuration loaded from a YAML file.
type Config struct {
	Name        string
	Slug        string
	Description string
	Schedule    string
	Sources     []SourceConfig
	Filters     FilterConfig
	RateLimit   RateLimitConfig
	Summarizer  SummarizerConfig
	Outputs     []OutputConfig
}

// SourceConfig holds the name and type of a source plus its type-specific
// configuration map. Adapters decode the map into their own config structs.
type SourceConfig struct {
	Name   string
	Type   string
	Config map[string]any
}

type FilterConfig struct {
	TimeWindow       string
	UseState         bool
	KeywordsInclude  []string
	KeywordsExclude  []string
	MinContentLength int
}

type RateLimitConfig struct {
	DelayBetweenSources  float64 // seconds
	DelayBetweenRequests float64 // seconds
}

type SummarizerConfig struct {
	Provider  string
	Model     string
	MaxTokens int
	Prompt    string
}

type OutputConfig struct {
	Type   string
	Config map[string]any
}

// ConfigError marks a configuration problem; the CLI maps it to exit code 2.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
