package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// rawConfig mirrors the YAML file shape before defaults are resolved.
type rawConfig struct {
	Meta struct {
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
		Schedule    string `yaml:"schedule"`
	} `yaml:"meta"`
	Sources []map[string]any `yaml:"sources"`
	Filters struct {
		TimeWindow string `yaml:"time_window"`
		UseState   *bool  `yaml:"use_state"`
		Keywords   struct {
			Include []string `yaml:"include"`
			Exclude []string `yaml:"exclude"`
		} `yaml:"keywords"`
		MinContentLength *int `yaml:"min_content_length"`
	} `yaml:"filters"`
	RateLimit struct {
		DelayBetweenSources  *float64 `yaml:"delay_between_sources"`
		DelayBetweenRequests *float64 `yaml:"delay_between_requests"`
	} `yaml:"rate_limit"`
	Summarizer struct {
		Provider   string `yaml:"provider"`
		Model      string `yaml:"model"`
		MaxTokens  int    `yaml:"max_tokens"`
		Prompt     string `yaml:"prompt"`
		PromptFile string `yaml:"prompt_file"`
	} `yaml:"summarizer"`
	Outputs []map[string]any `yaml:"outputs"`
}

// Load reads, interpolates and validates a digest configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newConfigError("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = interpolateEnvVars(data)

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, newConfigError("failed to parse YAML: %v", err)
	}

	config, err := resolve(&raw, filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded digest configuration", "path", path, "sources", len(config.Sources))

	return config, nil
}

func resolve(raw *rawConfig, baseDir string) (*Config, error) {
	if raw.Meta.Name == "" {
		return nil, newConfigError("missing 'meta.name' in config")
	}
	if raw.Meta.Slug == "" {
		return nil, newConfigError("missing 'meta.slug' in config")
	}
	if len(raw.Sources) == 0 {
		return nil, newConfigError("missing 'sources' section in config")
	}
	if raw.Summarizer.Provider == "" {
		return nil, newConfigError("missing 'summarizer.provider' in config")
	}
	if raw.Summarizer.Model == "" {
		return nil, newConfigError("missing 'summarizer.model' in config")
	}

	sources := make([]SourceConfig, 0, len(raw.Sources))
	for _, sourceData := range raw.Sources {
		name, _ := sourceData["name"].(string)
		if name == "" {
			return nil, newConfigError("source missing 'name' field")
		}
		sourceType, _ := sourceData["type"].(string)
		if sourceType == "" {
			return nil, newConfigError("source '%s' missing 'type' field", name)
		}

		sourceConfig := make(map[string]any, len(sourceData))
		for k, v := range sourceData {
			if k == "name" || k == "type" {
				continue
			}
			sourceConfig[k] = v
		}
		sources = append(sources, SourceConfig{Name: name, Type: sourceType, Config: sourceConfig})
	}

	prompt := raw.Summarizer.Prompt
	if raw.Summarizer.PromptFile != "" {
		promptPath := filepath.Join(baseDir, raw.Summarizer.PromptFile)
		promptData, err := os.ReadFile(promptPath)
		if err != nil {
			return nil, newConfigError("prompt file not found: %s", promptPath)
		}
		prompt = string(promptData)
	}
	if prompt == "" {
		return nil, newConfigError("missing 'summarizer.prompt' or 'summarizer.prompt_file' in config")
	}

	outputs := make([]OutputConfig, 0, len(raw.Outputs))
	for _, outputData := range raw.Outputs {
		outputType, _ := outputData["type"].(string)
		if outputType == "" {
			return nil, newConfigError("output missing 'type' field")
		}
		outputConfig := make(map[string]any, len(outputData))
		for k, v := range outputData {
			if k == "type" {
				continue
			}
			outputConfig[k] = v
		}
		outputs = append(outputs, OutputConfig{Type: outputType, Config: outputConfig})
	}

	// Default to markdown output if none specified
	if len(outputs) == 0 {
		outputs = append(outputs, OutputConfig{
			Type: "markdown",
			Config: map[string]any{
				"path":        "digests/{slug}/{date}.md",
				"frontmatter": true,
			},
		})
	}

	config := &Config{
		Name:        raw.Meta.Name,
		Slug:        raw.Meta.Slug,
		Description: raw.Meta.Description,
		Schedule:    raw.Meta.Schedule,
		Sources:     sources,
		Filters: FilterConfig{
			TimeWindow:       raw.Filters.TimeWindow,
			UseState:         true,
			KeywordsInclude:  raw.Filters.Keywords.Include,
			KeywordsExclude:  raw.Filters.Keywords.Exclude,
			MinContentLength: 50,
		},
		RateLimit: RateLimitConfig{
			DelayBetweenSources:  2.0,
			DelayBetweenRequests: 1.0,
		},
		Summarizer: SummarizerConfig{
			Provider:  raw.Summarizer.Provider,
			Model:     raw.Summarizer.Model,
			MaxTokens: raw.Summarizer.MaxTokens,
			Prompt:    prompt,
		},
		Outputs: outputs,
	}

	// Resolve defaults for optional sections
	if config.Filters.TimeWindow == "" {
		config.Filters.TimeWindow = "24h"
	}
	if raw.Filters.UseState != nil {
		config.Filters.UseState = *raw.Filters.UseState
	}
	if raw.Filters.MinContentLength != nil {
		config.Filters.MinContentLength = *raw.Filters.MinContentLength
	}
	if raw.RateLimit.DelayBetweenSources != nil {
		config.RateLimit.DelayBetweenSources = *raw.RateLimit.DelayBetweenSources
	}
	if raw.RateLimit.DelayBetweenRequests != nil {
		config.RateLimit.DelayBetweenRequests = *raw.RateLimit.DelayBetweenRequests
	}
	if config.Summarizer.MaxTokens == 0 {
		config.Summarizer.MaxTokens = 4096
	}

	return config, nil
}
