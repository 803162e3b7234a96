package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateEnvVars replaces ${VAR} patterns with environment variable
// values. Unset variables keep the original pattern so secrets referenced
// only at runtime survive the round-trip.
func interpolateEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(envVarPattern.FindSubmatch(match)[1])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		return match
	})
}

// DecodeSection decodes a generic configuration map into a typed struct
// using YAML field tags. Adapters use it to pull their own config shape
// out of SourceConfig.Config and OutputConfig.Config.
func DecodeSection(section map[string]any, out any) error {
	data, err := yaml.Marshal(section)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// GetSourceDelay returns the inter-source delay as time.Duration.
func (r *RateLimitConfig) GetSourceDelay() time.Duration {
	if r.DelayBetweenSources <= 0 {
		return 0
	}
	return time.Duration(r.DelayBetweenSources * float64(time.Second))
}

// GetRequestDelay returns the inter-request delay as time.Duration.
func (r *RateLimitConfig) GetRequestDelay() time.Duration {
	if r.DelayBetweenRequests <= 0 {
		return 0
	}
	return time.Duration(r.DelayBetweenRequests * float64(time.Second))
}
