package cfg

type Cfg struct {
	// Run configuration
	ConfigPath string
	StateDir   string
	OutputDir  string
	DryRun     bool
	Date       string

	// HTTP client configuration
	UserAgent string
	Timeout   int

	// Application metadata
	Verbose bool
	Version string
}
