package config

// Config represents the core harvest configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Collector CollectorConfig `mapstructure:"collector"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Output    OutputConfig    `mapstructure:"output"`
}

// APIConfig configures access to the datasets API
type APIConfig struct {
	// Token is the pre-issued bearer credential. Never stored in the
	// project config file; bind via HARVEST_API_TOKEN instead.
	Token          string `mapstructure:"token"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // per-request timeout
}

// CollectorConfig configures the collection workflow
type CollectorConfig struct {
	PollIntervalSeconds int  `mapstructure:"poll_interval_seconds"` // delay between status checks (default: 5)
	SubmitRetries       int  `mapstructure:"submit_retries"`        // trigger attempts on rate limiting (default: 3)
	Backup              bool `mapstructure:"backup"`                // keep timestamped backup before overwriting output
	MaxCallsPerMinute   int  `mapstructure:"max_calls_per_minute"`  // client-side pacing, 0 = unlimited
}

// DatabaseConfig configures the SQLite run-history database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig configures where collected snapshots are written
type OutputConfig struct {
	Dir   string `mapstructure:"dir"`
	Dated bool   `mapstructure:"dated"` // append YYYYMMDD to default filenames
}
