package config

import (
	"github.com/spf13/viper"
)

// DefaultBaseURL targets the Bright Data datasets v3 API.
const DefaultBaseURL = "https://api.brightdata.com/datasets/v3"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout_seconds", 30)

	// Collector defaults
	v.SetDefault("collector.poll_interval_seconds", 5) // balance responsiveness vs. load on the API
	v.SetDefault("collector.submit_retries", 3)
	v.SetDefault("collector.backup", true)
	v.SetDefault("collector.max_calls_per_minute", 0) // 0 = no client-side pacing

	// Database defaults
	v.SetDefault("database.path", "harvest.db")

	// Output defaults
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.dated", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// Bearer credential for the datasets API. Kept out of config files.
	v.BindEnv("api.token", "HARVEST_API_TOKEN")

	// Database path override
	v.BindEnv("database.path", "HARVEST_DATABASE_PATH")
}
