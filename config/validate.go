package config

import (
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/httpclient"
)

// Validate checks that the configuration is valid.
// The API token is deliberately NOT validated here: commands that never
// contact the API (config show, runs, version) must work without one.
// Token presence is enforced at client construction.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url cannot be empty")
	}
	if _, err := httpclient.ValidateBaseURL(c.API.BaseURL); err != nil {
		return errors.Wrap(err, "api.base_url")
	}

	if c.API.TimeoutSeconds <= 0 {
		return errors.Newf("api.timeout_seconds must be > 0, got %d", c.API.TimeoutSeconds)
	}

	if c.Collector.PollIntervalSeconds <= 0 {
		return errors.Newf("collector.poll_interval_seconds must be > 0, got %d", c.Collector.PollIntervalSeconds)
	}

	if c.Collector.SubmitRetries <= 0 {
		return errors.Newf("collector.submit_retries must be > 0, got %d", c.Collector.SubmitRetries)
	}

	// 0 = no client-side pacing, negative = invalid
	if c.Collector.MaxCallsPerMinute < 0 {
		return errors.Newf("collector.max_calls_per_minute must be >= 0, got %d", c.Collector.MaxCallsPerMinute)
	}

	return nil
}
