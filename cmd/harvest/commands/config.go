package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/harvest/config"
)

// ConfigCmd manages harvest configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage harvest configuration",
	Long: `Manage harvest configuration.

Configuration is merged from three layers, later layers winning:
  1. User config:    ~/.harvest/config.toml
  2. Project config: harvest.toml (or config.toml) found walking up from cwd
  3. Environment:    HARVEST_* variables

The API token is only ever read from the HARVEST_API_TOKEN environment
variable and cannot be written to a config file.

Examples:
  harvest config show
  harvest config set collector.poll_interval_seconds 10
  harvest config set output.dir ./data
  harvest config path`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// ConfigShowCmd prints the effective configuration
var ConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow()
	},
}

// ConfigSetCmd writes one value to the user config file
var ConfigSetCmd = &cobra.Command{
	Use:   "set <section.field> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetUserValue(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

// ConfigPathCmd prints the user config file path
var ConfigPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the user config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(config.UserConfigPath())
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(ConfigShowCmd)
	ConfigCmd.AddCommand(ConfigSetCmd)
	ConfigCmd.AddCommand(ConfigPathCmd)
}

func runConfigShow() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token := "(not set)"
	if cfg.API.Token != "" {
		token = "(set via HARVEST_API_TOKEN)"
	}

	fmt.Printf("api:\n")
	fmt.Printf("  token: %s\n", token)
	fmt.Printf("  base_url: %s\n", cfg.API.BaseURL)
	fmt.Printf("  timeout_seconds: %d\n", cfg.API.TimeoutSeconds)
	fmt.Printf("collector:\n")
	fmt.Printf("  poll_interval_seconds: %d\n", cfg.Collector.PollIntervalSeconds)
	fmt.Printf("  submit_retries: %d\n", cfg.Collector.SubmitRetries)
	fmt.Printf("  backup: %t\n", cfg.Collector.Backup)
	fmt.Printf("  max_calls_per_minute: %d\n", cfg.Collector.MaxCallsPerMinute)
	fmt.Printf("database:\n")
	fmt.Printf("  path: %s\n", cfg.Database.Path)
	fmt.Printf("output:\n")
	fmt.Printf("  dir: %s\n", cfg.Output.Dir)
	fmt.Printf("  dated: %t\n", cfg.Output.Dated)
	return nil
}
