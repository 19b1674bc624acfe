package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"steamreviews/pkg/auth"
	"steamreviews/pkg/config"
	"steamreviews/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage steamreviews configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (STEAMREVIEWS_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.steamreviews.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

The API key is masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Date format and window order
  - Pagination limits
  - Output and checkpoint paths`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# steamreviews configuration file
#
# Every option can also be set with an environment variable prefixed with
# STEAMREVIEWS_, for example STEAMREVIEWS_APP_ID or STEAMREVIEWS_START_DATE.

# Review feed
steam:
  # Steam app id (730 is Counter-Strike 2)
  app_id: "730"

  # Steam Web API key (optional)
  # Prefer 'steamreviews auth login' over storing it here
  api_key: ""

  base_url: "https://store.steampowered.com"
  language: "all"
  filter: "all"
  review_type: "all"
  purchase_type: "all"
  request_timeout: 10s

# Date window, YYYY-MM-DD
window:
  start_date: "2024-11-01"
  # The end day itself is excluded except for reviews stamped exactly at midnight
  end_date: "2024-12-11"

pagination:
  # Reviews requested per page (the API may return fewer)
  page_size: 1000
  # Stop once this many pages have been walked
  max_pages: 100
  # Reviews kept per day
  daily_cap: 100

# Retry on 429 and 5xx responses
retry:
  max_attempts: 6
  base_delay: 1s
  max_delay: 30s
  multiplier: 2.0

rate_limit:
  # Pause between pages
  page_delay: 100ms
  # Optional token bucket on top of the pause, 0 disables it
  requests_per_minute: 0

output:
  report_path: "cs2_reviews.csv"
  # Write <report>.summary.json next to the report
  summary: true
  # Byte order mark so spreadsheet tools detect UTF-8
  utf8_bom: true

checkpoint:
  path: "state.json"

notifications:
  enabled: false

logging:
  # Log level: debug, info, warn, error
  level: "info"
  # Log file path (optional); logs always go to stderr too
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".steamreviews.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the app id and date window")
	fmt.Println("2. Run 'steamreviews config validate' to check the configuration")
	fmt.Println("3. Start collecting with 'steamreviews run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.Steam.APIKey != "" {
		displayCfg.Steam.APIKey = auth.MaskKey(displayCfg.Steam.APIKey)
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (STEAMREVIEWS_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	} else {
		ui.PrintInfo("Validating configuration", "defaults, environment and default file locations")
	}

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if cfg.Steam.APIKey == "" {
		warnings = append(warnings, "No API key configured; stored keys and the public endpoint will be used")
	} else if !auth.ValidAPIKey(cfg.Steam.APIKey) {
		warnings = append(warnings, "API key does not look like a 32-character Steam Web API key")
	}
	if cfg.Pagination.PageSize > 100 {
		warnings = append(warnings, fmt.Sprintf("page_size %d: Steam returns at most 100 reviews per page", cfg.Pagination.PageSize))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  App: %s\n", cfg.Steam.AppID)
	fmt.Printf("  Window: %s .. %s\n", cfg.Window.StartDate, cfg.Window.EndDate)
	fmt.Printf("  Daily cap: %d\n", cfg.Pagination.DailyCap)
	fmt.Printf("  Max pages: %d\n", cfg.Pagination.MaxPages)
	fmt.Printf("  Report: %s\n", cfg.Output.ReportPath)
	fmt.Printf("  Checkpoint: %s\n", cfg.Checkpoint.Path)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
