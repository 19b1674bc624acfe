package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"steamreviews/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "steamreviews",
	Short: "Collect daily review sentiment for a Steam app",
	Long: `steamreviews walks the Steam review feed of one app from newest to oldest,
keeps at most a fixed number of reviews per day inside a date window, and
writes one CSV row per day with likes, dislikes and a sentiment score.

Features:
  - Resumable runs through a checkpoint file
  - Retry with exponential backoff on transient upstream errors
  - Polite throttling between pages
  - Steam Web API key stored in the system keychain or an encrypted file
  - JSON run summary next to the report`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
			logLevel = "error"
		} else if verbose && logLevel == "" {
			logLevel = "debug"
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && !quiet {
			ui.PrintLogo()
		}
	},
	// Running without a subcommand collects reviews
	Run: func(cmd *cobra.Command, args []string) {
		runReviews(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .steamreviews.yaml or ~/.config/steamreviews/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when the run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logs and per-page progress")

	rootCmd.SetVersionTemplate(`steamreviews {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags returns the persistent flags that override configuration
func globalFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	return flags
}
