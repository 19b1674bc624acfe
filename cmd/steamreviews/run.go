package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"steamreviews/pkg/auth"
	"steamreviews/pkg/config"
	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/scraper"
	"steamreviews/pkg/ui"
)

var (
	// Run command flags
	appID          string
	apiKey         string
	startDate      string
	endDate        string
	pageSize       int
	maxPages       int
	dailyCap       int
	outputPath     string
	checkpointPath string
	freshStart     bool
	accountName    string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect reviews and write the daily sentiment report",
	Long: `Walk the review feed of one Steam app from newest to oldest and write one
CSV row per day inside the date window.

The walk stops when the page limit is reached, a page cannot be fetched, the
feed runs out, the feed passes the start of the window, or every day in the
window already holds the daily cap. Every one of those is a normal finish:
the report is written from whatever was collected and the process exits 0.

Progress is checkpointed after every page. Running again resumes from the
checkpoint unless --fresh is given.`,
	Example: `  # Counter-Strike 2 with the default window
  steamreviews run

  # Another app and window
  steamreviews run --app-id 570 --start 2024-06-01 --end 2024-07-01 --output dota2.csv

  # Ignore an existing checkpoint
  steamreviews run --fresh

  # Use a specific stored API key
  steamreviews run --account work`,
	Args: cobra.NoArgs,
	Run:  runReviews,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addRunFlags(runCmd.Flags())
	// Running without a subcommand takes the same flags
	addRunFlags(rootCmd.Flags())
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.StringVar(&appID, "app-id", "", "Steam app id (default 730)")
	fs.StringVar(&apiKey, "api-key", "", "Steam Web API key (overrides stored keys)")
	fs.StringVar(&startDate, "start", "", "first day of the window, YYYY-MM-DD")
	fs.StringVar(&endDate, "end", "", "end of the window, YYYY-MM-DD (exclusive except at midnight)")
	fs.IntVar(&pageSize, "page-size", 0, "reviews requested per page")
	fs.IntVar(&maxPages, "max-pages", 0, "maximum page index to reach before stopping")
	fs.IntVar(&dailyCap, "daily-cap", 0, "maximum reviews admitted per day")
	fs.StringVarP(&outputPath, "output", "o", "", "report CSV path")
	fs.StringVar(&checkpointPath, "checkpoint", "", "checkpoint file path")
	fs.BoolVar(&freshStart, "fresh", false, "delete the checkpoint and start from the newest review")
	fs.StringVarP(&accountName, "account", "a", "", "use a specific stored API key")
}

// runFlags collects the flags given on the command line
func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)

	strs := map[string]string{
		"app-id":     appID,
		"api-key":    apiKey,
		"start":      startDate,
		"end":        endDate,
		"output":     outputPath,
		"checkpoint": checkpointPath,
	}
	for name, value := range strs {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}

	ints := map[string]int{
		"page-size": pageSize,
		"max-pages": maxPages,
		"daily-cap": dailyCap,
	}
	for name, value := range ints {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}

	return flags
}

func runReviews(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, runFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("steamreviews starting")

	if err := resolveAPIKey(cfg); err != nil {
		ui.PrintError("Failed to load API key", err.Error())
		ui.PrintInfo("Stored accounts", "Use 'steamreviews auth list' to see them")
		os.Exit(1)
	}

	ui.PrintInfo("App", cfg.Steam.AppID)
	ui.PrintInfo("Window", fmt.Sprintf("%s .. %s", cfg.Window.StartDate, cfg.Window.EndDate))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		stop()
		os.Exit(1)
	}

	result, err := s.Run(ctx, scraper.RunOptions{Fresh: freshStart})
	if err != nil {
		logger.WithError(err).WithField("app_id", cfg.Steam.AppID).Error("Run failed")
		if errs.IsConfig(err) {
			ui.PrintError("Invalid configuration", err.Error())
		} else {
			ui.PrintError("Run failed", err.Error())
		}
		stop()
		os.Exit(1)
	}

	state := result.State
	switch {
	case state.Reason == scraper.FetchFailed:
		ui.PrintWarning("Walk ended early", state.Err)
	case state.Reason == scraper.Interrupted:
		ui.PrintWarning("Interrupted", "run again to resume from the checkpoint")
	}

	if result.Empty {
		ui.PrintWarning("No reviews in the window", "no report written")
		return
	}
	ui.PrintSuccess("Report written: " + result.ReportPath)
	if result.SummaryPath != "" {
		ui.PrintInfo("Summary", result.SummaryPath)
	}
}

// resolveAPIKey fills in the API key from the credential stores when neither
// a flag nor the environment provided one. A missing key is not an error.
func resolveAPIKey(cfg *config.Config) error {
	if accountName == "" && cfg.Steam.APIKey != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		if accountName != "" {
			return err
		}
		logger.WithError(err).Warn("Credential stores unavailable")
		return nil
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
	} else {
		account, err = manager.RetrieveDefault()
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return nil
		}
	}
	if err != nil {
		return err
	}

	cfg.Steam.APIKey = account.APIKey
	logger.WithField("account", account.Name).Info("Using stored API key")
	ui.PrintInfo("Using account", account.Name)
	return nil
}
