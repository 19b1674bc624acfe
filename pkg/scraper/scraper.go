package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"steamreviews/pkg/checkpoint"
	"steamreviews/pkg/config"
	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metadata"
	"steamreviews/pkg/models"
	"steamreviews/pkg/ratelimit"
	"steamreviews/pkg/report"
	"steamreviews/pkg/steam"
	"steamreviews/pkg/storage"
	"steamreviews/pkg/ui"
	"steamreviews/pkg/window"
)

// Scraper orchestrates a collection run: walk the review feed, build the
// daily report and write it out.
type Scraper struct {
	client        PageFetcher
	checkpointMgr *checkpoint.Manager
	rateLimiter   ratelimit.Limiter
	progress      *ui.ProgressDisplay
	notifier      *ui.Notifier
	config        *config.Config
	logger        logger.Logger
}

// RunOptions control a single run
type RunOptions struct {
	// Fresh discards any existing checkpoint before walking
	Fresh bool
}

// Result describes what a run produced
type Result struct {
	State       *FinalState
	Rows        []report.Row
	ReportPath  string
	SummaryPath string
	// Empty is set when nothing was aggregated and no report was written
	Empty bool
}

// New creates a new Scraper instance
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	checkpointMgr, err := checkpoint.NewManager(cfg.Checkpoint.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	checkpointMgr.WithLogger(log)

	debugMode := strings.ToLower(cfg.Logging.Level) == "debug"

	s := &Scraper{
		client:        steam.NewClientFromConfig(cfg, log),
		checkpointMgr: checkpointMgr,
		rateLimiter:   ratelimit.ForPages(cfg.RateLimit.PageDelay, cfg.RateLimit.RequestsPerMinute),
		progress:      ui.NewProgressDisplay(cfg.Steam.AppID, cfg.Pagination.MaxPages, debugMode),
		config:        cfg,
		logger:        log,
	}
	if cfg.Notifications.Enabled {
		s.notifier = ui.NewNotifier()
	}
	return s, nil
}

// Checkpoints returns the checkpoint manager used by the run
func (s *Scraper) Checkpoints() *checkpoint.Manager {
	return s.checkpointMgr
}

// Run performs one collection run. Every stop reason counts as a completed
// run; an error is only returned for setup problems before the walk or when
// the output files cannot be written.
func (s *Scraper) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	startedAt := time.Now().UTC()

	params, err := s.params()
	if err != nil {
		return nil, err
	}

	output, err := storage.ForFile(s.config.Output.ReportPath)
	if err != nil {
		return nil, errs.NewConfigError(fmt.Errorf("invalid output path %s: %w", s.config.Output.ReportPath, err))
	}

	if opts.Fresh && s.checkpointMgr.Exists() {
		if err := s.checkpointMgr.Delete(); err != nil {
			return nil, fmt.Errorf("failed to delete checkpoint: %w", err)
		}
		ui.PrintInfo("Fresh start", "Ignoring existing checkpoint")
	}

	cp, found, err := s.checkpointMgr.Load()
	if err != nil {
		s.logger.WithError(err).WithField("path", s.checkpointMgr.Path()).Error("Failed to load checkpoint")
		return nil, fmt.Errorf("failed to load checkpoint (use `steamreviews checkpoint clear` to start over): %w", err)
	}
	if found {
		admitted := 0
		for _, n := range cp.DailyCount {
			admitted += n
		}
		ui.PrintInfo("Resuming from checkpoint", fmt.Sprintf("page %d, %d reviews admitted", cp.CurrentPage, admitted))
		s.progress.SetStart(cp.CurrentPage, admitted)
	}

	if s.config.Steam.APIKey == "" {
		s.logger.Warn("No Steam API key configured; using the public endpoint")
	}

	logger.LogComponentStart("walker", map[string]interface{}{
		"app_id":     s.config.Steam.AppID,
		"start_date": s.config.Window.StartDate,
		"end_date":   s.config.Window.EndDate,
		"page_size":  params.PageSize,
		"max_pages":  params.MaxPages,
		"daily_cap":  params.DailyCap,
		"checkpoint": s.checkpointMgr.Path(),
	})

	state := NewWalker(params, s.client, s.checkpointMgr).
		WithLimiter(s.rateLimiter).
		WithProgress(s.progress).
		WithLogger(s.logger).
		Run(ctx, cp)

	result := &Result{State: state}

	rows, err := report.Build(state.Aggregator.Tallies())
	switch {
	case errors.Is(err, report.ErrEmptyReport):
		s.logger.WithField("stop_reason", state.Reason.String()).Warn("No reviews aggregated; report not written")
		result.Empty = true
	case err != nil:
		return result, fmt.Errorf("failed to build report: %w", err)
	default:
		path, err := s.writeReport(output, rows)
		if err != nil {
			return result, err
		}
		result.Rows = rows
		result.ReportPath = path
	}

	if s.config.Output.Summary {
		summaryPath, err := s.writeSummary(result, startedAt)
		if err != nil {
			// The report is already on disk
			s.logger.WithError(err).Warn("Failed to write run summary")
		} else {
			result.SummaryPath = summaryPath
		}
	}

	s.progress.Complete(state.Reason.String(), state.Stats.Admitted, len(result.Rows))
	s.notify(result)

	return result, nil
}

func (s *Scraper) params() (Params, error) {
	if !steam.IsValidAppID(s.config.Steam.AppID) {
		return Params{}, errs.NewConfigError(fmt.Errorf("invalid app id %q: expected a numeric Steam app id", s.config.Steam.AppID))
	}

	start, err := s.config.StartDay()
	if err != nil {
		return Params{}, errs.NewConfigError(fmt.Errorf("invalid start date: %w", err))
	}
	end, err := s.config.EndDay()
	if err != nil {
		return Params{}, errs.NewConfigError(fmt.Errorf("invalid end date: %w", err))
	}

	w, err := window.FromDays(start, end)
	if err != nil {
		return Params{}, errs.NewConfigError(err)
	}

	return Params{
		Window:   w,
		PageSize: s.config.Pagination.PageSize,
		MaxPages: s.config.Pagination.MaxPages,
		DailyCap: s.config.Pagination.DailyCap,
	}, nil
}

func (s *Scraper) writeReport(storageManager *storage.Manager, rows []report.Row) (string, error) {
	reportPath := s.config.Output.ReportPath

	opts := report.CSVOptions{BOM: s.config.Output.UTF8BOM}
	path, err := storageManager.WriteFile(filepath.Base(reportPath), func(w io.Writer) error {
		return report.WriteCSV(w, rows, opts)
	})
	if err != nil {
		s.logger.WithError(err).WithField("path", reportPath).Error("Failed to write report")
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	size, _ := storageManager.BytesWritten(filepath.Base(reportPath))
	s.logger.InfoWithFields("Report written", map[string]interface{}{
		"path":  path,
		"rows":  len(rows),
		"bytes": size,
	})
	return path, nil
}

func (s *Scraper) writeSummary(result *Result, startedAt time.Time) (string, error) {
	state := result.State

	summary := &metadata.RunSummary{
		AppID: s.config.Steam.AppID,
		Window: metadata.WindowSummary{
			Start: models.DayKey(s.config.Window.StartDate),
			End:   models.DayKey(s.config.Window.EndDate),
		},
		Cap:           s.config.Pagination.DailyCap,
		StopReason:    state.Reason.String(),
		Resumed:       state.Resumed,
		StartPage:     state.Stats.StartPage,
		EndPage:       state.PageIndex,
		PagesFetched:  state.Stats.PagesFetched,
		LastCursor:    state.Cursor,
		Admitted:      state.Stats.Admitted,
		SkippedFuture: state.Stats.SkippedFuture,
		SkippedCapped: state.Stats.SkippedCapped,
		BoundaryStops: state.Stats.BoundaryStops,
		Days:          len(state.Aggregator.Days()),
		ReportPath:    result.ReportPath,
		ReportWritten: result.ReportPath != "",
		StartedAt:     startedAt,
		FinishedAt:    time.Now().UTC(),
	}
	if state.Err != nil {
		summary.Error = state.Err.Error()
	}
	summary.SetRows(result.Rows)

	path := metadata.SummaryPath(s.config.Output.ReportPath)
	if err := summary.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Scraper) notify(result *Result) {
	if s.notifier == nil {
		return
	}

	state := result.State
	title := "Review collection finished"

	var message string
	if result.Empty {
		message = fmt.Sprintf("%s: no reviews in window", state.Reason)
	} else {
		message = fmt.Sprintf("%s: %d days written to %s", state.Reason, len(result.Rows), result.ReportPath)
	}

	if state.Reason == FetchFailed {
		s.notifier.SendError(title, message)
		return
	}
	s.notifier.SendSuccess(title, message)
}
