package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"steamreviews/pkg/models"
	"steamreviews/pkg/report"
	"steamreviews/pkg/storage"
)

// RunSummary records what a single collection run did
type RunSummary struct {
	// Target
	AppID  string        `json:"app_id"`
	Window WindowSummary `json:"window"`
	Cap    int           `json:"daily_cap"`

	// Outcome
	StopReason string `json:"stop_reason"`
	Error      string `json:"error,omitempty"`
	Resumed    bool   `json:"resumed"`

	// Pagination
	StartPage    int           `json:"start_page"`
	EndPage      int           `json:"end_page"`
	PagesFetched int           `json:"pages_fetched"`
	LastCursor   models.Cursor `json:"last_cursor"`

	// Per-decision counters for this run only
	Admitted      int `json:"admitted"`
	SkippedFuture int `json:"skipped_future"`
	SkippedCapped int `json:"skipped_capped"`
	BoundaryStops int `json:"boundary_stops"`

	// Report
	Days          int          `json:"days"`
	Rows          int          `json:"rows"`
	Totals        models.Tally `json:"totals"`
	OverallScore  report.Score `json:"overall_score"`
	ReportPath    string       `json:"report_path,omitempty"`
	ReportWritten bool         `json:"report_written"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// WindowSummary is the configured date range
type WindowSummary struct {
	Start models.DayKey `json:"start"`
	End   models.DayKey `json:"end"`
}

// SummaryPath returns where the summary for reportPath is written:
// the report path with its extension replaced by ".summary.json".
func SummaryPath(reportPath string) string {
	ext := filepath.Ext(reportPath)
	return strings.TrimSuffix(reportPath, ext) + ".summary.json"
}

// SetRows fills the report section from the rows that were written
func (s *RunSummary) SetRows(rows []report.Row) {
	s.Rows = len(rows)
	s.Totals = report.Totals(rows)
	s.OverallScore = report.ScoreOf(s.Totals)
}

// Duration returns how long the run took
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Save writes the summary as indented JSON to path
func (s *RunSummary) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	_, err = storage.WriteAtomic(path, func(w io.Writer) error {
		_, werr := w.Write(append(data, '\n'))
		return werr
	})
	if err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// Load reads a summary written by Save
func Load(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}

	var raw struct {
		RunSummary
		OverallScore *float64 `json:"overall_score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}

	s := raw.RunSummary
	// The score is derived, so it is rebuilt rather than decoded
	s.OverallScore = report.ScoreOf(s.Totals)
	return &s, nil
}
