package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"steamreviews/pkg/models"
)

// ProgressDisplay provides a clean, minimal progress display of a review walk
type ProgressDisplay struct {
	mu         sync.Mutex
	appID      string
	maxPages   int
	page       int
	startPage  int
	admitted   int
	restored   int
	newest     models.DayKey
	oldest     models.DayKey
	startTime  time.Time
	lastUpdate time.Time
	isDebug    bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(appID string, maxPages int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		appID:      appID,
		maxPages:   maxPages,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
		isDebug:    debug,
	}
}

// SetStart records where a resumed walk picks up
func (p *ProgressDisplay) SetStart(page, admitted int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = page
	p.startPage = page
	p.restored = admitted
}

// ScanningPage indicates a page is being fetched
func (p *ProgressDisplay) ScanningPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isDebug {
		printf("\n%s Fetching page %d...\n", Magenta("→"), page)
	}
}

// CompletePage marks a page as processed
func (p *ProgressDisplay) CompletePage(page, records, admitted int, newest, oldest models.DayKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = page
	p.admitted += admitted
	p.newest = newest
	p.oldest = oldest
	p.lastUpdate = time.Now()

	if p.isDebug {
		printf("%s page %d • %d reviews • %d admitted • %s .. %s\n",
			Green("✓"), page, records, admitted, oldest, newest)
		return
	}
	p.printProgress()
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if pages := p.page - p.startPage; pages > 0 && elapsed > 0 {
		rate = float64(pages) / elapsed.Minutes()
	}

	progress := 0.0
	if p.maxPages > 0 {
		progress = float64(p.page) / float64(p.maxPages)
	}
	if progress > 1 {
		progress = 1
	}
	barWidth := 20
	filled := int(progress * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\rapp %s [%s] page %d/%d • %d admitted • %.1f pages/min",
		Cyan(p.appID),
		bar,
		p.page,
		p.maxPages,
		p.restored+p.admitted,
		rate,
	)
	if p.oldest != "" {
		line += fmt.Sprintf(" • %s", Dim(p.oldest.String()))
	}

	printf("\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the end-of-run summary
func (p *ProgressDisplay) Complete(reason string, admitted, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	printf("\n\n%s Walk stopped: %s\n", Green("✓"), Yellow(reason))
	printf("  %s %d reviews admitted over %d pages in %s\n",
		Dim("•"),
		admitted,
		p.page-p.startPage,
		formatDuration(elapsed),
	)
	if p.restored > 0 {
		printf("  %s %d reviews carried over from checkpoint\n", Dim("•"), p.restored)
	}
	if rows > 0 {
		printf("  %s %d days in report\n", Dim("•"), rows)
	} else {
		printf("  %s no days to report\n", Dim("•"))
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
