package scraper

import (
	"context"

	"steamreviews/pkg/checkpoint"
	"steamreviews/pkg/models"
	"steamreviews/pkg/steam"
)

// PageFetcher fetches one page of reviews for a cursor
type PageFetcher interface {
	Fetch(ctx context.Context, cursor models.Cursor, pageSize int) (*steam.Page, error)
}

// CheckpointStore persists walk progress after each completed page
type CheckpointStore interface {
	Save(cp *checkpoint.Checkpoint) error
}

// Progress receives page-level updates for display
type Progress interface {
	ScanningPage(page int)
	CompletePage(page, records, admitted int, newest, oldest models.DayKey)
}
