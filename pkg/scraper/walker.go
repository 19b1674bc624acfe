package scraper

import (
	"context"
	"errors"
	"fmt"

	"steamreviews/pkg/checkpoint"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/ratelimit"
	"steamreviews/pkg/steam"
	"steamreviews/pkg/tally"
	"steamreviews/pkg/window"
)

// ErrFetchFailed wraps the client error that ended a walk
var ErrFetchFailed = errors.New("fetch failed")

// progressEvery is how often, in admitted reviews, progress is logged
const progressEvery = 100

// StopReason says why a walk ended
type StopReason int

const (
	PageLimitReached StopReason = iota
	FetchFailed
	Exhausted
	StartBoundaryCrossed
	AllDaysSaturated
	Interrupted
)

func (r StopReason) String() string {
	switch r {
	case PageLimitReached:
		return "PageLimitReached"
	case FetchFailed:
		return "FetchFailed"
	case Exhausted:
		return "Exhausted"
	case StartBoundaryCrossed:
		return "StartBoundaryCrossed"
	case AllDaysSaturated:
		return "AllDaysSaturated"
	case Interrupted:
		return "Interrupted"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Params are the static inputs of a walk
type Params struct {
	Window   window.Window
	PageSize int
	MaxPages int
	DailyCap int
}

// Stats counts what happened during one walk. Counters cover this run
// only, not anything restored from a checkpoint.
type Stats struct {
	StartPage     int
	PagesFetched  int
	Admitted      int
	SkippedFuture int
	SkippedCapped int
	BoundaryStops int
}

// FinalState is the result of Walker.Run
type FinalState struct {
	Reason     StopReason
	Err        error
	Cursor     models.Cursor
	PageIndex  int
	Resumed    bool
	Aggregator *tally.Aggregator
	Stats      Stats
}

// Walker pages through the review feed newest first, filtering each record
// into the aggregator until one of the stop conditions holds.
type Walker struct {
	params   Params
	fetcher  PageFetcher
	store    CheckpointStore
	limiter  ratelimit.Limiter
	progress Progress
	logger   logger.Logger
}

// NewWalker creates a walker. store may be nil to run without persistence.
func NewWalker(params Params, fetcher PageFetcher, store CheckpointStore) *Walker {
	return &Walker{
		params:  params,
		fetcher: fetcher,
		store:   store,
		logger:  logger.GetLogger(),
	}
}

// WithLimiter sets the throttle waited on between pages
func (w *Walker) WithLimiter(l ratelimit.Limiter) *Walker {
	w.limiter = l
	return w
}

// WithProgress sets the page progress sink
func (w *Walker) WithProgress(p Progress) *Walker {
	w.progress = p
	return w
}

// WithLogger sets the logger
func (w *Walker) WithLogger(l logger.Logger) *Walker {
	if l != nil {
		w.logger = l
	}
	return w
}

// Run walks from start (a fresh checkpoint.New() for a new run) until a
// stop condition holds. Conditions are checked in a fixed order on every
// iteration: page limit, fetch failure, empty page, boundary crossed while
// filtering, boundary at the page tail, terminal cursor, and finally, after
// the checkpoint is saved, global saturation.
func (w *Walker) Run(ctx context.Context, start *checkpoint.Checkpoint) *FinalState {
	if start == nil {
		start = checkpoint.New()
	}

	agg := tally.Restore(start.DailyCount, start.DailyTally)
	if !start.HasTallies() {
		w.logger.WarnWithFields("Checkpoint has no vote tallies; days admitted before the restart keep their caps but are left out of the report", map[string]interface{}{
			"days": len(start.DailyCount),
		})
	}

	state := &FinalState{
		Cursor:     start.Cursor,
		PageIndex:  start.CurrentPage,
		Resumed:    start.CurrentPage > 0 || len(start.DailyCount) > 0,
		Aggregator: agg,
		Stats:      Stats{StartPage: start.CurrentPage},
	}
	if state.Cursor == "" {
		state.Cursor = models.StartCursor
	}

	w.logger.InfoWithFields("Starting review walk", map[string]interface{}{
		"cursor":    state.Cursor.String(),
		"page":      state.PageIndex,
		"resumed":   state.Resumed,
		"max_pages": w.params.MaxPages,
		"daily_cap": w.params.DailyCap,
	})

	for {
		if ctx.Err() != nil {
			return w.stop(state, Interrupted, nil)
		}

		if state.PageIndex >= w.params.MaxPages {
			return w.stop(state, PageLimitReached, nil)
		}

		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return w.stop(state, Interrupted, nil)
			}
		}
		if w.progress != nil {
			w.progress.ScanningPage(state.PageIndex + 1)
		}

		page, err := w.fetcher.Fetch(ctx, state.Cursor, w.params.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return w.stop(state, Interrupted, nil)
			}
			return w.stop(state, FetchFailed, fmt.Errorf("%w: page %d: %w", ErrFetchFailed, state.PageIndex+1, err))
		}
		state.Stats.PagesFetched++
		if page.Summary != nil {
			w.logFeedSummary(page.Summary)
		}

		if len(page.Reviews) == 0 {
			return w.stop(state, Exhausted, nil)
		}

		newest, oldest := dayRange(page.Reviews)
		logger.LogPage(state.PageIndex+1, len(page.Reviews), newest.String(), oldest.String())
		w.logger.DebugWithFields("Page tail", map[string]interface{}{
			"last_timestamp": page.Reviews[len(page.Reviews)-1].TimestampCreated,
			"next_cursor":    page.Cursor.String(),
		})

		admittedBefore := state.Stats.Admitted
		crossed := w.filterPage(page.Reviews, agg, state)

		if w.progress != nil {
			w.progress.CompletePage(state.PageIndex+1, len(page.Reviews), state.Stats.Admitted-admittedBefore, newest, oldest)
		}

		// a record older than the window ended the page early
		if crossed {
			return w.stop(state, StartBoundaryCrossed, nil)
		}

		// the page tail already lies before the window
		last := page.Reviews[len(page.Reviews)-1]
		if w.params.Window.Before(last.TimestampCreated) {
			return w.stop(state, StartBoundaryCrossed, nil)
		}

		if page.Cursor.IsTerminal() {
			return w.stop(state, Exhausted, nil)
		}

		state.PageIndex++
		state.Cursor = page.Cursor
		w.saveCheckpoint(state)

		// Saturation is checked only after the page is persisted
		if agg.AllSaturated(w.params.DailyCap) {
			return w.stop(state, AllDaysSaturated, nil)
		}
	}
}

// logFeedSummary reports the totals Steam returns with the first page
func (w *Walker) logFeedSummary(summary *steam.QuerySummary) {
	w.logger.InfoWithFields("Review feed summary", map[string]interface{}{
		"total_reviews":  summary.TotalReviews,
		"total_positive": summary.TotalPositive,
		"total_negative": summary.TotalNegative,
		"review_score":   summary.ReviewScoreDesc,
	})
}

// filterPage runs every record of a page through the window filter in
// order. It returns true when a record before the window ended the page.
func (w *Walker) filterPage(reviews []models.Review, agg *tally.Aggregator, state *FinalState) bool {
	for _, r := range reviews {
		decision, day := w.params.Window.Admit(r, agg, w.params.DailyCap)

		switch decision {
		case window.StopAtBoundary:
			state.Stats.BoundaryStops++
			return true
		case window.SkipFuture:
			state.Stats.SkippedFuture++
		case window.SkipCapped:
			state.Stats.SkippedCapped++
		case window.Admit:
			agg.RecordVote(day, r.Vote)
			state.Stats.Admitted++
			if state.Stats.Admitted%progressEvery == 0 {
				logger.LogAdmitProgress(state.Stats.Admitted, len(agg.Days()), state.PageIndex+1)
			}
		}
	}
	return false
}

func (w *Walker) saveCheckpoint(state *FinalState) {
	if w.store == nil {
		return
	}

	cp := &checkpoint.Checkpoint{
		Cursor:      state.Cursor,
		DailyCount:  state.Aggregator.Counts(),
		CurrentPage: state.PageIndex,
		DailyTally:  state.Aggregator.Tallies(),
	}
	if err := w.store.Save(cp); err != nil {
		// The walk carries on; a later page may still persist
		w.logger.WithError(err).WithField("page", state.PageIndex).Error("Failed to save checkpoint")
	}
}

func (w *Walker) stop(state *FinalState, reason StopReason, err error) *FinalState {
	state.Reason = reason
	state.Err = err
	logger.LogStop(reason.String(), state.Stats.PagesFetched, state.Stats.Admitted, err)
	return state
}

// dayRange returns the latest and earliest days present on a page
func dayRange(reviews []models.Review) (newest, oldest models.DayKey) {
	minTS, maxTS := reviews[0].TimestampCreated, reviews[0].TimestampCreated
	for _, r := range reviews[1:] {
		if r.TimestampCreated < minTS {
			minTS = r.TimestampCreated
		}
		if r.TimestampCreated > maxTS {
			maxTS = r.TimestampCreated
		}
	}
	return models.DayOf(maxTS), models.DayOf(minTS)
}
