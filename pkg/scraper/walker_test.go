package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steamreviews/pkg/checkpoint"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/report"
	"steamreviews/pkg/steam"
	"steamreviews/pkg/window"
)

// fakeFeed serves pages keyed by the cursor that requests them
type fakeFeed struct {
	mu     sync.Mutex
	pages  map[models.Cursor]*steam.Page
	fail   map[models.Cursor]error
	calls  []models.Cursor
	onCall func(cursor models.Cursor)
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		pages: make(map[models.Cursor]*steam.Page),
		fail:  make(map[models.Cursor]error),
	}
}

func (f *fakeFeed) add(cursor, next models.Cursor, reviews ...[]models.Review) *fakeFeed {
	var all []models.Review
	for _, r := range reviews {
		all = append(all, r...)
	}
	f.pages[cursor] = &steam.Page{Reviews: all, Cursor: next}
	return f
}

func (f *fakeFeed) Fetch(ctx context.Context, cursor models.Cursor, pageSize int) (*steam.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cursor)
	onCall := f.onCall
	err := f.fail[cursor]
	page, ok := f.pages[cursor]
	f.mu.Unlock()

	if onCall != nil {
		onCall(cursor)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", cursor)
	}
	return page, nil
}

// memoryStore keeps every checkpoint saved during a walk
type memoryStore struct {
	saved []*checkpoint.Checkpoint
}

func (m *memoryStore) Save(cp *checkpoint.Checkpoint) error {
	m.saved = append(m.saved, cp)
	return nil
}

func (m *memoryStore) last() *checkpoint.Checkpoint {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

// at returns a timestamp on day at the given UTC hour
func at(day string, hour int) int64 {
	d, err := time.Parse(models.DayLayout, day)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour) * time.Hour).Unix()
}

// votes builds up positive then down negative reviews on day
func votes(day string, up, down int) []models.Review {
	reviews := make([]models.Review, 0, up+down)
	for i := 0; i < up; i++ {
		reviews = append(reviews, models.Review{TimestampCreated: at(day, 12), Vote: models.VoteUp})
	}
	for i := 0; i < down; i++ {
		reviews = append(reviews, models.Review{TimestampCreated: at(day, 12), Vote: models.VoteDown})
	}
	return reviews
}

func defaultParams(t *testing.T) Params {
	t.Helper()
	w, err := window.FromDays("2024-11-01", "2024-12-11")
	require.NoError(t, err)
	return Params{Window: w, PageSize: 100, MaxPages: 10, DailyCap: 100}
}

func newTestWalker(t *testing.T, params Params, feed PageFetcher, store CheckpointStore) (*Walker, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	return NewWalker(params, feed, store).WithLogger(log), log
}

func assertCountsMatchTallies(t *testing.T, counts map[models.DayKey]int, tallies map[models.DayKey]models.Tally, cap int) {
	t.Helper()
	for day, n := range counts {
		tl := tallies[day]
		assert.Equal(t, n, tl.Likes+tl.Dislikes, "count must equal likes+dislikes for %s", day)
		assert.LessOrEqual(t, n, cap, "cap exceeded for %s", day)
	}
}

func TestWalkSaturatesSingleDay(t *testing.T) {
	feed := newFakeFeed().
		add("*", "c2", votes("2024-11-05", 30, 20)).
		add("c2", "c3", votes("2024-11-05", 120, 0)).
		add("c3", "c4", votes("2024-10-15", 1, 0))
	store := &memoryStore{}

	w, _ := newTestWalker(t, defaultParams(t), feed, store)
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, AllDaysSaturated, state.Reason)
	assert.NoError(t, state.Err)
	assert.Equal(t, []models.Cursor{"*", "c2"}, feed.calls, "the boundary page is never fetched")

	assert.Equal(t, models.Tally{Likes: 80, Dislikes: 20}, state.Aggregator.Tally("2024-11-05"))
	assert.Equal(t, []models.DayKey{"2024-11-05"}, state.Aggregator.Days())
	assert.Equal(t, 100, state.Stats.Admitted)
	assert.Equal(t, 70, state.Stats.SkippedCapped)

	rows, err := report.Build(state.Aggregator.Tallies())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0.8", rows[0].Score.String())

	require.Len(t, store.saved, 2)
	assert.Equal(t, models.Cursor("c3"), store.last().Cursor)
	assert.Equal(t, 2, store.last().CurrentPage)
	assert.Equal(t, 100, store.last().DailyCount["2024-11-05"])
}

func TestWalkStopsAtStartBoundary(t *testing.T) {
	feed := newFakeFeed().
		add("*", "c2", votes("2024-11-05", 30, 20)).
		add("c2", "c3", votes("2024-11-05", 120, 0), votes("2024-11-04", 0, 1)).
		add("c3", "c4", votes("2024-10-15", 1, 0))
	store := &memoryStore{}

	w, _ := newTestWalker(t, defaultParams(t), feed, store)
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, StartBoundaryCrossed, state.Reason)
	assert.Equal(t, 3, state.Stats.PagesFetched)
	assert.Equal(t, 1, state.Stats.BoundaryStops)
	assert.Equal(t, 2, state.PageIndex, "the boundary page does not advance the page index")

	assert.Equal(t, models.Tally{Likes: 80, Dislikes: 20}, state.Aggregator.Tally("2024-11-05"))
	assert.Equal(t, models.Tally{Dislikes: 1}, state.Aggregator.Tally("2024-11-04"))
	assert.Equal(t, 0, state.Aggregator.Count("2024-10-15"))

	rows, err := report.Build(state.Aggregator.Tallies())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.DayKey("2024-11-04"), rows[0].Date)
	assert.Equal(t, "0", rows[0].Score.String())

	assert.Len(t, store.saved, 2)
}

func TestBoundaryTakesPriorityOverSaturation(t *testing.T) {
	// page 2 saturates the only day and also reaches back before the window
	feed := newFakeFeed().
		add("*", "c2", votes("2024-11-05", 60, 0)).
		add("c2", "c3", votes("2024-11-05", 40, 0), votes("2024-10-31", 1, 0))
	store := &memoryStore{}

	w, _ := newTestWalker(t, defaultParams(t), feed, store)
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, StartBoundaryCrossed, state.Reason)
	assert.Equal(t, 100, state.Aggregator.Count("2024-11-05"))
	assert.Len(t, store.saved, 1, "a page that crosses the boundary is not checkpointed")
}

func TestWalkPageLimit(t *testing.T) {
	feed := newFakeFeed().
		add("*", "c2", votes("2024-11-05", 1, 0)).
		add("c2", "c3", votes("2024-11-04", 1, 0))
	params := defaultParams(t)
	params.MaxPages = 1

	w, _ := newTestWalker(t, params, feed, &memoryStore{})
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, PageLimitReached, state.Reason)
	assert.Equal(t, []models.Cursor{"*"}, feed.calls)
	assert.Equal(t, 1, state.PageIndex)
	assert.Equal(t, models.Cursor("c2"), state.Cursor)
}

func TestWalkPageLimitAlreadyReachedOnResume(t *testing.T) {
	feed := newFakeFeed()
	cp := checkpoint.New()
	cp.Cursor = "c9"
	cp.CurrentPage = 10

	w, _ := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
	state := w.Run(context.Background(), cp)

	assert.Equal(t, PageLimitReached, state.Reason)
	assert.Empty(t, feed.calls)
	assert.True(t, state.Resumed)
}

func TestWalkExhausted(t *testing.T) {
	tests := []struct {
		name string
		feed *fakeFeed
		want []models.Cursor
	}{
		{
			name: "start cursor handed back",
			feed: newFakeFeed().add("*", "*", votes("2024-11-05", 2, 1)),
			want: []models.Cursor{"*"},
		},
		{
			name: "missing cursor",
			feed: newFakeFeed().add("*", "", votes("2024-11-05", 2, 1)),
			want: []models.Cursor{"*"},
		},
		{
			name: "empty page",
			feed: newFakeFeed().
				add("*", "c2", votes("2024-11-05", 2, 1)).
				add("c2", "c3"),
			want: []models.Cursor{"*", "c2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWalker(t, defaultParams(t), tt.feed, &memoryStore{})
			state := w.Run(context.Background(), checkpoint.New())

			assert.Equal(t, Exhausted, state.Reason)
			assert.Equal(t, tt.want, tt.feed.calls)
			assert.Equal(t, models.Tally{Likes: 2, Dislikes: 1}, state.Aggregator.Tally("2024-11-05"))
		})
	}
}

func TestWalkLogsFeedSummary(t *testing.T) {
	feed := newFakeFeed().
		add("*", "c2", votes("2024-11-05", 2, 1)).
		add("c2", "")
	feed.pages["*"].Summary = &steam.QuerySummary{TotalReviews: 1200, TotalPositive: 900, TotalNegative: 300}

	w, log := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
	w.Run(context.Background(), checkpoint.New())

	var summaries []logger.LogMessage
	for _, m := range log.GetMessagesByLevel("INFO") {
		if m.Message == "Review feed summary" {
			summaries = append(summaries, m)
		}
	}
	require.Len(t, summaries, 1)
	assert.Equal(t, 1200, summaries[0].Fields["total_reviews"])
	assert.Equal(t, 300, summaries[0].Fields["total_negative"])
}

func TestWalkFetchFailedKeepsPartialResult(t *testing.T) {
	cause := errors.New("status 503 after 5 attempts")
	feed := newFakeFeed().add("*", "c2", votes("2024-11-05", 3, 1))
	feed.fail["c2"] = cause
	store := &memoryStore{}

	w, _ := newTestWalker(t, defaultParams(t), feed, store)
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, FetchFailed, state.Reason)
	require.Error(t, state.Err)
	assert.ErrorIs(t, state.Err, ErrFetchFailed)
	assert.ErrorIs(t, state.Err, cause)
	assert.Contains(t, state.Err.Error(), "page 2")

	assert.Equal(t, models.Tally{Likes: 3, Dislikes: 1}, state.Aggregator.Tally("2024-11-05"))
	require.Len(t, store.saved, 1)
	assert.Equal(t, models.Cursor("c2"), store.last().Cursor)
}

func TestWalkInterrupted(t *testing.T) {
	t.Run("before the first page", func(t *testing.T) {
		feed := newFakeFeed().add("*", "c2", votes("2024-11-05", 1, 0))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w, _ := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
		state := w.Run(ctx, checkpoint.New())

		assert.Equal(t, Interrupted, state.Reason)
		assert.Empty(t, feed.calls)
	})

	t.Run("while fetching", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		feed := newFakeFeed().add("*", "c2", votes("2024-11-05", 1, 0))
		feed.fail["c2"] = context.Canceled
		feed.onCall = func(cursor models.Cursor) {
			if cursor == "c2" {
				cancel()
			}
		}
		store := &memoryStore{}

		w, _ := newTestWalker(t, defaultParams(t), feed, store)
		state := w.Run(ctx, checkpoint.New())

		assert.Equal(t, Interrupted, state.Reason)
		assert.NoError(t, state.Err)
		assert.Equal(t, 1, state.Aggregator.Count("2024-11-05"))
		assert.Len(t, store.saved, 1)
	})
}

// blockingLimiter never grants a slot until ctx is done
type blockingLimiter struct{}

func (blockingLimiter) Allow() bool { return false }
func (blockingLimiter) Reset()      {}
func (blockingLimiter) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWalkInterruptedWhileThrottled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	feed := newFakeFeed().add("*", "c2", votes("2024-11-05", 1, 0))
	w, _ := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
	state := w.WithLimiter(blockingLimiter{}).Run(ctx, checkpoint.New())

	assert.Equal(t, Interrupted, state.Reason)
	assert.Empty(t, feed.calls)
}

func TestSaturationNeverFiresOnEmptyState(t *testing.T) {
	// only future reviews: nothing is touched, so the walk must go on
	feed := newFakeFeed().
		add("*", "c2", votes("2024-12-20", 5, 5)).
		add("c2", "c3", votes("2024-12-15", 1, 0)).
		add("c3", "*", votes("2024-12-10", 1, 0))

	w, _ := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, Exhausted, state.Reason)
	assert.Equal(t, 11, state.Stats.SkippedFuture)
	assert.Equal(t, 1, state.Stats.Admitted)
	assert.Len(t, feed.calls, 3)
}

func TestEndDayOnlyAdmitsMidnight(t *testing.T) {
	page := []models.Review{
		{TimestampCreated: at("2024-12-11", 1), Vote: models.VoteUp},
		{TimestampCreated: at("2024-12-11", 0), Vote: models.VoteDown},
		{TimestampCreated: at("2024-12-10", 23), Vote: models.VoteUp},
	}
	feed := newFakeFeed().add("*", "*", page)

	w, _ := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, 1, state.Stats.SkippedFuture)
	assert.Equal(t, models.Tally{Dislikes: 1}, state.Aggregator.Tally("2024-12-11"))
	assert.Equal(t, models.Tally{Likes: 1}, state.Aggregator.Tally("2024-12-10"))
}

func TestCheckpointCountsMatchTallies(t *testing.T) {
	feed := newFakeFeed().
		add("*", "c2", votes("2024-12-01", 70, 10), votes("2024-11-30", 5, 5)).
		add("c2", "c3", votes("2024-12-01", 15, 15), votes("2024-11-30", 80, 30), votes("2024-11-29", 1, 0)).
		add("c3", "c4", votes("2024-11-29", 150, 0), votes("2024-11-28", 1, 0)).
		add("c4", "*", votes("2024-11-28", 3, 7))
	store := &memoryStore{}
	params := defaultParams(t)

	w, _ := newTestWalker(t, params, feed, store)
	state := w.Run(context.Background(), checkpoint.New())

	assert.Equal(t, Exhausted, state.Reason)
	for _, cp := range store.saved {
		assertCountsMatchTallies(t, cp.DailyCount, cp.DailyTally, params.DailyCap)
	}
	assertCountsMatchTallies(t, state.Aggregator.Counts(), state.Aggregator.Tallies(), params.DailyCap)

	assert.Equal(t, models.Tally{Likes: 85, Dislikes: 15}, state.Aggregator.Tally("2024-12-01"))
	assert.Equal(t, models.Tally{Likes: 85, Dislikes: 15}, state.Aggregator.Tally("2024-11-30"))
	assert.Equal(t, models.Tally{Likes: 100}, state.Aggregator.Tally("2024-11-29"))
	assert.Equal(t, models.Tally{Likes: 4, Dislikes: 7}, state.Aggregator.Tally("2024-11-28"))
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	build := func() *fakeFeed {
		return newFakeFeed().
			add("*", "c2", votes("2024-12-01", 40, 10)).
			add("c2", "c3", votes("2024-12-01", 60, 20), votes("2024-11-30", 10, 0)).
			add("c3", "c4", votes("2024-11-30", 30, 30)).
			add("c4", "c5", votes("2024-10-01", 1, 0))
	}
	params := defaultParams(t)

	whole, _ := newTestWalker(t, params, build(), &memoryStore{})
	want := whole.Run(context.Background(), checkpoint.New())
	require.Equal(t, StartBoundaryCrossed, want.Reason)

	// first attempt dies on page 3
	failing := build()
	failing.fail["c3"] = errors.New("connection reset")
	store := &memoryStore{}
	first, _ := newTestWalker(t, params, failing, store)
	partial := first.Run(context.Background(), checkpoint.New())
	require.Equal(t, FetchFailed, partial.Reason)

	saved := store.last()
	require.NotNil(t, saved)
	assert.Equal(t, models.Cursor("c3"), saved.Cursor)
	assert.Equal(t, 2, saved.CurrentPage)

	feed := build()
	second, _ := newTestWalker(t, params, feed, store)
	got := second.Run(context.Background(), saved)

	assert.Equal(t, StartBoundaryCrossed, got.Reason)
	assert.Equal(t, []models.Cursor{"c3", "c4"}, feed.calls, "completed pages are not replayed")
	assert.Equal(t, want.Aggregator.Tallies(), got.Aggregator.Tallies())
	assert.Equal(t, want.Aggregator.Counts(), got.Aggregator.Counts())
	assert.Equal(t, 2, got.Stats.StartPage)
	assert.True(t, got.Resumed)
}

func TestLegacyCheckpointKeepsCapsWithoutVotes(t *testing.T) {
	cp := &checkpoint.Checkpoint{
		Cursor:      "c2",
		CurrentPage: 1,
		DailyCount:  map[models.DayKey]int{"2024-11-05": 100, "2024-11-04": 10},
	}
	feed := newFakeFeed().add("c2", "*", votes("2024-11-05", 5, 0), votes("2024-11-04", 0, 2))

	w, log := newTestWalker(t, defaultParams(t), feed, &memoryStore{})
	state := w.Run(context.Background(), cp)

	assert.True(t, log.HasMessageContaining("no vote tallies"))
	assert.Equal(t, 5, state.Stats.SkippedCapped)
	assert.Equal(t, 100, state.Aggregator.Count("2024-11-05"))
	assert.Equal(t, 12, state.Aggregator.Count("2024-11-04"))
	assert.Equal(t, models.Tally{Dislikes: 2}, state.Aggregator.Tally("2024-11-04"))

	rows, err := report.Build(state.Aggregator.Tallies())
	require.NoError(t, err)
	require.Len(t, rows, 1, "days restored without votes are left out")
	assert.Equal(t, models.DayKey("2024-11-04"), rows[0].Date)
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "PageLimitReached", PageLimitReached.String())
	assert.Equal(t, "FetchFailed", FetchFailed.String())
	assert.Equal(t, "Exhausted", Exhausted.String())
	assert.Equal(t, "StartBoundaryCrossed", StartBoundaryCrossed.String())
	assert.Equal(t, "AllDaysSaturated", AllDaysSaturated.String())
	assert.Equal(t, "Interrupted", Interrupted.String())
	assert.Equal(t, "StopReason(42)", StopReason(42).String())
}
