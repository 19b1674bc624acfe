package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steamreviews/pkg/models"
)

type countMap map[models.DayKey]int

func (c countMap) Count(day models.DayKey) int { return c[day] }

func ts(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC).Unix()
}

func testWindow(t *testing.T) Window {
	t.Helper()
	w, err := FromDays("2024-11-01", "2024-12-11")
	require.NoError(t, err)
	return w
}

func TestFromDays(t *testing.T) {
	w := testWindow(t)
	assert.Equal(t, int64(1730419200), w.Start)
	assert.Equal(t, ts(2024, 12, 11, 0), w.End)

	_, err := FromDays("2024-12-11", "2024-11-01")
	assert.Error(t, err)

	_, err = FromDays("2024-13-01", "2024-12-11")
	assert.Error(t, err)

	single, err := FromDays("2024-11-05", "2024-11-05")
	require.NoError(t, err)
	assert.Equal(t, single.Start, single.End)
}

func TestAdmit(t *testing.T) {
	w := testWindow(t)
	counts := countMap{"2024-11-05": 100, "2024-11-06": 99}

	tests := []struct {
		name    string
		ts      int64
		want    Decision
		wantDay models.DayKey
	}{
		{"before start stops", ts(2024, 10, 31, 23), StopAtBoundary, ""},
		{"start midnight admitted", w.Start, Admit, "2024-11-01"},
		{"end midnight admitted", w.End, Admit, "2024-12-11"},
		{"after end midnight skipped", w.End + 1, SkipFuture, ""},
		{"far future skipped", ts(2025, 1, 1, 0), SkipFuture, ""},
		{"day at cap skipped", ts(2024, 11, 5, 12), SkipCapped, "2024-11-05"},
		{"day under cap admitted", ts(2024, 11, 6, 12), Admit, "2024-11-06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, day := w.Admit(models.Review{TimestampCreated: tt.ts}, counts, 100)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDay, day)
		})
	}
}

func TestBoundaryTakesPriorityOverCap(t *testing.T) {
	w := testWindow(t)
	counts := countMap{"2024-10-15": 100}

	got, _ := w.Admit(models.Review{TimestampCreated: ts(2024, 10, 15, 8)}, counts, 100)
	assert.Equal(t, StopAtBoundary, got)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "SkipCapped", SkipCapped.String())
	assert.Equal(t, "SkipPast", SkipPast.String())
	assert.Equal(t, "Decision(42)", Decision(42).String())
}
