// Package tally accumulates admitted votes per UTC day.
package tally

import (
	"sort"

	"steamreviews/pkg/models"
)

// Aggregator owns the per-day tallies and admission counts of one run.
// It is not safe for concurrent use; the walk is strictly sequential.
type Aggregator struct {
	tallies map[models.DayKey]models.Tally
	counts  map[models.DayKey]int
	total   int
}

// New returns an empty aggregator
func New() *Aggregator {
	return &Aggregator{
		tallies: make(map[models.DayKey]models.Tally),
		counts:  make(map[models.DayKey]int),
	}
}

// Restore rebuilds an aggregator from checkpointed state. Days present in
// counts but missing from tallies keep their admission count so the cap
// still holds, but contribute no votes.
func Restore(counts map[models.DayKey]int, tallies map[models.DayKey]models.Tally) *Aggregator {
	a := New()
	for day, n := range counts {
		a.counts[day] = n
		a.total += n
	}
	for day, t := range tallies {
		if _, ok := counts[day]; !ok {
			continue
		}
		a.tallies[day] = t
	}
	return a
}

// RecordVote adds one admitted vote for day, updating the tally and the
// admission count together.
func (a *Aggregator) RecordVote(day models.DayKey, vote models.Vote) {
	t := a.tallies[day]
	if vote == models.VoteUp {
		t.Likes++
	} else {
		t.Dislikes++
	}
	a.tallies[day] = t
	a.counts[day]++
	a.total++
}

// Count returns the number of admitted records for day
func (a *Aggregator) Count(day models.DayKey) int {
	return a.counts[day]
}

// Total returns the number of admitted records across all days
func (a *Aggregator) Total() int {
	return a.total
}

// Days returns the touched days in ascending order
func (a *Aggregator) Days() []models.DayKey {
	days := make([]models.DayKey, 0, len(a.counts))
	for day := range a.counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Tally returns the vote split for day
func (a *Aggregator) Tally(day models.DayKey) models.Tally {
	return a.tallies[day]
}

// Tallies returns a copy of every day's vote split
func (a *Aggregator) Tallies() map[models.DayKey]models.Tally {
	out := make(map[models.DayKey]models.Tally, len(a.tallies))
	for day, t := range a.tallies {
		out[day] = t
	}
	return out
}

// Counts returns a copy of every day's admission count
func (a *Aggregator) Counts() map[models.DayKey]int {
	out := make(map[models.DayKey]int, len(a.counts))
	for day, n := range a.counts {
		out[day] = n
	}
	return out
}

// AllSaturated reports whether every touched day has reached cap. It is
// false when no day has been touched.
func (a *Aggregator) AllSaturated(cap int) bool {
	if len(a.counts) == 0 {
		return false
	}
	for _, n := range a.counts {
		if n < cap {
			return false
		}
	}
	return true
}
