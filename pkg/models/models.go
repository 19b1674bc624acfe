package models

import "time"

// DayLayout is the textual form of a DayKey
const DayLayout = "2006-01-02"

// Cursor is the opaque pagination token handed out by the review API.
// It is only stored and replayed, never parsed.
type Cursor string

// StartCursor requests the first page; the API also returns it when no
// further pages exist.
const StartCursor Cursor = "*"

// IsTerminal reports whether c signals that there are no more pages
func (c Cursor) IsTerminal() bool {
	return c == "" || c == StartCursor
}

func (c Cursor) String() string {
	return string(c)
}

// DayKey is a UTC calendar date in YYYY-MM-DD form
type DayKey string

// DayOf returns the UTC day a unix timestamp falls on
func DayOf(timestamp int64) DayKey {
	return DayKey(time.Unix(timestamp, 0).UTC().Format(DayLayout))
}

// ParseDay parses a YYYY-MM-DD date as a DayKey
func ParseDay(s string) (DayKey, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", err
	}
	return DayKey(t.Format(DayLayout)), nil
}

// Midnight returns the unix timestamp of 00:00:00 UTC on the day
func (d DayKey) Midnight() int64 {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return 0
	}
	return t.Unix()
}

func (d DayKey) String() string {
	return string(d)
}

// Vote is the direction of a review
type Vote int

const (
	VoteDown Vote = iota
	VoteUp
)

func (v Vote) String() string {
	if v == VoteUp {
		return "up"
	}
	return "down"
}

// Review is a single review record as consumed by the aggregation pipeline
type Review struct {
	TimestampCreated int64
	Vote             Vote
}

// Day returns the UTC day the review was created on
func (r Review) Day() DayKey {
	return DayOf(r.TimestampCreated)
}

// Tally holds per-day vote counts
type Tally struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Total returns likes plus dislikes
func (t Tally) Total() int {
	return t.Likes + t.Dislikes
}
