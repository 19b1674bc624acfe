package report

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"steamreviews/pkg/models"
)

// ErrEmptyReport is returned by Build when no day was aggregated
var ErrEmptyReport = errors.New("no days were aggregated")

// UndefinedScore is how an undefined score is rendered in text output
const UndefinedScore = "undefined"

// Score is a sentiment ratio that may be undefined when a day has no votes
type Score struct {
	value   float64
	defined bool
}

// ScoreOf returns likes/(likes+dislikes), or an undefined Score when both are zero
func ScoreOf(t models.Tally) Score {
	total := t.Total()
	if total == 0 {
		return Score{}
	}
	return Score{value: float64(t.Likes) / float64(total), defined: true}
}

// Value returns the ratio and whether it is defined
func (s Score) Value() (float64, bool) {
	return s.value, s.defined
}

// Defined reports whether the score has a numeric value
func (s Score) Defined() bool {
	return s.defined
}

func (s Score) String() string {
	if !s.defined {
		return UndefinedScore
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

// MarshalJSON encodes an undefined score as null
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.defined {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// Row is one day of the report
type Row struct {
	Date     models.DayKey `json:"date"`
	Likes    int           `json:"likes"`
	Dislikes int           `json:"dislikes"`
	Score    Score         `json:"sentiment_score"`
}

// Build turns per-day tallies into rows sorted by date. Days without any
// vote are left out.
func Build(tallies map[models.DayKey]models.Tally) ([]Row, error) {
	rows := make([]Row, 0, len(tallies))
	for day, t := range tallies {
		if t.Total() == 0 {
			continue
		}
		rows = append(rows, Row{
			Date:     day,
			Likes:    t.Likes,
			Dislikes: t.Dislikes,
			Score:    ScoreOf(t),
		})
	}

	if len(rows) == 0 {
		return nil, ErrEmptyReport
	}

	// YYYY-MM-DD sorts lexically in date order
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows, nil
}

// Totals sums every row into a single tally
func Totals(rows []Row) models.Tally {
	var total models.Tally
	for _, r := range rows {
		total.Likes += r.Likes
		total.Dislikes += r.Dislikes
	}
	return total
}
