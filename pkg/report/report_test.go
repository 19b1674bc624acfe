package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steamreviews/pkg/models"
)

func TestBuildSortsAndScores(t *testing.T) {
	rows, err := Build(map[models.DayKey]models.Tally{
		"2024-12-01": {Likes: 1, Dislikes: 3},
		"2024-11-05": {Likes: 80, Dislikes: 20},
		"2024-11-30": {Likes: 0, Dislikes: 7},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.DayKey("2024-11-05"), rows[0].Date)
	assert.Equal(t, models.DayKey("2024-11-30"), rows[1].Date)
	assert.Equal(t, models.DayKey("2024-12-01"), rows[2].Date)

	v, ok := rows[0].Score.Value()
	assert.True(t, ok)
	assert.InDelta(t, 0.8, v, 1e-12)

	v, ok = rows[1].Score.Value()
	assert.True(t, ok, "only dislikes is a defined score")
	assert.Equal(t, 0.0, v)
}

func TestBuildDatesStrictlyAscending(t *testing.T) {
	tallies := map[models.DayKey]models.Tally{}
	for _, d := range []models.DayKey{"2024-11-09", "2024-11-01", "2024-12-11", "2024-11-10", "2024-11-02"} {
		tallies[d] = models.Tally{Likes: 1}
	}

	rows, err := Build(tallies)
	require.NoError(t, err)
	for i := 1; i < len(rows); i++ {
		assert.Less(t, string(rows[i-1].Date), string(rows[i].Date))
	}
}

func TestBuildSkipsDaysWithoutVotes(t *testing.T) {
	rows, err := Build(map[models.DayKey]models.Tally{
		"2024-11-05": {Likes: 1},
		"2024-11-06": {},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.DayKey("2024-11-05"), rows[0].Date)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(nil)
	assert.True(t, errors.Is(err, ErrEmptyReport))

	_, err = Build(map[models.DayKey]models.Tally{"2024-11-06": {}})
	assert.True(t, errors.Is(err, ErrEmptyReport))
}

func TestScore(t *testing.T) {
	assert.False(t, ScoreOf(models.Tally{}).Defined())
	assert.Equal(t, UndefinedScore, ScoreOf(models.Tally{}).String())
	assert.Equal(t, "0.8", ScoreOf(models.Tally{Likes: 4, Dislikes: 1}).String())
	assert.Equal(t, "1", ScoreOf(models.Tally{Likes: 3}).String())

	data, err := json.Marshal([]Score{ScoreOf(models.Tally{Likes: 1, Dislikes: 1}), {}})
	require.NoError(t, err)
	assert.JSONEq(t, `[0.5, null]`, string(data))
}

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{Date: "2024-11-05", Likes: 80, Dislikes: 20, Score: ScoreOf(models.Tally{Likes: 80, Dislikes: 20})},
		{Date: "2024-11-06", Likes: 0, Dislikes: 3, Score: ScoreOf(models.Tally{Dislikes: 3})},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, CSVOptions{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"date", "likes", "dislikes", "sentiment_score"},
		{"2024-11-05", "80", "20", "0.8"},
		{"2024-11-06", "0", "3", "0"},
	}, records)
}

func TestWriteCSVWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, CSVOptions{BOM: true}))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, "date,likes,dislikes,sentiment_score\n", string(buf.Bytes()[3:]))
}

func TestTotals(t *testing.T) {
	total := Totals([]Row{{Likes: 3, Dislikes: 1}, {Likes: 2, Dislikes: 4}})
	assert.Equal(t, models.Tally{Likes: 5, Dislikes: 5}, total)
}
