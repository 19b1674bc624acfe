package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Header is the first line of the CSV report
var Header = []string{"date", "likes", "dislikes", "sentiment_score"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions controls the CSV encoding
type CSVOptions struct {
	// BOM prefixes the file with a UTF-8 byte order mark so spreadsheet
	// tools pick the right encoding
	BOM bool
}

// WriteCSV writes rows as CSV with a header line
func WriteCSV(w io.Writer, rows []Row, opts CSVOptions) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Date.String(),
			strconv.Itoa(r.Likes),
			strconv.Itoa(r.Dislikes),
			r.Score.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.Date, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
