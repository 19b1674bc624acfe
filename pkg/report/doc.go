// Package report turns aggregated daily tallies into the final table.
//
// Rows are sorted by date and carry a sentiment Score, the share of positive
// votes. A Score is a tagged value: when a day has no votes it is undefined
// rather than a NaN or a placeholder number, and it renders as "undefined"
// in CSV and null in JSON. Build refuses to produce an empty table and
// returns ErrEmptyReport instead.
package report
