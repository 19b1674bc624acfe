// Package checkpoint persists review walk progress so an interrupted run can
// resume where it stopped.
//
// The file is a small JSON record:
//
//	{
//	  "cursor": "AoJ4...",
//	  "daily_count": {"2024-12-10": 100, "2024-12-09": 37},
//	  "current_page": 4,
//	  "daily_tally": {"2024-12-10": {"likes": 81, "dislikes": 19}, ...}
//	}
//
// A missing file means a fresh run: cursor "*", no counts, page 0. Saves are
// atomic and happen only after a page has been fully processed.
package checkpoint
