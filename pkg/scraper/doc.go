// Package scraper collects Steam reviews into a per-day sentiment report.
//
// The package is split in two layers:
//
// The Walker pages through the review feed newest first. Each record goes
// through the window filter and, if admitted, into a tally.Aggregator. After
// every fully processed page the walker saves a checkpoint, so an
// interrupted run resumes from the last completed page and never counts a
// page twice. A walk ends for exactly one StopReason, checked in a fixed
// order on every iteration:
//
//	PageLimitReached      page index reached the configured maximum
//	FetchFailed           the client gave up on a page
//	Exhausted             empty page, or no next cursor
//	StartBoundaryCrossed  a record older than the window start was seen
//	AllDaysSaturated      every day seen so far is at the daily cap
//	Interrupted           the context was cancelled
//
// The Scraper wires the walker to the Steam client, the checkpoint file and
// the throttle from a config.Config, then writes the CSV report and a JSON
// run summary from whatever was aggregated. Every stop reason is a completed
// run; only setup failures are returned as errors.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scraper.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := s.Run(ctx, scraper.RunOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.State.Reason, len(result.Rows))
package scraper
