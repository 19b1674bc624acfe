// Package steam is a client for the Steam store reviews endpoint
// (GET /appreviews/{app_id}?json=1).
//
// Each Fetch call requests one page for a cursor. Rate limiting (429) and the
// 500/502/503/504 statuses are retried with exponential backoff, honouring
// Retry-After. Any other status, a transport failure or a body that is not
// valid JSON ends the fetch with a typed error from pkg/errors.
//
//	client := steam.NewClientFromConfig(cfg, logger.GetLogger())
//	page, err := client.Fetch(ctx, models.StartCursor, 100)
//	if err != nil {
//	    return err
//	}
//	for _, r := range page.Reviews {
//	    fmt.Println(r.Day(), r.Vote)
//	}
package steam
