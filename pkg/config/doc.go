// Package config loads run parameters for the review scraper.
//
// Values are layered with the following precedence (highest first):
//
//	command line flags > environment variables > .env files > YAML file > defaults
//
// Example:
//
//	cfg, err := config.Load("", map[string]interface{}{
//	    "start": "2024-11-01",
//	    "end":   "2024-12-11",
//	})
//	if err != nil {
//	    // errors.IsConfig(err) is true for every validation failure
//	}
//
// Environment variables use the STEAMREVIEWS_ prefix, for example
// STEAMREVIEWS_API_KEY, STEAMREVIEWS_START_DATE and STEAMREVIEWS_DAILY_CAP.
package config
