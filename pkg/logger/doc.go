// Package logger provides the structured logging interface used across
// steamreviews.
//
// It wraps zerolog behind a small Logger interface so that components can
// attach fields without depending on zerolog directly, and so that tests can
// swap in a TestLogger that captures messages.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//
//	logger.WithField("app_id", cfg.Steam.AppID).Info("Starting review walk")
//	logger.LogPage(3, 1000, "2024-12-10", "2024-12-02")
//
// Console output goes to stderr. When LoggingConfig.File is set, JSON lines
// are appended to that file as well.
package logger
