package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPage logs the date range covered by a fetched page
func LogPage(pageIndex, records int, newest, oldest string) {
	GetLogger().WithFields(map[string]interface{}{
		"page":    pageIndex,
		"records": records,
		"newest":  newest,
		"oldest":  oldest,
	}).Debug("Fetched review page")
}

// LogAdmitProgress logs how many reviews have been admitted so far
func LogAdmitProgress(admitted, days, pageIndex int) {
	GetLogger().WithFields(map[string]interface{}{
		"admitted": admitted,
		"days":     days,
		"page":     pageIndex,
	}).Info("Collection progress")
}

// LogStop logs why the walk ended
func LogStop(reason string, pages, admitted int, err error) {
	l := GetLogger().WithFields(map[string]interface{}{
		"stop_reason": reason,
		"pages":       pages,
		"admitted":    admitted,
	})
	if err != nil {
		l.WithError(err).Warn("Review walk stopped")
		return
	}
	l.Info("Review walk stopped")
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
