package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogExport logs the outcome of a single message export attempt
func LogExport(account, messageID string, success bool, err error) {
	fields := map[string]interface{}{
		"account":    account,
		"message_id": messageID,
		"success":    success,
	}

	l := GetLogger().WithFields(fields)

	if err != nil {
		l.WithError(err).Error("Export failed")
	} else if success {
		l.Info("Message exported")
	} else {
		l.Debug("Message skipped")
	}
}

// LogPageFetch logs a page fetch from the message source
func LogPageFetch(account string, page, count int, cursor string) {
	GetLogger().DebugWithFields("Page fetched", map[string]interface{}{
		"account": account,
		"page":    page,
		"count":   count,
		"cursor":  cursor,
	})
}

// LogRateLimit logs rate limiting events
func LogRateLimit(operation string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"operation":   operation,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogRunProgress logs export run progress
func LogRunProgress(account string, exported, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(exported) / float64(total) * 100
	}

	GetLogger().WithFields(map[string]interface{}{
		"account":    account,
		"exported":   exported,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Export progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, fields map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(fields) > 0 {
		l = l.WithFields(fields)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
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
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
