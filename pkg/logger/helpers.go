package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// orGlobal returns l, or the global logger when l is nil
func orGlobal(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}
	return l
}

// LogDownload records the outcome of a single scheduled media download
func LogDownload(l Logger, username, filename, outcome string, err error) {
	l = orGlobal(l).WithFields(map[string]interface{}{
		"username": username,
		"filename": filename,
		"outcome":  outcome,
	})

	if err != nil {
		l.WithError(err).Error("Download failed")
		return
	}
	l.Debug("Download finished")
}

// LogCommentPage records one page fetched from the comment API
func LogCommentPage(l Logger, kind, id string, cursor, count int, hasMore bool) {
	orGlobal(l).WithFields(map[string]interface{}{
		"kind":     kind,
		"id":       id,
		"cursor":   cursor,
		"count":    count,
		"has_more": hasMore,
	}).Debug("Comment page fetched")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l = orGlobal(l).WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	orGlobal(l).WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogHarvestSummary logs the totals of a finished profile harvest
func LogHarvestSummary(l Logger, sessionID, username string, items, scheduled, skipped, failed int, elapsed time.Duration) {
	orGlobal(l).InfoWithFields("Harvest finished", map[string]interface{}{
		"session_id": sessionID,
		"username":   username,
		"items":      items,
		"scheduled":  scheduled,
		"skipped":    skipped,
		"failed":     failed,
		"elapsed":    elapsed,
	})
}

// NewNopLogger creates a logger that discards everything
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
