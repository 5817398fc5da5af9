// Package logger provides the structured logging interface used across ttscraper.
//
// It wraps zerolog with a small interface supporting leveled messages,
// structured fields, colored console output on stderr and optional
// size-rotated file output through lumberjack.
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.WithField("username", "alice").Info("Harvest started")
//
// Components usually take a Logger in their constructor; tests pass
// NewTestLogger or NewNopLogger.
package logger
