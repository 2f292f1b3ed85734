// Package logger provides a structured logging interface for the exporter.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - File output
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "mailexport/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/mailexport.log",
//	}
//	err := logger.Init(cfg)
//
//	// Use the global logger
//	logger.GetLogger().Info("Export started")
//	logger.GetLogger().WithField("account", "user@example.com").Info("Connected")
//	logger.GetLogger().WithError(err).Error("Failed to fetch message")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "engine").
//	    WithField("run_id", runID)
//
//	// Use structured logging
//	log.InfoWithFields("Page fetched", map[string]interface{}{
//	    "page":   3,
//	    "items":  100,
//	    "cursor": "200",
//	})
//
// For tests, NewTestLogger records every message so assertions can check
// what was logged, and NewNopLogger discards everything.
package logger
