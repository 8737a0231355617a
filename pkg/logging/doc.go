// Package logging provides structured logging configuration for mockapi.
//
// It wraps log/slog so every mockapi component logs the same way. Components
// accept a *slog.Logger in their constructor or through an option; when none
// is supplied they fall back to Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("dispatcher ready", "prefix", "/api/v1")
//
// Two output formats are supported: text for local development and JSON for
// log aggregation.
package logging
