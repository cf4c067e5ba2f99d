// Package logging provides structured logging utilities for calmate.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger once and pass it down explicitly:
//
//	logger, err := logging.New("info", "text", os.Stderr)
//
// Attach standard attributes:
//
//	logger = logging.WithOperation(logger, "calendar.list")
//	logger.Info("listing events",
//	    logging.Calendar("primary"),
//	    logging.Status(logging.StatusSuccess))
//
// Credentials are never logged directly; use SanitizeToken.
package logging
