// Package logging constructs the slog loggers used across the pipeline.
//
// It provides a console handler (timestamped key=value lines with the
// component name folded into the message prefix), a JSON handler for
// machine-readable output, attribute helpers, and context-derived fields so
// every log line produced while processing a book carries the book ID, phase,
// and correlation ID.
package logging
