// Package log captures registry events for SNAMP.
//
// The Logger interface and Event types record what happens to the feature
// registry: features being registered and removed, attribute reads and
// writes with their outcome, notification deliveries and drops, and
// errors. It is separate from operational logging (slog); event capture is
// a machine-readable trace for auditing and analysis.
//
// # Basic Usage
//
// Registries and acceptors accept a Logger in their options:
//
//	// For development: log to console via slog
//	opts.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: append to a binary file
//	opts.EventLogger, _ = log.NewFileLogger("/var/log/snamp/registry.slog")
//
//	// Both
//	opts.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys. The
// snamp-log tool views and summarizes them.
package log
