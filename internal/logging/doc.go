// Package logging provides syslog-style logging built on log/slog.
//
// Logging is split between sources and sinks. A [Logger] is a source: it
// renders messages and emits them as events, writing nothing. A [Log] is a
// sink: it formats messages as lines and writes them out. [Log.Watch] connects
// the two.
//
// # Priorities
//
// Messages carry one of the eight RFC 5424 priorities, from [Emergency] (0)
// to [Debug] (7). Each maps to a slog level, so a Logger can also be driven
// through the *slog.Logger returned by [Logger.Slog].
//
// # Line Format
//
// A Log writes one line per message:
//
//	2011-02-17 14:03:27 INFO: server started port=8080
//
// Priorities Emergency through Warning go to the error writer (stderr by
// default), Notice through Debug to the output writer (stdout).
//
// # Basic Usage
//
//	logger := logging.NewLogger("server", logging.Info)
//	log := logging.NewLog()
//	log.Watch(logger)
//
//	logger.Info("server started", "port", 8080)
//	logger.With("conn", id).Warn("slow client")
//
// # Files
//
// [RotatingWriter] rotates a log file by size, optionally gzipping old files.
// [ReadEntries], [FilterEntries] and [ExportEntries] read written logs back
// for filtering and export as JSON, text or CSV.
//
// # Thread Safety
//
// Logger, Log and RotatingWriter are safe for concurrent use.
package logging
