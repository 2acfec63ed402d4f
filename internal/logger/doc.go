// Package logger provides scribe's two-channel logging.
//
// Every message is classified as either internal (written to the debug log
// file when debug logging is enabled) or user-facing (always printed to the
// terminal, and additionally recorded in the debug log). The scheduler runs
// unattended, so the debug log is where tick-level detail goes; the terminal
// only sees what a user would want to react to.
//
// # Usage
//
//	log := logger.New(cfg.Debug, cfg.LogFile, cfg.Verbose, os.Stdout, os.Stderr)
//	defer log.Close()
//
//	log.Info("flushed %d paths", n)          // debug file only
//	log.Success("Committed log to %s", path) // terminal + debug file
//	log.Error("snapshot failed: %v", err)    // stderr + debug file
//
// User-facing output is colorized with fatih/color; colors switch off
// automatically when the output is not a terminal.
//
// # Thread Safety
//
// DefaultLogger serializes all writes with a mutex, so the scheduler loop
// and the git task worker can share one instance.
package logger
