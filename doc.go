// Package scribe keeps a git-versioned journal of editing activity.
//
// scribe turns a stream of editor events into a markdown log that is
// snapshotted and committed every interval, then condenses the commit
// history into daily and weekly summaries.
//
// # Quick Start
//
//	# From your project directory, pipe an editor integration into scribe
//	my-editor-plugin | scribe run
//
//	# Or let scribe watch the workspace itself
//	scribe run --source watch
//
//	# Press Ctrl+C to stop; pending edits are flushed first
//
// # Module Structure
//
//   - cmd/scribe: Command-line interface
//   - internal/activity: Edit counting and event sources
//   - internal/snapshot: Markdown log rendering and appends
//   - internal/summary: Daily and weekly summaries
//   - internal/scheduler: The tick loop and calendar boundaries
//   - internal/git: Log store repository and the serial task queue
//   - internal/history: Restore, diff and history browsing
//   - internal/index: SQLite activity index
//   - internal/metrics: Prometheus metrics
//   - internal/config: Configuration loading
//   - internal/lock: Single-writer process lock
//   - internal/logger: Logging facilities
//   - internal/errors: Error handling utilities
package scribe
