// Package main implements scribe, a git-backed journal of editing activity.
//
// scribe counts how often each file in a workspace is opened and changed.
// Every interval it appends a timestamped snapshot of those counts to a
// daily markdown log and commits it into a git repository that lives in
// the workspace (.scribe by default). At the first tick after midnight it
// writes a daily summary of the previous day, and around Sunday 23:59 a
// weekly summary, both built from the commit history.
//
// # Basic Usage
//
//	my-editor-plugin | scribe run      # Read JSON-line events from stdin
//	scribe run --source watch          # Track file writes in the workspace instead
//	scribe run --interval 5            # Snapshot every 5 minutes
//	scribe history                     # List recent snapshots
//	scribe restore                     # Inspect a snapshot, restore it or branch from it
//	scribe diff                        # Diff two of the last five snapshots
//	scribe summarize weekly            # Write this week's summary now
//	scribe stats --days 30             # Most edited files from the activity index
//
// # Event Stream
//
// With the default stdin source every line is one JSON object:
//
//	{"type":"open","path":"src/main.go"}
//	{"type":"change","path":"src/main.go","changes":3}
//
// Malformed lines are skipped. Closing the stream stops scribe after a
// final snapshot.
//
// # Configuration Options
//
// Settings come from flags, SCRIBE_* environment variables and an optional
// .scribe.yaml in the workspace or $HOME, in that order of precedence:
//
//	--workspace        Project directory (env: SCRIBE_WORKSPACE)
//	--dir              Log store directory (env: SCRIBE_DIR)
//	--interval         Minutes between snapshots (env: SCRIBE_INTERVAL)
//	--source           stdin, watch or none (env: SCRIBE_SOURCE)
//	--quiet            Hide informational messages (env: SCRIBE_QUIET)
//	--debug            Write a debug log (env: SCRIBE_DEBUG)
//	--shutdown-timeout Wait for the final commit (env: SCRIBE_SHUTDOWN_TIMEOUT)
//	--metrics-addr     Serve Prometheus metrics (env: SCRIBE_METRICS_ADDR)
//	--no-index         Disable the activity index (env: SCRIBE_INDEX_ENABLED=false)
//
// Changing interval in the config file while scribe runs takes effect from
// the next tick.
//
// Only one scribe process may write to a log store at a time. SIGINT,
// SIGTERM and SIGHUP stop it gracefully; a second signal exits at once.
package main
