// Package scheduler drives scribe's periodic work.
//
// A single goroutine, Scheduler.Run, multiplexes editor events and ticks.
// On every tick it drains the edit store into the day's log, queues a
// commit, and checks two calendar boundaries by polling:
//
//   - daily: the first tick during hour 0 of a day queues a summary of the
//     previous day, once per day.
//   - weekly: a tick within one interval of Sunday 23:59 queues a summary of
//     the last seven days, once per week.
//
// A boundary passed while the process is stopped or asleep is skipped, not
// caught up. Intervals longer than an hour can step over hour 0 entirely.
//
// git work runs on a separate single-worker queue; the loop only waits on
// it while flushing during shutdown.
package scheduler
