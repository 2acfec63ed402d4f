// Package activity tracks which files are being edited and how often.
//
// A Store maps paths to edit counts. Events from a Source (the editor's
// JSON-lines stream, or a filesystem watcher) are applied to the Store by
// the scheduler loop, which drains it on every tick.
package activity
