// Package history browses the log store's commits.
//
// It backs the restore, diff and hello commands. Choices are made through
// a UserInteractor: a numbered menu on a terminal (with readline editing
// when stdin is a TTY), or NonInteractiveInteractor, which cancels every
// prompt so scripted runs never block.
package history
