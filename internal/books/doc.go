// Package books persists books, extracted pages, scenes, and processing
// errors in SQLite.
//
// The store owns the book status lifecycle: every status change goes through
// the transition table, so a book can never jump from pending to published or
// leave a terminal state except through an explicit retry. All write paths
// retry briefly on SQLITE_BUSY because the CLI and pipeline may touch the
// database concurrently.
package books
