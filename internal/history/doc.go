// Package history persists run reports into a SQLite journal so past
// automation runs can be inspected later.
package history
