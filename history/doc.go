// Package history keeps a log of analysis reports in an embedded SQLite
// database (modernc.org/sqlite, no cgo) so clients can list recent results.
package history
