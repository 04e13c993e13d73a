// Package database provides SQLite-based storage for crawl results.
//
// The CSV files remain the primary output (and the resume dedup source);
// the database mirrors the same records so the status and export commands
// can answer questions like "how many doctors per hospital" without
// re-reading every CSV.
//
// SQLite via modernc.org/sqlite keeps the store a single CGO-free file,
// and WAL mode gives good concurrent read performance.
package database
