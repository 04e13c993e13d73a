// Package export writes crawl results to their output formats.
//
// The CSV side is append-only: rows are added as they are scraped, the
// header is written once when a file is created, and the URL columns can
// be reloaded into a set so a resumed run skips work it already saved.
// On top of that, the package offers Markdown and JSON run summaries for
// the export command.
package export
