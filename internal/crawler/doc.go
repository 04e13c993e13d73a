// Package crawler walks a hospital directory over a numeric ID range
// and extracts hospital profiles and per-department doctor listings.
//
// The package has two layers. Parser turns fetched HTML into model
// values using a configurable CSS selector set, and Spider orchestrates
// the crawl: it pages through doctor listings department by department,
// persists every record as soon as it is extracted, and checkpoints its
// position so an interrupted run resumes where it stopped.
package crawler
