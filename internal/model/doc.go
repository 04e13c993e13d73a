// Package model defines the flat records produced by a crawl: hospitals,
// doctors, and the department filters used to walk doctor listings.
// These types are shared by the crawler, the CSV/Markdown exporters, and
// the SQLite store.
package model
