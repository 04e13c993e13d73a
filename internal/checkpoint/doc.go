// Package checkpoint persists crawl progress so interrupted runs can
// resume. Two files live next to the CSV output: progress.json holds the
// cursor (hospital ID range, current hospital, department indexes) and
// pending_doctors.json holds the doctor detail pages collected from a
// listing but not yet fetched.
//
// Writes are atomic (temp file + rename) so a crash mid-write leaves the
// previous checkpoint intact rather than a truncated file.
package checkpoint
