package model

import (
	"fmt"
	"strconv"
	"strings"
)

// HospitalStatus records the outcome of fetching a hospital profile page.
//
// Design decision: The status is persisted alongside the record rather than
// encoded into the hospital name (the usual trick of writing placeholder
// names like "invalid_1234"). Keeping the name clean makes the CSV usable
// as-is, and the status column still lets resumed runs skip IDs that were
// already attempted.
type HospitalStatus string

const (
	// HospitalOK means the profile page was fetched and parsed.
	HospitalOK HospitalStatus = "ok"

	// HospitalNotFound means the ID does not correspond to a hospital
	// (404 page or missing profile section).
	HospitalNotFound HospitalStatus = "not_found"

	// HospitalError means the fetch failed (timeout, network error).
	// The ID may be retried on a later run.
	HospitalError HospitalStatus = "error"
)

// Hospital is a single hospital-directory entry.
type Hospital struct {
	// ID is the numeric hospital identifier in the directory.
	// Hospital pages live at <base>/yyk/hospindex/<ID>/.
	ID int `json:"id"`

	// Name is the hospital's display name. Empty when Status is not ok.
	Name string `json:"name"`

	// LogoURL is the hospital logo image URL, if present.
	LogoURL string `json:"logo_url,omitempty"`

	// Tags are the classification labels shown next to the name
	// (e.g. grade, ownership type).
	Tags []string `json:"tags,omitempty"`

	// Description is the introduction paragraph from the profile page.
	Description string `json:"description,omitempty"`

	// Website is the hospital's official website, if listed.
	Website string `json:"website,omitempty"`

	// PageURL is the full URL of the profile page. This is the
	// deduplication key: a hospital whose PageURL already appears in the
	// hospitals CSV is not fetched again.
	PageURL string `json:"page_url"`

	// Status records whether the profile fetch succeeded.
	Status HospitalStatus `json:"status"`
}

// HospitalCSVHeader is the column layout of the hospitals CSV file.
// The order must match Hospital.CSVRow.
var HospitalCSVHeader = []string{
	"hospital_id", "name", "logo_url", "tags", "description", "website", "page_url", "status",
}

// CSVRow renders the hospital as a row matching HospitalCSVHeader.
func (h Hospital) CSVRow() []string {
	return []string{
		strconv.Itoa(h.ID),
		h.Name,
		h.LogoURL,
		strings.Join(h.Tags, ","),
		h.Description,
		h.Website,
		h.PageURL,
		string(h.Status),
	}
}

// HospitalFromCSVRow parses a row written by CSVRow.
func HospitalFromCSVRow(row []string) (Hospital, error) {
	if len(row) != len(HospitalCSVHeader) {
		return Hospital{}, fmt.Errorf("hospital row has %d columns, want %d", len(row), len(HospitalCSVHeader))
	}

	id, err := strconv.Atoi(row[0])
	if err != nil {
		return Hospital{}, fmt.Errorf("invalid hospital id %q: %w", row[0], err)
	}

	var tags []string
	if row[3] != "" {
		tags = strings.Split(row[3], ",")
	}

	return Hospital{
		ID:          id,
		Name:        row[1],
		LogoURL:     row[2],
		Tags:        tags,
		Description: row[4],
		Website:     row[5],
		PageURL:     row[6],
		Status:      HospitalStatus(row[7]),
	}, nil
}

// Crawlable reports whether the hospital's doctor listings should be walked.
// Hospitals that were not found, failed to fetch, or have no usable name are
// skipped entirely.
func (h Hospital) Crawlable() bool {
	return h.Status == HospitalOK && h.Name != ""
}
