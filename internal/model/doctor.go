package model

import "fmt"

// Doctor is a single doctor record extracted from a detail page.
// The listing card supplies the profile URL and a fallback avatar; every
// other field comes from the detail page itself.
type Doctor struct {
	// Name is the doctor's display name.
	Name string `json:"name"`

	// Title is the professional title (chief physician, attending, ...).
	Title string `json:"title,omitempty"`

	// Hospital is the name of the hospital the doctor belongs to.
	Hospital string `json:"hospital"`

	// Department is the main department the doctor was listed under.
	Department string `json:"department,omitempty"`

	// SubDepartment is the sub-department shown on the detail page.
	SubDepartment string `json:"sub_department,omitempty"`

	// Bio is the introduction paragraph.
	Bio string `json:"bio,omitempty"`

	// Specialty describes what the doctor is good at.
	Specialty string `json:"specialty,omitempty"`

	// ProfileURL is the full URL of the detail page. This is the
	// deduplication key within a hospital's doctors CSV.
	ProfileURL string `json:"profile_url"`

	// AvatarURL is the portrait image URL. When the detail page has no
	// usable avatar the listing-card image is used instead.
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DoctorCSVHeader is the column layout of per-hospital doctor CSV files.
// The order must match Doctor.CSVRow.
var DoctorCSVHeader = []string{
	"name", "title", "hospital", "department", "sub_department", "bio", "specialty", "profile_url", "avatar_url",
}

// CSVRow renders the doctor as a row matching DoctorCSVHeader.
func (d Doctor) CSVRow() []string {
	return []string{
		d.Name,
		d.Title,
		d.Hospital,
		d.Department,
		d.SubDepartment,
		d.Bio,
		d.Specialty,
		d.ProfileURL,
		d.AvatarURL,
	}
}

// DoctorFromCSVRow parses a row written by CSVRow.
func DoctorFromCSVRow(row []string) (Doctor, error) {
	if len(row) != len(DoctorCSVHeader) {
		return Doctor{}, fmt.Errorf("doctor row has %d columns, want %d", len(row), len(DoctorCSVHeader))
	}

	return Doctor{
		Name:          row[0],
		Title:         row[1],
		Hospital:      row[2],
		Department:    row[3],
		SubDepartment: row[4],
		Bio:           row[5],
		Specialty:     row[6],
		ProfileURL:    row[7],
		AvatarURL:     row[8],
	}, nil
}

// Target is a doctor detail page waiting to be fetched. Targets are
// collected from listing cards and persisted to the pending work list so
// an interrupted run can finish the department it was in.
type Target struct {
	// URL is the doctor detail page URL.
	URL string `json:"url"`

	// AvatarSrc is the avatar image URL taken from the listing card,
	// used as a fallback when the detail page has none.
	AvatarSrc string `json:"avatar_src,omitempty"`
}
