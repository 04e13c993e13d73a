package model

import (
	"reflect"
	"testing"
)

// TestHospitalCSVRoundTrip tests that a hospital survives CSV encoding.
func TestHospitalCSVRoundTrip(t *testing.T) {
	t.Parallel()

	h := Hospital{
		ID:          42,
		Name:        "Example General Hospital",
		LogoURL:     "https://cdn.example.com/logo/42.png",
		Tags:        []string{"Grade 3A", "Public"},
		Description: "A teaching hospital.",
		Website:     "https://www.example-hospital.com",
		PageURL:     "https://directory.example.com/yyk/hospindex/42/",
		Status:      HospitalOK,
	}

	row := h.CSVRow()
	if len(row) != len(HospitalCSVHeader) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(HospitalCSVHeader))
	}

	got, err := HospitalFromCSVRow(row)
	if err != nil {
		t.Fatalf("failed to parse row: %v", err)
	}

	if !reflect.DeepEqual(got, h) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, h)
	}
}

// TestHospitalFromCSVRow tests error handling for malformed rows.
func TestHospitalFromCSVRow(t *testing.T) {
	t.Parallel()

	t.Run("wrong column count", func(t *testing.T) {
		t.Parallel()

		if _, err := HospitalFromCSVRow([]string{"1", "name"}); err == nil {
			t.Error("expected error for short row, got nil")
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		t.Parallel()

		row := make([]string, len(HospitalCSVHeader))
		row[0] = "abc"
		if _, err := HospitalFromCSVRow(row); err == nil {
			t.Error("expected error for non-numeric id, got nil")
		}
	})

	t.Run("empty tags stay nil", func(t *testing.T) {
		t.Parallel()

		row := Hospital{ID: 1, PageURL: "u", Status: HospitalNotFound}.CSVRow()
		h, err := HospitalFromCSVRow(row)
		if err != nil {
			t.Fatalf("failed to parse row: %v", err)
		}
		if h.Tags != nil {
			t.Errorf("expected nil tags, got %v", h.Tags)
		}
	})
}

// TestHospitalCrawlable tests the skip rules for doctor crawling.
func TestHospitalCrawlable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hospital Hospital
		want     bool
	}{
		{"ok with name", Hospital{Name: "H", Status: HospitalOK}, true},
		{"ok without name", Hospital{Status: HospitalOK}, false},
		{"not found", Hospital{Name: "H", Status: HospitalNotFound}, false},
		{"fetch error", Hospital{Name: "H", Status: HospitalError}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.hospital.Crawlable(); got != tt.want {
				t.Errorf("Crawlable() = %v, want %v", got, tt.want)
			}
		})
	}
}
