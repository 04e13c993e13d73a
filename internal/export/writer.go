package export

import (
	"io"
	"time"
)

// Summary is a condensed view of everything a crawl has stored so far.
// It is assembled from the database by the export and status commands.
type Summary struct {
	// GeneratedAt is when the summary was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// BaseURL is the directory that was crawled.
	BaseURL string `json:"base_url"`

	// HospitalRange is the planned ID range, when a checkpoint exists.
	HospitalRange string `json:"hospital_range,omitempty"`

	// HospitalsOK, HospitalsNotFound, and HospitalsFailed count stored
	// hospitals by fetch status.
	HospitalsOK       int `json:"hospitals_ok"`
	HospitalsNotFound int `json:"hospitals_not_found"`
	HospitalsFailed   int `json:"hospitals_failed"`

	// DoctorsTotal is the number of stored doctor records.
	DoctorsTotal int `json:"doctors_total"`

	// TopHospitals lists the hospitals with the most stored doctors,
	// largest first.
	TopHospitals []HospitalCount `json:"top_hospitals,omitempty"`
}

// HospitalCount pairs a hospital with its stored doctor count.
type HospitalCount struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Doctors int    `json:"doctors"`
}

// HospitalsTotal returns the number of stored hospitals across statuses.
func (s *Summary) HospitalsTotal() int {
	return s.HospitalsOK + s.HospitalsNotFound + s.HospitalsFailed
}

// Writer outputs a crawl summary in some format.
type Writer interface {
	// Write outputs the summary to the configured destination and
	// returns the number of bytes written.
	Write(summary *Summary) (int, error)
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// MultiWriter writes a summary to several Writers, e.g. terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers, stopping on the
// first error. Returns the total bytes written.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
