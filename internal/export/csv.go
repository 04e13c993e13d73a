package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Output file layout inside the crawl output directory.
const (
	// HospitalsFileName is the global hospitals CSV.
	HospitalsFileName = "hospitals.csv"

	// DoctorsDirName is the subdirectory holding one doctors CSV per
	// hospital.
	DoctorsDirName = "doctors"
)

// utf8BOM is prepended when a CSV file is created so spreadsheet tools
// detect the encoding; the original scraper wrote utf-8-sig for the same
// reason.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// illegalFilenameChars matches characters that cannot appear in file names
// on common filesystems.
var illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeFilename strips illegal characters from a name and replaces
// spaces with underscores, making hospital names safe as file names.
func SanitizeFilename(name string) string {
	s := illegalFilenameChars.ReplaceAllString(name, "")
	return strings.ReplaceAll(s, " ", "_")
}

// HospitalsCSVPath returns the path of the global hospitals CSV.
func HospitalsCSVPath(outDir string) string {
	return filepath.Join(outDir, HospitalsFileName)
}

// DoctorsCSVPath returns the per-hospital doctors CSV path:
// <outDir>/doctors/hospital_<id>_<sanitized name>.csv
func DoctorsCSVPath(outDir string, hospitalID int, hospitalName string) string {
	name := fmt.Sprintf("hospital_%d_%s.csv", hospitalID, SanitizeFilename(hospitalName))
	return filepath.Join(outDir, DoctorsDirName, name)
}

// AppendRow appends one row to a CSV file, creating the file (and parent
// directories) with the header on first use.
func AppendRow(path string, header, row []string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // Output path is user-configured
	if err != nil {
		return fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer f.Close()

	if isNew {
		if _, err := f.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM to %s: %w", path, err)
		}
	}

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header to %s: %w", path, err)
		}
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row to %s: %w", path, err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file %s: %w", path, err)
	}
	return nil
}

// LoadLinkColumn returns the set of non-empty values in the named column
// of a CSV file. A missing file yields an empty set: nothing was saved
// yet, so nothing is skipped.
//
// This is the save-as-you-go deduplication: the files themselves are the
// record of what a previous run already persisted.
func LoadLinkColumn(path, column string) (map[string]bool, error) {
	links := make(map[string]bool)

	f, err := os.Open(path) //nolint:gosec // Output path is user-configured
	if err != nil {
		if os.IsNotExist(err) {
			return links, nil
		}
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(skipBOM(f))
	r.FieldsPerRecord = -1 // tolerate rows from older layouts

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return links, nil
		}
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}

	col := -1
	for i, name := range header {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in %s", column, path)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row from %s: %w", path, err)
		}
		if col < len(row) && row[col] != "" {
			links[row[col]] = true
		}
	}

	return links, nil
}

// skipBOM strips a leading UTF-8 BOM if present.
func skipBOM(f *os.File) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(f, buf)
	if err != nil || n < 3 || buf[0] != utf8BOM[0] || buf[1] != utf8BOM[1] || buf[2] != utf8BOM[2] {
		// Not a BOM (or short file): rewind and read everything.
		_, _ = f.Seek(0, io.SeekStart)
	}
	return f
}
