package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the behavior of the original directory scraper where
// applicable (ID range, politeness pauses) and common sense elsewhere.
const (
	// DefaultBaseURL is the root of the hospital directory.
	DefaultBaseURL = "https://www.youlai.cn"

	// DefaultRange is the hospital ID range crawled when none is given.
	// The directory's IDs are dense in this range; IDs without a hospital
	// are recorded as not_found and skipped on later runs.
	DefaultRange = "1-10099"

	// DefaultTimeout is the per-request timeout. The directory is a
	// clearnet site, so a modest timeout keeps dead IDs from stalling
	// the crawl.
	DefaultTimeout = 20 * time.Second

	// DefaultDelay is the politeness pause between requests. The original
	// scraper slept 1.5-3.5 seconds between department switches; one
	// second per request lands in the same ballpark without making full
	// runs unbearably slow.
	DefaultDelay = 1 * time.Second

	// DefaultHospitalPause is the extra pause after finishing a hospital.
	DefaultHospitalPause = 5 * time.Second

	// DefaultMaxDoctorPages caps the numbered list pages walked per
	// department, protecting against pagination that never ends.
	DefaultMaxDoctorPages = 50

	// DefaultBatchSize of 1 keeps the crawl sequential, which is what the
	// resume cursor was designed around. Values above 1 crawl hospitals
	// concurrently; the cursor then only advances over the contiguous
	// prefix of finished IDs.
	DefaultBatchSize = 1

	// DefaultMaxBodySize limits the response body size to read.
	// Directory pages are small; 5MB leaves generous headroom while
	// preventing memory exhaustion from unexpected responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutDir is the directory for CSV output and checkpoint files,
	// relative to the working directory.
	DefaultOutDir = "hospscan-data"

	// AppName is the application name used for XDG directory paths.
	AppName = "hospscan"
)

// URL path templates for the directory. The hospital profile and its
// doctor list are both addressed by the numeric hospital ID.
const (
	// HospitalPathFormat is the profile page path for a hospital ID.
	HospitalPathFormat = "/yyk/hospindex/%d/"

	// DoctorListPathFormat is the doctor-list page path for a hospital ID.
	// Department and page selection are appended as query parameters
	// (dept, sub, page).
	DoctorListPathFormat = "/yyk/hospindex/%d/doctorlist.html"
)

// Config holds all configuration options for hospscan.
// It is populated from CLI flags plus the optional .hospscan file and passed
// through the application by value reference rather than global state.
type Config struct {
	// BaseURL is the root URL of the hospital directory.
	BaseURL string

	// RangeStart and RangeEnd bound the hospital IDs to crawl, inclusive.
	RangeStart int
	RangeEnd   int

	// OutDir is the directory that receives hospitals.csv, the per-hospital
	// doctors CSVs, and the checkpoint files.
	OutDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Delay is the politeness pause between requests.
	Delay time.Duration

	// HospitalPause is the extra pause after each completed hospital.
	HospitalPause time.Duration

	// MaxDoctorPages caps numbered list pages per department.
	MaxDoctorPages int

	// BatchSize is the number of hospitals crawled concurrently.
	// 1 means strictly sequential crawling.
	BatchSize int

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent pins the User-Agent header. Empty means a random browser
	// User-Agent is chosen per run.
	UserAgent string

	// Verbose enables debug-level logging.
	Verbose bool

	// ConfigFilePath is an explicit path to the .hospscan file. If empty,
	// the current directory and then the home directory are searched.
	ConfigFilePath string

	// Sites holds per-site profiles loaded from the config file.
	Sites *File

	// DBDir is the directory for the SQLite database. Defaults to the
	// XDG data directory.
	DBDir string

	// SaveToDB mirrors crawl results into the SQLite database in
	// addition to the CSV files.
	SaveToDB bool

	// JSONReport and MarkdownReport select the export format.
	// Mutually exclusive; both false means Markdown.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is where export output is written. Empty means stdout.
	ReportFile string
}

// NewConfig creates a Config with default values.
// Defaults are documented on the constants above; the range parses from
// DefaultRange and is therefore always valid here.
func NewConfig() *Config {
	start, end, _ := ParseRange(DefaultRange)
	return &Config{
		BaseURL:        DefaultBaseURL,
		RangeStart:     start,
		RangeEnd:       end,
		OutDir:         DefaultOutDir,
		Timeout:        DefaultTimeout,
		Delay:          DefaultDelay,
		HospitalPause:  DefaultHospitalPause,
		MaxDoctorPages: DefaultMaxDoctorPages,
		BatchSize:      DefaultBatchSize,
		MaxBodySize:    DefaultMaxBodySize,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// ParseRange parses a "start-end" hospital ID range.
// Both bounds are inclusive and must be positive with start <= end.
func ParseRange(s string) (start, end int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	if start <= 0 || end < start {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	return start, end, nil
}

// Range renders the configured ID range in "start-end" form, the same
// format stored in the checkpoint file.
func (c *Config) Range() string {
	return fmt.Sprintf("%d-%d", c.RangeStart, c.RangeEnd)
}

// HospitalURL returns the profile page URL for a hospital ID.
func (c *Config) HospitalURL(id int) string {
	return strings.TrimSuffix(c.BaseURL, "/") + fmt.Sprintf(HospitalPathFormat, id)
}

// DoctorListURL returns the doctor-list page URL for a hospital ID.
func (c *Config) DoctorListURL(id int) string {
	return strings.TrimSuffix(c.BaseURL, "/") + fmt.Sprintf(DoctorListPathFormat, id)
}

// XDGDataDir returns the XDG data directory for hospscan.
// On Linux: ~/.local/share/hospscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for hospscan.
// On Linux: ~/.config/hospscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error so callers can
// match with errors.Is; validation runs once after flag parsing.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.RangeStart <= 0 || c.RangeEnd < c.RangeStart {
		return ErrInvalidRange
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxDoctorPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
