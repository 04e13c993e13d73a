package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hospscan/hospscan/internal/model"
)

// File names inside the checkpoint directory. The names match the original
// scraper's files so existing checkpoints keep working.
const (
	progressFile = "progress.json"
	pendingFile  = "pending_doctors.json"
)

// ErrCorrupt is returned when a checkpoint file exists but does not parse.
// Callers should log a warning and continue with defaults; a damaged
// checkpoint only costs re-crawling, never data loss, because the CSV
// link sets are the source of truth for what was already saved.
var ErrCorrupt = errors.New("checkpoint file is corrupt")

// Progress is the crawl cursor. It identifies the hospital being processed
// and how far into its department filters the crawl has advanced.
type Progress struct {
	// HospitalRange is the planned ID range in "start-end" form.
	// Persisting it lets a resumed run continue the original plan even
	// when invoked without flags.
	HospitalRange string `json:"hospital_range"`

	// CurrentHospitalID is the hospital being (or about to be) processed.
	CurrentHospitalID int `json:"current_hospital_id"`

	// MainDeptIndex is the index of the main department filter in
	// progress, zero-based.
	MainDeptIndex int `json:"main_dept_index"`

	// SubDeptIndex is the index of the sub-department filter in
	// progress, zero-based.
	SubDeptIndex int `json:"sub_dept_index"`
}

// pendingList is the on-disk shape of the pending-doctors file.
type pendingList struct {
	Targets []model.Target `json:"targets"`
}

// Store reads and writes checkpoint files in a single directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LoadProgress reads the saved cursor.
// A missing file returns (nil, nil): the crawl starts fresh.
// A corrupt file returns ErrCorrupt; the caller decides how loudly to warn.
func (s *Store) LoadProgress() (*Progress, error) {
	data, err := os.ReadFile(s.path(progressFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, progressFile)
	}

	return &p, nil
}

// SaveProgress writes the cursor atomically.
func (s *Store) SaveProgress(p Progress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize progress: %w", err)
	}
	return s.writeAtomic(progressFile, data)
}

// LoadPending reads the pending-doctor work list.
// Missing or corrupt files return an empty list; pending targets are an
// optimization for resuming mid-department, not critical state.
func (s *Store) LoadPending() []model.Target {
	data, err := os.ReadFile(s.path(pendingFile))
	if err != nil {
		return nil
	}

	var pl pendingList
	if err := json.Unmarshal(data, &pl); err != nil {
		return nil
	}

	return pl.Targets
}

// SavePending writes the pending-doctor work list atomically.
func (s *Store) SavePending(targets []model.Target) error {
	data, err := json.MarshalIndent(pendingList{Targets: targets}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pending targets: %w", err)
	}
	return s.writeAtomic(pendingFile, data)
}

// RemovePending deletes one target by URL and persists the shortened list.
func (s *Store) RemovePending(url string) error {
	targets := s.LoadPending()
	kept := make([]model.Target, 0, len(targets))
	for _, tgt := range targets {
		if tgt.URL != url {
			kept = append(kept, tgt)
		}
	}
	return s.SavePending(kept)
}

// ClearPending empties the pending-doctor work list.
func (s *Store) ClearPending() error {
	return s.SavePending(nil)
}

// path joins a checkpoint file name to the store directory.
func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// writeAtomic writes data to name via a temp file and rename.
func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set checkpoint permissions: %w", err)
	}

	if err := os.Rename(tmpName, s.path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}
