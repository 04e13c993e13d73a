package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hospscan/hospscan/internal/model"
)

// dbFileName is the SQLite file created inside the database directory.
const dbFileName = "hospscan.db"

// CrawlDB stores hospitals and doctors scraped from the directory.
// It manages connection pooling and provides UPSERT semantics keyed on
// page URLs, so re-crawling a page updates the stored record in place.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to forbid creation, mode=rwc to
	// allow it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids
	// SQLITE_BUSY churn during the crawl's steady insert load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Hospitals are keyed by their directory ID.
	CREATE TABLE IF NOT EXISTS hospitals (
		hospital_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		logo_url TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		page_url TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_hospitals_status ON hospitals(status);

	-- Doctors are keyed by their profile URL.
	CREATE TABLE IF NOT EXISTS doctors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hospital_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		hospital TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		sub_department TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		specialty TEXT NOT NULL DEFAULT '',
		profile_url TEXT NOT NULL UNIQUE,
		avatar_url TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_doctors_hospital ON doctors(hospital_id);
	CREATE INDEX IF NOT EXISTS idx_doctors_department ON doctors(department);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertHospital inserts or updates a hospital record.
func (cdb *CrawlDB) UpsertHospital(ctx context.Context, h model.Hospital) error {
	query := `
	INSERT INTO hospitals (hospital_id, name, logo_url, tags, description, website, page_url, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(hospital_id) DO UPDATE SET
		name = excluded.name,
		logo_url = excluded.logo_url,
		tags = excluded.tags,
		description = excluded.description,
		website = excluded.website,
		page_url = excluded.page_url,
		status = excluded.status,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err := cdb.db.ExecContext(ctx, query,
		h.ID,
		h.Name,
		h.LogoURL,
		strings.Join(h.Tags, ","),
		h.Description,
		h.Website,
		h.PageURL,
		string(h.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert hospital %d: %w", h.ID, err)
	}
	return nil
}

// GetHospital retrieves a hospital by directory ID.
// Returns (nil, nil) when the hospital is not stored.
func (cdb *CrawlDB) GetHospital(ctx context.Context, id int) (*model.Hospital, error) {
	query := `
	SELECT hospital_id, name, logo_url, tags, description, website, page_url, status
	FROM hospitals
	WHERE hospital_id = ?
	`

	var h model.Hospital
	var tags, status string

	err := cdb.db.QueryRowContext(ctx, query, id).Scan(
		&h.ID,
		&h.Name,
		&h.LogoURL,
		&tags,
		&h.Description,
		&h.Website,
		&h.PageURL,
		&status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital %d: %w", id, err)
	}

	if tags != "" {
		h.Tags = strings.Split(tags, ",")
	}
	h.Status = model.HospitalStatus(status)

	return &h, nil
}

// UpsertDoctor inserts or updates a doctor record for a hospital.
func (cdb *CrawlDB) UpsertDoctor(ctx context.Context, hospitalID int, d model.Doctor) error {
	query := `
	INSERT INTO doctors (hospital_id, name, title, hospital, department, sub_department, bio, specialty, profile_url, avatar_url)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(profile_url) DO UPDATE SET
		hospital_id = excluded.hospital_id,
		name = excluded.name,
		title = excluded.title,
		hospital = excluded.hospital,
		department = excluded.department,
		sub_department = excluded.sub_department,
		bio = excluded.bio,
		specialty = excluded.specialty,
		avatar_url = excluded.avatar_url,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err := cdb.db.ExecContext(ctx, query,
		hospitalID,
		d.Name,
		d.Title,
		d.Hospital,
		d.Department,
		d.SubDepartment,
		d.Bio,
		d.Specialty,
		d.ProfileURL,
		d.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert doctor %s: %w", d.ProfileURL, err)
	}
	return nil
}

// CountHospitalsByStatus returns stored hospital counts keyed by status.
func (cdb *CrawlDB) CountHospitalsByStatus(ctx context.Context) (map[model.HospitalStatus]int, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM hospitals GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count hospitals: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.HospitalStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan hospital count: %w", err)
		}
		counts[model.HospitalStatus(status)] = n
	}

	return counts, rows.Err()
}

// CountDoctors returns the number of stored doctor records.
func (cdb *CrawlDB) CountDoctors(ctx context.Context) (int, error) {
	var n int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}

// HospitalDoctorCount pairs a hospital with its stored doctor count.
type HospitalDoctorCount struct {
	HospitalID int
	Name       string
	Doctors    int
}

// TopHospitals returns the hospitals with the most stored doctors,
// largest first, up to limit entries.
func (cdb *CrawlDB) TopHospitals(ctx context.Context, limit int) ([]HospitalDoctorCount, error) {
	query := `
	SELECT h.hospital_id, h.name, COUNT(d.id) AS doctors
	FROM hospitals h
	JOIN doctors d ON d.hospital_id = h.hospital_id
	GROUP BY h.hospital_id, h.name
	ORDER BY doctors DESC, h.hospital_id ASC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top hospitals: %w", err)
	}
	defer rows.Close()

	var results []HospitalDoctorCount
	for rows.Next() {
		var hc HospitalDoctorCount
		if err := rows.Scan(&hc.HospitalID, &hc.Name, &hc.Doctors); err != nil {
			return nil, fmt.Errorf("failed to scan top hospital: %w", err)
		}
		results = append(results, hc)
	}

	return results, rows.Err()
}
