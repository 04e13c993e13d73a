package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hospscan/hospscan/internal/config"
	"github.com/hospscan/hospscan/internal/database"
	"github.com/hospscan/hospscan/internal/export"
	"github.com/hospscan/hospscan/internal/model"
)

// TestNewExportCmd tests the export command creation.
func TestNewExportCmd(t *testing.T) {
	t.Parallel()

	cmd := NewExportCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "export" {
			t.Errorf("expected use 'export', got %q", cmd.Use)
		}
	})

	t.Run("has format flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// seedDB creates a database with one crawled hospital and two doctors.
func seedDB(t *testing.T) *database.CrawlDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})

	ctx := context.Background()
	h := model.Hospital{
		ID:      1,
		Name:    "仁济医院",
		PageURL: "https://www.youlai.cn/yyk/hospindex/1/",
		Status:  model.HospitalOK,
	}
	if err := db.UpsertHospital(ctx, h); err != nil {
		t.Fatalf("UpsertHospital() error = %v", err)
	}
	for _, u := range []string{"https://www.youlai.cn/doctor/101/", "https://www.youlai.cn/doctor/102/"} {
		d := model.Doctor{Name: "医生", Hospital: h.Name, ProfileURL: u}
		if err := db.UpsertDoctor(ctx, 1, d); err != nil {
			t.Fatalf("UpsertDoctor() error = %v", err)
		}
	}
	return db
}

// TestBuildSummary tests summary assembly from the database.
func TestBuildSummary(t *testing.T) {
	t.Parallel()

	db := seedDB(t)

	cfg := config.NewConfig()
	summary, err := buildSummary(context.Background(), db, cfg)
	if err != nil {
		t.Fatalf("buildSummary() error = %v", err)
	}

	if summary.HospitalsOK != 1 {
		t.Errorf("HospitalsOK = %d, want 1", summary.HospitalsOK)
	}
	if summary.DoctorsTotal != 2 {
		t.Errorf("DoctorsTotal = %d, want 2", summary.DoctorsTotal)
	}
	if len(summary.TopHospitals) != 1 || summary.TopHospitals[0].Doctors != 2 {
		t.Errorf("TopHospitals = %+v, want one entry with 2 doctors", summary.TopHospitals)
	}
	if summary.BaseURL != cfg.BaseURL {
		t.Errorf("BaseURL = %q, want %q", summary.BaseURL, cfg.BaseURL)
	}
}

// TestWriteSummary tests format selection and file output.
func TestWriteSummary(t *testing.T) {
	t.Parallel()

	db := seedDB(t)

	cfg := config.NewConfig()
	summary, err := buildSummary(context.Background(), db, cfg)
	if err != nil {
		t.Fatalf("buildSummary() error = %v", err)
	}

	t.Run("json to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "summary.json")
		c := *cfg
		c.JSONReport = true
		c.ReportFile = path

		if err := writeSummary(&c, summary); err != nil {
			t.Fatalf("writeSummary() error = %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output file: %v", err)
		}

		var decoded export.Summary
		if err := json.Unmarshal(content, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.DoctorsTotal != 2 {
			t.Errorf("DoctorsTotal = %d, want 2", decoded.DoctorsTotal)
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "summary.md")
		c := *cfg
		c.MarkdownReport = true
		c.ReportFile = path

		if err := writeSummary(&c, summary); err != nil {
			t.Fatalf("writeSummary() error = %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read output file: %v", err)
		}
		if !strings.Contains(string(content), "# Hospital Directory Crawl Summary") {
			t.Errorf("output missing markdown heading:\n%s", content)
		}
	})
}
