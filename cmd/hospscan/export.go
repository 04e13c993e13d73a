package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hospscan/hospscan/internal/checkpoint"
	"github.com/hospscan/hospscan/internal/config"
	"github.com/hospscan/hospscan/internal/database"
	"github.com/hospscan/hospscan/internal/export"
	"github.com/hospscan/hospscan/internal/model"
)

// topHospitalsLimit caps the ranking table in exported summaries.
const topHospitalsLimit = 10

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a summary of crawled data",
		Long: `Export summarizes everything stored by previous crawls.

The summary covers hospital counts by fetch status, the number of stored
doctor records, and the hospitals with the most doctors. Markdown is the
default format.

Examples:
  # Print a Markdown summary
  hospscan export

  # Write a JSON summary to a file
  hospscan export --json -o summary.json`,
		RunE: runExportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary to the specified file path (creates directories if needed)")
	cmd.Flags().String("out-dir", config.DefaultOutDir,
		"Crawl output directory holding the checkpoint files")
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Base URL of the crawled directory")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	cfg.OutDir, err = cmd.Flags().GetString("out-dir")
	if err != nil {
		return err
	}
	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}
	cfg.DBDir = config.XDGDataDir()

	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(cfg.DBDir, database.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database (run a crawl first): %w", err)
	}
	defer db.Close()

	summary, err := buildSummary(cmd.Context(), db, cfg)
	if err != nil {
		return err
	}

	return writeSummary(cfg, summary)
}

// buildSummary assembles a crawl summary from the database and, when
// present, the checkpoint in the output directory.
func buildSummary(ctx context.Context, db *database.CrawlDB, cfg *config.Config) (*export.Summary, error) {
	counts, err := db.CountHospitalsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count hospitals: %w", err)
	}

	doctors, err := db.CountDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count doctors: %w", err)
	}

	top, err := db.TopHospitals(ctx, topHospitalsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank hospitals: %w", err)
	}

	summary := &export.Summary{
		GeneratedAt:       time.Now(),
		BaseURL:           cfg.BaseURL,
		HospitalsOK:       counts[model.HospitalOK],
		HospitalsNotFound: counts[model.HospitalNotFound],
		HospitalsFailed:   counts[model.HospitalError],
		DoctorsTotal:      doctors,
	}
	for _, t := range top {
		summary.TopHospitals = append(summary.TopHospitals, export.HospitalCount{
			ID:      t.HospitalID,
			Name:    t.Name,
			Doctors: t.Doctors,
		})
	}

	// The checkpoint is optional; an absent or foreign one just leaves
	// the range blank.
	if store, err := checkpoint.NewStore(cfg.OutDir); err == nil {
		if progress, err := store.LoadProgress(); err == nil && progress != nil {
			summary.HospitalRange = progress.HospitalRange
		}
	}

	return summary, nil
}

// writeSummary outputs the summary in the requested format.
func writeSummary(cfg *config.Config, summary *export.Summary) error {
	var output io.Writer = os.Stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer export.Writer
	if cfg.JSONReport {
		writer = export.NewJSONWriter(output, export.WithPrettyPrint())
	} else {
		writer = export.NewMarkdownWriter(output)
	}

	_, err := writer.Write(summary)
	return err
}
