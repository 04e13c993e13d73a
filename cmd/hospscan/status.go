package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hospscan/hospscan/internal/checkpoint"
	"github.com/hospscan/hospscan/internal/config"
	"github.com/hospscan/hospscan/internal/database"
	"github.com/hospscan/hospscan/internal/model"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show crawl progress and stored record counts",
		Long: `Status reports where the crawl stands.

It reads the checkpoint files in the output directory and the record
counts from the database, and prints a short human-readable summary.

Examples:
  # Show progress of the default output directory
  hospscan status

  # Show progress of a specific crawl
  hospscan status --out-dir ./beijing-run`,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("out-dir", config.DefaultOutDir,
		"Crawl output directory holding the checkpoint files")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	store, err := checkpoint.NewStore(outDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	progress, err := store.LoadProgress()
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	if progress == nil {
		fmt.Fprintf(out, "No checkpoint in %s (no crawl started, or it was removed)\n", outDir)
	} else {
		fmt.Fprintf(out, "Range:   %s\n", progress.HospitalRange)
		fmt.Fprintf(out, "Cursor:  hospital %d (department %d, sub-department %d)\n",
			progress.CurrentHospitalID, progress.MainDeptIndex, progress.SubDeptIndex)
		if pending := store.LoadPending(); len(pending) > 0 {
			fmt.Fprintf(out, "Pending: %d doctor pages left in the current department\n", len(pending))
		}
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{})
	if err != nil {
		// The database only exists after a first crawl.
		fmt.Fprintln(out, "\nNo database yet.")
		return nil
	}
	defer db.Close()

	counts, err := db.CountHospitalsByStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count hospitals: %w", err)
	}
	doctors, err := db.CountDoctors(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count doctors: %w", err)
	}

	fmt.Fprintf(out, "\nStored hospitals: %d ok, %d not found, %d failed\n",
		counts[model.HospitalOK], counts[model.HospitalNotFound], counts[model.HospitalError])
	fmt.Fprintf(out, "Stored doctors:   %d\n", doctors)

	return nil
}
