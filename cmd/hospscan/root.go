package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for hospscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hospscan",
		Short: "Hospital directory crawler",
		Long: `hospscan crawls a hospital directory website over a numeric ID range.

For each hospital it extracts the profile (name, grade tags, introduction,
official website) and walks the doctor listing department by department,
saving every doctor's detail page. Results are appended to CSV files as
soon as they are extracted, and the crawl position is checkpointed so an
interrupted run resumes where it stopped.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
