package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hospscan/hospscan/internal/checkpoint"
	"github.com/hospscan/hospscan/internal/config"
	"github.com/hospscan/hospscan/internal/crawler"
	"github.com/hospscan/hospscan/internal/database"
	"github.com/hospscan/hospscan/internal/log"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [id-range]",
		Short: "Crawl a hospital directory over an ID range",
		Long: `Crawl walks hospital pages over a numeric ID range.

For each ID it fetches the hospital profile page, then the doctor
listing, iterating every department and sub-department filter and every
list page, and fetches each doctor's detail page. Hospitals go to
hospitals.csv, doctors to one CSV per hospital under doctors/, and every
row is written as soon as it is extracted.

The crawl position is checkpointed in the output directory. Rerunning
the same range resumes at the interrupted hospital, department, and
doctor; hospitals already present in hospitals.csv are skipped.

Examples:
  # Crawl the default ID range
  hospscan crawl

  # Crawl a specific range
  hospscan crawl 1-500

  # Crawl four hospitals at a time
  hospscan crawl --batch 4 1-2000

  # Slow down for a strict site
  hospscan crawl --delay 3s --hospital-pause 10s

  # Use a custom configuration file
  hospscan crawl -c myconfig.yaml

Configuration file (.hospscan) example:
  sites:
    www.youlai.cn:
      cookie: "session_id=abc123"
      delay: 2s
      selectors:
        hospitalName: "h1.hospital-title"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Target flags
	cmd.Flags().StringP("range", "r", config.DefaultRange,
		"Hospital ID range to crawl, inclusive (e.g. 1-10099)")
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Base URL of the hospital directory")
	cmd.Flags().StringP("out-dir", "o", config.DefaultOutDir,
		"Directory for CSV output and checkpoint files")

	// Politeness flags
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Pause before each HTTP request")
	cmd.Flags().Duration("hospital-pause", config.DefaultHospitalPause,
		"Extra pause after each completed hospital")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")

	// Crawl behavior flags
	cmd.Flags().IntP("max-doctor-pages", "p", config.DefaultMaxDoctorPages,
		"Maximum list pages per department filter")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of hospitals crawled concurrently")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("user-agent", "",
		"Pin the User-Agent header (default: random browser User-Agent)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .hospscan in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, saving checkpoint and stopping...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags. A positional
// argument overrides the --range flag.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	rangeStr, err := cmd.Flags().GetString("range")
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		rangeStr = args[0]
	}
	cfg.RangeStart, cfg.RangeEnd, err = config.ParseRange(rangeStr)
	if err != nil {
		return nil, err
	}

	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, err
	}

	cfg.OutDir, err = cmd.Flags().GetString("out-dir")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.HospitalPause, err = cmd.Flags().GetDuration("hospital-pause")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxDoctorPages, err = cmd.Flags().GetInt("max-doctor-pages")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site profiles from the config file. An explicitly given path
	// must exist; otherwise a missing file just means empty profiles.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Sites = &config.File{
			Sites: make(map[string]config.SiteProfile),
		}
	}

	// Always mirror results into the database using the XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"baseURL", cfg.BaseURL,
		"range", cfg.Range(),
		"outDir", cfg.OutDir,
		"batchSize", cfg.BatchSize,
	)

	store, err := checkpoint.NewStore(cfg.OutDir)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	spiderOpts := []crawler.SpiderOption{crawler.WithLogger(logger)}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
		spiderOpts = append(spiderOpts, crawler.WithDB(db))
	}

	spider, err := crawler.NewSpider(cfg, store, spiderOpts...)
	if err != nil {
		return err
	}

	fmt.Printf("Crawling %s over IDs %s...\n", cfg.BaseURL, cfg.Range())
	startTime := time.Now()

	runErr := spider.Run(ctx)

	elapsed := time.Since(startTime)
	stats := spider.Stats()
	fmt.Printf("\nCrawl finished in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  hospitals: %d saved, %d not found, %d failed, %d skipped\n",
		stats.HospitalsOK, stats.HospitalsNotFound, stats.HospitalsFailed, stats.HospitalsSkipped)
	fmt.Printf("  doctors:   %d saved\n", stats.DoctorsSaved)

	if runErr != nil {
		if ctx.Err() != nil {
			fmt.Println("\nInterrupted. Rerun the same range to resume.")
		}
		return runErr
	}
	return nil
}
