package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apeiro/ace/internal/cases"
	"github.com/apeiro/ace/internal/export"
	"github.com/apeiro/ace/internal/extract"
	"github.com/apeiro/ace/internal/history"
	"github.com/apeiro/ace/internal/schedule"
	"github.com/apeiro/ace/internal/secrets"
	"github.com/apeiro/ace/internal/source"
	"github.com/apeiro/ace/pkg/types"
)

const (
	defaultModel   = "gemini-3-pro-preview"
	defaultTimeout = 120 * time.Second
)

var processCmd = &cobra.Command{
	Use:   "process [dir|files...]",
	Short: "Extract and verify metadata for a batch of paper files",
	Long: `Process groups the given files (or every file in a directory) into cases
by the arXiv identifier in their names, runs model extraction over each case
with bounded concurrency, and prints a per-case summary.

Successful cases whose verification needs no review are exported as XML when
--output-dir is set. With --archive the finished session is appended to the
session archive.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Int("concurrency", 0, "cases processed at once (default 2)")
	processCmd.Flags().Float64("rate", 0, "extraction starts per second (default unpaced)")
	processCmd.Flags().String("model", "", "model identifier (default "+defaultModel+")")
	processCmd.Flags().String("api-key", "", "model API key (default: secrets file or ACE_GEMINI_API_KEY)")
	processCmd.Flags().Duration("timeout", 0, "HTTP timeout per model call (default 120s)")
	processCmd.Flags().String("manual-id", "", "identifier override applied to every case in the batch")
	processCmd.Flags().String("output-dir", "", "write XML for review-clear successful cases here")
	processCmd.Flags().Bool("archive", false, "append the finished session to the archive")
	processCmd.Flags().String("archive-dir", ".ace", "session archive directory")
	processCmd.Flags().Bool("verbose", false, "per-case scheduler logging")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a directory or one or more paper files")
	}

	paths, err := collectInputs(args)
	if err != nil {
		return err
	}

	manualID, _ := cmd.Flags().GetString("manual-id")
	grouped := source.GroupFiles(paths)
	if len(grouped) == 0 {
		return fmt.Errorf("no cases could be formed from %d file(s)", len(paths))
	}
	for _, c := range grouped {
		c.ManualID = manualID
	}

	mgr := cases.NewManager()
	mgr.Add(grouped...)

	cfg := processConfig(cmd)
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("no model API key: set --api-key, ACE_GEMINI_API_KEY, or %s",
			filepath.Join(secrets.DefaultDir, secrets.GeminiAPIKey))
	}

	logger := zerolog.Nop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	backend := &extract.GeminiBackend{
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.Model,
		Client: &http.Client{Timeout: cfg.AI.Timeout},
	}
	invoker := extract.NewInvoker(backend, logger)
	if cfg.AI.MaxAttempts > 0 {
		invoker.MaxAttempts = cfg.AI.MaxAttempts
	}
	reader := source.NewReader(cfg.Source)

	worker := schedule.WorkerFunc(func(ctx context.Context, c types.CaseRecord) (*types.ExtractedMetadata, error) {
		req, err := reader.ReadCase(&c)
		if err != nil {
			return nil, err
		}
		return invoker.Invoke(ctx, req)
	})

	ctx := cmd.Context()
	sched := schedule.New(ctx, mgr, worker, schedule.Options{
		Concurrency:   cfg.Scheduler.Concurrency,
		RatePerSecond: cfg.Scheduler.RatePerSecond,
		Logger:        logger,
	})

	fmt.Fprintf(os.Stdout, "Processing %d case(s) with concurrency %d\n", mgr.Len(), cfg.Scheduler.Concurrency)
	sched.EnqueuePending()
	if err := sched.Wait(ctx); err != nil {
		return err
	}

	failed := printSummary(os.Stdout, mgr)

	if outputDir, _ := cmd.Flags().GetString("output-dir"); outputDir != "" {
		if err := exportSession(os.Stdout, mgr, outputDir); err != nil {
			return err
		}
	}

	if doArchive, _ := cmd.Flags().GetBool("archive"); doArchive {
		archiveDir, _ := cmd.Flags().GetString("archive-dir")
		if err := archiveSession(ctx, mgr, archiveDir); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d case(s) failed extraction", failed)
	}
	return nil
}

// processConfig merges flags over config-file values over defaults.
func processConfig(cmd *cobra.Command) types.EngineConfig {
	var cfg types.EngineConfig

	cfg.AI.Model, _ = cmd.Flags().GetString("model")
	if cfg.AI.Model == "" {
		cfg.AI.Model = viper.GetString("ai.model")
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel
	}

	keyFlag, _ := cmd.Flags().GetString("api-key")
	cfg.AI.APIKey = apiKey(keyFlag)

	cfg.AI.Timeout, _ = cmd.Flags().GetDuration("timeout")
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = viper.GetDuration("ai.timeout")
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = defaultTimeout
	}
	cfg.AI.MaxAttempts = viper.GetInt("ai.max_attempts")

	cfg.Scheduler.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	if cfg.Scheduler.Concurrency == 0 {
		cfg.Scheduler.Concurrency = viper.GetInt("scheduler.concurrency")
	}
	if cfg.Scheduler.Concurrency == 0 {
		cfg.Scheduler.Concurrency = 2
	}
	cfg.Scheduler.RatePerSecond, _ = cmd.Flags().GetFloat64("rate")
	if cfg.Scheduler.RatePerSecond == 0 {
		cfg.Scheduler.RatePerSecond = viper.GetFloat64("scheduler.rate_per_second")
	}

	cfg.Source.MaxPDFPages = viper.GetInt("source.max_pdf_pages")
	cfg.Source.MinTextLength = viper.GetInt("source.min_text_length")
	return cfg
}

// collectInputs expands a single directory argument into its files;
// explicit file arguments are taken as-is.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading input %s: %w", args[0], err)
		}
		if info.IsDir() {
			entries, err := os.ReadDir(args[0])
			if err != nil {
				return nil, fmt.Errorf("reading input directory: %w", err)
			}
			var paths []string
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				paths = append(paths, filepath.Join(args[0], e.Name()))
			}
			return paths, nil
		}
	}
	return args, nil
}

// printSummary writes the per-case outcome table and returns the number of
// failed cases.
func printSummary(w io.Writer, mgr *cases.Manager) int {
	failed := 0
	fmt.Fprintln(w, "\nCase results:")
	for _, c := range mgr.List() {
		switch c.Status {
		case types.CaseSuccess:
			verification := "-"
			paperID := "-"
			if c.Extracted != nil {
				verification = string(c.Extracted.Verification.Status)
				paperID = c.Extracted.PaperID
			}
			fmt.Fprintf(w, "  ok    %-14s %-14s %-20s %s\n",
				c.DisplayName, paperID, verification, c.Timing.ExtractionDuration().Round(time.Millisecond))
		case types.CaseError:
			failed++
			fmt.Fprintf(w, "  FAIL  %-14s %s\n", c.DisplayName, c.ErrorMessage)
		default:
			fmt.Fprintf(w, "  skip  %-14s status %s\n", c.DisplayName, c.Status)
		}
	}
	return failed
}

// exportSession writes XML for every successful case whose verification
// does not require operator review.
func exportSession(w io.Writer, mgr *cases.Manager, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	written := 0
	for _, c := range mgr.List() {
		if c.Status != types.CaseSuccess || c.Extracted == nil {
			continue
		}
		if c.Extracted.Verification.RequiresReview() && c.Override == nil {
			fmt.Fprintf(w, "  review needed: %s (%s), not exported\n",
				c.DisplayName, c.Extracted.Verification.Status)
			continue
		}
		doc, err := export.XML(c.Extracted)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", c.DisplayName, err)
		}
		path := filepath.Join(outputDir, c.DisplayName+".xml")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}
	fmt.Fprintf(w, "Exported %d XML document(s) to %s\n", written, outputDir)
	return nil
}

// archiveSession snapshots the session and appends it to the archive.
func archiveSession(ctx context.Context, mgr *cases.Manager, archiveDir string) error {
	session := mgr.Reset()
	if session == nil {
		return nil
	}

	store, err := history.NewStore(types.HistoryConfig{Path: archiveDir})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Append(ctx, session); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Archived session %s (%d case(s), %d completed)\n",
		session.SessionID, session.Stats.Total, session.Stats.Completed)
	return nil
}
