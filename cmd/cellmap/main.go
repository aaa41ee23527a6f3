// Package main provides the CLI entry point for cellmap.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/slofurno/cellmap-go/internal/config"
	"github.com/slofurno/cellmap-go/internal/logging"
	"github.com/slofurno/cellmap-go/internal/metrics"
	"github.com/slofurno/cellmap-go/pkg/cellmap"
	"github.com/slofurno/cellmap-go/pkg/cellmap/binder"
	"github.com/slofurno/cellmap-go/pkg/cellmap/layout"
	"github.com/slofurno/cellmap-go/pkg/cellmap/output"
)

type flags struct {
	layoutPath  string
	configPath  string
	outputPath  string
	sheet       string
	skipRows    int
	jobs        int
	pretty      bool
	metricsFile string
	logLevel    string
}

// fileRecord is one line of output.
type fileRecord struct {
	File   string        `json:"file"`
	Record layout.Record `json:"record"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "cellmap [input.xlsx...]",
		Short: "Bind spreadsheet rows to records",
		Long: `cellmap reads one worksheet of each input workbook, binds every row to the
record described by a YAML layout and writes the records as JSON lines.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &f, args)
		},
	}

	rootCmd.Flags().StringVar(&f.layoutPath, "layout", "", "Layout file describing the record columns")
	rootCmd.Flags().StringVar(&f.configPath, "config", "", "Configuration file (YAML)")
	rootCmd.Flags().StringVarP(&f.outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet name (default: layout sheet, else the first sheet)")
	rootCmd.Flags().IntVar(&f.skipRows, "skip-rows", 0, "Leading rows to skip in every sheet")
	rootCmd.Flags().IntVar(&f.jobs, "jobs", 0, "Files read concurrently")
	rootCmd.Flags().BoolVar(&f.pretty, "pretty", false, "Write one indented JSON array instead of JSON lines")
	rootCmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	rootCmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	_ = rootCmd.MarkFlagRequired("layout")

	return rootCmd
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logWriter, closeLog, err := logging.Open(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.New(cfg.Logging, logWriter)

	ctx := logging.WithRunID(cmd.Context(), logging.NewRunID())

	l, err := layout.Load(f.layoutPath)
	if err != nil {
		return err
	}
	schema, err := l.Schema()
	if err != nil {
		return fmt.Errorf("layout %s: %w", f.layoutPath, err)
	}

	opts := cellmap.Options{
		Sheet:    firstNonEmpty(cfg.Read.Sheet, l.Sheet),
		SkipRows: l.SkipRows,
		Logger:   logging.FromContext(ctx, logger),
	}
	if cfg.Read.SkipRows != nil {
		opts.SkipRows = *cfg.Read.SkipRows
	}

	logger.InfoContext(ctx, "run started",
		slog.Int("files", len(args)),
		slog.String("layout", f.layoutPath),
		slog.Int("jobs", cfg.Read.Jobs))

	recorder := metrics.New()
	results, readErr := readAll(ctx, args, schema, opts, cfg.Read.Jobs, recorder)

	if cfg.Metrics.TextfilePath != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.ErrorContext(ctx, "failed to write metrics",
				slog.String("path", cfg.Metrics.TextfilePath),
				slog.String("error", err.Error()))
		}
	}
	if readErr != nil {
		logger.ErrorContext(ctx, "run failed", slog.String("error", readErr.Error()))
		return readErr
	}

	if err := writeResults(cmd.OutOrStdout(), f, args, results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.InfoContext(ctx, "run finished", slog.Int("files", len(args)))
	return nil
}

// applyFlags overrides configuration values with the flags set on the command line.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("jobs") {
		cfg.Read.Jobs = f.jobs
	}
	if changed("sheet") {
		cfg.Read.Sheet = f.sheet
	}
	if changed("skip-rows") {
		cfg.Read.SkipRows = &f.skipRows
	}
	if changed("metrics-file") {
		cfg.Metrics.TextfilePath = f.metricsFile
	}
}

// readAll reads every file with at most jobs files in flight. Results keep the order of
// paths. The first failure cancels the files still being read.
func readAll(ctx context.Context, paths []string, schema *binder.Schema[layout.Record], opts cellmap.Options, jobs int, recorder *metrics.Recorder) ([][]layout.Record, error) {
	results := make([][]layout.Record, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			start := time.Now()
			records, err := readFile(gctx, path, schema, opts)
			if errors.Is(err, context.Canceled) {
				return err
			}
			recorder.FileRead(path, len(records), time.Since(start), err)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readFile(ctx context.Context, path string, schema *binder.Schema[layout.Record], opts cellmap.Options) ([]layout.Record, error) {
	var records []layout.Record
	for rec, err := range cellmap.Records(path, schema, opts) {
		if err != nil {
			return records, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func writeResults(stdout io.Writer, f *flags, paths []string, results [][]layout.Record) error {
	w := stdout
	if f.outputPath != "" {
		file, err := os.Create(f.outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	if f.pretty {
		all := make([]fileRecord, 0)
		for i, records := range results {
			for _, rec := range records {
				all = append(all, fileRecord{File: paths[i], Record: rec})
			}
		}
		data, err := output.ToJSON(all, true)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	lw := output.NewLineWriter(w)
	for i, records := range results {
		for _, rec := range records {
			if err := lw.Write(fileRecord{File: paths[i], Record: rec}); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
