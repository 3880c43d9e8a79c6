package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imishinist/perfreport/internal/analysis"
	"github.com/imishinist/perfreport/internal/config"
	"github.com/imishinist/perfreport/internal/history"
	"github.com/imishinist/perfreport/internal/loader"
	"github.com/imishinist/perfreport/internal/metrics"
	"github.com/imishinist/perfreport/internal/models"
	"github.com/imishinist/perfreport/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze load test results",
	Long: `Analyze every results file in a directory, record verdicts in the
history file and write a JSON report.`,
	RunE: runAnalyze,
}

type analyzeOptions struct {
	Generator     string
	ResultsDir    string
	OutputDir     string
	DryRun        bool
	NoHistory     bool
	ExportParquet string
	FailOnVerdict bool
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("generator", "g", "", "Load generator that produced the results (jmeter/k6)")
	analyzeCmd.Flags().StringP("results-dir", "r", "", "Directory with result files (required)")
	analyzeCmd.Flags().StringP("output", "o", ".", "Directory the report is written to")
	analyzeCmd.Flags().Bool("dry-run", false, "Analyze and print the summary without writing a report")
	analyzeCmd.Flags().Bool("no-history", false, "Do not record verdicts in the history file")
	analyzeCmd.Flags().String("history", "", "History file (overrides storage.path)")
	analyzeCmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this file")
	analyzeCmd.Flags().String("export-parquet", "", "Write normalized request records as parquet into this directory")
	analyzeCmd.Flags().Float64("error-rate-threshold", 0, "Maximum acceptable error rate")
	analyzeCmd.Flags().Float64("tps-threshold", 0, "Minimum acceptable transactions in every second")
	analyzeCmd.Flags().Float64("sampling-rate", 0, "Resource collector sampling interval in seconds")
	analyzeCmd.Flags().Bool("fail-on-verdict", false, "Exit with an error when any test fails")
	analyzeCmd.MarkFlagRequired("generator")
	analyzeCmd.MarkFlagRequired("results-dir")

	viper.BindPFlag(config.KeyStoragePath, analyzeCmd.Flags().Lookup("history"))
	viper.BindPFlag(config.KeyMetricsTextfile, analyzeCmd.Flags().Lookup("metrics-textfile"))
	viper.BindPFlag(config.KeyErrorRateThreshold, analyzeCmd.Flags().Lookup("error-rate-threshold"))
	viper.BindPFlag(config.KeyTPSThreshold, analyzeCmd.Flags().Lookup("tps-threshold"))
	viper.BindPFlag(config.KeySamplingRate, analyzeCmd.Flags().Lookup("sampling-rate"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := analyzeOptions{}
	opts.Generator, _ = cmd.Flags().GetString("generator")
	opts.ResultsDir, _ = cmd.Flags().GetString("results-dir")
	opts.OutputDir, _ = cmd.Flags().GetString("output")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.NoHistory, _ = cmd.Flags().GetBool("no-history")
	opts.ExportParquet, _ = cmd.Flags().GetString("export-parquet")
	opts.FailOnVerdict, _ = cmd.Flags().GetBool("fail-on-verdict")

	return analyze(cfg, opts, logger, cmd.OutOrStdout(), time.Now)
}

func analyze(cfg *config.Config, opts analyzeOptions, logger *zap.Logger, out io.Writer, now func() time.Time) error {
	l, err := loader.New(opts.Generator, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Loading results...")
	tables, err := l.Load(opts.ResultsDir)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "Analyzing results...")
	analyzer := analysis.New(cfg.Thresholds(), cfg.SamplingRate)
	results := make([]models.Result, 0, len(names))
	for _, name := range names {
		table := tables[name]
		result, err := analyzer.Analyze(name, table)
		if errors.Is(err, analysis.ErrEmptyInput) {
			logger.Warn("skipping test without data", zap.String("test", name))
			continue
		}
		if err != nil {
			return err
		}
		logger.Debug("analyzed test", zap.String("test", name), zap.String("kind", string(table.Kind())))
		results = append(results, result)

		if requests, ok := table.(*models.RequestTable); ok && opts.ExportParquet != "" {
			path := filepath.Join(opts.ExportParquet, name+".parquet")
			if err := loader.WriteParquet(path, requests.Records); err != nil {
				return err
			}
			logger.Info("exported records", zap.String("path", path), zap.Int("records", len(requests.Records)))
		}
	}

	if cfg.StorageEnabled && !opts.NoHistory {
		fmt.Fprintln(out, "Saving verdict history...")
		store := history.NewStore(cfg.StoragePath, history.WithClock(now), history.WithLogger(logger))
		if _, err := store.Append(results); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
	} else {
		fmt.Fprintln(out, "Verdict history storage is disabled, saving results skipped.")
	}

	if cfg.MetricsTextfile != "" {
		exporter := metrics.NewExporter()
		for _, result := range results {
			exporter.Record(result)
		}
		if err := exporter.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
		logger.Info("wrote metrics textfile", zap.String("path", cfg.MetricsTextfile))
	}

	thresholds := report.Thresholds{ErrorRate: cfg.ErrorRateThreshold, TPS: cfg.TPSThreshold}
	doc := report.NewDocument(opts.Generator, cfg.TargetTPS, thresholds, results, now())
	fmt.Fprintln(out)
	if err := report.WriteSummary(out, doc); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	fmt.Fprintln(out)

	if opts.DryRun {
		fmt.Fprintln(out, "Dry run enabled, skipping report generation.")
	} else {
		path, err := report.WriteDocument(opts.OutputDir, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", path)
	}

	if opts.FailOnVerdict && doc.Overall.Verdict == models.VerdictFail {
		return fmt.Errorf("verdict: %s", models.VerdictFail)
	}
	return nil
}
