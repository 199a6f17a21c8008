package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/RyanBlaney/tts-eval/configs"
	"github.com/RyanBlaney/tts-eval/internal/batch"
	"github.com/RyanBlaney/tts-eval/internal/evaluation"
	"github.com/RyanBlaney/tts-eval/internal/report"
	"github.com/RyanBlaney/tts-eval/pkg/logging"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ManifestFile          string // Evaluation manifest (required)
	ReportDir             string
	OutputFile            string
	OutputFormat          string
	ExportFormat          string
	Encoding              string
	Mode                  string
	LogLevel              string
	StateCount            int
	FrameLength           float64
	LpcOrder              int
	MaxConcurrent         int
	PhoneLevelPerSentence bool
	FailFast              bool
	Verbose               bool
	Quiet                 bool

	// Stdout receives the console summary; nil means os.Stdout
	Stdout io.Writer

	// Runtime context
	Logger   logging.Logger
	Config   *configs.Config
	Manifest *batch.Manifest
}

// EvalApp handles the evaluation application lifecycle
type EvalApp struct {
	ctx      *Context
	config   *configs.Config
	manifest *batch.Manifest
	logger   logging.Logger
	stdout   io.Writer
}

// NewEvalApp creates a new evaluation application
func NewEvalApp(ctx *Context) (*EvalApp, error) {
	// Load configuration
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	// Set up logging
	logger, err := setupLogging(ctx, config)
	if err != nil {
		return nil, err
	}
	ctx.Logger = logger

	// Load manifest (required)
	if ctx.ManifestFile == "" {
		return nil, fmt.Errorf("manifest file is required")
	}
	manifest, err := batch.LoadManifest(ctx.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	ctx.Manifest = manifest

	stdout := ctx.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	logger.Debug("Evaluation application initialized", logging.Fields{
		"manifest_file": ctx.ManifestFile,
		"sentences":     len(manifest.Sentences),
		"report_dir":    config.Report.Directory,
		"mode":          config.Evaluation.Mode,
		"output_format": config.OutputFormat,
	})

	return &EvalApp{
		ctx:      ctx,
		config:   config,
		manifest: manifest,
		logger:   logger,
		stdout:   stdout,
	}, nil
}

// Run executes the evaluation batch and writes every report
func (app *EvalApp) Run(ctx context.Context) error {
	opts := batch.OptionsFromConfig(app.config.Evaluation)

	runner, err := batch.NewRunner(batch.RunnerConfig{
		Options:        opts,
		MaxConcurrency: app.config.Evaluation.MaxConcurrency,
		FailFast:       app.config.Evaluation.FailFast,
		Logger:         app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create batch runner: %w", err)
	}

	outcome, err := runner.Run(ctx, app.manifest)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	writer, err := report.NewWriter(report.Options{
		Directory:             app.config.Report.Directory,
		Encoding:              report.Encoding(app.config.Report.Encoding),
		PhoneLevelPerSentence: app.config.Report.PhoneLevelPerSentence,
		Precision:             app.config.Report.Precision,
		Mode:                  opts.Mode,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create report writer: %w", err)
	}

	files, err := writer.WriteAll(outcome.Results, outcome.Summary, report.RunInfo{
		Manifest:      app.ctx.ManifestFile,
		Description:   app.manifest.Description,
		Failed:        len(outcome.Failures),
		StartTime:     outcome.StartTime,
		TotalDuration: outcome.TotalDuration,
		Options:       opts,
	})
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	if exported, err := app.exportResults(outcome); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	} else if exported != "" {
		files = append(files, exported)
	}

	if err := app.outputResults(outcome, files); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	if len(outcome.Failures) > 0 {
		app.logger.Warn("Some sentences could not be evaluated", logging.Fields{
			"failed":    len(outcome.Failures),
			"evaluated": len(outcome.Results),
		})
	}

	return nil
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context, config *configs.Config) (logging.Logger, error) {
	level := config.LogLevel
	if ctx.Verbose || config.Verbose {
		level = "debug"
	}
	if ctx.Quiet {
		level = "error"
	}

	logger, err := logging.NewLogger(level, config.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	logging.SetDefault(logger)
	return logger, nil
}

// loadAndMergeConfig loads configuration from viper and merges it with CLI flags
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	baseConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load base configuration: %w", err)
	}

	merged := mergeConfig(baseConfig, ctx)

	if err := configs.ValidateConfig(merged); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return merged, nil
}

// exportResults writes the full outcome as JSON or YAML into the report directory
func (app *EvalApp) exportResults(outcome *batch.Outcome) (string, error) {
	format := app.config.Report.ExportFormat
	if format == "" || format == "none" {
		return "", nil
	}

	formatter, err := report.NewFormatter(format)
	if err != nil {
		return "", err
	}

	path := filepath.Join(app.config.Report.Directory, "results"+formatter.Extension())
	if err := report.Export(outcome, formatter, path); err != nil {
		return "", err
	}

	app.logger.Debug("Results exported", logging.Fields{
		"export_file": path,
		"format":      format,
	})
	return path, nil
}

// outputResults prints the run summary in the configured output format
func (app *EvalApp) outputResults(outcome *batch.Outcome, files []string) error {
	if app.config.OutputFormat == "table" {
		if app.ctx.OutputFile != "" {
			var sb strings.Builder
			printSummary(&sb, outcome, files, app.config.Report.Precision)
			return app.writeToFile([]byte(sb.String()))
		}
		printSummary(app.stdout, outcome, files, app.config.Report.Precision)
		return nil
	}

	outputData := map[string]any{
		"manifest":       app.ctx.ManifestFile,
		"timestamp":      time.Now(),
		"start_time":     outcome.StartTime,
		"total_duration": outcome.TotalDuration.Seconds(),
		"evaluated":      len(outcome.Results),
		"failures":       outcome.Failures,
		"summary":        outcome.Summary,
		"report_files":   files,
		"configuration": map[string]any{
			"mode":        app.config.Evaluation.Mode,
			"state_count": app.config.Evaluation.StateCount,
			"report_dir":  app.config.Report.Directory,
			"encoding":    app.config.Report.Encoding,
		},
	}
	if app.config.Verbose {
		outputData["results"] = outcome.Results
	}

	formatter, err := report.NewFormatter(app.config.OutputFormat)
	if err != nil {
		return err
	}

	formattedData, err := formatter.Format(outputData, true)
	if err != nil {
		// If JSON formatting fails due to infinite values, try to sanitize the data
		if strings.Contains(err.Error(), "unsupported value") {
			formattedData, err = formatter.Format(report.Sanitize(outputData), true)
		}
		if err != nil {
			return fmt.Errorf("failed to format output data: %w", err)
		}
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	_, err = app.stdout.Write(formattedData)
	return err
}

// printSummary renders the corpus averages as an aligned console table
func printSummary(w io.Writer, outcome *batch.Outcome, files []string, precision int) {
	s := outcome.Summary
	f := func(m evaluation.Metric) string { return m.Format(precision) }

	fmt.Fprintf(w, "\nEVALUATION SUMMARY\n")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Sentences evaluated: %d  failed: %d  duration: %s\n\n",
		s.SentenceCount, len(outcome.Failures), outcome.TotalDuration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tRMSE\tMAX\tCORRELATION\tFRAMES")
	rows := []struct {
		name string
		r    evaluation.AveragedResult
	}{
		{"Duration (s)", s.Duration},
		{"F0 (Hz)", s.F0},
		{"F0 state level (Hz)", s.F0StateLevel},
		{"LSP", s.Lsp},
		{"Weighted LSP", s.WeightedLsp},
		{"Spectrum (dB)", s.Spectrum},
		{"Spectrum with gain (dB)", s.SpectrumWithGain},
		{"Gain (dB)", s.Gain},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.name, f(row.r.RMSE), f(row.r.MaxDistance), f(row.r.Correlation), f(row.r.UsedFrames))
	}
	tw.Flush()

	fmt.Fprintf(w, "\nU/V mismatch ratio: %s\n", f(s.UV.MismatchRatio))
	fmt.Fprintf(w, "F0 outliers: %s (ratio %s)\n", f(s.F0Outliers.Count), f(s.F0Outliers.Ratio))

	for _, failure := range outcome.Failures {
		fmt.Fprintf(w, "FAILED %s: %s\n", failure.ID, failure.Error)
	}

	if len(files) > 0 {
		fmt.Fprintf(w, "\nReport files (%d):\n", len(files))
		for _, file := range files {
			fmt.Fprintf(w, "  %s\n", file)
		}
	}
}

// writeToFile writes data to the specified output file
func (app *EvalApp) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}
