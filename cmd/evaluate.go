package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/tts-eval/internal/app"
	"github.com/spf13/cobra"
)

var (
	// Evaluate command flags
	evalManifest      string
	evalReportDir     string
	evalOutputFile    string
	evalExportFormat  string
	evalEncoding      string
	evalMode          string
	evalStateCount    int
	evalFrameLength   float64
	evalLpcOrder      int
	evalMaxConcurrent int
	evalPerSentence   bool
	evalFailFast      bool
	evalQuiet         bool
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a batch of synthesized sentences against natural speech",
	Long: `Evaluate every sentence of a manifest and write the text reports.

The report directory receives Dur_EucDis.txt, F0_EucDis.txt,
F0_EucDis_StateLevel.txt, LSP_EucDis.txt, LogSpe_EucDis.txt, the phone-level
breakdown and Final_Result.txt. RUS mode also writes CC.txt.

Examples:
  # Evaluate an HMM voice with default settings
  tts-eval evaluate --manifest batch.yaml

  # Evaluate a unit-selection voice with 4 workers
  tts-eval evaluate --manifest batch.yaml --mode rus --max-concurrent 4

  # Write UTF-8 reports and a JSON export of every result
  tts-eval evaluate --manifest batch.yaml --encoding utf8 --export json`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evalManifest, "manifest", "m", "",
		"evaluation manifest (YAML or JSON)")
	evaluateCmd.Flags().StringVarP(&evalReportDir, "report-dir", "r", "",
		"directory receiving the text reports")
	evaluateCmd.Flags().StringVarP(&evalOutputFile, "output-file", "f", "",
		"write the console summary to a file instead of stdout")
	evaluateCmd.Flags().StringVar(&evalExportFormat, "export", "",
		"also export every result to the report directory (none, json, yaml)")
	evaluateCmd.Flags().StringVar(&evalEncoding, "encoding", "",
		"report encoding (utf16, utf8)")
	evaluateCmd.Flags().StringVar(&evalMode, "mode", "",
		"synthesis mode (hmm, rus)")
	evaluateCmd.Flags().IntVar(&evalStateCount, "state-count", 0,
		"number of states per phone in the duration files")
	evaluateCmd.Flags().Float64Var(&evalFrameLength, "frame-length", 0,
		"frame length in seconds")
	evaluateCmd.Flags().IntVar(&evalLpcOrder, "lpc-order", 0,
		"LPC order of both reference and target LSP files")
	evaluateCmd.Flags().IntVarP(&evalMaxConcurrent, "max-concurrent", "c", 0,
		"number of sentences evaluated concurrently")
	evaluateCmd.Flags().BoolVar(&evalPerSentence, "phone-level-per-sentence", false,
		"write one phone-level log per sentence")
	evaluateCmd.Flags().BoolVar(&evalFailFast, "fail-fast", false,
		"stop at the first sentence that cannot be evaluated")
	evaluateCmd.Flags().BoolVarP(&evalQuiet, "quiet", "q", false,
		"only log errors")

	evaluateCmd.MarkFlagRequired("manifest")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	appCtx := &app.Context{
		ManifestFile:          evalManifest,
		ReportDir:             evalReportDir,
		OutputFile:            evalOutputFile,
		ExportFormat:          evalExportFormat,
		Encoding:              evalEncoding,
		Mode:                  evalMode,
		StateCount:            evalStateCount,
		FrameLength:           evalFrameLength,
		LpcOrder:              evalLpcOrder,
		MaxConcurrent:         evalMaxConcurrent,
		PhoneLevelPerSentence: evalPerSentence,
		FailFast:              evalFailFast,
		Verbose:               verbose,
		Quiet:                 evalQuiet,
		Stdout:                cmd.OutOrStdout(),
	}
	if cmd.Flags().Changed("log-level") {
		appCtx.LogLevel = logLevel
	}
	if cmd.Flags().Changed("output") {
		appCtx.OutputFormat = outputFormat
	}

	evalApp, err := app.NewEvalApp(appCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return evalApp.Run(ctx)
}
