package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/RyanBlaney/tts-eval/configs"
	"github.com/RyanBlaney/tts-eval/internal/report"
	"github.com/RyanBlaney/tts-eval/pkg/params"
	"github.com/spf13/cobra"
)

var (
	inspectLpcOrder    int
	inspectStateCount  int
	inspectUVThreshold float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect f0|lsp|duration <file>",
	Short: "Print frame statistics of one parameter file",
	Long: `Load a single parameter file and print its frame statistics.

F0 statistics cover voiced frames only. LSP statistics describe the trailing
log-gain of every frame. Duration statistics describe total phone lengths in
frames.

Examples:
  tts-eval inspect f0 natural/0001.f0
  tts-eval inspect lsp --lpc-order 24 synthesized/0001.lsp
  tts-eval inspect duration --state-count 5 -o json natural/0001.dur`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"f0", "lsp", "duration"},
	RunE:      runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	defaults := configs.GetDefaultEvaluationConfig()
	inspectCmd.Flags().IntVar(&inspectLpcOrder, "lpc-order", defaults.ReferenceLpcOrder,
		"LPC order of the LSP file")
	inspectCmd.Flags().IntVar(&inspectStateCount, "state-count", defaults.StateCount,
		"number of states per phone in the duration file")
	inspectCmd.Flags().Float64Var(&inspectUVThreshold, "uv-threshold", defaults.UVThreshold,
		"F0 values above this threshold count as voiced")
}

func runInspect(cmd *cobra.Command, args []string) error {
	kind, path := strings.ToLower(args[0]), args[1]

	var (
		stats params.TrackStats
		err   error
	)
	switch kind {
	case "f0":
		var f0 []float64
		if f0, err = params.LoadF0(path); err == nil {
			stats = params.F0Stats(f0, inspectUVThreshold)
		}
	case "lsp":
		var frames [][]float64
		if frames, err = params.LoadLsp(path, inspectLpcOrder); err == nil {
			stats = params.LspStats(frames)
		}
	case "duration":
		var phones [][]int
		if phones, err = params.LoadDuration(path, inspectStateCount); err == nil {
			stats = params.DurationStats(phones)
		}
	default:
		return fmt.Errorf("unknown parameter kind %q, expected f0, lsp or duration", args[0])
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat == "json" || outputFormat == "yaml" {
		formatter, err := report.NewFormatter(outputFormat)
		if err != nil {
			return err
		}
		data, err := formatter.Format(report.Sanitize(map[string]any{
			"kind":  kind,
			"file":  path,
			"stats": stats,
		}), true)
		if err != nil {
			return fmt.Errorf("failed to format statistics: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	printStats(w, kind, path, stats)
	return nil
}

func printStats(w io.Writer, kind, path string, stats params.TrackStats) {
	printBanner(w, strings.ToUpper(kind)+" PARAMETER FILE")
	printKeyValue(w, "File", path)

	unit := ""
	label := "Frames"
	switch kind {
	case "f0":
		unit = " Hz"
	case "lsp":
		unit = " (log-gain)"
	case "duration":
		unit = " frames"
		label = "Phones"
	}

	printSection(w, "STATISTICS")
	printKeyValue(w, label, fmt.Sprintf("%d", stats.Frames))
	printKeyValue(w, "Dimension", fmt.Sprintf("%d", stats.Dimension))
	if kind == "f0" {
		printKeyValue(w, "Voiced Frames", fmt.Sprintf("%d (%.1f%%)", stats.VoicedFrames, stats.VoicedRatio*100))
	}
	printKeyValue(w, "Min", formatStat(stats.Min, unit))
	printKeyValue(w, "Max", formatStat(stats.Max, unit))
	printKeyValue(w, "Mean", formatStat(stats.Mean, unit))
}

func formatStat(v float64, unit string) string {
	if math.IsNaN(v) {
		return ColorYellow + "n/a" + ColorReset
	}
	return fmt.Sprintf("%.4f%s", v, unit)
}
