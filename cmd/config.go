package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/RyanBlaney/tts-eval/configs"
	"github.com/RyanBlaney/tts-eval/internal/app"
	"github.com/RyanBlaney/tts-eval/internal/batch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initManifest bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration and manifests",
}

// configShowCmd displays every configuration value
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Load and display all configuration values",
	Long: `Load the configuration and display every value to verify that the config
file, environment variables and defaults are merged as expected.

Examples:
  # Show the effective configuration
  tts-eval config show

  # Show the configuration of a specific file
  tts-eval --config /path/to/tts-eval.yaml config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write an example configuration or manifest",
	Long: `Write the default configuration as YAML, or an example manifest with --manifest.

Examples:
  tts-eval config init ~/.config/tts-eval/tts-eval.yaml
  tts-eval config init --manifest batch.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Validate a manifest and check that its parameter files exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd, configValidateCmd)

	configInitCmd.Flags().BoolVar(&initManifest, "manifest", false,
		"write an example manifest instead of a configuration file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	printBanner(w, "TTS EVAL CONFIGURATION")

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	printConfig(w, config)

	fmt.Fprintln(w)
	if err := configs.ValidateConfig(config); err != nil {
		fmt.Fprintln(w, ColorRed+strings.Repeat("-", 80))
		fmt.Fprintf(w, "CONFIGURATION INVALID: %v\n", err)
		fmt.Fprintln(w, strings.Repeat("=", 80)+ColorReset)
		return err
	}

	fmt.Fprintln(w, ColorGreen+strings.Repeat("-", 80))
	fmt.Fprintln(w, "CONFIGURATION LOADED SUCCESSFULLY")
	fmt.Fprintf(w, "Config file: %s\n", configFileUsed())
	fmt.Fprintln(w, strings.Repeat("=", 80)+ColorReset)
	return nil
}

func printConfig(w io.Writer, config *configs.Config) {
	printSection(w, "APPLICATION SETTINGS")
	printKeyValue(w, "Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue(w, "Log Level", config.LogLevel)
	printKeyValue(w, "Log Format", config.LogFormat)
	printKeyValue(w, "Output Format", config.OutputFormat)

	eval := config.Evaluation
	printSection(w, "EVALUATION CONFIGURATION")
	printKeyValue(w, "Mode", eval.Mode)
	printKeyValue(w, "State Count", fmt.Sprintf("%d", eval.StateCount))
	printKeyValue(w, "Frame Length", fmt.Sprintf("%g s", eval.FrameLength))
	printKeyValue(w, "UV Threshold", fmt.Sprintf("%g Hz", eval.UVThreshold))
	printKeyValue(w, "Max Concurrency", fmt.Sprintf("%d", eval.MaxConcurrency))
	printKeyValue(w, "Fail Fast", fmt.Sprintf("%t", eval.FailFast))
	printKeyValue(w, "Silence Phones", fmt.Sprintf("(%d) %v", len(eval.SilencePhones), eval.SilencePhones))

	printSubsection(w, "LSP")
	printKeyValue(w, "  Reference LPC Order", fmt.Sprintf("%d", eval.ReferenceLpcOrder))
	printKeyValue(w, "  Target LPC Order", fmt.Sprintf("%d", eval.TargetLpcOrder))
	printKeyValue(w, "  Weighted LSP Dimension", fmt.Sprintf("%d", eval.WeightedLspDimension))

	printSubsection(w, "Spectrum")
	printKeyValue(w, "  Sample Rate", fmt.Sprintf("%d Hz", eval.SampleRate))
	printKeyValue(w, "  Low Frequency", fmt.Sprintf("%g Hz", eval.LowFrequency))
	printKeyValue(w, "  High Frequency", fmt.Sprintf("%g Hz", eval.HighFrequency))

	rep := config.Report
	printSection(w, "REPORT CONFIGURATION")
	printKeyValue(w, "Directory", rep.Directory)
	printKeyValue(w, "Encoding", rep.Encoding)
	printKeyValue(w, "Precision", fmt.Sprintf("%d", rep.Precision))
	printKeyValue(w, "Phone Level Per Sentence", fmt.Sprintf("%t", rep.PhoneLevelPerSentence))
	printKeyValue(w, "Export Format", rep.ExportFormat)
}

func configFileUsed() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(none, defaults and environment only)"
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	w := cmd.OutOrStdout()

	if initManifest {
		if err := batch.GenerateExampleManifest(path); err != nil {
			return err
		}
		printSuccess(w, "Example manifest written to %s", path)
		return nil
	}

	if err := app.GenerateExampleConfig(path); err != nil {
		return err
	}
	printSuccess(w, "Example configuration written to %s", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	manifest, err := app.ValidateManifest(args[0])
	if err != nil {
		fmt.Fprintf(w, "   %s✗%s %v\n", ColorRed, ColorReset, err)
		return fmt.Errorf("manifest %s is invalid: %w", args[0], err)
	}

	printSuccess(w, "Manifest %s is valid", args[0])
	printKeyValue(w, "Version", manifest.Version)
	if manifest.Description != "" {
		printKeyValue(w, "Description", manifest.Description)
	}
	printKeyValue(w, "Sentences", fmt.Sprintf("%d", len(manifest.Sentences)))

	withLattice := 0
	for _, s := range manifest.Sentences {
		if len(s.Lattice) > 0 {
			withLattice++
		}
	}
	printKeyValue(w, "With Lattice", fmt.Sprintf("%d", withLattice))
	return nil
}
