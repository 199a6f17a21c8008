package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/tts-eval/configs"
	"github.com/RyanBlaney/tts-eval/internal/batch"
	"gopkg.in/yaml.v3"
)

// mergeConfig applies CLI overrides on top of the loaded configuration
func mergeConfig(base *configs.Config, ctx *Context) *configs.Config {
	merged := *base
	merged.Evaluation.SilencePhones = append([]string(nil), base.Evaluation.SilencePhones...)

	if ctx.Verbose {
		merged.Verbose = true
	}
	if ctx.LogLevel != "" {
		merged.LogLevel = ctx.LogLevel
	}
	if ctx.OutputFormat != "" {
		merged.OutputFormat = ctx.OutputFormat
	}

	// Evaluation overrides
	if ctx.Mode != "" {
		merged.Evaluation.Mode = ctx.Mode
	}
	if ctx.StateCount > 0 {
		merged.Evaluation.StateCount = ctx.StateCount
	}
	if ctx.FrameLength > 0 {
		merged.Evaluation.FrameLength = ctx.FrameLength
	}
	if ctx.LpcOrder > 0 {
		merged.Evaluation.ReferenceLpcOrder = ctx.LpcOrder
		merged.Evaluation.TargetLpcOrder = ctx.LpcOrder
	}
	if ctx.MaxConcurrent > 0 {
		merged.Evaluation.MaxConcurrency = ctx.MaxConcurrent
	}
	if ctx.FailFast {
		merged.Evaluation.FailFast = true
	}

	// Report overrides
	if ctx.ReportDir != "" {
		merged.Report.Directory = ctx.ReportDir
	}
	if ctx.Encoding != "" {
		merged.Report.Encoding = ctx.Encoding
	}
	if ctx.ExportFormat != "" {
		merged.Report.ExportFormat = ctx.ExportFormat
	}
	if ctx.PhoneLevelPerSentence {
		merged.Report.PhoneLevelPerSentence = true
	}

	return &merged
}

// GenerateExampleConfig writes the default configuration as YAML
func GenerateExampleConfig(outputFile string) error {
	data, err := yaml.Marshal(configs.GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateManifest loads a manifest and checks that every referenced
// parameter file exists
func ValidateManifest(manifestFile string) (*batch.Manifest, error) {
	manifest, err := batch.LoadManifest(manifestFile)
	if err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	for _, s := range manifest.Sentences {
		for _, path := range []string{
			s.Reference.Duration, s.Reference.F0, s.Reference.Lsp,
			s.Target.Duration, s.Target.F0, s.Target.Lsp,
		} {
			if _, err := os.Stat(path); err != nil {
				return manifest, fmt.Errorf("sentence %s: %w", s.ID, err)
			}
		}
	}
	return manifest, nil
}
