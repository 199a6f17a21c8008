package configs

import (
	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Evaluation defaults
	if !v.IsSet("evaluation.state_count") {
		v.Set("evaluation.state_count", 5)
	}
	if !v.IsSet("evaluation.frame_length") {
		v.Set("evaluation.frame_length", 0.005)
	}
	if !v.IsSet("evaluation.reference_lpc_order") {
		v.Set("evaluation.reference_lpc_order", 40)
	}
	if !v.IsSet("evaluation.target_lpc_order") {
		v.Set("evaluation.target_lpc_order", 40)
	}
	if !v.IsSet("evaluation.uv_threshold") {
		v.Set("evaluation.uv_threshold", 40.0)
	}
	if !v.IsSet("evaluation.low_frequency") {
		v.Set("evaluation.low_frequency", 0.0)
	}
	if !v.IsSet("evaluation.high_frequency") {
		v.Set("evaluation.high_frequency", 8000.0)
	}
	if !v.IsSet("evaluation.sample_rate") {
		v.Set("evaluation.sample_rate", 16000)
	}
	if !v.IsSet("evaluation.weighted_lsp_dimension") {
		v.Set("evaluation.weighted_lsp_dimension", 40)
	}
	if !v.IsSet("evaluation.mode") {
		v.Set("evaluation.mode", "hmm")
	}
	if !v.IsSet("evaluation.silence_phones") {
		v.Set("evaluation.silence_phones", DefaultSilencePhones())
	}
	if !v.IsSet("evaluation.max_concurrency") {
		v.Set("evaluation.max_concurrency", 1)
	}
	if !v.IsSet("evaluation.fail_fast") {
		v.Set("evaluation.fail_fast", false)
	}

	// Report defaults
	if !v.IsSet("report.directory") {
		v.Set("report.directory", "./eval-report")
	}
	if !v.IsSet("report.encoding") {
		v.Set("report.encoding", "utf16")
	}
	if !v.IsSet("report.phone_level_per_sentence") {
		v.Set("report.phone_level_per_sentence", false)
	}
	if !v.IsSet("report.precision") {
		v.Set("report.precision", 6)
	}
	if !v.IsSet("report.export_format") {
		v.Set("report.export_format", "none")
	}

	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("log_format") {
		v.Set("log_format", "console")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		// Application settings defaults
		Verbose:      false,
		LogLevel:     "info",
		LogFormat:    "console",
		OutputFormat: "table",

		// Evaluation defaults
		Evaluation: GetDefaultEvaluationConfig(),

		// Report defaults
		Report: GetDefaultReportConfig(),
	}
}

// GetDefaultEvaluationConfig returns default comparison settings
func GetDefaultEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		StateCount:           5,
		FrameLength:          0.005,
		ReferenceLpcOrder:    40,
		TargetLpcOrder:       40,
		UVThreshold:          40,
		LowFrequency:         0,
		HighFrequency:        8000,
		SampleRate:           16000,
		WeightedLspDimension: 40,
		Mode:                 "hmm",
		SilencePhones:        DefaultSilencePhones(),
		MaxConcurrency:       1,
		FailFast:             false,
	}
}

// GetDefaultReportConfig returns default report settings
func GetDefaultReportConfig() ReportConfig {
	return ReportConfig{
		Directory:             "./eval-report",
		Encoding:              "utf16",
		PhoneLevelPerSentence: false,
		Precision:             6,
		ExportFormat:          "none",
	}
}

// DefaultSilencePhones returns the phones skipped by the phone-level breakdown
func DefaultSilencePhones() []string {
	return []string{"sil", "pau", "sp"}
}
