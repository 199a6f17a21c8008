package configs

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/tts-eval/pkg/params"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Evaluation settings
	Evaluation EvaluationConfig `mapstructure:"evaluation" yaml:"evaluation"`

	// Report settings
	Report ReportConfig `mapstructure:"report" yaml:"report"`
}

// EvaluationConfig contains the acoustic comparison settings
type EvaluationConfig struct {
	StateCount           int      `mapstructure:"state_count" yaml:"state_count"`
	FrameLength          float64  `mapstructure:"frame_length" yaml:"frame_length"`
	ReferenceLpcOrder    int      `mapstructure:"reference_lpc_order" yaml:"reference_lpc_order"`
	TargetLpcOrder       int      `mapstructure:"target_lpc_order" yaml:"target_lpc_order"`
	UVThreshold          float64  `mapstructure:"uv_threshold" yaml:"uv_threshold"`
	LowFrequency         float64  `mapstructure:"low_frequency" yaml:"low_frequency"`
	HighFrequency        float64  `mapstructure:"high_frequency" yaml:"high_frequency"`
	SampleRate           int      `mapstructure:"sample_rate" yaml:"sample_rate"`
	WeightedLspDimension int      `mapstructure:"weighted_lsp_dimension" yaml:"weighted_lsp_dimension"`
	Mode                 string   `mapstructure:"mode" yaml:"mode"`
	SilencePhones        []string `mapstructure:"silence_phones" yaml:"silence_phones"`
	MaxConcurrency       int      `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	FailFast             bool     `mapstructure:"fail_fast" yaml:"fail_fast"`
}

// ReportConfig contains report output settings
type ReportConfig struct {
	Directory             string `mapstructure:"directory" yaml:"directory"`
	Encoding              string `mapstructure:"encoding" yaml:"encoding"`
	PhoneLevelPerSentence bool   `mapstructure:"phone_level_per_sentence" yaml:"phone_level_per_sentence"`
	Precision             int    `mapstructure:"precision" yaml:"precision"`
	ExportFormat          string `mapstructure:"export_format" yaml:"export_format"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom fills unset keys of v with defaults and decodes it
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, config.LogLevel) {
		return fmt.Errorf("log level must be one of debug, info, warn, error")
	}

	if !slices.Contains([]string{"", "console", "json"}, config.LogFormat) {
		return fmt.Errorf("log format must be console or json")
	}

	if !slices.Contains([]string{"table", "json", "yaml"}, config.OutputFormat) {
		return fmt.Errorf("output format must be table, json or yaml")
	}

	eval := config.Evaluation
	if eval.StateCount <= 0 || eval.StateCount > params.DefaultStateCount {
		return fmt.Errorf("state count must be between 1 and %d", params.DefaultStateCount)
	}

	if eval.FrameLength <= 0 {
		return fmt.Errorf("frame length must be positive")
	}

	if eval.ReferenceLpcOrder <= 0 || eval.TargetLpcOrder <= 0 {
		return fmt.Errorf("LPC orders must be positive")
	}

	if eval.UVThreshold < 0 {
		return fmt.Errorf("UV threshold cannot be negative")
	}

	if eval.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive")
	}

	if eval.LowFrequency < 0 || eval.LowFrequency >= eval.HighFrequency {
		return fmt.Errorf("low frequency must be non-negative and below high frequency")
	}

	if eval.HighFrequency*2 > float64(eval.SampleRate) {
		return fmt.Errorf("high frequency cannot exceed the Nyquist frequency")
	}

	if eval.WeightedLspDimension <= 0 {
		return fmt.Errorf("weighted LSP dimension must be positive")
	}

	if eval.Mode != "hmm" && eval.Mode != "rus" {
		return fmt.Errorf("mode must be hmm or rus")
	}

	if eval.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}

	if config.Report.Directory == "" {
		return fmt.Errorf("report directory is required")
	}

	if config.Report.Encoding != "utf16" && config.Report.Encoding != "utf8" {
		return fmt.Errorf("report encoding must be utf16 or utf8")
	}

	if config.Report.Precision < 0 {
		return fmt.Errorf("report precision cannot be negative")
	}

	if !slices.Contains([]string{"none", "json", "yaml"}, config.Report.ExportFormat) {
		return fmt.Errorf("export format must be none, json or yaml")
	}

	return nil
}
