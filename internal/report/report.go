// Package report writes evaluation results as the tab-delimited text reports
// consumed by voice-building tooling, plus an optional JSON/YAML export.
package report

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RyanBlaney/tts-eval/internal/evaluation"
	"github.com/RyanBlaney/tts-eval/pkg/logging"
)

// Encoding is the character encoding of the text reports
type Encoding string

const (
	EncodingUTF16 Encoding = "utf16"
	EncodingUTF8  Encoding = "utf8"
)

// Report file names
const (
	DurationFile     = "Dur_EucDis.txt"
	F0File           = "F0_EucDis.txt"
	StateLevelF0File = "F0_EucDis_StateLevel.txt"
	LspFile          = "LSP_EucDis.txt"
	SpectrumFile     = "LogSpe_EucDis.txt"
	CorrelationFile  = "CC.txt"
	PhoneLevelFile   = "PhoneLevelResult.txt"
	PhoneLevelDir    = "PhoneLevelResult"
	FinalResultFile  = "Final_Result.txt"
)

const defaultPrecision = 6

var ErrInvalidOptions = errors.New("invalid report options")

// Options controls where and how reports are written
type Options struct {
	Directory             string
	Encoding              Encoding
	PhoneLevelPerSentence bool
	Precision             int
	Mode                  evaluation.Mode
}

// RunInfo describes the batch a set of reports belongs to
type RunInfo struct {
	Manifest      string
	Description   string
	Failed        int
	StartTime     time.Time
	TotalDuration time.Duration
	Options       evaluation.Options
}

// Writer renders results into Options.Directory
type Writer struct {
	opts   Options
	logger logging.Logger
}

// NewWriter validates opts and returns a report writer
func NewWriter(opts Options, logger logging.Logger) (*Writer, error) {
	if opts.Directory == "" {
		return nil, fmt.Errorf("%w: directory is required", ErrInvalidOptions)
	}
	switch opts.Encoding {
	case "":
		opts.Encoding = EncodingUTF16
	case EncodingUTF16, EncodingUTF8:
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %q", ErrInvalidOptions, opts.Encoding)
	}
	if opts.Precision < 0 {
		return nil, fmt.Errorf("%w: precision must not be negative", ErrInvalidOptions)
	}
	if opts.Precision == 0 {
		opts.Precision = defaultPrecision
	}
	if opts.Mode == "" {
		opts.Mode = evaluation.ModeHMM
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Writer{
		opts: opts,
		logger: logger.WithFields(logging.Fields{
			"component": "report",
		}),
	}, nil
}

// WriteAll writes every report for the batch and returns the written paths
func (w *Writer) WriteAll(results []*evaluation.FullEvaluationResult, summary *evaluation.EvaluationSummary, info RunInfo) ([]string, error) {
	if err := os.MkdirAll(w.opts.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	writers := []func([]*evaluation.FullEvaluationResult) ([]string, error){
		w.single(DurationFile, w.durationTable),
		w.single(F0File, w.f0Table),
		w.single(StateLevelF0File, w.stateLevelF0Table),
		w.single(LspFile, w.lspTable),
		w.single(SpectrumFile, w.spectrumTable),
	}
	if w.opts.Mode == evaluation.ModeRUS {
		writers = append(writers, w.single(CorrelationFile, w.correlationTable))
	}
	writers = append(writers, w.WritePhoneLevel)

	var written []string
	for _, write := range writers {
		paths, err := write(results)
		if err != nil {
			return written, err
		}
		written = append(written, paths...)
	}

	if summary != nil {
		path, err := w.WriteFinalResult(summary, info)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	w.logger.Info("Reports written", logging.Fields{
		"directory": w.opts.Directory,
		"files":     len(written),
		"encoding":  string(w.opts.Encoding),
	})
	return written, nil
}

func (w *Writer) single(name string, build func([]*evaluation.FullEvaluationResult) *table) func([]*evaluation.FullEvaluationResult) ([]string, error) {
	return func(results []*evaluation.FullEvaluationResult) ([]string, error) {
		path, err := w.writeTable(name, build(results))
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
}
