package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/RyanBlaney/tts-eval/configs"
	"github.com/RyanBlaney/tts-eval/internal/evaluation"
	"github.com/RyanBlaney/tts-eval/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Failure records a sentence that could not be evaluated
type Failure struct {
	Index int    `json:"index" yaml:"index"`
	ID    string `json:"id" yaml:"id"`
	Error string `json:"error" yaml:"error"`

	err error
}

// Unwrap exposes the underlying evaluation error
func (f Failure) Unwrap() error {
	return f.err
}

// Outcome is the result of a batch run
type Outcome struct {
	Results       []*evaluation.FullEvaluationResult `json:"results" yaml:"results"`
	Failures      []Failure                          `json:"failures,omitempty" yaml:"failures,omitempty"`
	Summary       *evaluation.EvaluationSummary      `json:"summary" yaml:"summary"`
	StartTime     time.Time                          `json:"start_time" yaml:"start_time"`
	EndTime       time.Time                          `json:"end_time" yaml:"end_time"`
	TotalDuration time.Duration                      `json:"total_duration" yaml:"total_duration"`
}

// RunnerConfig configures a Runner
type RunnerConfig struct {
	Options        evaluation.Options
	MaxConcurrency int
	FailFast       bool
	Logger         logging.Logger

	// MeterProvider receives the runner metrics; nil uses the global provider
	MeterProvider metric.MeterProvider
}

// Runner evaluates every sentence of a manifest
type Runner struct {
	opts           evaluation.Options
	maxConcurrency int
	failFast       bool
	logger         logging.Logger
	metrics        *Metrics
}

// OptionsFromConfig maps the evaluation configuration onto evaluator options
func OptionsFromConfig(cfg configs.EvaluationConfig) evaluation.Options {
	silence := slices.Clone(cfg.SilencePhones)
	if silence == nil {
		silence = slices.Clone(evaluation.DefaultSilencePhones)
	}
	return evaluation.Options{
		StateCount:        cfg.StateCount,
		FrameLength:       cfg.FrameLength,
		ReferenceLpcOrder: cfg.ReferenceLpcOrder,
		TargetLpcOrder:    cfg.TargetLpcOrder,
		UVThreshold:       cfg.UVThreshold,
		Band: evaluation.Band{
			LowHz:      cfg.LowFrequency,
			HighHz:     cfg.HighFrequency,
			SampleRate: cfg.SampleRate,
		},
		WeightedLspDimension: cfg.WeightedLspDimension,
		Mode:                 evaluation.Mode(cfg.Mode),
		SilencePhones:        silence,
	}
}

// NewRunner creates a new batch runner
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefaultLogger()
	}
	metrics, err := NewMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner metrics: %w", err)
	}

	return &Runner{
		opts:           cfg.Options,
		maxConcurrency: cfg.MaxConcurrency,
		failFast:       cfg.FailFast,
		metrics:        metrics,
		logger: cfg.Logger.WithFields(logging.Fields{
			"component": "batch",
		}),
	}, nil
}

// Run evaluates the manifest. Ordinary sentence failures are recorded and
// skipped unless fail-fast is set; an unreduced lattice aborts the batch.
func (r *Runner) Run(ctx context.Context, manifest *Manifest) (*Outcome, error) {
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	inputs := manifest.Inputs()

	r.logger.Debug("Starting batch evaluation", logging.Fields{
		"sentences":       len(inputs),
		"max_concurrency": r.maxConcurrency,
		"mode":            string(r.opts.Mode),
		"state_count":     r.opts.StateCount,
	})

	results := make([]*evaluation.FullEvaluationResult, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrency)

	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := r.evaluate(gctx, input)
			if err != nil {
				errs[i] = err
				if errors.Is(err, evaluation.ErrMultipleCandidates) {
					return fmt.Errorf("aborting batch: %w", err)
				}
				if r.failFast {
					return fmt.Errorf("sentence %s failed: %w", input.ID, err)
				}
				r.logger.Warn("Sentence evaluation failed", logging.Fields{
					"sentence": input.ID,
					"index":    input.Index,
					"error":    err.Error(),
				})
				return nil
			}

			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch evaluation cancelled: %w", err)
	}

	outcome := &Outcome{
		Results:   make([]*evaluation.FullEvaluationResult, 0, len(inputs)),
		StartTime: startTime,
	}
	for i, input := range inputs {
		if errs[i] != nil {
			outcome.Failures = append(outcome.Failures, Failure{
				Index: input.Index,
				ID:    input.ID,
				Error: errs[i].Error(),
				err:   errs[i],
			})
			continue
		}
		outcome.Results = append(outcome.Results, results[i])
	}

	summary, err := evaluation.CalculateSummary(outcome.Results)
	if err != nil {
		return nil, fmt.Errorf("all %d sentences failed: %w", len(inputs), err)
	}
	outcome.Summary = summary
	outcome.EndTime = time.Now()
	outcome.TotalDuration = outcome.EndTime.Sub(startTime)

	r.logger.Debug("Batch evaluation completed", logging.Fields{
		"total_duration_s": outcome.TotalDuration.Seconds(),
		"evaluated":        len(outcome.Results),
		"failed":           len(outcome.Failures),
	})

	return outcome, nil
}

// evaluate runs one sentence and records its metrics
func (r *Runner) evaluate(ctx context.Context, input evaluation.SentenceInput) (*evaluation.FullEvaluationResult, error) {
	r.metrics.InFlight.Add(ctx, 1)
	defer r.metrics.InFlight.Add(ctx, -1)

	start := time.Now()
	result, err := evaluation.EvaluateSentence(input, r.opts, r.logger)
	r.metrics.SentenceDuration.Record(ctx, time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "failed"
	}
	r.metrics.Sentences.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	return result, err
}
