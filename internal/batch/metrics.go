package batch

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/RyanBlaney/tts-eval/batch"

// Metrics holds the instruments recorded by a Runner. All fields are safe
// for concurrent use.
type Metrics struct {
	// SentenceDuration tracks the wall time of one sentence evaluation
	SentenceDuration metric.Float64Histogram

	// Sentences counts evaluated sentences. Use with attribute:
	//   attribute.String("status", "ok"|"failed")
	Sentences metric.Int64Counter

	// InFlight tracks sentences currently being evaluated
	InFlight metric.Int64UpDownCounter
}

var durationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates the runner instruments from mp. A nil provider uses the
// global one, which is a no-op unless the process installed an SDK.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SentenceDuration, err = m.Float64Histogram("tts_eval.sentence.duration",
		metric.WithDescription("Wall time of one sentence evaluation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Sentences, err = m.Int64Counter("tts_eval.sentences",
		metric.WithDescription("Evaluated sentences by status."),
	); err != nil {
		return nil, err
	}
	if met.InFlight, err = m.Int64UpDownCounter("tts_eval.sentences.in_flight",
		metric.WithDescription("Sentences currently being evaluated."),
	); err != nil {
		return nil, err
	}

	return met, nil
}
