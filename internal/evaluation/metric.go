package evaluation

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a measure that may not have been computed (empty input, fewer
// than two points for a correlation, skipped comparison). The zero value is
// not computed.
type Metric struct {
	value    float64
	computed bool
}

// Computed wraps a value; NaN maps to not computed
func Computed(v float64) Metric {
	if math.IsNaN(v) {
		return Metric{}
	}
	return Metric{value: v, computed: true}
}

// NotComputed returns the not-computed metric
func NotComputed() Metric {
	return Metric{}
}

// Value returns the value and whether it was computed
func (m Metric) Value() (float64, bool) {
	return m.value, m.computed
}

func (m Metric) IsComputed() bool {
	return m.computed
}

// Float returns the value, or NaN when not computed
func (m Metric) Float() float64 {
	if !m.computed {
		return math.NaN()
	}
	return m.value
}

// Scale multiplies a computed value by f
func (m Metric) Scale(f float64) Metric {
	if !m.computed {
		return m
	}
	return Computed(m.value * f)
}

// Format renders the value with the given precision, "NaN" when not computed
func (m Metric) Format(precision int) string {
	if !m.computed {
		return "NaN"
	}
	return strconv.FormatFloat(m.value, 'f', precision, 64)
}

func (m Metric) String() string {
	return m.Format(6)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.computed || math.IsInf(m.value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m Metric) MarshalYAML() (any, error) {
	if !m.computed {
		return nil, nil
	}
	return m.value, nil
}

// EvaluationResult is the outcome of one per-feature evaluator
type EvaluationResult struct {
	rmse        Metric
	maxDistance Metric
	correlation Metric
	usedFrames  int
}

// NewEvaluationResult builds a result; NaN values and negative frame counts
// are recorded as not computed
func NewEvaluationResult(rmse, maxDistance, correlation float64, usedFrames int) EvaluationResult {
	if usedFrames < 0 {
		usedFrames = -1
	}
	return EvaluationResult{
		rmse:        Computed(rmse),
		maxDistance: Computed(maxDistance),
		correlation: Computed(correlation),
		usedFrames:  usedFrames,
	}
}

// NotComputedResult is the result of a skipped comparison
func NotComputedResult() EvaluationResult {
	return EvaluationResult{usedFrames: -1}
}

func (r EvaluationResult) RMSE() Metric        { return r.rmse }
func (r EvaluationResult) MaxDistance() Metric { return r.maxDistance }
func (r EvaluationResult) Correlation() Metric { return r.correlation }

// UsedFrames returns the number of frames the result was computed over
func (r EvaluationResult) UsedFrames() (int, bool) {
	if r.usedFrames < 0 {
		return 0, false
	}
	return r.usedFrames, true
}

// FramesMetric exposes the frame count as a Metric for averaging and reports
func (r EvaluationResult) FramesMetric() Metric {
	if n, ok := r.UsedFrames(); ok {
		return Computed(float64(n))
	}
	return NotComputed()
}

type resultView struct {
	RMSE        Metric `json:"rmse" yaml:"rmse"`
	MaxDistance Metric `json:"max_distance" yaml:"max_distance"`
	Correlation Metric `json:"correlation" yaml:"correlation"`
	UsedFrames  Metric `json:"used_frames" yaml:"used_frames"`
}

func (r EvaluationResult) view() resultView {
	return resultView{
		RMSE:        r.rmse,
		MaxDistance: r.maxDistance,
		Correlation: r.correlation,
		UsedFrames:  r.FramesMetric(),
	}
}

func (r EvaluationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.view())
}

func (r EvaluationResult) MarshalYAML() (any, error) {
	return r.view(), nil
}
