package evaluation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/RyanBlaney/tts-eval/pkg/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetric(t *testing.T) {
	m := Computed(1.5)
	v, ok := m.Value()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, "1.500", m.Format(3))
	assert.Equal(t, 3.0, m.Scale(2).Float())

	nan := Computed(math.NaN())
	assert.False(t, nan.IsComputed())
	assert.Equal(t, "NaN", nan.Format(3))
	assert.True(t, math.IsNaN(nan.Float()))
	assert.False(t, nan.Scale(2).IsComputed())

	data, err := json.Marshal(struct {
		A Metric `json:"a"`
		B Metric `json:"b"`
	}{A: Computed(2), B: NotComputed()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2,"b":null}`, string(data))
}

func TestEvaluationResult(t *testing.T) {
	r := NewEvaluationResult(1, 2, math.NaN(), 10)
	assert.Equal(t, 1.0, r.RMSE().Float())
	assert.Equal(t, 2.0, r.MaxDistance().Float())
	assert.False(t, r.Correlation().IsComputed())
	n, ok := r.UsedFrames()
	assert.True(t, ok)
	assert.Equal(t, 10, n)

	_, ok = NotComputedResult().UsedFrames()
	assert.False(t, ok)
	_, ok = NewEvaluationResult(0, 0, 0, -3).UsedFrames()
	assert.False(t, ok)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rmse":1,"max_distance":2,"correlation":null,"used_frames":10}`, string(data))
}

func TestProcessDuration(t *testing.T) {
	ref := [][]int{{10, 5}, {8, 8}}

	self, err := ProcessDuration(ref, ref, 2, 0.005)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self.RMSE().Float())
	assert.Equal(t, 0.0, self.MaxDistance().Float())
	assert.InDelta(t, 1.0, self.Correlation().Float(), 1e-12)
	frames, _ := self.UsedFrames()
	assert.Equal(t, 2, frames)

	// averages 7.5/8 against 8.5/8, scaled by 2 states * 5 ms
	r, err := ProcessDuration(ref, [][]int{{12, 5}, {8, 8}}, 2, 0.005)
	require.NoError(t, err)
	assert.InDelta(t, 0.01*math.Sqrt(0.5), r.RMSE().Float(), 1e-12)
	assert.InDelta(t, 0.01, r.MaxDistance().Float(), 1e-12)

	_, err = ProcessDuration(ref, ref[:1], 2, 0.005)
	assert.ErrorIs(t, err, numeric.ErrLengthMismatch)
	_, err = ProcessDuration(ref, ref, 0, 0.005)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	_, err = ProcessDuration(ref, ref, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestProcessUV(t *testing.T) {
	stat, mask := ProcessUV([]float64{100, 0, 120, 0}, []float64{105, 0, 0, 130}, 50)

	assert.Equal(t, []int{0}, mask)
	assert.Equal(t, 1, stat.VoicedFrameNumberInBoth())
	assert.Equal(t, 1, stat.UnvoicedFrameNumberInBoth())
	assert.Equal(t, 1, stat.UnexpectedVoiced())
	assert.Equal(t, 1, stat.UnexpectedUnvoiced())
	assert.Equal(t, 2, stat.VoicedInRef())
	assert.Equal(t, 2, stat.UnvoicedInRef())
	assert.Equal(t, 2, stat.VoicedInTgt())
	assert.Equal(t, 2, stat.UnvoicedInTgt())
	assert.Equal(t, 4, stat.ComparedFrames())
	assert.Equal(t, 0.5, stat.MismatchRatio())

	empty, mask := ProcessUV(nil, []float64{100}, 50)
	assert.Empty(t, mask)
	assert.Equal(t, 0.0, empty.MismatchRatio())

	// frames past the shorter track are ignored
	stat, mask = ProcessUV([]float64{100, 100, 100}, []float64{100}, 50)
	assert.Equal(t, []int{0}, mask)
	assert.Equal(t, 1, stat.ComparedFrames())
}

func TestProcessF0(t *testing.T) {
	ref := []float64{100, 0, 120, 140}
	tgt := []float64{110, 0, 120, 160}

	r, err := ProcessF0(ref, tgt, []int{0, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(500.0/3), r.RMSE().Float(), 1e-9)
	assert.Equal(t, 20.0, r.MaxDistance().Float())
	frames, _ := r.UsedFrames()
	assert.Equal(t, 3, frames)

	empty, err := ProcessF0(ref, tgt, nil)
	require.NoError(t, err)
	assert.False(t, empty.RMSE().IsComputed())
	assert.False(t, empty.Correlation().IsComputed())

	_, err = ProcessF0(ref, tgt[:2], []int{0})
	assert.ErrorIs(t, err, numeric.ErrLengthMismatch)
	_, err = ProcessF0(ref, tgt, []int{7})
	assert.ErrorIs(t, err, numeric.ErrIndexOutOfRange)
}

func TestProcessF0Outliers(t *testing.T) {
	ref := []float64{100, 200, 300, 400}
	tgt := []float64{105, 215, 300, 380}

	out, err := ProcessF0Outliers(ref, tgt, []int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 0.5, out.Ratio)

	out, err = ProcessF0Outliers(ref, tgt, nil)
	require.NoError(t, err)
	assert.Equal(t, OutlierStatistic{}, out)
}

func TestProcessStateLevelF0(t *testing.T) {
	ref := []float64{100, 110, 0, 200, 220, 0}
	tgt := []float64{102, 112, 0, 190, 210, 0}
	durations := [][]int{{2, 1}, {2, 1}}

	r, err := ProcessStateLevelF0(ref, tgt, durations, 50)
	require.NoError(t, err)
	frames, _ := r.UsedFrames()
	assert.Equal(t, 2, frames, "unvoiced states are excluded")
	// state means 105/107 and 210/200
	assert.InDelta(t, math.Sqrt((4.0+100.0)/2), r.RMSE().Float(), 1e-9)
	assert.InDelta(t, 10.0, r.MaxDistance().Float(), 1e-9)

	// durations longer than the track are clipped
	r, err = ProcessStateLevelF0(ref[:2], tgt[:2], durations, 50)
	require.NoError(t, err)
	frames, _ = r.UsedFrames()
	assert.Equal(t, 1, frames)
}

func TestProcessLsp(t *testing.T) {
	ref := [][]float64{{0.1, 0.2, 0.3, 1.5}, {0.1, 0.2, 0.3, 0.5}}

	self, err := ProcessLsp(ref, ref)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self.RMSE().Float())
	assert.False(t, self.Correlation().IsComputed())

	tgt := [][]float64{{0.1, 0.2, 0.3, -4}, {0.4, 0.2, 0.3, 0.5}}
	r, err := ProcessLsp(ref, tgt)
	require.NoError(t, err)
	// gain is ignored; the second frame differs by 0.3 in one of three values
	perFrame := 0.3 / math.Sqrt(3)
	assert.InDelta(t, perFrame/2, r.RMSE().Float(), 1e-9)
	assert.InDelta(t, perFrame, r.MaxDistance().Float(), 1e-9)

	_, err = ProcessLsp(ref, ref[:1])
	assert.ErrorIs(t, err, numeric.ErrLengthMismatch)
}

func TestProcessWeightedLsp(t *testing.T) {
	ref := [][]float64{{0.1, 0.2, 0.3, 0}}

	self, err := ProcessWeightedLsp(ref, ref, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self.RMSE().Float())

	// w0 = 1/0.1 + 1/0.1, distance sqrt(20 * 0.05^2)
	r, err := ProcessWeightedLsp(ref, [][]float64{{0.15, 0.2, 0.3, 0}}, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.05), r.RMSE().Float(), 1e-9)

	_, err = ProcessWeightedLsp(ref, ref, 0)
	assert.ErrorIs(t, err, ErrInvalidDimension)
	_, err = ProcessWeightedLsp(ref, ref, 4)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	// below the full order the last weighted LSP still sees its real neighbour:
	// w1 = 1/0.1 + 1/0.1 rather than 1/0.1 + 1/(0.5 - 0.2)
	inner, err := ProcessWeightedLsp(ref, [][]float64{{0.1, 0.25, 0.3, 0}}, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(20*0.05*0.05), inner.RMSE().Float(), 1e-9)

	// at the full order MaxLsp closes the last interval: w2 = 1/0.1 + 1/0.2
	outer, err := ProcessWeightedLsp(ref, [][]float64{{0.1, 0.2, 0.35, 0}}, 3)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(15*0.05*0.05), outer.RMSE().Float(), 1e-9)

	// coincident LSPs hit the spacing floor instead of dividing by zero
	flat, err := ProcessWeightedLsp([][]float64{{0.2, 0.2, 0}}, [][]float64{{0.2, 0.2, 0}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, flat.RMSE().Float())
}

func TestProcessSpectrum(t *testing.T) {
	band := Band{LowHz: 0, HighHz: 4000, SampleRate: 8000}
	ref := [][]float64{{1, 1, 1, 1}, {2, 2, 2, 2}}

	self, err := ProcessSpectrum(ref, ref, band)
	require.NoError(t, err)
	assert.Equal(t, 0.0, self.RMSE().Float())

	tgt := [][]float64{{10, 10, 10, 10}, {2, 2, 2, 2}}
	r, err := ProcessSpectrum(ref, tgt, band)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, r.RMSE().Float(), 1e-9)
	assert.InDelta(t, 20.0, r.MaxDistance().Float(), 1e-9)

	// lower half of the band only
	low, err := ProcessSpectrum([][]float64{{1, 1, 5, 5}}, [][]float64{{1, 1, 50, 50}}, Band{LowHz: 0, HighHz: 2000, SampleRate: 8000})
	require.NoError(t, err)
	assert.Equal(t, 0.0, low.RMSE().Float())

	_, err = ProcessSpectrum(ref, tgt, Band{LowHz: 3000, HighHz: 1000, SampleRate: 8000})
	assert.Error(t, err)
}

func TestProcessGain(t *testing.T) {
	r, err := ProcessGain([]float64{1, 10, 100}, []float64{10, 10, 100})
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Sqrt(1.0/3), r.RMSE().Float(), 1e-9)
	assert.InDelta(t, 20.0, r.MaxDistance().Float(), 1e-9)
	assert.True(t, r.Correlation().IsComputed())

	_, err = ProcessGain([]float64{1}, nil)
	assert.ErrorIs(t, err, numeric.ErrLengthMismatch)
}

func TestBestPath(t *testing.T) {
	path, err := NewBestPath([]LatticeNode{
		{Candidates: []Unit{{Phone: "sil", UnitID: 1}}},
		{Candidates: []Unit{{Phone: "a", UnitID: 7}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, path.Len())
	assert.Equal(t, Unit{Phone: "a", UnitID: 7}, path.Unit(1))
	assert.Equal(t, []string{"sil", "a"}, path.Phones())

	_, err = NewBestPath([]LatticeNode{{Candidates: []Unit{{Phone: "a"}, {Phone: "e"}}}})
	assert.ErrorIs(t, err, ErrMultipleCandidates)

	_, err = NewBestPath([]LatticeNode{{}})
	assert.ErrorIs(t, err, ErrEmptyNode)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	cases := map[string]func(*Options){
		"state count":  func(o *Options) { o.StateCount = 6 },
		"frame length": func(o *Options) { o.FrameLength = 0 },
		"lpc order":    func(o *Options) { o.TargetLpcOrder = 0 },
		"band":         func(o *Options) { o.Band.HighHz = 9000 },
		"dimension":    func(o *Options) { o.WeightedLspDimension = 0 },
		"mode":         func(o *Options) { o.Mode = "concat" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions()
			mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
		})
	}

	opts := DefaultOptions()
	assert.True(t, opts.IsSilence("pau"))
	assert.False(t, opts.IsSilence("a"))
}
