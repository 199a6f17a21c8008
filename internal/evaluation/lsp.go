package evaluation

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/tts-eval/pkg/dsp"
	"github.com/RyanBlaney/tts-eval/pkg/numeric"
)

const minLspSpacing = 1e-6

// LspFrameDistances returns the per-frame RMSE of gain-stripped LSP vectors
func LspFrameDistances(ref, tgt [][]float64) ([]float64, error) {
	if len(ref) != len(tgt) {
		return nil, fmt.Errorf("lsp: %w: %d reference frames, %d target frames",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}
	distances, err := numeric.RowwiseRmse(dsp.RemoveGain(ref, false), dsp.RemoveGain(tgt, false))
	if err != nil {
		return nil, fmt.Errorf("lsp: %w", err)
	}
	return distances, nil
}

// ProcessLsp averages the per-frame LSP RMSE (reported as RMSE) and keeps its
// maximum. Correlation is not computed.
func ProcessLsp(ref, tgt [][]float64) (EvaluationResult, error) {
	distances, err := LspFrameDistances(ref, tgt)
	if err != nil {
		return NotComputedResult(), err
	}
	return aggregateDistances(distances), nil
}

// ProcessWeightedLsp compares the first calculatedDimension LSP values of each
// frame with a perceptual weight derived from the reference spacing:
// w_i = 1/(l_i - l_{i-1}) + 1/(l_{i+1} - l_i), with l_{-1} = 0 and MaxLsp past
// the last LSP of the full order. Only the first calculatedDimension LSPs are
// weighted, but their neighbours come from the whole reference frame.
func ProcessWeightedLsp(ref, tgt [][]float64, calculatedDimension int) (EvaluationResult, error) {
	if calculatedDimension <= 0 {
		return NotComputedResult(), fmt.Errorf("%w: %d", ErrInvalidDimension, calculatedDimension)
	}
	if len(ref) != len(tgt) {
		return NotComputedResult(), fmt.Errorf("weighted lsp: %w: %d reference frames, %d target frames",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}

	refLsp := dsp.RemoveGain(ref, false)
	tgtLsp := dsp.RemoveGain(tgt, false)

	distances := make([]float64, len(refLsp))
	for i := range refLsp {
		if calculatedDimension > len(refLsp[i]) {
			return NotComputedResult(), fmt.Errorf("%w: %d exceeds reference order %d in frame %d",
				ErrInvalidDimension, calculatedDimension, len(refLsp[i]), i)
		}
		if calculatedDimension > len(tgtLsp[i]) {
			return NotComputedResult(), fmt.Errorf("%w: %d exceeds target order %d in frame %d",
				ErrInvalidDimension, calculatedDimension, len(tgtLsp[i]), i)
		}
		distances[i] = weightedDistance(refLsp[i], tgtLsp[i], calculatedDimension)
	}
	return aggregateDistances(distances), nil
}

func weightedDistance(ref, tgt []float64, dim int) float64 {
	sum := 0.0
	for i := range dim {
		prev := 0.0
		if i > 0 {
			prev = ref[i-1]
		}
		next := dsp.MaxLsp
		if i+1 < len(ref) {
			next = ref[i+1]
		}
		w := 1/math.Max(ref[i]-prev, minLspSpacing) + 1/math.Max(next-ref[i], minLspSpacing)
		d := ref[i] - tgt[i]
		sum += w * d * d
	}
	return math.Sqrt(sum)
}

// SpectrumFrameDistances band-limits both spectra and returns the per-frame
// RMSE of their log10 magnitudes in dB
func SpectrumFrameDistances(ref, tgt [][]float64, band Band) ([]float64, error) {
	if len(ref) != len(tgt) {
		return nil, fmt.Errorf("spectrum: %w: %d reference frames, %d target frames",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}
	refBand, err := dsp.FrequencyBandFilter(ref, band.LowHz, band.HighHz, band.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	tgtBand, err := dsp.FrequencyBandFilter(tgt, band.LowHz, band.HighHz, band.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	distances, err := numeric.RowwiseRmse(
		numeric.MapMatrix(refBand, math.Log10),
		numeric.MapMatrix(tgtBand, math.Log10),
	)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	return numeric.MapVector(distances, decibels), nil
}

// ProcessSpectrum compares magnitude spectra over band; distances in dB
func ProcessSpectrum(ref, tgt [][]float64, band Band) (EvaluationResult, error) {
	distances, err := SpectrumFrameDistances(ref, tgt, band)
	if err != nil {
		return NotComputedResult(), err
	}
	return aggregateDistances(distances), nil
}

// ProcessGain compares linear gains on a log10 scale. RMSE and max distance
// are in dB; correlation is taken on the log gains.
func ProcessGain(ref, tgt []float64) (EvaluationResult, error) {
	if len(ref) != len(tgt) {
		return NotComputedResult(), fmt.Errorf("gain: %w: %d reference frames, %d target frames",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}
	r := numeric.MapVector(ref, math.Log10)
	t := numeric.MapVector(tgt, math.Log10)

	result, err := compare(r, t, len(r))
	if err != nil {
		return NotComputedResult(), fmt.Errorf("gain: %w", err)
	}
	return NewEvaluationResult(
		result.RMSE().Scale(20).Float(),
		result.MaxDistance().Scale(20).Float(),
		result.Correlation().Float(),
		len(r),
	), nil
}

func decibels(v float64) float64 {
	return 20 * v
}

// aggregateDistances folds per-frame distances into mean (RMSE field) and max
func aggregateDistances(distances []float64) EvaluationResult {
	return NewEvaluationResult(numeric.Average(distances), numeric.Max(distances), math.NaN(), len(distances))
}
