package evaluation

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/tts-eval/pkg/numeric"
)

// OutlierThresholdHz is the absolute F0 error above which a voiced frame
// counts as an outlier
const OutlierThresholdHz = 10.0

// ProcessUV classifies every common frame as voiced (F0 > threshold) or
// unvoiced and returns the contingency counts plus the indices voiced in both
// tracks. Frames past the shorter track are ignored.
func ProcessUV(ref, tgt []float64, threshold float64) (UVStatistic, []int) {
	var stat UVStatistic
	mask := []int{}

	n := min(len(ref), len(tgt))
	for i := range n {
		refVoiced := ref[i] > threshold
		tgtVoiced := tgt[i] > threshold

		if refVoiced {
			stat.voicedInRef++
		} else {
			stat.unvoicedInRef++
		}
		if tgtVoiced {
			stat.voicedInTgt++
		} else {
			stat.unvoicedInTgt++
		}

		switch {
		case refVoiced && tgtVoiced:
			stat.voicedInBoth++
			mask = append(mask, i)
		case !refVoiced && !tgtVoiced:
			stat.unvoicedInBoth++
		case tgtVoiced:
			stat.unexpectedVoiced++
		default:
			stat.unexpectedUnvoiced++
		}
	}
	return stat, mask
}

func maskedPair(ref, tgt []float64, mask []int) ([]float64, []float64, error) {
	if len(ref) != len(tgt) {
		return nil, nil, fmt.Errorf("f0: %w: %d reference frames, %d target frames",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}
	r, err := numeric.FilterElementByIndex(ref, mask)
	if err != nil {
		return nil, nil, fmt.Errorf("f0 mask: %w", err)
	}
	t, err := numeric.FilterElementByIndex(tgt, mask)
	if err != nil {
		return nil, nil, fmt.Errorf("f0 mask: %w", err)
	}
	return r, t, nil
}

// ProcessF0 compares the frames selected by mask
func ProcessF0(ref, tgt []float64, mask []int) (EvaluationResult, error) {
	r, t, err := maskedPair(ref, tgt, mask)
	if err != nil {
		return NotComputedResult(), err
	}
	return compare(r, t, len(mask))
}

// ProcessF0Outliers counts masked frames whose absolute error exceeds
// OutlierThresholdHz
func ProcessF0Outliers(ref, tgt []float64, mask []int) (OutlierStatistic, error) {
	r, t, err := maskedPair(ref, tgt, mask)
	if err != nil {
		return OutlierStatistic{}, err
	}

	var out OutlierStatistic
	for i := range r {
		if math.Abs(r[i]-t[i]) > OutlierThresholdHz {
			out.Count++
		}
	}
	if len(mask) > 0 {
		out.Ratio = float64(out.Count) / float64(len(mask))
	}
	return out, nil
}

// ProcessStateLevelF0 segments both tracks by the reference state durations
// and compares the per-state mean F0 over frames voiced in both tracks.
// States without such frames are left out.
func ProcessStateLevelF0(ref, tgt []float64, durations [][]int, threshold float64) (EvaluationResult, error) {
	if len(ref) != len(tgt) {
		return NotComputedResult(), fmt.Errorf("state-level f0: %w: %d reference frames, %d target frames",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}

	var refMeans, tgtMeans []float64
	cursor := 0
	for _, phone := range durations {
		for _, frames := range phone {
			start := min(cursor, len(ref))
			end := min(cursor+frames, len(ref))
			cursor += frames

			var refSum, tgtSum float64
			voiced := 0
			for i := start; i < end; i++ {
				if ref[i] > threshold && tgt[i] > threshold {
					refSum += ref[i]
					tgtSum += tgt[i]
					voiced++
				}
			}
			if voiced > 0 {
				refMeans = append(refMeans, refSum/float64(voiced))
				tgtMeans = append(tgtMeans, tgtSum/float64(voiced))
			}
		}
	}
	return compare(refMeans, tgtMeans, len(refMeans))
}

// compare runs RMSE, max distance and correlation over equal-length vectors
func compare(ref, tgt []float64, frames int) (EvaluationResult, error) {
	rmse, err := numeric.Rmse(ref, tgt)
	if err != nil {
		return NotComputedResult(), err
	}
	maxDist, err := numeric.MaxDistance(ref, tgt)
	if err != nil {
		return NotComputedResult(), err
	}
	corr, err := numeric.CorrelationCoefficient(ref, tgt)
	if err != nil {
		return NotComputedResult(), err
	}
	return NewEvaluationResult(rmse, maxDist, corr, frames), nil
}
