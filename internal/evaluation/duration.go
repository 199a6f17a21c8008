package evaluation

import (
	"fmt"

	"github.com/RyanBlaney/tts-eval/pkg/numeric"
)

// ProcessDuration compares per-phone state durations. Each phone is reduced to
// the average frame count of its states; RMSE and max distance are reported in
// seconds (scaled by stateCount*frameLength), correlation on the averages.
func ProcessDuration(ref, tgt [][]int, stateCount int, frameLength float64) (EvaluationResult, error) {
	if stateCount <= 0 {
		return NotComputedResult(), fmt.Errorf("%w: state count %d", ErrInvalidOptions, stateCount)
	}
	if frameLength <= 0 {
		return NotComputedResult(), fmt.Errorf("%w: frame length %g", ErrInvalidOptions, frameLength)
	}
	if len(ref) != len(tgt) {
		return NotComputedResult(), fmt.Errorf("duration: %w: %d reference phones, %d target phones",
			numeric.ErrLengthMismatch, len(ref), len(tgt))
	}

	refAvg := numeric.MapVector(ref, numeric.Average[int])
	tgtAvg := numeric.MapVector(tgt, numeric.Average[int])

	rmse, err := numeric.Rmse(refAvg, tgtAvg)
	if err != nil {
		return NotComputedResult(), fmt.Errorf("duration: %w", err)
	}
	maxDist, err := numeric.MaxDistance(refAvg, tgtAvg)
	if err != nil {
		return NotComputedResult(), fmt.Errorf("duration: %w", err)
	}
	corr, err := numeric.CorrelationCoefficient(refAvg, tgtAvg)
	if err != nil {
		return NotComputedResult(), fmt.Errorf("duration: %w", err)
	}

	scale := float64(stateCount) * frameLength
	return NewEvaluationResult(rmse*scale, maxDist*scale, corr, len(ref)), nil
}

// PhoneFrames is the total frame count of one phone
func PhoneFrames(states []int) int {
	total := 0
	for _, s := range states {
		total += s
	}
	return total
}
