package params

import (
	"math"

	"github.com/RyanBlaney/tts-eval/pkg/numeric"
)

// TrackStats summarizes a loaded parameter file
type TrackStats struct {
	Frames       int     `json:"frames" yaml:"frames"`
	Dimension    int     `json:"dimension" yaml:"dimension"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	Mean         float64 `json:"mean" yaml:"mean"`
	VoicedFrames int     `json:"voiced_frames,omitempty" yaml:"voiced_frames,omitempty"`
	VoicedRatio  float64 `json:"voiced_ratio,omitempty" yaml:"voiced_ratio,omitempty"`
}

// F0Stats summarizes an F0 track; frames above threshold count as voiced and
// min/max/mean are taken over voiced frames only
func F0Stats(f0 []float64, threshold float64) TrackStats {
	stats := TrackStats{Frames: len(f0), Dimension: 1, Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}

	var voiced []float64
	for _, v := range f0 {
		if v > threshold {
			voiced = append(voiced, v)
		}
	}
	stats.VoicedFrames = len(voiced)
	if len(f0) > 0 {
		stats.VoicedRatio = float64(len(voiced)) / float64(len(f0))
	}
	if len(voiced) > 0 {
		stats.Min = numeric.Min(voiced)
		stats.Max = numeric.Max(voiced)
		stats.Mean = numeric.Average(voiced)
	}
	return stats
}

// LspStats summarizes LSP frames; min/max/mean describe the trailing log-gain
func LspStats(frames [][]float64) TrackStats {
	stats := TrackStats{Frames: len(frames), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	if len(frames) == 0 {
		return stats
	}
	stats.Dimension = len(frames[0])

	gains := make([]float64, 0, len(frames))
	for _, frame := range frames {
		if len(frame) > 0 {
			gains = append(gains, frame[len(frame)-1])
		}
	}
	if len(gains) > 0 {
		stats.Min = numeric.Min(gains)
		stats.Max = numeric.Max(gains)
		stats.Mean = numeric.Average(gains)
	}
	return stats
}

// DurationStats summarizes per-phone state durations; values are total phone
// lengths in frames
func DurationStats(phones [][]int) TrackStats {
	stats := TrackStats{Frames: len(phones), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	if len(phones) == 0 {
		return stats
	}
	stats.Dimension = len(phones[0])

	totals := numeric.MapVector(phones, func(states []int) float64 {
		sum := 0
		for _, s := range states {
			sum += s
		}
		return float64(sum)
	})
	stats.Min = numeric.Min(totals)
	stats.Max = numeric.Max(totals)
	stats.Mean = numeric.Average(totals)
	return stats
}
