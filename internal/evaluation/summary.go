package evaluation

import (
	"errors"
	"fmt"
)

var ErrEmptyBatch = errors.New("no sentence results to summarize")

// AveragedResult is the corpus mean of an EvaluationResult
type AveragedResult struct {
	RMSE        Metric `json:"rmse" yaml:"rmse"`
	MaxDistance Metric `json:"max_distance" yaml:"max_distance"`
	Correlation Metric `json:"correlation" yaml:"correlation"`
	UsedFrames  Metric `json:"used_frames" yaml:"used_frames"`
}

// AveragedUV is the corpus mean of a UVStatistic
type AveragedUV struct {
	VoicedInRef        Metric `json:"voiced_in_ref" yaml:"voiced_in_ref"`
	UnvoicedInRef      Metric `json:"unvoiced_in_ref" yaml:"unvoiced_in_ref"`
	VoicedInTgt        Metric `json:"voiced_in_tgt" yaml:"voiced_in_tgt"`
	UnvoicedInTgt      Metric `json:"unvoiced_in_tgt" yaml:"unvoiced_in_tgt"`
	VoicedInBoth       Metric `json:"voiced_in_both" yaml:"voiced_in_both"`
	UnvoicedInBoth     Metric `json:"unvoiced_in_both" yaml:"unvoiced_in_both"`
	UnexpectedVoiced   Metric `json:"unexpected_voiced" yaml:"unexpected_voiced"`
	UnexpectedUnvoiced Metric `json:"unexpected_unvoiced" yaml:"unexpected_unvoiced"`
	MismatchRatio      Metric `json:"mismatch_ratio" yaml:"mismatch_ratio"`
}

// AveragedOutliers is the corpus mean of an OutlierStatistic
type AveragedOutliers struct {
	Count Metric `json:"count" yaml:"count"`
	Ratio Metric `json:"ratio" yaml:"ratio"`
}

// AveragedPhone is the mean over every scored phone of the corpus
type AveragedPhone struct {
	DurationDistance Metric `json:"duration_distance" yaml:"duration_distance"`
	F0RMSE           Metric `json:"f0_rmse" yaml:"f0_rmse"`
	F0Correlation    Metric `json:"f0_correlation" yaml:"f0_correlation"`
	LspDistance      Metric `json:"lsp_distance" yaml:"lsp_distance"`
	SpectrumDistance Metric `json:"spectrum_distance" yaml:"spectrum_distance"`
	GainRMSE         Metric `json:"gain_rmse" yaml:"gain_rmse"`
	GainCorrelation  Metric `json:"gain_correlation" yaml:"gain_correlation"`
}

// EvaluationSummary is the corpus-level mean of all sentence results
type EvaluationSummary struct {
	SentenceCount    int              `json:"sentence_count" yaml:"sentence_count"`
	PhoneCount       int              `json:"phone_count" yaml:"phone_count"`
	Frames           Metric           `json:"frames" yaml:"frames"`
	Duration         AveragedResult   `json:"duration" yaml:"duration"`
	UV               AveragedUV       `json:"uv" yaml:"uv"`
	F0               AveragedResult   `json:"f0" yaml:"f0"`
	F0StateLevel     AveragedResult   `json:"f0_state_level" yaml:"f0_state_level"`
	F0Outliers       AveragedOutliers `json:"f0_outliers" yaml:"f0_outliers"`
	Lsp              AveragedResult   `json:"lsp" yaml:"lsp"`
	WeightedLsp      AveragedResult   `json:"weighted_lsp" yaml:"weighted_lsp"`
	Spectrum         AveragedResult   `json:"spectrum" yaml:"spectrum"`
	SpectrumWithGain AveragedResult   `json:"spectrum_with_gain" yaml:"spectrum_with_gain"`
	Gain             AveragedResult   `json:"gain" yaml:"gain"`
	Phone            AveragedPhone    `json:"phone" yaml:"phone"`
}

// mean accumulates computed values only
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v Metric) {
	if x, ok := v.Value(); ok {
		m.sum += x
		m.n++
	}
}

func (m *mean) addInt(v int) {
	m.add(Computed(float64(v)))
}

func (m mean) metric() Metric {
	if m.n == 0 {
		return NotComputed()
	}
	return Computed(m.sum / float64(m.n))
}

type resultMean struct {
	rmse, maxDistance, correlation, frames mean
}

func (m *resultMean) add(r EvaluationResult) {
	m.rmse.add(r.RMSE())
	m.maxDistance.add(r.MaxDistance())
	m.correlation.add(r.Correlation())
	m.frames.add(r.FramesMetric())
}

func (m resultMean) result() AveragedResult {
	return AveragedResult{
		RMSE:        m.rmse.metric(),
		MaxDistance: m.maxDistance.metric(),
		Correlation: m.correlation.metric(),
		UsedFrames:  m.frames.metric(),
	}
}

type uvMean struct {
	voicedInRef, unvoicedInRef, voicedInTgt, unvoicedInTgt mean
	voicedInBoth, unvoicedInBoth                           mean
	unexpectedVoiced, unexpectedUnvoiced, mismatch         mean
}

func (m *uvMean) add(s UVStatistic) {
	m.voicedInRef.addInt(s.VoicedInRef())
	m.unvoicedInRef.addInt(s.UnvoicedInRef())
	m.voicedInTgt.addInt(s.VoicedInTgt())
	m.unvoicedInTgt.addInt(s.UnvoicedInTgt())
	m.voicedInBoth.addInt(s.VoicedFrameNumberInBoth())
	m.unvoicedInBoth.addInt(s.UnvoicedFrameNumberInBoth())
	m.unexpectedVoiced.addInt(s.UnexpectedVoiced())
	m.unexpectedUnvoiced.addInt(s.UnexpectedUnvoiced())
	m.mismatch.add(Computed(s.MismatchRatio()))
}

func (m uvMean) result() AveragedUV {
	return AveragedUV{
		VoicedInRef:        m.voicedInRef.metric(),
		UnvoicedInRef:      m.unvoicedInRef.metric(),
		VoicedInTgt:        m.voicedInTgt.metric(),
		UnvoicedInTgt:      m.unvoicedInTgt.metric(),
		VoicedInBoth:       m.voicedInBoth.metric(),
		UnvoicedInBoth:     m.unvoicedInBoth.metric(),
		UnexpectedVoiced:   m.unexpectedVoiced.metric(),
		UnexpectedUnvoiced: m.unexpectedUnvoiced.metric(),
		MismatchRatio:      m.mismatch.metric(),
	}
}

type phoneMean struct {
	duration, f0RMSE, f0Corr, lsp, spectrum, gainRMSE, gainCorr mean
}

func (m *phoneMean) add(p PhoneLevelResult) {
	m.duration.add(p.DurationDistance)
	m.f0RMSE.add(p.F0RMSE)
	m.f0Corr.add(p.F0Correlation)
	m.lsp.add(p.LspDistance)
	m.spectrum.add(p.SpectrumDistance)
	m.gainRMSE.add(p.GainRMSE)
	m.gainCorr.add(p.GainCorrelation)
}

func (m phoneMean) result() AveragedPhone {
	return AveragedPhone{
		DurationDistance: m.duration.metric(),
		F0RMSE:           m.f0RMSE.metric(),
		F0Correlation:    m.f0Corr.metric(),
		LspDistance:      m.lsp.metric(),
		SpectrumDistance: m.spectrum.metric(),
		GainRMSE:         m.gainRMSE.metric(),
		GainCorrelation:  m.gainCorr.metric(),
	}
}

// CalculateSummary averages every scalar of the sentence results. Values a
// sentence did not compute are left out of the corresponding mean.
func CalculateSummary(results []*FullEvaluationResult) (*EvaluationSummary, error) {
	if len(results) == 0 {
		return nil, ErrEmptyBatch
	}

	var frames, outlierCount, outlierRatio mean
	var duration, f0, f0State, lsp, weighted, spectrum, spectrumGain, gain resultMean
	var uv uvMean
	var phones phoneMean
	phoneCount := 0

	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("result %d is nil", i)
		}
		frames.addInt(r.Frames)
		duration.add(r.Duration)
		uv.add(r.UV)
		f0.add(r.F0)
		f0State.add(r.F0StateLevel)
		outlierCount.addInt(r.F0Outliers.Count)
		outlierRatio.add(Computed(r.F0Outliers.Ratio))
		lsp.add(r.Lsp)
		weighted.add(r.WeightedLsp)
		spectrum.add(r.Spectrum)
		spectrumGain.add(r.SpectrumWithGain)
		gain.add(r.Gain)

		for _, p := range r.PhoneResults {
			phones.add(p)
			phoneCount++
		}
	}

	return &EvaluationSummary{
		SentenceCount:    len(results),
		PhoneCount:       phoneCount,
		Frames:           frames.metric(),
		Duration:         duration.result(),
		UV:               uv.result(),
		F0:               f0.result(),
		F0StateLevel:     f0State.result(),
		F0Outliers:       AveragedOutliers{Count: outlierCount.metric(), Ratio: outlierRatio.metric()},
		Lsp:              lsp.result(),
		WeightedLsp:      weighted.result(),
		Spectrum:         spectrum.result(),
		SpectrumWithGain: spectrumGain.result(),
		Gain:             gain.result(),
		Phone:            phones.result(),
	}, nil
}
