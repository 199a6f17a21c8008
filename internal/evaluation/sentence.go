package evaluation

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/tts-eval/pkg/dsp"
	"github.com/RyanBlaney/tts-eval/pkg/logging"
	"github.com/RyanBlaney/tts-eval/pkg/numeric"
	"github.com/RyanBlaney/tts-eval/pkg/params"
)

var (
	ErrLatticeMismatch = errors.New("lattice does not match duration file")
	ErrMissingFile     = errors.New("parameter file not set")
)

// ParameterFiles locates the parameter files of one side of a sentence
type ParameterFiles struct {
	Duration string `json:"duration" yaml:"duration" mapstructure:"duration"`
	F0       string `json:"f0" yaml:"f0" mapstructure:"f0"`
	Lsp      string `json:"lsp" yaml:"lsp" mapstructure:"lsp"`
}

func (f ParameterFiles) complete() bool {
	return f.Duration != "" && f.F0 != "" && f.Lsp != ""
}

// SentenceInput is one reference/target pair to evaluate
type SentenceInput struct {
	Index     int
	ID        string
	Reference ParameterFiles
	Target    ParameterFiles
	Lattice   []LatticeNode
}

// PhoneLevelResult is the breakdown of one non-silence phone
type PhoneLevelResult struct {
	SentenceIndex    int    `json:"sentence_index" yaml:"sentence_index"`
	StartFrame       int    `json:"start_frame" yaml:"start_frame"`
	FrameLength      int    `json:"frame_length" yaml:"frame_length"`
	Phone            string `json:"phone" yaml:"phone"`
	UnitID           int    `json:"unit_id" yaml:"unit_id"`
	DurationDistance Metric `json:"duration_distance" yaml:"duration_distance"`
	F0RMSE           Metric `json:"f0_rmse" yaml:"f0_rmse"`
	F0Correlation    Metric `json:"f0_correlation" yaml:"f0_correlation"`
	LspDistance      Metric `json:"lsp_distance" yaml:"lsp_distance"`
	SpectrumDistance Metric `json:"spectrum_distance" yaml:"spectrum_distance"`
	GainRMSE         Metric `json:"gain_rmse" yaml:"gain_rmse"`
	GainCorrelation  Metric `json:"gain_correlation" yaml:"gain_correlation"`
}

// FullEvaluationResult collects every measure of one sentence
type FullEvaluationResult struct {
	Index            int                `json:"index" yaml:"index"`
	ID               string             `json:"id" yaml:"id"`
	Reference        ParameterFiles     `json:"reference" yaml:"reference"`
	Target           ParameterFiles     `json:"target" yaml:"target"`
	Frames           int                `json:"frames" yaml:"frames"`
	Duration         EvaluationResult   `json:"duration" yaml:"duration"`
	UV               UVStatistic        `json:"uv" yaml:"uv"`
	F0               EvaluationResult   `json:"f0" yaml:"f0"`
	F0StateLevel     EvaluationResult   `json:"f0_state_level" yaml:"f0_state_level"`
	F0Outliers       OutlierStatistic   `json:"f0_outliers" yaml:"f0_outliers"`
	Lsp              EvaluationResult   `json:"lsp" yaml:"lsp"`
	WeightedLsp      EvaluationResult   `json:"weighted_lsp" yaml:"weighted_lsp"`
	Spectrum         EvaluationResult   `json:"spectrum" yaml:"spectrum"`
	SpectrumWithGain EvaluationResult   `json:"spectrum_with_gain" yaml:"spectrum_with_gain"`
	Gain             EvaluationResult   `json:"gain" yaml:"gain"`
	PhoneResults     []PhoneLevelResult `json:"phone_results,omitempty" yaml:"phone_results,omitempty"`
}

type sentenceData struct {
	refDur, tgtDur [][]int
	refF0, tgtF0   []float64
	refLsp, tgtLsp [][]float64
}

// frame-level series shared by the sentence and phone-level measures
type frameSeries struct {
	refF0, tgtF0     []float64
	refGain, tgtGain []float64
	lspDistances     []float64
	specDistances    []float64
}

func loadSentence(in SentenceInput, opts Options) (*sentenceData, error) {
	if !in.Reference.complete() {
		return nil, fmt.Errorf("%w: reference side of sentence %s", ErrMissingFile, in.ID)
	}
	if !in.Target.complete() {
		return nil, fmt.Errorf("%w: target side of sentence %s", ErrMissingFile, in.ID)
	}

	var (
		data sentenceData
		err  error
	)
	if data.refDur, err = params.LoadDuration(in.Reference.Duration, opts.StateCount); err != nil {
		return nil, fmt.Errorf("reference duration: %w", err)
	}
	if data.tgtDur, err = params.LoadDuration(in.Target.Duration, opts.StateCount); err != nil {
		return nil, fmt.Errorf("target duration: %w", err)
	}
	if data.refF0, err = params.LoadF0(in.Reference.F0); err != nil {
		return nil, fmt.Errorf("reference f0: %w", err)
	}
	if data.tgtF0, err = params.LoadF0(in.Target.F0); err != nil {
		return nil, fmt.Errorf("target f0: %w", err)
	}
	if data.refLsp, err = params.LoadLsp(in.Reference.Lsp, opts.ReferenceLpcOrder); err != nil {
		return nil, fmt.Errorf("reference lsp: %w", err)
	}
	if data.tgtLsp, err = params.LoadLsp(in.Target.Lsp, opts.TargetLpcOrder); err != nil {
		return nil, fmt.Errorf("target lsp: %w", err)
	}
	return &data, nil
}

// truncatePair cuts both sequences to the shorter length
func truncatePair[T any](ref, tgt []T, feature string, logger logging.Logger) ([]T, []T) {
	if len(ref) == len(tgt) {
		return ref, tgt
	}
	n := min(len(ref), len(tgt))
	logger.Warn("Frame counts differ, truncating to the shorter sequence", logging.Fields{
		"feature":    feature,
		"ref_frames": len(ref),
		"tgt_frames": len(tgt),
		"kept":       n,
	})
	return ref[:n], tgt[:n]
}

// EvaluateSentence loads the parameter files of one sentence and runs every
// evaluator over them. A lattice, when present, adds the phone-level breakdown.
func EvaluateSentence(in SentenceInput, opts Options, logger logging.Logger) (*FullEvaluationResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger = logger.WithFields(logging.Fields{
		"sentence": in.ID,
		"index":    in.Index,
	})

	var path *BestPath
	if len(in.Lattice) > 0 {
		p, err := NewBestPath(in.Lattice)
		if err != nil {
			return nil, fmt.Errorf("sentence %s: %w", in.ID, err)
		}
		path = p
	}

	data, err := loadSentence(in, opts)
	if err != nil {
		return nil, fmt.Errorf("sentence %s: %w", in.ID, err)
	}

	result := &FullEvaluationResult{
		Index:     in.Index,
		ID:        in.ID,
		Reference: in.Reference,
		Target:    in.Target,
	}

	if result.Duration, err = ProcessDuration(data.refDur, data.tgtDur, opts.StateCount, opts.FrameLength); err != nil {
		return nil, fmt.Errorf("sentence %s: %w", in.ID, err)
	}

	series, err := evaluateFrames(result, data, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sentence %s: %w", in.ID, err)
	}

	if path != nil {
		phones, err := phoneLevel(in.Index, path, data, series, opts)
		if err != nil {
			return nil, fmt.Errorf("sentence %s: %w", in.ID, err)
		}
		result.PhoneResults = phones
	}

	logger.Debug("Sentence evaluated", logging.Fields{
		"frames":       result.Frames,
		"phone_count":  len(data.refDur),
		"phone_scored": len(result.PhoneResults),
	})
	return result, nil
}

// evaluateFrames fills the F0, LSP, spectrum and gain measures of result
func evaluateFrames(result *FullEvaluationResult, data *sentenceData, opts Options, logger logging.Logger) (*frameSeries, error) {
	var (
		series frameSeries
		err    error
	)

	series.refF0, series.tgtF0 = truncatePair(data.refF0, data.tgtF0, "f0", logger)
	uv, mask := ProcessUV(series.refF0, series.tgtF0, opts.UVThreshold)
	result.UV = uv

	if result.F0, err = ProcessF0(series.refF0, series.tgtF0, mask); err != nil {
		return nil, err
	}
	if result.F0Outliers, err = ProcessF0Outliers(series.refF0, series.tgtF0, mask); err != nil {
		return nil, err
	}
	if result.F0StateLevel, err = ProcessStateLevelF0(series.refF0, series.tgtF0, data.refDur, opts.UVThreshold); err != nil {
		return nil, err
	}

	refLsp, tgtLsp := truncatePair(data.refLsp, data.tgtLsp, "lsp", logger)
	result.Frames = len(refLsp)

	series.refGain = dsp.GetGain(refLsp)
	series.tgtGain = dsp.GetGain(tgtLsp)
	if result.Gain, err = ProcessGain(series.refGain, series.tgtGain); err != nil {
		return nil, err
	}

	if !opts.LpcOrdersMatch() {
		logger.Warn("LPC orders differ, skipping LSP and spectrum comparison", logging.Fields{
			"ref_order": opts.ReferenceLpcOrder,
			"tgt_order": opts.TargetLpcOrder,
		})
		result.Lsp = NotComputedResult()
		result.WeightedLsp = NotComputedResult()
		result.Spectrum = NotComputedResult()
		result.SpectrumWithGain = NotComputedResult()
		return &series, nil
	}

	if series.lspDistances, err = LspFrameDistances(refLsp, tgtLsp); err != nil {
		return nil, err
	}
	result.Lsp = aggregateDistances(series.lspDistances)

	dim := min(opts.WeightedLspDimension, opts.ReferenceLpcOrder)
	if result.WeightedLsp, err = ProcessWeightedLsp(refLsp, tgtLsp, dim); err != nil {
		return nil, err
	}

	if series.specDistances, err = spectrumDistances(refLsp, tgtLsp, opts, false); err != nil {
		return nil, err
	}
	result.Spectrum = aggregateDistances(series.specDistances)

	withGain, err := spectrumDistances(refLsp, tgtLsp, opts, true)
	if err != nil {
		return nil, err
	}
	result.SpectrumWithGain = aggregateDistances(withGain)

	return &series, nil
}

func spectrumDistances(refLsp, tgtLsp [][]float64, opts Options, withGain bool) ([]float64, error) {
	refSpec, err := dsp.LspToSpectrum(refLsp, opts.ReferenceLpcOrder, withGain)
	if err != nil {
		return nil, fmt.Errorf("reference spectrum: %w", err)
	}
	tgtSpec, err := dsp.LspToSpectrum(tgtLsp, opts.TargetLpcOrder, withGain)
	if err != nil {
		return nil, fmt.Errorf("target spectrum: %w", err)
	}
	return SpectrumFrameDistances(refSpec, tgtSpec, opts.Band)
}

// span clips [start, start+length) to n frames
func span(start, length, n int) (int, int) {
	return min(start, n), min(start+length, n)
}

func meanOver(values []float64, start, length int) Metric {
	if values == nil {
		return NotComputed()
	}
	s, e := span(start, length, len(values))
	return Computed(numeric.Average(values[s:e]))
}

// phoneLevel walks the best path along the reference durations. Silence
// phones advance the frame cursor without producing a row.
func phoneLevel(index int, path *BestPath, data *sentenceData, series *frameSeries, opts Options) ([]PhoneLevelResult, error) {
	if path.Len() != len(data.refDur) {
		return nil, fmt.Errorf("%w: %d lattice nodes, %d phones", ErrLatticeMismatch, path.Len(), len(data.refDur))
	}

	results := make([]PhoneLevelResult, 0, path.Len())
	cursor := 0
	for i := range path.Len() {
		unit := path.Unit(i)
		start := cursor
		length := PhoneFrames(data.refDur[i])
		cursor += length

		if opts.IsSilence(unit.Phone) {
			continue
		}

		row := PhoneLevelResult{
			SentenceIndex:    index,
			StartFrame:       start,
			FrameLength:      length,
			Phone:            unit.Phone,
			UnitID:           unit.UnitID,
			LspDistance:      meanOver(series.lspDistances, start, length),
			SpectrumDistance: meanOver(series.specDistances, start, length),
		}

		diff := math.Abs(float64(length - PhoneFrames(data.tgtDur[i])))
		row.DurationDistance = Computed(diff * opts.FrameLength)

		s, e := span(start, length, len(series.refF0))
		refF0, tgtF0 := series.refF0[s:e], series.tgtF0[s:e]
		_, mask := ProcessUV(refF0, tgtF0, opts.UVThreshold)
		f0, err := ProcessF0(refF0, tgtF0, mask)
		if err != nil {
			return nil, fmt.Errorf("phone %d: %w", i, err)
		}
		row.F0RMSE = f0.RMSE()
		row.F0Correlation = f0.Correlation()

		s, e = span(start, length, len(series.refGain))
		gain, err := ProcessGain(series.refGain[s:e], series.tgtGain[s:e])
		if err != nil {
			return nil, fmt.Errorf("phone %d: %w", i, err)
		}
		row.GainRMSE = gain.RMSE()
		row.GainCorrelation = gain.Correlation()

		results = append(results, row)
	}
	return results, nil
}
