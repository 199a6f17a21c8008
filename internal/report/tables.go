package report

import (
	"fmt"
	"path/filepath"

	"github.com/RyanBlaney/tts-eval/internal/evaluation"
)

func (w *Writer) durationTable(results []*evaluation.FullEvaluationResult) *table {
	t := newTable("ref-file", "tgt-file", "phone-count", "rmse(s)", "max-distance(s)", "correlation")
	t.comment("Duration distance, per-phone average state length")
	for _, r := range results {
		t.addRow(
			r.Reference.Duration,
			r.Target.Duration,
			frames(r.Duration),
			w.metric(r.Duration.RMSE()),
			w.metric(r.Duration.MaxDistance()),
			w.metric(r.Duration.Correlation()),
		)
	}
	return t
}

func (w *Writer) f0Table(results []*evaluation.FullEvaluationResult) *table {
	columns := []string{
		"ref-file", "voiced-in-ref", "unvoiced-in-ref",
		"tgt-file", "voiced-in-tgt", "unvoiced-in-tgt",
		"rmse(Hz)", "max-distance(Hz)",
		"voiced-in-both", "unvoiced-in-both", "unexpected-voiced", "unexpected-unvoiced",
		"correlation",
	}
	rus := w.opts.Mode == evaluation.ModeRUS
	if rus {
		columns = append(columns, "outlier-count", "outlier-ratio")
	}

	t := newTable(columns...)
	t.comment("F0 distance over frames voiced in both tracks")
	if rus {
		t.comment("Outliers: absolute error above %g Hz", evaluation.OutlierThresholdHz)
	}
	for _, r := range results {
		row := []string{
			r.Reference.F0, count(r.UV.VoicedInRef()), count(r.UV.UnvoicedInRef()),
			r.Target.F0, count(r.UV.VoicedInTgt()), count(r.UV.UnvoicedInTgt()),
			w.metric(r.F0.RMSE()), w.metric(r.F0.MaxDistance()),
			count(r.UV.VoicedFrameNumberInBoth()), count(r.UV.UnvoicedFrameNumberInBoth()),
			count(r.UV.UnexpectedVoiced()), count(r.UV.UnexpectedUnvoiced()),
			w.metric(r.F0.Correlation()),
		}
		if rus {
			row = append(row, count(r.F0Outliers.Count), w.float(r.F0Outliers.Ratio))
		}
		t.addRow(row...)
	}
	return t
}

func (w *Writer) stateLevelF0Table(results []*evaluation.FullEvaluationResult) *table {
	t := newTable("ref-file", "tgt-file", "state-count", "rmse(Hz)", "max-distance(Hz)", "correlation")
	t.comment("F0 distance of per-state means, states voiced in both tracks")
	for _, r := range results {
		t.addRow(
			r.Reference.F0,
			r.Target.F0,
			frames(r.F0StateLevel),
			w.metric(r.F0StateLevel.RMSE()),
			w.metric(r.F0StateLevel.MaxDistance()),
			w.metric(r.F0StateLevel.Correlation()),
		)
	}
	return t
}

func (w *Writer) lspTable(results []*evaluation.FullEvaluationResult) *table {
	t := newTable(
		"ref-file", "tgt-file", "frame-count",
		"lsp-rmse", "lsp-max-distance",
		"weighted-lsp-mean", "weighted-lsp-max",
		"gain-rmse(dB)", "gain-max-distance(dB)", "gain-correlation",
	)
	t.comment("LSP distance without gain, weighted LSP distance and log gain distance")
	for _, r := range results {
		t.addRow(
			r.Reference.Lsp,
			r.Target.Lsp,
			count(r.Frames),
			w.metric(r.Lsp.RMSE()),
			w.metric(r.Lsp.MaxDistance()),
			w.metric(r.WeightedLsp.RMSE()),
			w.metric(r.WeightedLsp.MaxDistance()),
			w.metric(r.Gain.RMSE()),
			w.metric(r.Gain.MaxDistance()),
			w.metric(r.Gain.Correlation()),
		)
	}
	return t
}

func (w *Writer) spectrumTable(results []*evaluation.FullEvaluationResult) *table {
	t := newTable(
		"ref-file", "tgt-file", "frame-count",
		"rmse-without-gain(dB)", "max-without-gain(dB)",
		"rmse-with-gain(dB)", "max-with-gain(dB)",
	)
	t.comment("Log spectral distance of the LPC spectra")
	for _, r := range results {
		t.addRow(
			r.Reference.Lsp,
			r.Target.Lsp,
			count(r.Frames),
			w.metric(r.Spectrum.RMSE()),
			w.metric(r.Spectrum.MaxDistance()),
			w.metric(r.SpectrumWithGain.RMSE()),
			w.metric(r.SpectrumWithGain.MaxDistance()),
		)
	}
	return t
}

func (w *Writer) correlationTable(results []*evaluation.FullEvaluationResult) *table {
	t := newTable("ref-file", "tgt-file", "duration-correlation", "f0-correlation", "gain-correlation")
	t.comment("Correlation coefficients")
	for _, r := range results {
		t.addRow(
			r.Reference.Duration,
			r.Target.Duration,
			w.metric(r.Duration.Correlation()),
			w.metric(r.F0.Correlation()),
			w.metric(r.Gain.Correlation()),
		)
	}
	return t
}

var phoneColumns = []string{
	"sentence", "start-frame", "frame-length", "phone",
	"duration-distance(s)", "f0-rmse(Hz)", "f0-correlation",
	"lsp-distance", "spectrum-distance(dB)", "gain-rmse(dB)", "gain-correlation",
}

func (w *Writer) addPhoneRows(t *table, phones []evaluation.PhoneLevelResult) {
	for _, p := range phones {
		t.addRow(
			count(p.SentenceIndex),
			count(p.StartFrame),
			count(p.FrameLength),
			p.Phone,
			w.metric(p.DurationDistance),
			w.metric(p.F0RMSE),
			w.metric(p.F0Correlation),
			w.metric(p.LspDistance),
			w.metric(p.SpectrumDistance),
			w.metric(p.GainRMSE),
			w.metric(p.GainCorrelation),
		)
	}
}

// WritePhoneLevel writes the phone-level breakdown, either as one file or as
// one log per sentence. Nothing is written when no sentence carries a lattice.
func (w *Writer) WritePhoneLevel(results []*evaluation.FullEvaluationResult) ([]string, error) {
	withPhones := make([]*evaluation.FullEvaluationResult, 0, len(results))
	for _, r := range results {
		if len(r.PhoneResults) > 0 {
			withPhones = append(withPhones, r)
		}
	}
	if len(withPhones) == 0 {
		return nil, nil
	}

	if !w.opts.PhoneLevelPerSentence {
		t := newTable(phoneColumns...)
		t.comment("Phone level distance along the selected unit path")
		for _, r := range withPhones {
			w.addPhoneRows(t, r.PhoneResults)
		}
		path, err := w.writeTable(PhoneLevelFile, t)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, len(withPhones))
	for _, r := range withPhones {
		t := newTable(phoneColumns...)
		t.comment("Sentence %d (%s)", r.Index, r.ID)
		w.addPhoneRows(t, r.PhoneResults)

		name := filepath.Join(PhoneLevelDir, fmt.Sprintf("%d.log", r.Index))
		path, err := w.writeTable(name, t)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
