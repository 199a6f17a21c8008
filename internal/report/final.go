package report

import (
	"time"

	"github.com/RyanBlaney/tts-eval/internal/evaluation"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// title capitalizes section names; NoLower keeps acronyms such as LSP intact
func title(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

func (w *Writer) averagedRows(t *table, section, unit string, r evaluation.AveragedResult) {
	name := title(section)
	t.addRow(name, "RMSE"+unit, w.metric(r.RMSE))
	t.addRow(name, "max distance"+unit, w.metric(r.MaxDistance))
	t.addRow(name, "correlation", w.metric(r.Correlation))
	t.addRow(name, "frames", w.metric(r.UsedFrames))
}

// WriteFinalResult writes the corpus summary as section/measure/value rows
func (w *Writer) WriteFinalResult(summary *evaluation.EvaluationSummary, info RunInfo) (string, error) {
	t := newTable("section", "measure", "value")
	t.comment("Objective evaluation summary")
	if info.Manifest != "" {
		t.comment("Manifest: %s", info.Manifest)
	}
	if info.Description != "" {
		t.comment("Description: %s", info.Description)
	}
	if !info.StartTime.IsZero() {
		t.comment("Started: %s", info.StartTime.Format(time.RFC3339))
		t.comment("Duration: %s", info.TotalDuration.Round(time.Millisecond))
	}
	t.comment("Mode: %s", w.opts.Mode)
	t.comment("Sentences: %d evaluated, %d failed", summary.SentenceCount, info.Failed)
	if info.Options.StateCount > 0 {
		t.comment("States per phone: %d, frame length: %g s", info.Options.StateCount, info.Options.FrameLength)
		t.comment("LPC order: reference %d, target %d", info.Options.ReferenceLpcOrder, info.Options.TargetLpcOrder)
		t.comment("Band: %g-%g Hz at %d Hz", info.Options.Band.LowHz, info.Options.Band.HighHz, info.Options.Band.SampleRate)
	}

	corpus := title("corpus")
	t.addRow(corpus, "sentences", count(summary.SentenceCount))
	t.addRow(corpus, "phones", count(summary.PhoneCount))
	t.addRow(corpus, "frames", w.metric(summary.Frames))

	w.averagedRows(t, "duration", "(s)", summary.Duration)

	uv := title("voicing")
	t.addRow(uv, "voiced in ref", w.metric(summary.UV.VoicedInRef))
	t.addRow(uv, "unvoiced in ref", w.metric(summary.UV.UnvoicedInRef))
	t.addRow(uv, "voiced in tgt", w.metric(summary.UV.VoicedInTgt))
	t.addRow(uv, "unvoiced in tgt", w.metric(summary.UV.UnvoicedInTgt))
	t.addRow(uv, "voiced in both", w.metric(summary.UV.VoicedInBoth))
	t.addRow(uv, "unvoiced in both", w.metric(summary.UV.UnvoicedInBoth))
	t.addRow(uv, "unexpected voiced", w.metric(summary.UV.UnexpectedVoiced))
	t.addRow(uv, "unexpected unvoiced", w.metric(summary.UV.UnexpectedUnvoiced))
	t.addRow(uv, "mismatch ratio", w.metric(summary.UV.MismatchRatio))

	w.averagedRows(t, "F0", "(Hz)", summary.F0)
	w.averagedRows(t, "F0 state level", "(Hz)", summary.F0StateLevel)
	if w.opts.Mode == evaluation.ModeRUS {
		outliers := title("F0 outliers")
		t.addRow(outliers, "count", w.metric(summary.F0Outliers.Count))
		t.addRow(outliers, "ratio", w.metric(summary.F0Outliers.Ratio))
	}
	w.averagedRows(t, "LSP", "", summary.Lsp)
	w.averagedRows(t, "weighted LSP", "", summary.WeightedLsp)
	w.averagedRows(t, "spectrum without gain", "(dB)", summary.Spectrum)
	w.averagedRows(t, "spectrum with gain", "(dB)", summary.SpectrumWithGain)
	w.averagedRows(t, "gain", "(dB)", summary.Gain)

	if summary.PhoneCount > 0 {
		phone := title("phone level")
		t.addRow(phone, "duration distance(s)", w.metric(summary.Phone.DurationDistance))
		t.addRow(phone, "F0 RMSE(Hz)", w.metric(summary.Phone.F0RMSE))
		t.addRow(phone, "F0 correlation", w.metric(summary.Phone.F0Correlation))
		t.addRow(phone, "LSP distance", w.metric(summary.Phone.LspDistance))
		t.addRow(phone, "spectrum distance(dB)", w.metric(summary.Phone.SpectrumDistance))
		t.addRow(phone, "gain RMSE(dB)", w.metric(summary.Phone.GainRMSE))
		t.addRow(phone, "gain correlation", w.metric(summary.Phone.GainCorrelation))
	}

	return w.writeTable(FinalResultFile, t)
}
