package evaluation

import "encoding/json"

// UVStatistic is the voiced/unvoiced contingency of a reference and target
// F0 track over their common frames
type UVStatistic struct {
	voicedInRef        int
	unvoicedInRef      int
	voicedInTgt        int
	unvoicedInTgt      int
	voicedInBoth       int
	unvoicedInBoth     int
	unexpectedVoiced   int
	unexpectedUnvoiced int
}

func (s UVStatistic) VoicedInRef() int   { return s.voicedInRef }
func (s UVStatistic) UnvoicedInRef() int { return s.unvoicedInRef }
func (s UVStatistic) VoicedInTgt() int   { return s.voicedInTgt }
func (s UVStatistic) UnvoicedInTgt() int { return s.unvoicedInTgt }

// VoicedFrameNumberInBoth counts frames voiced in reference and target
func (s UVStatistic) VoicedFrameNumberInBoth() int { return s.voicedInBoth }

// UnvoicedFrameNumberInBoth counts frames unvoiced in reference and target
func (s UVStatistic) UnvoicedFrameNumberInBoth() int { return s.unvoicedInBoth }

// UnexpectedVoiced counts frames voiced in the target only
func (s UVStatistic) UnexpectedVoiced() int { return s.unexpectedVoiced }

// UnexpectedUnvoiced counts frames voiced in the reference only
func (s UVStatistic) UnexpectedUnvoiced() int { return s.unexpectedUnvoiced }

// ComparedFrames is the number of frames classified in both tracks
func (s UVStatistic) ComparedFrames() int {
	return s.voicedInBoth + s.unvoicedInBoth + s.unexpectedVoiced + s.unexpectedUnvoiced
}

// MismatchRatio is the share of compared frames whose voicing disagrees.
// Zero when no frame was compared.
func (s UVStatistic) MismatchRatio() float64 {
	total := s.ComparedFrames()
	if total == 0 {
		return 0
	}
	return float64(s.unexpectedVoiced+s.unexpectedUnvoiced) / float64(total)
}

type uvView struct {
	VoicedInRef        int     `json:"voiced_in_ref" yaml:"voiced_in_ref"`
	UnvoicedInRef      int     `json:"unvoiced_in_ref" yaml:"unvoiced_in_ref"`
	VoicedInTgt        int     `json:"voiced_in_tgt" yaml:"voiced_in_tgt"`
	UnvoicedInTgt      int     `json:"unvoiced_in_tgt" yaml:"unvoiced_in_tgt"`
	VoicedInBoth       int     `json:"voiced_in_both" yaml:"voiced_in_both"`
	UnvoicedInBoth     int     `json:"unvoiced_in_both" yaml:"unvoiced_in_both"`
	UnexpectedVoiced   int     `json:"unexpected_voiced" yaml:"unexpected_voiced"`
	UnexpectedUnvoiced int     `json:"unexpected_unvoiced" yaml:"unexpected_unvoiced"`
	MismatchRatio      float64 `json:"mismatch_ratio" yaml:"mismatch_ratio"`
}

func (s UVStatistic) view() uvView {
	return uvView{
		VoicedInRef:        s.voicedInRef,
		UnvoicedInRef:      s.unvoicedInRef,
		VoicedInTgt:        s.voicedInTgt,
		UnvoicedInTgt:      s.unvoicedInTgt,
		VoicedInBoth:       s.voicedInBoth,
		UnvoicedInBoth:     s.unvoicedInBoth,
		UnexpectedVoiced:   s.unexpectedVoiced,
		UnexpectedUnvoiced: s.unexpectedUnvoiced,
		MismatchRatio:      s.MismatchRatio(),
	}
}

func (s UVStatistic) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.view())
}

func (s UVStatistic) MarshalYAML() (any, error) {
	return s.view(), nil
}

// OutlierStatistic counts voiced frames whose F0 error exceeds
// OutlierThresholdHz
type OutlierStatistic struct {
	Count int     `json:"count" yaml:"count"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}
