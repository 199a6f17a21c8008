package evaluation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RyanBlaney/tts-eval/pkg/params"
)

// Mode selects the kind of system under evaluation
type Mode string

const (
	// ModeHMM evaluates a parametric (HMM) voice
	ModeHMM Mode = "hmm"
	// ModeRUS evaluates a unit selection voice; adds F0 outliers and CC.txt
	ModeRUS Mode = "rus"
)

var (
	ErrInvalidOptions   = errors.New("invalid evaluation options")
	ErrInvalidDimension = errors.New("invalid weighted LSP dimension")
)

// DefaultSilencePhones are skipped by the phone-level breakdown
var DefaultSilencePhones = []string{"sil", "pau", "sp"}

// Band is the frequency range compared by the spectrum evaluator
type Band struct {
	LowHz      float64
	HighHz     float64
	SampleRate int
}

// Options carries everything an evaluation run needs besides the files
type Options struct {
	StateCount           int
	FrameLength          float64
	ReferenceLpcOrder    int
	TargetLpcOrder       int
	UVThreshold          float64
	Band                 Band
	WeightedLspDimension int
	Mode                 Mode
	SilencePhones        []string
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		StateCount:        params.DefaultStateCount,
		FrameLength:       0.005,
		ReferenceLpcOrder: 40,
		TargetLpcOrder:    40,
		UVThreshold:       40,
		Band: Band{
			LowHz:      0,
			HighHz:     8000,
			SampleRate: 16000,
		},
		WeightedLspDimension: 40,
		Mode:                 ModeHMM,
		SilencePhones:        slices.Clone(DefaultSilencePhones),
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.StateCount <= 0 || o.StateCount > params.DefaultStateCount {
		return fmt.Errorf("%w: state count must be in [1, %d], got %d", ErrInvalidOptions, params.DefaultStateCount, o.StateCount)
	}
	if o.FrameLength <= 0 {
		return fmt.Errorf("%w: frame length must be positive", ErrInvalidOptions)
	}
	if o.ReferenceLpcOrder <= 0 || o.TargetLpcOrder <= 0 {
		return fmt.Errorf("%w: LPC orders must be positive", ErrInvalidOptions)
	}
	if o.UVThreshold < 0 {
		return fmt.Errorf("%w: UV threshold must not be negative", ErrInvalidOptions)
	}
	if o.Band.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidOptions)
	}
	if o.Band.LowHz < 0 || o.Band.LowHz >= o.Band.HighHz || o.Band.HighHz*2 > float64(o.Band.SampleRate) {
		return fmt.Errorf("%w: band [%g, %g) Hz does not fit sample rate %d", ErrInvalidOptions, o.Band.LowHz, o.Band.HighHz, o.Band.SampleRate)
	}
	if o.WeightedLspDimension <= 0 {
		return fmt.Errorf("%w: weighted LSP dimension must be positive", ErrInvalidOptions)
	}
	switch o.Mode {
	case ModeHMM, ModeRUS:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOptions, o.Mode)
	}
	return nil
}

// LpcOrdersMatch reports whether LSP and spectrum comparisons are meaningful
func (o Options) LpcOrdersMatch() bool {
	return o.ReferenceLpcOrder == o.TargetLpcOrder
}

// IsSilence reports whether phone is excluded from the phone-level breakdown
func (o Options) IsSilence(phone string) bool {
	return slices.Contains(o.SilencePhones, phone)
}
