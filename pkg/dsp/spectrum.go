package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFTLength is the zero-padded transform size used for LPC spectra
const FFTLength = 1024

// SpectrumBins is the number of bins kept per frame (first half of the FFT)
const SpectrumBins = FFTLength / 2

// LpcToSpectrum returns the magnitude response gain/|A(e^jw)| of an LPC
// polynomial over the first half of a FFTLength-point transform.
func LpcToSpectrum(lpc []float64, order int, gain float64) ([]float64, error) {
	if order <= 0 || order >= FFTLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	if len(lpc) < order+1 {
		return nil, fmt.Errorf("%w: need %d LPC coefficients, got %d", ErrInvalidOrder, order+1, len(lpc))
	}

	padded := make([]float64, FFTLength)
	copy(padded, lpc[:order+1])

	bins := fft.FFTReal(padded)

	spectrum := make([]float64, SpectrumBins)
	for k := range spectrum {
		spectrum[k] = gain / cmplx.Abs(bins[k])
	}
	return spectrum, nil
}

// LspToSpectrum converts LSP frames (order values plus trailing log-gain) into
// LPC magnitude spectra. With withGain unset every frame uses unit gain.
func LspToSpectrum(frames [][]float64, order int, withGain bool) ([][]float64, error) {
	cosLsp := RemoveGain(frames, true)
	gains := GetGain(frames)

	spectra := make([][]float64, len(frames))
	for i := range frames {
		if len(frames[i]) == 0 {
			return nil, fmt.Errorf("frame %d: %w", i, ErrEmptyFrame)
		}
		lpc, err := LspToLpc(cosLsp[i], order)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		gain := 1.0
		if withGain {
			gain = gains[i]
		}
		spectrum, err := LpcToSpectrum(lpc, order, gain)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		spectra[i] = spectrum
	}
	return spectra, nil
}

// FrequencyBandFilter keeps, for every half-spectrum frame, the bins covering
// [lowHz, highHz). A frame of N bins spans [0, sampleRate/2).
func FrequencyBandFilter(frames [][]float64, lowHz, highHz float64, sampleRate int) ([][]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidBand, sampleRate)
	}
	if lowHz < 0 || lowHz >= highHz {
		return nil, fmt.Errorf("%w: [%g, %g) Hz", ErrInvalidBand, lowHz, highHz)
	}
	if highHz*2 > float64(sampleRate) {
		return nil, fmt.Errorf("%w: upper bound %g Hz exceeds Nyquist of %d Hz", ErrInvalidBand, highHz, sampleRate)
	}

	out := make([][]float64, len(frames))
	for i, frame := range frames {
		n := float64(len(frame))
		lo := int(math.Floor(lowHz * 2 * n / float64(sampleRate)))
		hi := int(math.Floor(highHz * 2 * n / float64(sampleRate)))
		hi = min(hi, len(frame))
		lo = min(lo, hi)

		band := make([]float64, hi-lo)
		copy(band, frame[lo:hi])
		out[i] = band
	}
	return out, nil
}
