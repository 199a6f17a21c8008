package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evenly spaced LSPs i/(2(p+1)) are the LSPs of the trivial filter A(z) = 1
func flatLsp(order int) []float64 {
	lsp := make([]float64, order)
	for i := range lsp {
		lsp[i] = float64(i+1) / float64(2*(order+1))
	}
	return lsp
}

func TestRemoveGainThenGetGain(t *testing.T) {
	frames := [][]float64{
		{0.1, 0.2, 0.3, math.Log(2.5)},
		{0.05, 0.25, 0.4, -1.2},
	}

	stripped := RemoveGain(frames, false)
	require.Len(t, stripped, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, stripped[0])

	normalized := RemoveGain(frames, true)
	assert.InDelta(t, math.Cos(2*math.Pi*0.25), normalized[1][1], 1e-12)

	gains := GetGain(frames)
	require.Len(t, gains, 2)
	assert.InDelta(t, 2.5, gains[0], 1e-12)
	assert.InDelta(t, -1.2, math.Log(gains[1]), 1e-12)

	// stripping must not disturb the gain component of the input
	assert.InDelta(t, math.Log(2.5), frames[0][3], 1e-12)
}

func TestLspToLpcFlatFilter(t *testing.T) {
	for _, order := range []int{2, 4, 10, 40} {
		cos := RemoveGain([][]float64{append(flatLsp(order), 0)}, true)[0]
		lpc, err := LspToLpc(cos, order)
		require.NoError(t, err)
		require.Len(t, lpc, order+1)
		assert.InDelta(t, 1.0, lpc[0], 1e-6)
		for k := 1; k <= order; k++ {
			assert.InDelta(t, 0.0, lpc[k], 1e-6, "order %d coefficient %d", order, k)
		}
	}
}

func TestLspToLpcSecondOrder(t *testing.T) {
	// P = (1 - 2c0 z^-1 + z^-2)(1 + z^-1), Q = (1 - 2c1 z^-1 + z^-2)(1 - z^-1)
	c0, c1 := 0.8, 0.3
	lpc, err := LspToLpc([]float64{c0, c1}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lpc[0], 1e-12)
	assert.InDelta(t, -(c0 + c1), lpc[1], 1e-12)
	assert.InDelta(t, 1+c1-c0, lpc[2], 1e-12)
}

func TestLspToLpcRejectsBadOrder(t *testing.T) {
	_, err := LspToLpc([]float64{0.1, 0.2, 0.3}, 3)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = LspToLpc([]float64{0.1, 0.2}, 0)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = LspToLpc([]float64{0.1, 0.2}, 4)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestLpcToSpectrum(t *testing.T) {
	lpc := []float64{1, 0, 0, 0, 0}
	spectrum, err := LpcToSpectrum(lpc, 4, 3)
	require.NoError(t, err)
	require.Len(t, spectrum, SpectrumBins)
	for _, v := range spectrum {
		assert.InDelta(t, 3.0, v, 1e-9)
	}

	// one-pole filter 1 - 0.9 z^-1 peaks at DC
	spectrum, err = LpcToSpectrum([]float64{1, -0.9, 0}, 2, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, spectrum[0], 1e-9)
	assert.Greater(t, spectrum[0], spectrum[SpectrumBins-1])

	_, err = LpcToSpectrum([]float64{1}, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestLspToSpectrum(t *testing.T) {
	frames := [][]float64{append(flatLsp(4), math.Log(2))}

	withGain, err := LspToSpectrum(frames, 4, true)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, withGain[0][100], 1e-9)

	noGain, err := LspToSpectrum(frames, 4, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, noGain[0][100], 1e-9)

	_, err = LspToSpectrum(frames, 3, false)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestFrequencyBandFilter(t *testing.T) {
	frame := make([]float64, 512)
	for i := range frame {
		frame[i] = float64(i)
	}

	// 16 kHz: 512 bins over 8 kHz, 15.625 Hz per bin
	band, err := FrequencyBandFilter([][]float64{frame}, 1000, 4000, 16000)
	require.NoError(t, err)
	require.Len(t, band[0], 192)
	assert.Equal(t, 64.0, band[0][0])
	assert.Equal(t, 255.0, band[0][191])

	full, err := FrequencyBandFilter([][]float64{frame}, 0, 8000, 16000)
	require.NoError(t, err)
	assert.Len(t, full[0], 512)

	_, err = FrequencyBandFilter([][]float64{frame}, 4000, 4000, 16000)
	assert.ErrorIs(t, err, ErrInvalidBand)

	_, err = FrequencyBandFilter([][]float64{frame}, 0, 9000, 16000)
	assert.ErrorIs(t, err, ErrInvalidBand)
}
