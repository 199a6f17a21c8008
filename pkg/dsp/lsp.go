// Package dsp converts LSP parameter frames into the representations the
// evaluator compares: gain-stripped LSPs, linear gains, LPC polynomials and
// LPC magnitude spectra.
package dsp

import (
	"errors"
	"fmt"
	"math"
)

// MaxLsp is the upper bound of a normalized LSP value (Nyquist = 0.5)
const MaxLsp = 0.5

var (
	ErrInvalidOrder = errors.New("invalid LPC order")
	ErrInvalidBand  = errors.New("invalid frequency band")
	ErrEmptyFrame   = errors.New("empty frame")
)

// RemoveGain strips the trailing log-gain from every frame. When normalize is
// set the remaining values are mapped to the cosine domain, cos(2*pi*x).
func RemoveGain(frames [][]float64, normalize bool) [][]float64 {
	out := make([][]float64, len(frames))
	for i, frame := range frames {
		if len(frame) == 0 {
			out[i] = []float64{}
			continue
		}
		lsp := make([]float64, len(frame)-1)
		for j := range lsp {
			if normalize {
				lsp[j] = math.Cos(2 * math.Pi * frame[j])
			} else {
				lsp[j] = frame[j]
			}
		}
		out[i] = lsp
	}
	return out
}

// GetGain returns exp(last component) of every frame as linear gain.
// Empty frames map to NaN.
func GetGain(frames [][]float64) []float64 {
	gains := make([]float64, len(frames))
	for i, frame := range frames {
		if len(frame) == 0 {
			gains[i] = math.NaN()
			continue
		}
		gains[i] = math.Exp(frame[len(frame)-1])
	}
	return gains
}

// LspToLpc synthesizes LPC coefficients a[0..order] (a[0] = 1) from
// cosine-domain LSP values. Even-indexed LSPs are the roots of the sum
// polynomial P(z), odd-indexed ones the roots of the difference polynomial
// Q(z); each contributes a section 1 - 2*c*z^-1 + z^-2 and A(z) = (P+Q)/2.
func LspToLpc(cosLsp []float64, order int) ([]float64, error) {
	if order <= 0 {
		return nil, fmt.Errorf("%w: %d must be positive", ErrInvalidOrder, order)
	}
	if order%2 != 0 {
		return nil, fmt.Errorf("%w: %d must be even", ErrInvalidOrder, order)
	}
	if len(cosLsp) < order {
		return nil, fmt.Errorf("%w: need %d LSP values, got %d", ErrInvalidOrder, order, len(cosLsp))
	}

	p := []float64{1}
	q := []float64{1}
	for i := 0; i < order/2; i++ {
		p = multiplySection(p, cosLsp[2*i])
		q = multiplySection(q, cosLsp[2*i+1])
	}

	// P gains the root at z = -1, Q the root at z = 1
	p = polyMul(p, []float64{1, 1})
	q = polyMul(q, []float64{1, -1})

	lpc := make([]float64, order+1)
	for k := 0; k <= order; k++ {
		lpc[k] = (p[k] + q[k]) / 2
	}
	return lpc, nil
}

func multiplySection(poly []float64, c float64) []float64 {
	return polyMul(poly, []float64{1, -2 * c, 1})
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}
