// Package numeric holds the pure, type-generic numeric primitives used by the
// objective measures: RMSE, max distance, Pearson correlation, averaging,
// index projection and elementwise mapping.
//
// Degenerate inputs (empty lists, fewer than two points, zero variance) yield
// NaN rather than an error. Shape violations are errors.
package numeric

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrLengthMismatch  = errors.New("sequence lengths differ")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Number is the set of element types the kernels accept
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// ToFloat64 converts a numeric slice to float64
func ToFloat64[T Number](list []T) []float64 {
	out := make([]float64, len(list))
	for i, v := range list {
		out[i] = float64(v)
	}
	return out
}

func checkLengths(refLen, tgtLen int) error {
	if refLen != tgtLen {
		return fmt.Errorf("%w: reference has %d elements, target has %d", ErrLengthMismatch, refLen, tgtLen)
	}
	return nil
}

// Rmse returns the root mean square error between two equal-length sequences.
// Empty input yields NaN.
func Rmse[T Number](ref, tgt []T) (float64, error) {
	if err := checkLengths(len(ref), len(tgt)); err != nil {
		return math.NaN(), err
	}
	if len(ref) == 0 {
		return math.NaN(), nil
	}

	dist := floats.Distance(ToFloat64(ref), ToFloat64(tgt), 2)
	return dist / math.Sqrt(float64(len(ref))), nil
}

// MaxDistance returns the largest absolute elementwise difference.
// Empty input yields NaN, the same policy as Rmse.
func MaxDistance[T Number](ref, tgt []T) (float64, error) {
	if err := checkLengths(len(ref), len(tgt)); err != nil {
		return math.NaN(), err
	}
	if len(ref) == 0 {
		return math.NaN(), nil
	}

	return floats.Distance(ToFloat64(ref), ToFloat64(tgt), math.Inf(1)), nil
}

// CorrelationCoefficient returns the Pearson correlation of two sequences.
// Fewer than two points or zero variance yield NaN.
func CorrelationCoefficient[T Number](ref, tgt []T) (float64, error) {
	if err := checkLengths(len(ref), len(tgt)); err != nil {
		return math.NaN(), err
	}
	if len(ref) < 2 {
		return math.NaN(), nil
	}

	r := stat.Correlation(ToFloat64(ref), ToFloat64(tgt), nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN(), nil
	}
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r)), nil
}

// Average returns the arithmetic mean, NaN for an empty list
func Average[T Number](list []T) float64 {
	if len(list) == 0 {
		return math.NaN()
	}
	return stat.Mean(ToFloat64(list), nil)
}

// Max returns the largest element, NaN for an empty list
func Max[T Number](list []T) float64 {
	if len(list) == 0 {
		return math.NaN()
	}
	return floats.Max(ToFloat64(list))
}

// Min returns the smallest element, NaN for an empty list
func Min[T Number](list []T) float64 {
	if len(list) == 0 {
		return math.NaN()
	}
	return floats.Min(ToFloat64(list))
}

// FilterElementByIndex projects the elements at the given indices, in order
func FilterElementByIndex[T any](list []T, indices []int) ([]T, error) {
	out := make([]T, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(list) {
			return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, idx, len(list))
		}
		out = append(out, list[idx])
	}
	return out, nil
}
