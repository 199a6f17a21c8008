package numeric

import "fmt"

// MapVector applies fn to every element
func MapVector[T, R any](list []T, fn func(T) R) []R {
	out := make([]R, len(list))
	for i, v := range list {
		out[i] = fn(v)
	}
	return out
}

// MapMatrix applies fn to every element of every row
func MapMatrix[T, R any](rows [][]T, fn func(T) R) [][]R {
	out := make([][]R, len(rows))
	for i, row := range rows {
		out[i] = MapVector(row, fn)
	}
	return out
}

// ZipVector combines two equal-length vectors elementwise
func ZipVector[A, B, R any](a []A, b []B, fn func(A, B) R) ([]R, error) {
	if err := checkLengths(len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([]R, len(a))
	for i := range a {
		out[i] = fn(a[i], b[i])
	}
	return out, nil
}

// ZipMatrix combines two matrices of identical shape elementwise
func ZipMatrix[A, B, R any](a [][]A, b [][]B, fn func(A, B) R) ([][]R, error) {
	if err := checkLengths(len(a), len(b)); err != nil {
		return nil, err
	}
	out := make([][]R, len(a))
	for i := range a {
		row, err := ZipVector(a[i], b[i], fn)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = row
	}
	return out, nil
}

// RowwiseRmse computes the RMSE of every row pair
func RowwiseRmse[T Number](ref, tgt [][]T) ([]float64, error) {
	if err := checkLengths(len(ref), len(tgt)); err != nil {
		return nil, err
	}
	out := make([]float64, len(ref))
	for i := range ref {
		r, err := Rmse(ref[i], tgt[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}
