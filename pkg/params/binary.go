// Package params loads and writes the speech parameter files compared by the
// evaluator: HMM state durations (UTF-16 text), F0 tracks and LSP frames (raw
// little-endian float32).
package params

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/RyanBlaney/tts-eval/pkg/logging"
)

const float32Size = 4

var ErrCorruptFile = errors.New("corrupt parameter file")

// paramsLogger resolves the default logger on every call so loaders follow
// the level and format installed by logging.SetDefault
func paramsLogger() logging.Logger {
	return logging.WithFields(logging.Fields{
		"component": "params",
	})
}

// LoadF0 reads a raw float32 F0 track, one value per frame
func LoadF0(path string) ([]float64, error) {
	values, err := readFloat32s(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load F0 file: %w", err)
	}
	return values, nil
}

// LoadLsp reads raw float32 LSP frames of order coefficients plus one trailing
// log-gain value. A short trailing frame is dropped.
func LoadLsp(path string, order int) ([][]float64, error) {
	if order <= 0 {
		return nil, fmt.Errorf("LSP order must be positive, got %d", order)
	}

	values, err := readFloat32s(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load LSP file: %w", err)
	}

	dim := order + 1
	frameCount := len(values) / dim
	if rest := len(values) % dim; rest != 0 {
		paramsLogger().Debug("Dropping short trailing LSP frame", logging.Fields{
			"path":        path,
			"order":       order,
			"frames":      frameCount,
			"extra_float": rest,
		})
	}

	frames := make([][]float64, frameCount)
	for i := range frames {
		frames[i] = values[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return frames, nil
}

func readFloat32s(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%float32Size != 0 {
		return nil, fmt.Errorf("%w: %s has %d bytes, not a multiple of %d", ErrCorruptFile, path, len(data), float32Size)
	}

	values := make([]float64, len(data)/float32Size)
	for i := range values {
		bits := binary.LittleEndian.Uint32(data[i*float32Size:])
		values[i] = float64(math.Float32frombits(bits))
	}
	return values, nil
}

// WriteF0 writes an F0 track in the raw float32 layout read by LoadF0
func WriteF0(path string, f0 []float64) error {
	if err := writeFloat32s(path, f0); err != nil {
		return fmt.Errorf("failed to write F0 file: %w", err)
	}
	return nil
}

// WriteLsp writes LSP frames in the layout read by LoadLsp. Every frame must
// carry the same dimension.
func WriteLsp(path string, frames [][]float64) error {
	var flat []float64
	for i, frame := range frames {
		if len(frame) != len(frames[0]) {
			return fmt.Errorf("frame %d has dimension %d, expected %d", i, len(frame), len(frames[0]))
		}
		flat = append(flat, frame...)
	}
	if err := writeFloat32s(path, flat); err != nil {
		return fmt.Errorf("failed to write LSP file: %w", err)
	}
	return nil
}

func writeFloat32s(path string, values []float64) error {
	buf := make([]byte, len(values)*float32Size)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*float32Size:], math.Float32bits(float32(v)))
	}
	return os.WriteFile(path, buf, 0644)
}
