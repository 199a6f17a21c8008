package params

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/RyanBlaney/tts-eval/pkg/logging"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultStateCount is the largest number of HMM states a phone may carry in
// a duration file
const DefaultStateCount = 5

var ErrInvalidStateCount = errors.New("invalid state count")

// DurationLine is one HMM state entry of a duration file. Only Frames is
// read back; Phone and State are written for readability.
type DurationLine struct {
	Phone  string
	State  int
	Frames int
}

// LoadDuration reads per-phone state frame counts. The layout is positional:
// every phone spans DefaultStateCount lines and field[2] of each line is the
// frame count. The first stateCount lines of a phone are kept and the rest
// are skipped. A trailing phone with fewer than stateCount lines is dropped.
func LoadDuration(path string, stateCount int) ([][]int, error) {
	if stateCount <= 0 || stateCount > DefaultStateCount {
		return nil, fmt.Errorf("%w: %d must be in [1, %d]", ErrInvalidStateCount, stateCount, DefaultStateCount)
	}

	frames, err := readDurationFrames(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load duration file: %w", err)
	}

	phones := make([][]int, 0, len(frames)/DefaultStateCount+1)
	for start := 0; start < len(frames); start += DefaultStateCount {
		block := frames[start:min(start+DefaultStateCount, len(frames))]
		if len(block) < stateCount {
			paramsLogger().Debug("Dropping short trailing phone", logging.Fields{
				"path":        path,
				"phones":      len(phones),
				"state_lines": len(block),
				"state_count": stateCount,
			})
			break
		}
		phones = append(phones, append([]int(nil), block[:stateCount]...))
	}

	return phones, nil
}

// readDurationFrames returns field[2] of every non-empty, non-comment line
func readDurationFrames(path string) ([]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(durationDecoder(raw)), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	var frames []int
	scanner := bufio.NewScanner(bytes.NewReader(decoded))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected at least 3", ErrCorruptFile, lineNo, len(fields))
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: line %d has invalid frame count %q", ErrCorruptFile, lineNo, fields[2])
		}
		frames = append(frames, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// durationDecoder picks the decoder used when the file carries no BOM.
// UTF-16 text without a BOM is recognised by NUL bytes in every second
// position of the sample.
func durationDecoder(raw []byte) transform.Transformer {
	sample := raw[:min(len(raw), 512)]
	if len(sample) < 2 {
		return unicode.UTF8.NewDecoder()
	}
	evenNul, oddNul := true, true
	for i := 0; i+1 < len(sample); i += 2 {
		evenNul = evenNul && sample[i] == 0
		oddNul = oddNul && sample[i+1] == 0
	}
	switch {
	case oddNul && !evenNul:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case evenNul && !oddNul:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return unicode.UTF8.NewDecoder()
	}
}

// WriteDuration writes a UTF-16LE duration file (with BOM) in the layout read
// by LoadDuration
func WriteDuration(path string, lines []DurationLine) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create duration file: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(file))

	// the encoder must flush before the file closes
	w := transform.NewWriter(file, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	defer multierr.AppendInvoke(&err, multierr.Close(w))

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\r\n", line.Phone, line.State, line.Frames); err != nil {
			return fmt.Errorf("failed to write duration file: %w", err)
		}
	}
	return nil
}

// PhoneDurationLines expands per-phone state counts into duration lines.
// Every phone is padded with zero-frame states up to DefaultStateCount lines
// so the result keeps the positional layout read by LoadDuration.
func PhoneDurationLines(phones []string, states [][]int) []DurationLine {
	var lines []DurationLine
	for i, counts := range states {
		label := fmt.Sprintf("p%d", i)
		if i < len(phones) {
			label = phones[i]
		}
		for s := 0; s < max(len(counts), DefaultStateCount); s++ {
			line := DurationLine{Phone: label, State: s}
			if s < len(counts) {
				line.Frames = counts[s]
			}
			lines = append(lines, line)
		}
	}
	return lines
}
