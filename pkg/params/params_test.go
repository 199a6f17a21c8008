package params

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/tts-eval/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/unicode"
)

func writeUTF16(t *testing.T, path, content string) {
	t.Helper()
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(content))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestLoadDurationTwoStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0001.dur")
	writeUTF16(t, path, ""+
		"a\t0\t10\r\na\t1\t5\r\na\t2\t0\r\na\t3\t0\r\na\t4\t0\r\n"+
		"b\t0\t8\r\nb\t1\t8\r\nb\t2\t0\r\nb\t3\t0\r\nb\t4\t0\r\n")

	phones, err := LoadDuration(path, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{10, 5}, {8, 8}}, phones)
}

func TestLoadDurationSkipsExtraStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0002.dur")
	content := "" +
		"sil 0 3\nsil 1 4\nsil 2 9\nsil 3 9\nsil 4 9\n" +
		"k 0 2\nk 1 6\nk 2 1\nk 3 1\nk 4 1\n"
	writeUTF16(t, path, content)

	phones, err := LoadDuration(path, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{3, 4}, {2, 6}}, phones)

	phones, err = LoadDuration(path, 5)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{3, 4, 9, 9, 9}, {2, 6, 1, 1, 1}}, phones)
}

func TestLoadDurationIgnoresStateField(t *testing.T) {
	// HTS labels number emitting states 2..6
	path := filepath.Join(t.TempDir(), "hts.dur")
	var content string
	for range 2 {
		for state := 2; state <= 6; state++ {
			content += fmt.Sprintf("a\t%d\t7\r\n", state)
		}
	}
	writeUTF16(t, path, content)

	phones, err := LoadDuration(path, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{7, 7}, {7, 7}}, phones)

	phones, err = LoadDuration(path, 5)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{7, 7, 7, 7, 7}, {7, 7, 7, 7, 7}}, phones)
}

func TestLoadDurationTrailingPhone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tail.dur")
	writeUTF16(t, path, "a x 1\na x 2\na x 3\na x 4\na x 5\nb x 6\nb x 7\nc x 8\n")

	// the last block holds three lines: enough for two states, too few for four
	phones, err := LoadDuration(path, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {6, 7}}, phones)

	phones, err = LoadDuration(path, 4)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3, 4}}, phones)
}

func TestLoadDurationPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.dur")
	require.NoError(t, os.WriteFile(path, []byte("# phone state frames\na 0 4\na 1 2\na 2 0\na 3 0\na 4 0\n"), 0644))

	phones, err := LoadDuration(path, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{4, 2}}, phones)
}

func TestLoadDurationUTF16WithoutBOM(t *testing.T) {
	dir := t.TempDir()
	content := []byte("a 0 4\na 1 2\na 2 0\na 3 0\na 4 0\n")

	for name, endian := range map[string]unicode.Endianness{
		"le.dur": unicode.LittleEndian,
		"be.dur": unicode.BigEndian,
	} {
		data, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewEncoder().Bytes(content)
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))

		phones, err := LoadDuration(path, 2)
		require.NoError(t, err, name)
		assert.Equal(t, [][]int{{4, 2}}, phones, name)
	}
}

func TestLoadDurationErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDuration(filepath.Join(dir, "missing.dur"), 2)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "ok.dur")
	writeUTF16(t, path, "a 0 1\na 1 1\n")
	_, err = LoadDuration(path, 0)
	assert.ErrorIs(t, err, ErrInvalidStateCount)
	_, err = LoadDuration(path, DefaultStateCount+1)
	assert.ErrorIs(t, err, ErrInvalidStateCount)

	bad := filepath.Join(dir, "bad.dur")
	writeUTF16(t, bad, "a 0\n")
	_, err = LoadDuration(bad, 1)
	assert.ErrorIs(t, err, ErrCorruptFile)

	negative := filepath.Join(dir, "negative.dur")
	writeUTF16(t, negative, "a 0 -3\n")
	_, err = LoadDuration(negative, 1)
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestWriteDurationRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.dur")
	states := [][]int{{1, 2, 3}, {4, 5, 6}}
	require.NoError(t, WriteDuration(path, PhoneDurationLines([]string{"a", "i"}, states)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFE}, raw[:2], "UTF-16LE BOM")

	phones, err := LoadDuration(path, 3)
	require.NoError(t, err)
	assert.Equal(t, states, phones)
}

func TestLoadF0(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.f0")
	require.NoError(t, WriteF0(path, []float64{100, 0, 120.5, 0}))

	f0, err := LoadF0(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 0, 120.5, 0}, f0)

	odd := filepath.Join(dir, "odd.f0")
	require.NoError(t, os.WriteFile(odd, []byte{0, 0, 0, 0, 1}, 0644))
	_, err = LoadF0(odd)
	assert.ErrorIs(t, err, ErrCorruptFile)

	_, err = LoadF0(filepath.Join(dir, "missing.f0"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadLsp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.lsp")
	frames := [][]float64{{0.125, 0.25, -1}, {0.0625, 0.375, 0.5}}
	require.NoError(t, WriteLsp(path, frames))

	loaded, err := LoadLsp(path, 2)
	require.NoError(t, err)
	assert.Equal(t, frames, loaded)

	// order 3 groups 4 values per frame: one full frame, two floats dropped
	loaded, err = LoadLsp(path, 3)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, []float64{0.125, 0.25, -1, 0.0625}, loaded[0])

	_, err = LoadLsp(path, 0)
	assert.Error(t, err)

	assert.Error(t, WriteLsp(filepath.Join(dir, "ragged.lsp"), [][]float64{{1, 2}, {1}}))
}

func TestStats(t *testing.T) {
	f0 := F0Stats([]float64{100, 0, 200, 0}, 50)
	assert.Equal(t, 4, f0.Frames)
	assert.Equal(t, 2, f0.VoicedFrames)
	assert.Equal(t, 0.5, f0.VoicedRatio)
	assert.Equal(t, 100.0, f0.Min)
	assert.Equal(t, 200.0, f0.Max)
	assert.Equal(t, 150.0, f0.Mean)

	lsp := LspStats([][]float64{{0.1, 1}, {0.2, 3}})
	assert.Equal(t, 2, lsp.Dimension)
	assert.Equal(t, 2.0, lsp.Mean)

	dur := DurationStats([][]int{{1, 2}, {3, 4}})
	assert.Equal(t, 3.0, dur.Min)
	assert.Equal(t, 7.0, dur.Max)
}

func TestLoadersUseInstalledLogger(t *testing.T) {
	prev := logging.NewDefaultLogger()
	t.Cleanup(func() { logging.SetDefault(prev) })

	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetDefault(logging.NewFromZap(zap.New(core)))

	dir := t.TempDir()
	lsp := filepath.Join(dir, "0001.lsp")
	require.NoError(t, WriteLsp(lsp, [][]float64{{0.125, 0.25, -1}, {0.0625, 0.375, 0.5}}))
	_, err := LoadLsp(lsp, 3)
	require.NoError(t, err)

	dur := filepath.Join(dir, "0001.dur")
	writeUTF16(t, dur, "a 0 1\n")
	_, err = LoadDuration(dur, 2)
	require.NoError(t, err)

	entries := logs.FilterField(zap.String("component", "params")).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Dropping short trailing LSP frame", entries[0].Message)
	assert.Equal(t, "Dropping short trailing phone", entries[1].Message)
}
