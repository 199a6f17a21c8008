package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/tts-eval/internal/evaluation"
	"github.com/RyanBlaney/tts-eval/pkg/logging"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// table is a tab-delimited report: a "#" comment block ending with the
// column names, then one line per row
type table struct {
	comments []string
	columns  []string
	rows     [][]string
}

func newTable(columns ...string) *table {
	return &table{columns: columns}
}

func (t *table) comment(format string, args ...any) {
	t.comments = append(t.comments, fmt.Sprintf(format, args...))
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) lines() []string {
	out := make([]string, 0, len(t.comments)+len(t.rows)+1)
	for _, c := range t.comments {
		out = append(out, "# "+c)
	}
	if len(t.columns) > 0 {
		out = append(out, "# "+strings.Join(t.columns, "\t"))
	}
	for _, row := range t.rows {
		out = append(out, strings.Join(row, "\t"))
	}
	return out
}

// metric renders a measure with the configured precision
func (w *Writer) metric(m evaluation.Metric) string {
	return m.Format(w.opts.Precision)
}

func (w *Writer) float(v float64) string {
	return strconv.FormatFloat(v, 'f', w.opts.Precision, 64)
}

func count(n int) string {
	return strconv.Itoa(n)
}

func frames(r evaluation.EvaluationResult) string {
	if n, ok := r.UsedFrames(); ok {
		return strconv.Itoa(n)
	}
	return "NaN"
}

// encoder wraps dst with the configured character encoding
func (w *Writer) encoder(dst io.Writer) (io.Writer, string) {
	if w.opts.Encoding == EncodingUTF8 {
		return dst, "\n"
	}
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	return transform.NewWriter(dst, enc), "\r\n"
}

// writeTable writes t to name below the report directory
func (w *Writer) writeTable(name string, t *table) (path string, err error) {
	path = filepath.Join(w.opts.Directory, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report %s: %w", name, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(file))

	encoded, newline := w.encoder(file)
	buf := bufio.NewWriter(encoded)
	for _, line := range t.lines() {
		if _, err := buf.WriteString(line + newline); err != nil {
			return "", fmt.Errorf("failed to write report %s: %w", name, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", name, err)
	}
	if closer, ok := encoded.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return "", fmt.Errorf("failed to flush report %s: %w", name, err)
		}
	}

	w.logger.Debug("Report written", logging.Fields{
		"path": path,
		"rows": len(t.rows),
	})
	return path, nil
}
