package sink

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/check"
	"codeberg.org/mutker/lmsensors2/internal/errors"
)

// TextWriter writes one local-check style line per record:
//
//	1 "lmsensors2_temp coretemp-isa-0000 ISA adapter Core 0" temperature=85;80;100 85.0 °C (warn/crit at 80.0 °C/100.0 °C)
type TextWriter struct {
	w io.Writer
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

func (t *TextWriter) Emit(ctx context.Context, rec Record) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	line := fmt.Sprintf("%d %s %s %s\n",
		int(rec.Result.State), strconv.Quote(rec.Service), formatMetric(rec.Metric), oneLine(rec.Result.Summary))
	if _, err := io.WriteString(t.w, line); err != nil {
		return errors.New().Wrap(errors.ErrEmit, err)
	}
	return nil
}

func (*TextWriter) Close() error {
	return nil
}

func formatMetric(m *check.Metric) string {
	if m == nil {
		return "-"
	}

	s := m.Name + "=" + formatFloat(m.Value)
	if m.Levels != nil {
		s += ";" + formatFloat(m.Levels.Warn) + ";" + formatFloat(m.Levels.Crit)
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
