package sink

import (
	"context"
	"io"

	"codeberg.org/mutker/lmsensors2/internal/check"
	"codeberg.org/mutker/lmsensors2/internal/errors"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonLevels struct {
	Warn float64 `json:"warn"`
	Crit float64 `json:"crit"`
}

type jsonMetric struct {
	Name   string      `json:"name"`
	Value  float64     `json:"value"`
	Levels *jsonLevels `json:"levels,omitempty"`
}

type jsonRecord struct {
	Plugin    string      `json:"plugin"`
	Item      string      `json:"item"`
	Service   string      `json:"service"`
	State     string      `json:"state"`
	StateCode int         `json:"state_code"`
	Summary   string      `json:"summary"`
	Metric    *jsonMetric `json:"metric,omitempty"`
}

// JSONWriter writes one JSON object per record and line.
type JSONWriter struct {
	enc *jsoniter.Encoder
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: jsonAPI.NewEncoder(w)}
}

func (j *JSONWriter) Emit(ctx context.Context, rec Record) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	out := jsonRecord{
		Plugin:    rec.Plugin,
		Item:      rec.Item,
		Service:   rec.Service,
		State:     rec.Result.State.String(),
		StateCode: int(rec.Result.State),
		Summary:   rec.Result.Summary,
		Metric:    toJSONMetric(rec.Metric),
	}
	if err := j.enc.Encode(&out); err != nil {
		return errors.New().Wrap(errors.ErrEmit, err)
	}
	return nil
}

func (*JSONWriter) Close() error {
	return nil
}

func toJSONMetric(m *check.Metric) *jsonMetric {
	if m == nil {
		return nil
	}
	out := &jsonMetric{Name: m.Name, Value: m.Value}
	if m.Levels != nil {
		out.Levels = &jsonLevels{Warn: m.Levels.Warn, Crit: m.Levels.Crit}
	}
	return out
}
