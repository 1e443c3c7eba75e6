// Package sink delivers check results to their consumers.
package sink

import (
	"context"

	"codeberg.org/mutker/lmsensors2/internal/check"
	"codeberg.org/mutker/lmsensors2/internal/errors"
)

// Record is one service result. Result and Metric always travel together.
type Record struct {
	Plugin  string
	Item    string
	Service string
	Result  check.Result
	Metric  *check.Metric
}

// Sink accepts check results.
type Sink interface {
	Emit(ctx context.Context, rec Record) error
	Close() error
}

// NewRecord builds the record of one plugin outcome.
func NewRecord(p *check.Plugin, item string, out check.Outcome) Record {
	return Record{
		Plugin:  p.Name,
		Item:    item,
		Service: p.Description(item),
		Result:  out.Result,
		Metric:  out.Metric,
	}
}

type multi []Sink

// Multi returns a Sink that emits every record to each of sinks in turn.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Emit(ctx context.Context, rec Record) error {
	for _, s := range m {
		if err := s.Emit(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = errors.New().Wrap(errors.ErrShutdownFailed, err)
		}
	}
	return first
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.New().Wrap(errors.ErrTimeout, ctx.Err())
	default:
		return nil
	}
}
