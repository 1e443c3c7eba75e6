// Package metrics keeps a SQLite journal of emitted check results.
package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
	"codeberg.org/mutker/lmsensors2/internal/sink"
)

// Journal is a sink.Sink writing every record to a Repository.
type Journal struct {
	repo Repository
	now  func() time.Time
}

type noopJournal struct{}

// NewSink returns a journal sink for cfg, or a sink that drops every record
// when the journal is disabled.
func NewSink(cfg Config, log logger.Logger) (sink.Sink, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Result journal disabled, using no-op sink")
		return noopJournal{}, nil
	}

	return Open(cfg, log)
}

// Open opens or creates the journal database at cfg.DBPath.
func Open(cfg Config, log logger.Logger) (*Journal, error) {
	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create journal repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Int("batch_size", cfg.BatchSize).
		Msg("Result journal initialized")

	return &Journal{repo: repo, now: time.Now}, nil
}

func (j *Journal) Emit(ctx context.Context, rec sink.Record) error {
	errFactory := errors.New()

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	if err := j.repo.Record(newEntry(j.now(), rec)); err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}
	return nil
}

// Recent returns up to limit entries for service, newest first. An empty
// service matches every service.
func (j *Journal) Recent(ctx context.Context, service string, limit int) ([]Entry, error) {
	select {
	case <-ctx.Done():
		return nil, errors.New().Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}
	return j.repo.Recent(service, limit)
}

func (j *Journal) Close() error {
	if err := j.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}

func newEntry(at time.Time, rec sink.Record) *Entry {
	e := &Entry{
		RecordedAt: at.UTC(),
		Plugin:     rec.Plugin,
		Item:       rec.Item,
		Service:    rec.Service,
		State:      rec.Result.State,
		Summary:    rec.Result.Summary,
	}
	if m := rec.Metric; m != nil {
		value := m.Value
		e.MetricName = m.Name
		e.MetricValue = &value
		if m.Levels != nil {
			warn, crit := m.Levels.Warn, m.Levels.Crit
			e.Warn, e.Crit = &warn, &crit
		}
	}
	return e
}

func (noopJournal) Emit(context.Context, sink.Record) error {
	return nil
}

func (noopJournal) Close() error {
	return nil
}
