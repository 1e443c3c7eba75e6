package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/lmsensors2/internal/check"
	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
	mu     sync.Mutex
	buffer []*Entry
	closed bool
}

// NewRepository opens the journal database. Entries are buffered and
// written in one transaction once BatchSize entries are pending, on Recent
// and on Close. A BatchSize of 0 writes every entry immediately.
func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	// Validate if schema is current, with backup if needed
	if err := ValidateAndUpdateSchema(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Msg("Journal repository initialized")

	return &repository{
		db:     db,
		logger: log,
		cfg:    cfg,
		buffer: make([]*Entry, 0, cfg.BatchSize),
	}, nil
}

func (r *repository) Record(entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New().WithMessage(ErrStorageAccess, "journal is closed")
	}

	r.buffer = append(r.buffer, entry)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *repository) Recent(service string, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	if r.closed {
		return nil, errFactory.WithMessage(ErrStorageAccess, "journal is closed")
	}
	if err := r.flush(); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(selectRecentSQL, service, service, limit)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageAccess, struct {
			Phase string
			Error string
		}{
			Phase: "query_recent",
			Error: err.Error(),
		})
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			recordedAt int64
			state      int
			metricName sql.NullString
			value      sql.NullFloat64
			warn       sql.NullFloat64
			crit       sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &recordedAt, &e.Plugin, &e.Item, &e.Service,
			&state, &e.Summary, &metricName, &value, &warn, &crit); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		e.RecordedAt = time.Unix(recordedAt, 0).UTC()
		e.State = check.State(state)
		e.MetricName = metricName.String
		e.MetricValue = nullFloat(value)
		e.Warn = nullFloat(warn)
		e.Crit = nullFloat(crit)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return entries, nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	flushErr := r.flush()

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	if flushErr != nil {
		return flushErr
	}

	r.logger.Debug().Msg("Journal repository closed")

	return nil
}

func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		wrapped := errFactory.Wrap(ErrTransactionFailed, err)
		r.logger.ErrorWithCode(wrapped).Msg("Failed to begin transaction")
		return wrapped
	}

	stmt, err := tx.Prepare(insertResultSQL)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, e := range r.buffer {
		values := []any{
			e.RecordedAt.Unix(),
			e.Plugin,
			e.Item,
			e.Service,
			int64(e.State),
			e.Summary,
			nullString(e.MetricName),
			floatOrNull(e.MetricValue),
			floatOrNull(e.Warn),
			floatOrNull(e.Crit),
		}

		if _, err := stmt.Exec(values...); err != nil {
			r.logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		wrapped := errFactory.Wrap(ErrTransactionFailed, err)
		r.logger.ErrorWithCode(wrapped).Int("records", len(r.buffer)).Msg("Failed to commit transaction")
		return wrapped
	}

	r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed results to journal")
	r.buffer = r.buffer[:0]

	return nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func floatOrNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
