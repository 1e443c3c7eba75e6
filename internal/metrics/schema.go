package metrics

import (
	"database/sql"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
)

const (
	SchemaVersion = 1

	tableSchemaVersions = "schema_versions"
	tableResults        = "results"

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS ` + tableSchemaVersions + ` (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS ` + tableResults + ` (
	       id           INTEGER PRIMARY KEY AUTOINCREMENT,
	       recorded_at  INTEGER NOT NULL CHECK (typeof(recorded_at) = 'integer'),
	       plugin       TEXT NOT NULL,
	       item         TEXT NOT NULL,
	       service      TEXT NOT NULL,
	       state        INTEGER NOT NULL CHECK (state BETWEEN 0 AND 3),
	       summary      TEXT NOT NULL,
	       metric_name  TEXT,
	       metric_value REAL,
	       warn         REAL,
	       crit         REAL
	   );
	   CREATE INDEX IF NOT EXISTS results_service ON ` + tableResults + ` (service, id);`

	recordVersionSQL = `
    INSERT INTO ` + tableSchemaVersions + ` (version, applied_at)
    VALUES (?, datetime('now'))`

	selectVersionSQL = `
    SELECT version
    FROM ` + tableSchemaVersions + `
    ORDER BY version DESC
    LIMIT 1`

	insertResultSQL = `
    INSERT INTO ` + tableResults + ` (
        recorded_at,
        plugin, item, service,
        state, summary,
        metric_name, metric_value, warn, crit
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecentSQL = `
    SELECT id, recorded_at, plugin, item, service, state, summary,
           metric_name, metric_value, warn, crit
    FROM ` + tableResults + `
    WHERE ? = '' OR service = ?
    ORDER BY id DESC
    LIMIT ?`
)

// journalTables lists every table the journal owns, dependents first.
var journalTables = []string{tableResults, tableSchemaVersions}

// InitSchema creates the journal tables in an empty database and records
// SchemaVersion.
func InitSchema(db *sql.DB, log logger.Logger) error {
	log.Debug().Msg("Creating journal tables")

	if err := inTx(db, log, ErrSchemaInitFailed, createSchema); err != nil {
		return err
	}

	log.Info().
		Int("version", SchemaVersion).
		Msg("Journal schema initialized")
	return nil
}

func createSchema(tx *sql.Tx) error {
	errFactory := errors.New()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "create_tables",
			Error: err.Error(),
		})
	}

	if _, err := tx.Exec(recordVersionSQL, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase   string
			Version int
			Error   string
		}{
			Phase:   "record_version",
			Version: SchemaVersion,
			Error:   err.Error(),
		})
	}
	return nil
}

// inTx runs fn in one transaction and commits if fn succeeds. Failures to
// begin or commit carry code.
func inTx(db *sql.DB, log logger.Logger, code errors.ErrorCode, fn func(*sql.Tx) error) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(code, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Debug().Err(rbErr).Msg("Failed to roll back schema transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errFactory.WithData(code, struct {
			Phase string
			Error string
		}{
			Phase: "commit",
			Error: err.Error(),
		})
	}
	return nil
}

// GetSchemaVersion returns the recorded schema version, 0 for a database
// the journal has never initialized.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, tableSchemaVersions)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(selectVersionSQL).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
