package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
)

// Backups are written to this directory next to the journal database.
const backupDirName = "backups"

// backupPath names the copy of a journal at dbPath carrying version.
func backupPath(dbPath string, version int, at time.Time) string {
	name := fmt.Sprintf("%s_v%d_%s.db",
		strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath)),
		version,
		at.UTC().Format("20060102T150405Z"))
	return filepath.Join(filepath.Dir(dbPath), backupDirName, name)
}

// backupJournal copies the whole database with VACUUM INTO, which must run
// outside a transaction.
func backupJournal(db *sql.DB, path string, log logger.Logger) error {
	errFactory := errors.New()

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return errFactory.WithData(ErrSchemaMigrationFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_backup_dir",
			Path:  filepath.Dir(path),
			Error: err.Error(),
		})
	}

	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := db.Exec("VACUUM INTO '" + quoted + "'"); err != nil {
		return errFactory.WithData(ErrSchemaMigrationFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "vacuum_into",
			Path:  path,
			Error: err.Error(),
		})
	}

	log.Info().Str("path", path).Msg("Journal backup created")
	return nil
}

// ValidateAndUpdateSchema brings the journal at dbPath to SchemaVersion.
// An empty database gets the schema. A database recorded at any other
// version is backed up, then its tables are dropped and recreated in one
// transaction. Old entries are not carried over.
func ValidateAndUpdateSchema(db *sql.DB, dbPath string, log logger.Logger) error {
	version, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}

	log.Debug().
		Int("found", version).
		Int("want", SchemaVersion).
		Msg("Journal schema version")

	switch version {
	case SchemaVersion:
		return nil
	case 0:
		return InitSchema(db, log)
	}

	if err := backupJournal(db, backupPath(dbPath, version, time.Now()), log); err != nil {
		return err
	}

	if err := inTx(db, log, ErrSchemaMigrationFailed, recreateSchema); err != nil {
		return err
	}

	log.Info().
		Int("from", version).
		Int("to", SchemaVersion).
		Msg("Journal schema recreated")
	return nil
}

func recreateSchema(tx *sql.Tx) error {
	for _, table := range journalTables {
		if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return errors.New().WithData(ErrSchemaMigrationFailed, struct {
				Phase string
				Table string
				Error string
			}{
				Phase: "drop_table",
				Table: table,
				Error: err.Error(),
			})
		}
	}
	return createSchema(tx)
}
