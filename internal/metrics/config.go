package metrics

import "codeberg.org/mutker/lmsensors2/internal/errors"

const (
	// File system permissions and paths
	defaultDirPerm   = 0o755
	defaultDBPath    = "/var/lib/lmsensors2/journal.db"
	defaultBatchSize = 64
)

type Config struct {
	DBPath    string
	BatchSize int
	Enabled   bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:    defaultDBPath,
		BatchSize: defaultBatchSize,
		Enabled:   false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int
		}{
			Field: "batch_size",
			Value: c.BatchSize,
		})
	}
	return nil
}
