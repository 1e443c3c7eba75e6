package metrics

import (
	"time"

	"codeberg.org/mutker/lmsensors2/internal/check"
)

// Repository stores journal entries.
type Repository interface {
	Record(entry *Entry) error
	Recent(service string, limit int) ([]Entry, error)
	Close() error
}

// Entry is one emitted check result as stored in the journal. Metric
// fields are nil when the result carried no metric.
type Entry struct {
	ID          int64
	RecordedAt  time.Time
	Plugin      string
	Item        string
	Service     string
	State       check.State
	Summary     string
	MetricName  string
	MetricValue *float64
	Warn        *float64
	Crit        *float64
}
