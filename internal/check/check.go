// Package check turns parsed sensor readings into monitoring results.
//
// Each lm-sensors reading becomes one service whose state is decided by,
// in order: a missing value (WARN), caller supplied levels, the limits
// the sensors command reported itself, or nothing at all (OK).
package check

import "fmt"

// State is the monitoring state of a service.
type State int

const (
	OK State = iota
	Warn
	Crit
	Unknown
)

func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case Warn:
		return "WARN"
	case Crit:
		return "CRIT"
	case Unknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// severity orders states from best to worst: OK < WARN < UNKNOWN < CRIT.
func (s State) severity() int {
	switch s {
	case OK:
		return 0
	case Warn:
		return 1
	case Unknown:
		return 2
	default:
		return 3
	}
}

// Worst returns the worst of the given states, OK for none.
func Worst(states ...State) State {
	worst := OK
	for _, s := range states {
		if s.severity() > worst.severity() {
			worst = s
		}
	}
	return worst
}

// Result is the state of a service plus a one-line summary.
type Result struct {
	State   State
	Summary string
}

// Metric is one data point. Levels holds the upper levels the value was
// checked against, if any.
type Metric struct {
	Name   string
	Value  float64
	Levels *Levels
}

// Outcome is what one check call produces. Metric is nil when there was no
// value to measure.
type Outcome struct {
	Result Result
	Metric *Metric
}
