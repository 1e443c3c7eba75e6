package check

import "fmt"

// Levels is a (warn, crit) pair. As upper levels a value at or above Warn
// is WARN and at or above Crit is CRIT. As lower levels a value at or
// below Warn is WARN and at or below Crit is CRIT.
type Levels struct {
	Warn float64
	Crit float64
}

func (l Levels) upper(v float64) State {
	switch {
	case v >= l.Crit:
		return Crit
	case v >= l.Warn:
		return Warn
	default:
		return OK
	}
}

func (l Levels) lower(v float64) State {
	switch {
	case v <= l.Crit:
		return Crit
	case v <= l.Warn:
		return Warn
	default:
		return OK
	}
}

// Renderer formats a value for a result summary.
type Renderer func(float64) string

func renderDefault(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// CheckLevels checks value against optional upper and lower levels. The
// summary names the value and every bound it crossed.
func CheckLevels(value float64, upper, lower *Levels, render Renderer) Result {
	if render == nil {
		render = renderDefault
	}

	summary := render(value)
	state := OK

	if upper != nil {
		if s := upper.upper(value); s != OK {
			state = Worst(state, s)
			summary += fmt.Sprintf(" (warn/crit at %s/%s)", render(upper.Warn), render(upper.Crit))
		}
	}
	if lower != nil {
		if s := lower.lower(value); s != OK {
			state = Worst(state, s)
			summary += fmt.Sprintf(" (warn/crit below %s/%s)", render(lower.Warn), render(lower.Crit))
		}
	}

	return Result{State: state, Summary: summary}
}
