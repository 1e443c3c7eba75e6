package check

import "codeberg.org/mutker/lmsensors2/internal/sensors"

const (
	summaryNoInput  = "No input delivered by sensors command"
	summaryNoLevels = "no levels configured"
)

// Evaluation describes how one kind of check reads its rule and reports
// its metric. UpperKey and LowerKey name the Params entries holding the
// upper and lower levels; fan checks use "levels" for the lower bound.
type Evaluation struct {
	Metric   string
	UpperKey string
	LowerKey string
	Render   Renderer
}

// Evaluate checks the first sensor in section whose item equals item.
// The bool result is false if no sensor matches, meaning the item has
// vanished. Evaluate never modifies section.
func Evaluate(section sensors.Section, item string, params Params, ev Evaluation) (Outcome, bool, error) {
	s, ok := sensors.Find(section, item)
	if !ok {
		return Outcome{}, false, nil
	}

	if s.Value == nil {
		return Outcome{Result: Result{State: Warn, Summary: summaryNoInput}}, true, nil
	}

	render := ev.Render
	if render == nil {
		render = renderDefault
	}
	value := *s.Value

	var upper, lower *Levels
	switch {
	case len(params) > 0:
		var err error
		if upper, err = params.Levels(ev.UpperKey); err != nil {
			return Outcome{}, true, err
		}
		if lower, err = params.Levels(ev.LowerKey); err != nil {
			return Outcome{}, true, err
		}
	case s.Crit != nil || s.Warn != nil:
		upper = deviceLevels(s)
	default:
		return Outcome{
			Result: Result{State: OK, Summary: render(value) + " (" + summaryNoLevels + ")"},
			Metric: &Metric{Name: ev.Metric, Value: value},
		}, true, nil
	}

	return Outcome{
		Result: CheckLevels(value, upper, lower, render),
		Metric: &Metric{Name: ev.Metric, Value: value, Levels: upper},
	}, true, nil
}

// deviceLevels builds upper levels from the limits the sensors command
// reported. A single limit serves as both warn and crit.
func deviceLevels(s *sensors.Sensor) *Levels {
	warn, crit := s.Warn, s.Crit
	if crit == nil {
		crit = warn
	}
	if warn == nil {
		warn = crit
	}
	return &Levels{Warn: *warn, Crit: *crit}
}
