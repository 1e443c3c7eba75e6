package check

import (
	"fmt"
	"iter"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/sensors"
)

// A Plugin is one check type built on the lmsensors2 section: which
// sensors it discovers, which rule it reads and how it reports.
type Plugin struct {
	Name        string
	ServiceName string // printf template taking the item
	Ruleset     string
	Kind        sensors.Kind
	Evaluation  Evaluation

	check func(p *Plugin, section sensors.Section, item string, params Params) (Outcome, bool, error)
}

type temperatureOptions struct {
	Levels      any    `mapstructure:"levels"`
	LevelsLower any    `mapstructure:"levels_lower"`
	OutputUnit  string `mapstructure:"output_unit"`
}

type fanOptions struct {
	Upper  any `mapstructure:"upper"`
	Levels any `mapstructure:"levels"`
}

type voltageOptions struct {
	Levels      any `mapstructure:"levels"`
	LevelsLower any `mapstructure:"levels_lower"`
}

var (
	Temperature = &Plugin{
		Name:        "lmsensors2_temp",
		ServiceName: "lmsensors2_temp %s",
		Ruleset:     "temperature",
		Kind:        sensors.KindTemperature,
		Evaluation: Evaluation{
			Metric:   "temperature",
			UpperKey: "levels",
			LowerKey: "levels_lower",
		},
		check: checkTemperature,
	}

	Fan = &Plugin{
		Name:        "lmsensors2_fan",
		ServiceName: "lmsensors2_fan %s",
		Ruleset:     "hw_fans",
		Kind:        sensors.KindFan,
		Evaluation: Evaluation{
			Metric:   "fan_speed",
			UpperKey: "upper",
			LowerKey: "levels",
			Render:   func(v float64) string { return fmt.Sprintf("%.0f RPM", v) },
		},
		check: func(p *Plugin, section sensors.Section, item string, params Params) (Outcome, bool, error) {
			if err := decodeOptions(p.Name, params, &fanOptions{}); err != nil {
				return Outcome{}, false, err
			}
			return Evaluate(section, item, params, p.Evaluation)
		},
	}

	Voltage = &Plugin{
		Name:        "lmsensors2_volt",
		ServiceName: "lmsensors2_volt %s",
		Ruleset:     "voltage",
		Kind:        sensors.KindVoltage,
		Evaluation: Evaluation{
			Metric:   "volt",
			UpperKey: "levels",
			LowerKey: "levels_lower",
			Render:   func(v float64) string { return fmt.Sprintf("%.2f V", v) },
		},
		check: func(p *Plugin, section sensors.Section, item string, params Params) (Outcome, bool, error) {
			if err := decodeOptions(p.Name, params, &voltageOptions{}); err != nil {
				return Outcome{}, false, err
			}
			return Evaluate(section, item, params, p.Evaluation)
		},
	}
)

// Plugins returns all check plugins in registration order.
func Plugins() []*Plugin {
	return []*Plugin{Temperature, Fan, Voltage}
}

// Lookup finds a plugin by full name ("lmsensors2_fan"), short name
// ("fan") or the name of the rule set it reads ("hw_fans").
func Lookup(name string) (*Plugin, error) {
	name = strings.TrimSpace(name)
	for _, p := range Plugins() {
		if p.Name == name || p.Short() == name || p.Ruleset == name {
			return p, nil
		}
	}
	return nil, errors.New().WithData(ErrUnknownPlugin, name)
}

// Short returns the name without the section prefix, e.g. "temp".
func (p *Plugin) Short() string {
	_, short, _ := strings.Cut(p.Name, "_")
	return short
}

// Description returns the service description of item.
func (p *Plugin) Description(item string) string {
	return fmt.Sprintf(p.ServiceName, item)
}

// Discover yields the items of every sensor this plugin monitors.
func (p *Plugin) Discover(section sensors.Section) iter.Seq[string] {
	return sensors.Discover(section, p.Kind)
}

// Check validates params and evaluates item. Options the plugin does not
// know fail with ErrUnsupportedOption rather than being ignored.
func (p *Plugin) Check(section sensors.Section, item string, params Params) (Outcome, bool, error) {
	return p.check(p, section, item, params)
}

func checkTemperature(p *Plugin, section sensors.Section, item string, params Params) (Outcome, bool, error) {
	var opts temperatureOptions
	if err := decodeOptions(p.Name, params, &opts); err != nil {
		return Outcome{}, false, err
	}

	unit, err := ParseUnit(opts.OutputUnit)
	if err != nil {
		return Outcome{}, false, err
	}
	if unit != Celsius {
		section = section.Clone()
		ConvertTemperatures(section, unit)
	}

	ev := p.Evaluation
	ev.Render = func(v float64) string { return fmt.Sprintf("%.1f %s", v, unit.Symbol()) }

	return Evaluate(section, item, params, ev)
}
