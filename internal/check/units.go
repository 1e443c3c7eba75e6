package check

import (
	"fmt"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/sensors"
)

// Unit is a temperature output unit.
type Unit string

const (
	Celsius    Unit = "c"
	Fahrenheit Unit = "f"
	Kelvin     Unit = "k"
)

// ParseUnit accepts "c", "f" and "k" in either case. The empty string
// means Celsius.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return Celsius, nil
	case Celsius, Fahrenheit, Kelvin:
		return u, nil
	default:
		return "", errors.New().WithMessage(ErrUnsupportedOption,
			fmt.Sprintf("output_unit %q is not supported, use c, f or k", s))
	}
}

// Convert converts a Celsius value to u.
func (u Unit) Convert(celsius float64) float64 {
	switch u {
	case Fahrenheit:
		return celsius*1.8 + 32
	case Kelvin:
		return celsius + 273.15
	default:
		return celsius
	}
}

// Symbol returns the unit as printed after a value.
func (u Unit) Symbol() string {
	switch u {
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return "°C"
	}
}

// ConvertTemperatures rewrites, in place, the value of every temperature
// sensor in section from Celsius to u. Sensors without a value are left
// alone. Crit and Warn stay in Celsius: levels taken from the sensors
// output are compared against the converted value unscaled.
func ConvertTemperatures(section sensors.Section, u Unit) {
	if u == Celsius || u == "" {
		return
	}

	for i := range section {
		for j := range section[i].Sensors {
			s := &section[i].Sensors[j]
			if s.Kind != sensors.KindTemperature || s.Value == nil {
				continue
			}
			v := u.Convert(*s.Value)
			s.Value = &v
		}
	}
}
