// Package sensors builds the chip/sensor model from lm-sensors JSON
// (`sensors -j`) and enumerates the services a model exposes.
package sensors

// A Chip is one sensor controller as reported by lm-sensors,
// e.g. "coretemp-isa-0000" reached through "ISA adapter".
type Chip struct {
	Name    string
	Adapter string
	Sensors []Sensor
}

// A Sensor is one measurement channel of a chip. Value, Crit and Warn are
// nil when the sensors command did not deliver a usable number.
type Sensor struct {
	Name  string
	Kind  Kind
	Value *float64
	Crit  *float64
	Warn  *float64
}

// Section is the parsed lmsensors2 agent section: chips in input order.
type Section []Chip

// Clone returns a deep copy of the section. Converting values in place
// on a clone leaves the original untouched.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}

	out := make(Section, len(s))
	for i, chip := range s {
		out[i] = Chip{
			Name:    chip.Name,
			Adapter: chip.Adapter,
			Sensors: make([]Sensor, len(chip.Sensors)),
		}
		for j, sn := range chip.Sensors {
			out[i].Sensors[j] = Sensor{
				Name:  sn.Name,
				Kind:  sn.Kind,
				Value: clonePtr(sn.Value),
				Crit:  clonePtr(sn.Crit),
				Warn:  clonePtr(sn.Warn),
			}
		}
	}

	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func ptr[T any](v T) *T { return &v }
