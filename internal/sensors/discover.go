package sensors

import "iter"

// Item returns the service item of a sensor: chip name, adapter and
// sensor name separated by single spaces.
func Item(chip Chip, s Sensor) string {
	return chip.Name + " " + chip.Adapter + " " + s.Name
}

// Discover yields one service item per sensor of the given kind, in
// chip and sensor order. Identical items are all yielded.
func Discover(section Section, kind Kind) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, chip := range section {
			for _, s := range chip.Sensors {
				if s.Kind != kind {
					continue
				}
				if !yield(Item(chip, s)) {
					return
				}
			}
		}
	}
}

// Find returns the first sensor whose item equals item.
func Find(section Section, item string) (*Sensor, bool) {
	for i := range section {
		chip := &section[i]
		for j := range chip.Sensors {
			if Item(*chip, chip.Sensors[j]) == item {
				return &chip.Sensors[j], true
			}
		}
	}
	return nil, false
}
