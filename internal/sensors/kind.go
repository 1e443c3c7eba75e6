package sensors

import "strings"

// Kind is the physical quantity a sensor measures.
type Kind int

const (
	KindUnknown Kind = iota
	KindTemperature
	KindVoltage
	KindFan
	KindCPU
	KindPower
	KindCurrent
	KindEnergy
	KindIntrusion
	KindHumidity
)

// kindTags is scanned in order. The longest tag that prefixes a field
// key wins; among tags of equal length the earlier entry wins.
var kindTags = []struct {
	kind Kind
	tag  string
	name string
}{
	{KindTemperature, "temp", "temperature"},
	{KindVoltage, "in", "voltage-in"},
	{KindFan, "fan", "fan"},
	{KindCPU, "cpu", "cpu"},
	{KindPower, "power", "power"},
	{KindCurrent, "curr", "current"},
	{KindEnergy, "energy", "energy"},
	{KindIntrusion, "intrusion", "intrusion"},
	{KindHumidity, "humidity", "humidity"},
}

func (k Kind) String() string {
	for _, t := range kindTags {
		if t.kind == k {
			return t.name
		}
	}
	return "unknown"
}

// Tag returns the field key prefix lm-sensors uses for the kind.
func (k Kind) Tag() string {
	for _, t := range kindTags {
		if t.kind == k {
			return t.tag
		}
	}
	return ""
}

// Classify returns the kind of an lm-sensors subfeature key such as
// "temp1_input" or "intrusion0_input".
func Classify(field string) Kind {
	kind, best := KindUnknown, 0
	for _, t := range kindTags {
		if len(t.tag) > best && strings.HasPrefix(field, t.tag) {
			kind, best = t.kind, len(t.tag)
		}
	}
	return kind
}
