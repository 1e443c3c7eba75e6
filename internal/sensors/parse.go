package sensors

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/agent"
	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/logger"
	"github.com/valyala/fastjson"
)

const (
	adapterKey = "Adapter"

	inputSuffix = "_input"
	critSuffix  = "crit"
	maxSuffix   = "max"
)

// ParseTokens reassembles agent token lines and parses the result.
func ParseTokens(lines []agent.Line) (Section, error) {
	return Parse(agent.Reassemble(lines))
}

// Parse builds a Section from `sensors -j` output. The document is first
// decoded into a generic ordered tree, then projected onto chips and
// sensors so that chip and sensor order follow the input.
//
// A chip without an "Adapter" key aborts the whole parse with
// ErrKeyMissing; no partial section is returned. A key repeated within one
// object keeps its first position and takes its last value.
func Parse(text string) (Section, error) {
	errFactory := errors.New()

	var p fastjson.Parser
	root, err := p.Parse(text)
	if err != nil {
		return nil, errFactory.Wrap(ErrParse, err)
	}

	obj, err := root.Object()
	if err != nil {
		return nil, errFactory.WithData(ErrParse,
			fmt.Sprintf("top level value is %s, expected object", root.Type()))
	}

	names, values := members(obj)
	section := make(Section, 0, len(names))
	for _, name := range names {
		chip, err := parseChip(name, values[name])
		if err != nil {
			return nil, err
		}
		section = append(section, chip)
	}

	logger.Debug().Int("chips", len(section)).Msg("Parsed sensors section")

	return section, nil
}

func parseChip(name string, v *fastjson.Value) (Chip, error) {
	errFactory := errors.New()

	obj, err := v.Object()
	if err != nil {
		return Chip{}, errFactory.WithData(ErrParse,
			fmt.Sprintf("chip %q is %s, expected object", name, v.Type()))
	}

	keys, values := members(obj)

	av, ok := values[adapterKey]
	if !ok {
		return Chip{}, errFactory.WithData(ErrKeyMissing, struct {
			Chip string
			Key  string
		}{
			Chip: name,
			Key:  adapterKey,
		})
	}
	adapter, err := av.StringBytes()
	if err != nil {
		return Chip{}, errFactory.WithData(ErrParse,
			fmt.Sprintf("chip %q adapter is %s, expected string", name, av.Type()))
	}

	chip := Chip{
		Name:    name,
		Adapter: string(adapter),
		Sensors: make([]Sensor, 0, len(keys)),
	}

	for _, key := range keys {
		if key == adapterKey {
			continue
		}
		s, err := parseSensor(name, key, values[key])
		if err != nil {
			return Chip{}, err
		}
		chip.Sensors = append(chip.Sensors, s)
	}

	return chip, nil
}

// members returns the distinct keys of obj in order of first appearance
// and, for each key, its last value. A repeated key keeps its first
// position but takes the later value.
func members(obj *fastjson.Object) ([]string, map[string]*fastjson.Value) {
	keys := make([]string, 0, obj.Len())
	values := make(map[string]*fastjson.Value, obj.Len())
	obj.Visit(func(key []byte, v *fastjson.Value) {
		k := string(key)
		if _, seen := values[k]; !seen {
			keys = append(keys, k)
		}
		values[k] = v
	})
	return keys, values
}

func parseSensor(chip, name string, v *fastjson.Value) (Sensor, error) {
	obj, err := v.Object()
	if err != nil {
		return Sensor{}, errors.New().WithData(ErrParse,
			fmt.Sprintf("sensor %q of chip %q is %s, expected object", name, chip, v.Type()))
	}

	s := Sensor{Name: name}

	obj.Visit(func(key []byte, fv *fastjson.Value) {
		field := string(key)

		switch {
		case strings.HasSuffix(field, inputSuffix):
			s.Value = parseNumber(fv)
			if kind := Classify(field); kind != KindUnknown {
				s.Kind = kind
			} else {
				logger.Warn().
					Str("chip", chip).
					Str("sensor", name).
					Str("field", field).
					Msg("Unknown sensor type")
			}
		case strings.HasSuffix(field, critSuffix):
			s.Crit = parseNumber(fv)
		case strings.HasSuffix(field, maxSuffix):
			s.Warn = parseNumber(fv)
		}
	})

	return s, nil
}

// parseNumber accepts JSON numbers and numeric strings. Anything else
// yields nil.
func parseNumber(v *fastjson.Value) *float64 {
	switch v.Type() {
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return &f
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		f, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
