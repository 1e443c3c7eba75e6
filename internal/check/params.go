package check

import (
	"fmt"
	"slices"
	"strings"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"github.com/mitchellh/mapstructure"
)

// Params is the rule a caller attaches to one check call. An empty or nil
// Params means no rule is configured.
type Params map[string]any

// legacyOptions are parameters of older temperature checks that this
// plugin deliberately refuses.
var legacyOptions = map[string]string{
	"trend_compute":          "trend computation is not supported",
	"device_levels_handling": "device levels are always used when no rule is configured",
	"input_unit":             "sensors always report Celsius",
}

// Levels returns the levels stored under key, or nil if the key is absent.
// Accepted forms are a [warn, crit] pair, ["fixed", [warn, crit]] and
// ["no_levels", null].
func (p Params) Levels(key string) (*Levels, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var tuple []any
	if err := mapstructure.Decode(raw, &tuple); err != nil {
		return nil, invalidLevels(key, raw, err)
	}

	if len(tuple) == 2 {
		if mode, ok := tuple[0].(string); ok {
			switch mode {
			case "fixed":
				return decodePair(key, tuple[1])
			case "no_levels":
				return nil, nil
			default:
				return nil, invalidLevels(key, raw, fmt.Errorf("unknown levels mode %q", mode))
			}
		}
	}

	return decodePair(key, raw)
}

func decodePair(key string, raw any) (*Levels, error) {
	var pair []float64
	if err := mapstructure.WeakDecode(raw, &pair); err != nil {
		return nil, invalidLevels(key, raw, err)
	}
	if len(pair) != 2 {
		return nil, invalidLevels(key, raw, fmt.Errorf("expected 2 values, got %d", len(pair)))
	}

	return &Levels{Warn: pair[0], Crit: pair[1]}, nil
}

func invalidLevels(key string, raw any, err error) error {
	return errors.New().Wrap(ErrInvalidLevels, err).
		WithMessage(fmt.Sprintf("Invalid levels %q (%v)", key, raw))
}

// decodeOptions decodes params into the options struct out and fails on
// every key out does not declare.
func decodeOptions(plugin string, params Params, out any) error {
	if len(params) == 0 {
		return nil
	}

	errFactory := errors.New()

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		WeaklyTypedInput: true,
		Result:           out,
		// Levels are looked up by exact key, so a mis-cased key must
		// stay unused and be refused.
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := dec.Decode(map[string]any(params)); err != nil {
		return errFactory.Wrap(ErrUnsupportedOption, err)
	}

	if len(md.Unused) == 0 {
		return nil
	}

	unused := slices.Clone(md.Unused)
	slices.Sort(unused)

	msg := fmt.Sprintf("%s is not supported by %s", strings.Join(unused, ", "), plugin)
	for _, key := range unused {
		if hint, ok := legacyOptions[key]; ok {
			msg += fmt.Sprintf(" (%s: %s)", key, hint)
		}
	}

	return errFactory.WithMessage(ErrUnsupportedOption, msg)
}
