package check

import (
	"fmt"
	"slices"
	"testing"

	"codeberg.org/mutker/lmsensors2/internal/errors"
	"codeberg.org/mutker/lmsensors2/internal/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

const (
	tempItem = "coretemp-isa-0000 ISA adapter Core 0"
	fanItem  = "nct6798-isa-0290 ISA adapter fan1"
	voltItem = "nct6798-isa-0290 ISA adapter in0"
)

func prepareSection(temp sensors.Sensor) sensors.Section {
	temp.Name = "Core 0"
	temp.Kind = sensors.KindTemperature
	return sensors.Section{
		{
			Name:    "coretemp-isa-0000",
			Adapter: "ISA adapter",
			Sensors: []sensors.Sensor{temp},
		},
		{
			Name:    "nct6798-isa-0290",
			Adapter: "ISA adapter",
			Sensors: []sensors.Sensor{
				{Name: "in0", Kind: sensors.KindVoltage, Value: ptr(12.1), Warn: ptr(13.0)},
				{Name: "fan1", Kind: sensors.KindFan, Value: ptr(800)},
			},
		},
	}
}

func TestWorst(t *testing.T) {
	assert.Equal(t, OK, Worst())
	assert.Equal(t, Warn, Worst(OK, Warn))
	assert.Equal(t, Unknown, Worst(Warn, Unknown))
	assert.Equal(t, Crit, Worst(Unknown, Crit, OK))
	assert.Equal(t, "CRIT", Crit.String())
}

func TestCheckLevels_Upper(t *testing.T) {
	upper := &Levels{Warn: 70, Crit: 90}

	tests := map[string]struct {
		value float64
		want  State
	}{
		"below warn":         {value: 69.999, want: OK},
		"at warn":            {value: 70, want: Warn},
		"between warn, crit": {value: 89.999, want: Warn},
		"at crit":            {value: 90, want: Crit},
		"above crit":         {value: 120, want: Crit},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, CheckLevels(test.value, upper, nil, nil).State)
		})
	}
}

func TestCheckLevels_Lower(t *testing.T) {
	lower := &Levels{Warn: 1000, Crit: 500}

	tests := map[string]struct {
		value float64
		want  State
	}{
		"above warn":         {value: 1000.001, want: OK},
		"at warn":            {value: 1000, want: Warn},
		"between warn, crit": {value: 500.001, want: Warn},
		"at crit":            {value: 500, want: Crit},
		"stopped":            {value: 0, want: Crit},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, CheckLevels(test.value, nil, lower, nil).State)
		})
	}
}

func TestCheckLevels_Summary(t *testing.T) {
	render := func(v float64) string { return fmt.Sprintf("%.0f RPM", v) }

	res := CheckLevels(75, &Levels{Warn: 70, Crit: 90}, nil, nil)
	assert.Equal(t, "75.00 (warn/crit at 70.00/90.00)", res.Summary)

	res = CheckLevels(5, nil, &Levels{Warn: 10, Crit: 0}, render)
	assert.Equal(t, "5 RPM (warn/crit below 10 RPM/0 RPM)", res.Summary)

	res = CheckLevels(50, &Levels{Warn: 70, Crit: 90}, &Levels{Warn: 10, Crit: 0}, nil)
	assert.Equal(t, Result{State: OK, Summary: "50.00"}, res)
}

func TestEvaluate(t *testing.T) {
	ev := Temperature.Evaluation
	ev.Render = nil

	tests := map[string]struct {
		sensor  sensors.Sensor
		params  Params
		want    Outcome
		wantErr errors.ErrorCode
	}{
		"no value": {
			sensor: sensors.Sensor{Crit: ptr(90)},
			want:   Outcome{Result: Result{State: Warn, Summary: "No input delivered by sensors command"}},
		},
		"no levels at all": {
			sensor: sensors.Sensor{Value: ptr(42)},
			want: Outcome{
				Result: Result{State: OK, Summary: "42.00 (no levels configured)"},
				Metric: &Metric{Name: "temperature", Value: 42},
			},
		},
		"device warn and crit": {
			sensor: sensors.Sensor{Value: ptr(85), Warn: ptr(80), Crit: ptr(100)},
			want: Outcome{
				Result: Result{State: Warn, Summary: "85.00 (warn/crit at 80.00/100.00)"},
				Metric: &Metric{Name: "temperature", Value: 85, Levels: &Levels{Warn: 80, Crit: 100}},
			},
		},
		"device crit only fills warn": {
			sensor: sensors.Sensor{Value: ptr(89), Crit: ptr(90)},
			want: Outcome{
				Result: Result{State: OK, Summary: "89.00"},
				Metric: &Metric{Name: "temperature", Value: 89, Levels: &Levels{Warn: 90, Crit: 90}},
			},
		},
		"device crit only at limit": {
			sensor: sensors.Sensor{Value: ptr(90), Crit: ptr(90)},
			want: Outcome{
				Result: Result{State: Crit, Summary: "90.00 (warn/crit at 90.00/90.00)"},
				Metric: &Metric{Name: "temperature", Value: 90, Levels: &Levels{Warn: 90, Crit: 90}},
			},
		},
		"device warn only fills crit": {
			sensor: sensors.Sensor{Value: ptr(80), Warn: ptr(80)},
			want: Outcome{
				Result: Result{State: Crit, Summary: "80.00 (warn/crit at 80.00/80.00)"},
				Metric: &Metric{Name: "temperature", Value: 80, Levels: &Levels{Warn: 80, Crit: 80}},
			},
		},
		"rule overrides device levels": {
			sensor: sensors.Sensor{Value: ptr(85), Warn: ptr(80), Crit: ptr(100)},
			params: Params{"levels": []any{90, 95}},
			want: Outcome{
				Result: Result{State: OK, Summary: "85.00"},
				Metric: &Metric{Name: "temperature", Value: 85, Levels: &Levels{Warn: 90, Crit: 95}},
			},
		},
		"rule without levels disables device levels": {
			sensor: sensors.Sensor{Value: ptr(120), Crit: ptr(100)},
			params: Params{"output_unit": "c"},
			want: Outcome{
				Result: Result{State: OK, Summary: "120.00"},
				Metric: &Metric{Name: "temperature", Value: 120},
			},
		},
		"lower levels from rule": {
			sensor: sensors.Sensor{Value: ptr(3)},
			params: Params{"levels_lower": []float64{5, 0}},
			want: Outcome{
				Result: Result{State: Warn, Summary: "3.00 (warn/crit below 5.00/0.00)"},
				Metric: &Metric{Name: "temperature", Value: 3},
			},
		},
		"fixed levels form": {
			sensor: sensors.Sensor{Value: ptr(75)},
			params: Params{"levels": []any{"fixed", []any{70.0, 90.0}}},
			want: Outcome{
				Result: Result{State: Warn, Summary: "75.00 (warn/crit at 70.00/90.00)"},
				Metric: &Metric{Name: "temperature", Value: 75, Levels: &Levels{Warn: 70, Crit: 90}},
			},
		},
		"no_levels form": {
			sensor: sensors.Sensor{Value: ptr(75), Crit: ptr(70)},
			params: Params{"levels": []any{"no_levels", nil}},
			want: Outcome{
				Result: Result{State: OK, Summary: "75.00"},
				Metric: &Metric{Name: "temperature", Value: 75},
			},
		},
		"levels are not a pair": {
			sensor:  sensors.Sensor{Value: ptr(75)},
			params:  Params{"levels": []any{70}},
			wantErr: ErrInvalidLevels,
		},
		"levels are not numbers": {
			sensor:  sensors.Sensor{Value: ptr(75)},
			params:  Params{"levels": []any{"hot", "hotter"}},
			wantErr: ErrInvalidLevels,
		},
		"levels are a scalar": {
			sensor:  sensors.Sensor{Value: ptr(75)},
			params:  Params{"levels": 70},
			wantErr: ErrInvalidLevels,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out, found, err := Evaluate(prepareSection(test.sensor), tempItem, test.params, ev)

			require.True(t, found)
			if test.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, test.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, out)
		})
	}
}

func TestEvaluate_VanishedItem(t *testing.T) {
	out, found, err := Evaluate(prepareSection(sensors.Sensor{Value: ptr(1)}), "gone", nil, Temperature.Evaluation)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Outcome{}, out)
}

func TestEvaluate_DoesNotModifySection(t *testing.T) {
	section := prepareSection(sensors.Sensor{Value: ptr(85), Crit: ptr(90)})
	before := section.Clone()

	_, _, err := Evaluate(section, tempItem, nil, Temperature.Evaluation)
	require.NoError(t, err)

	assert.Equal(t, before, section)
	assert.Nil(t, section[0].Sensors[0].Warn)
}

func TestPlugin_Temperature(t *testing.T) {
	tests := map[string]struct {
		sensor  sensors.Sensor
		params  Params
		want    Outcome
		wantErr errors.ErrorCode
	}{
		"celsius": {
			sensor: sensors.Sensor{Value: ptr(75)},
			params: Params{"levels": []any{70, 90}},
			want: Outcome{
				Result: Result{State: Warn, Summary: "75.0 °C (warn/crit at 70.0 °C/90.0 °C)"},
				Metric: &Metric{Name: "temperature", Value: 75, Levels: &Levels{Warn: 70, Crit: 90}},
			},
		},
		"fahrenheit": {
			sensor: sensors.Sensor{Value: ptr(0)},
			params: Params{"output_unit": "f"},
			want: Outcome{
				Result: Result{State: OK, Summary: "32.0 °F"},
				Metric: &Metric{Name: "temperature", Value: 32},
			},
		},
		"kelvin": {
			sensor: sensors.Sensor{Value: ptr(26.85)},
			params: Params{"output_unit": "K"},
			want: Outcome{
				Result: Result{State: OK, Summary: "300.0 K"},
				Metric: &Metric{Name: "temperature", Value: 300},
			},
		},
		"fahrenheit with rule levels in fahrenheit": {
			sensor: sensors.Sensor{Value: ptr(40)},
			params: Params{"output_unit": "f", "levels": []any{100, 120}},
			want: Outcome{
				Result: Result{State: Warn, Summary: "104.0 °F (warn/crit at 100.0 °F/120.0 °F)"},
				Metric: &Metric{Name: "temperature", Value: 104, Levels: &Levels{Warn: 100, Crit: 120}},
			},
		},
		"no value stays no value after conversion": {
			sensor: sensors.Sensor{},
			params: Params{"output_unit": "f"},
			want:   Outcome{Result: Result{State: Warn, Summary: "No input delivered by sensors command"}},
		},
		"trend_compute is refused": {
			sensor:  sensors.Sensor{Value: ptr(40)},
			params:  Params{"trend_compute": map[string]any{"period": 30}},
			wantErr: ErrUnsupportedOption,
		},
		"device_levels_handling is refused": {
			sensor:  sensors.Sensor{Value: ptr(40)},
			params:  Params{"device_levels_handling": "worst"},
			wantErr: ErrUnsupportedOption,
		},
		"input_unit is refused": {
			sensor:  sensors.Sensor{Value: ptr(40)},
			params:  Params{"input_unit": "f"},
			wantErr: ErrUnsupportedOption,
		},
		"unknown output unit": {
			sensor:  sensors.Sensor{Value: ptr(40)},
			params:  Params{"output_unit": "r"},
			wantErr: ErrUnsupportedOption,
		},
		"mis-cased levels key is refused": {
			sensor:  sensors.Sensor{Value: ptr(95)},
			params:  Params{"Levels": []any{70.0, 90.0}},
			wantErr: ErrUnsupportedOption,
		},
		"mis-cased lower levels key is refused": {
			sensor:  sensors.Sensor{Value: ptr(5)},
			params:  Params{"LEVELS_LOWER": []any{10.0, 0.0}},
			wantErr: ErrUnsupportedOption,
		},
		"mis-cased output unit key is refused": {
			sensor:  sensors.Sensor{Value: ptr(95)},
			params:  Params{"Output_Unit": "f"},
			wantErr: ErrUnsupportedOption,
		},
		"fan key on temperature": {
			sensor:  sensors.Sensor{Value: ptr(40)},
			params:  Params{"upper": []any{1, 2}},
			wantErr: ErrUnsupportedOption,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out, found, err := Temperature.Check(prepareSection(test.sensor), tempItem, test.params)

			if test.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, test.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, test.want.Result, out.Result)
			require.Equal(t, test.want.Metric == nil, out.Metric == nil)
			if test.want.Metric != nil {
				assert.Equal(t, test.want.Metric.Name, out.Metric.Name)
				assert.InDelta(t, test.want.Metric.Value, out.Metric.Value, 1e-9)
				assert.Equal(t, test.want.Metric.Levels, out.Metric.Levels)
			}
		})
	}
}

func TestPlugin_TemperatureConversionKeepsDeviceLevelsInCelsius(t *testing.T) {
	section := prepareSection(sensors.Sensor{Value: ptr(0), Crit: ptr(30)})

	// output_unit makes the rule non-empty, so the device crit of 30 is
	// not consulted and 32 °F is OK.
	out, found, err := Temperature.Check(section, tempItem, Params{"output_unit": "f"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, OK, out.Result.State)
	assert.InDelta(t, 32, out.Metric.Value, 1e-9)

	converted := section.Clone()
	ConvertTemperatures(converted, Fahrenheit)
	assert.InDelta(t, 32, *converted[0].Sensors[0].Value, 1e-9)
	assert.Equal(t, ptr(30), converted[0].Sensors[0].Crit, "thresholds stay in Celsius")

	assert.Equal(t, ptr(0), section[0].Sensors[0].Value, "Check must not convert the caller's section")
}

func TestPlugin_Fan(t *testing.T) {
	tests := map[string]struct {
		params Params
		want   Result
	}{
		"levels is the lower bound": {
			params: Params{"levels": []any{1000, 500}},
			want:   Result{State: Warn, Summary: "800 RPM (warn/crit below 1000 RPM/500 RPM)"},
		},
		"upper is the upper bound": {
			params: Params{"upper": []any{700, 2000}},
			want:   Result{State: Warn, Summary: "800 RPM (warn/crit at 700 RPM/2000 RPM)"},
		},
		"no rule": {
			params: nil,
			want:   Result{State: OK, Summary: "800 RPM (no levels configured)"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out, found, err := Fan.Check(prepareSection(sensors.Sensor{}), fanItem, test.params)

			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, test.want, out.Result)
			require.NotNil(t, out.Metric)
			assert.Equal(t, "fan_speed", out.Metric.Name)
			assert.Equal(t, 800.0, out.Metric.Value)
		})
	}

	refused := map[string]Params{
		"levels_lower":    {"levels_lower": []any{1, 2}},
		"mis-cased upper": {"Upper": []any{700.0, 2000.0}},
	}
	for name, params := range refused {
		t.Run(name, func(t *testing.T) {
			_, _, err := Fan.Check(prepareSection(sensors.Sensor{}), fanItem, params)
			assert.True(t, errors.HasCode(err, ErrUnsupportedOption), "got %v", err)
		})
	}
}

func TestPlugin_Voltage(t *testing.T) {
	out, found, err := Voltage.Check(prepareSection(sensors.Sensor{}), voltItem, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Result{State: OK, Summary: "12.10 V"}, out.Result)
	assert.Equal(t, &Levels{Warn: 13, Crit: 13}, out.Metric.Levels)

	out, _, err = Voltage.Check(prepareSection(sensors.Sensor{}), voltItem, Params{"levels_lower": []any{12.5, 11.5}})
	require.NoError(t, err)
	assert.Equal(t, Result{State: Warn, Summary: "12.10 V (warn/crit below 12.50 V/11.50 V)"}, out.Result)

	_, _, err = Voltage.Check(prepareSection(sensors.Sensor{}), voltItem, Params{"output_unit": "f"})
	assert.True(t, errors.HasCode(err, ErrUnsupportedOption))
}

func TestPlugin_Discover(t *testing.T) {
	section := prepareSection(sensors.Sensor{Value: ptr(1)})

	assert.Equal(t, []string{tempItem}, slices.Collect(Temperature.Discover(section)))
	assert.Equal(t, []string{fanItem}, slices.Collect(Fan.Discover(section)))
	assert.Equal(t, []string{voltItem}, slices.Collect(Voltage.Discover(section)))
	assert.Equal(t, "lmsensors2_fan "+fanItem, Fan.Description(fanItem))
}

func TestLookup(t *testing.T) {
	tests := map[string]struct {
		name    string
		want    *Plugin
		wantErr bool
	}{
		"full name":           {name: "lmsensors2_volt", want: Voltage},
		"short name":          {name: "temp", want: Temperature},
		"fan":                 {name: " fan ", want: Fan},
		"ruleset":             {name: "hw_fans", want: Fan},
		"ruleset temperature": {name: "temperature", want: Temperature},
		"unknown":             {name: "lmsensors2_power", wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := Lookup(test.name)
			if test.wantErr {
				assert.True(t, errors.HasCode(err, ErrUnknownPlugin))
				return
			}
			require.NoError(t, err)
			assert.Same(t, test.want, p)
		})
	}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"": Celsius, "c": Celsius, "F": Fahrenheit, " k ": Kelvin} {
		u, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, u, in)
	}

	_, err := ParseUnit("rankine")
	assert.True(t, errors.HasCode(err, ErrUnsupportedOption))
}

func TestConvertTemperatures(t *testing.T) {
	section := sensors.Section{{Name: "c", Adapter: "a", Sensors: []sensors.Sensor{
		{Name: "t1", Kind: sensors.KindTemperature, Value: ptr(100)},
		{Name: "t2", Kind: sensors.KindTemperature},
		{Name: "f1", Kind: sensors.KindFan, Value: ptr(100)},
	}}}

	ConvertTemperatures(section, Fahrenheit)

	assert.InDelta(t, 212, *section[0].Sensors[0].Value, 1e-9)
	assert.Nil(t, section[0].Sensors[1].Value)
	assert.Equal(t, ptr(100), section[0].Sensors[2].Value)

	ConvertTemperatures(section, Celsius)
	assert.InDelta(t, 212, *section[0].Sensors[0].Value, 1e-9)
}
