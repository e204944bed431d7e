package core

import "math"

// ParamType enumerates supported parameter value kinds.
type ParamType string

const (
	ParamTypeInt   ParamType = "int"
	ParamTypeFloat ParamType = "float"
	ParamTypeBool  ParamType = "bool"
)

// Parameter is one reported setting. Value is already formatted for display.
type Parameter struct {
	Key         string
	Label       string
	Type        ParamType
	Value       string
	Description string
}

// ParameterGroup clusters related parameters for presentation.
type ParameterGroup struct {
	Name    string
	Params  []Parameter
	Summary string
}

// ParameterSnapshot is everything a sim reports about its settings at once.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// Lookup finds the parameter reported under key in any group.
func (s ParameterSnapshot) Lookup(key string) (Parameter, bool) {
	for _, g := range s.Groups {
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// ParameterControl is a setting the HUD may step up or down. Step and the
// bounds are optional.
type ParameterControl struct {
	Key   string
	Label string
	Type  ParamType

	Step float64

	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// Next returns the value one step from value in direction dir (negative or
// positive), clamped to the bounds. It reports false when the control is
// already pinned at the bound in that direction or its type is not steppable.
func (c ParameterControl) Next(value float64, dir int) (float64, bool) {
	step := c.Step
	switch c.Type {
	case ParamTypeInt:
		step = max(1, math.Round(step))
	case ParamTypeFloat:
		if step <= 0 {
			step = 0.05
		}
	default:
		return 0, false
	}
	if dir == 0 {
		return value, false
	}
	if dir < 0 {
		step = -step
	}
	v := value + step
	if c.HasMin && v < c.Min {
		if value <= c.Min {
			return 0, false
		}
		v = c.Min
	}
	if c.HasMax && v > c.Max {
		if value >= c.Max {
			return 0, false
		}
		v = c.Max
	}
	return v, true
}

// ParameterControlsProvider exposes the list of HUD-adjustable controls.
type ParameterControlsProvider interface {
	ParameterControls() []ParameterControl
}

// IntParameterSetter applies an integer control; false rejects the value.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// FloatParameterSetter applies a float control; false rejects the value.
type FloatParameterSetter interface {
	SetFloatParameter(key string, value float64) bool
}
