package task

import (
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Mode tells whether a set point regulates current or power.
type Mode string

const (
	ModeCurrent Mode = "current"
	ModePower   Mode = "power"
)

// Setpoint is a parsed CC/CP value.
type Setpoint struct {
	Value float64 `json:"value"`
	Mode  Mode    `json:"mode"`
}

// Unit returns the SI unit symbol of the set point.
func (s Setpoint) Unit() string {
	if s.Mode == ModePower {
		return "W"
	}
	return "A"
}

func (s Setpoint) String() string {
	return strconv.FormatFloat(s.Value, 'f', -1, 64) + " " + s.Unit()
}

// ParseSetpoint parses values such as "5A", "2.5 a" or "10W".
func ParseSetpoint(s string) (Setpoint, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return Setpoint{}, pkgerrors.New("empty set point")
	}

	var mode Mode
	switch {
	case strings.HasSuffix(v, "A"):
		mode = ModeCurrent
	case strings.HasSuffix(v, "W"):
		mode = ModePower
	default:
		return Setpoint{}, pkgerrors.Errorf("set point %q must end with A or W", s)
	}

	num := strings.TrimSpace(v[:len(v)-1])
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Setpoint{}, pkgerrors.Wrapf(err, "invalid set point %q", s)
	}
	if f < 0 {
		return Setpoint{}, pkgerrors.Errorf("set point %q must not be negative", s)
	}

	return Setpoint{Value: f, Mode: mode}, nil
}
