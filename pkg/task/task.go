package task

import (
	"math"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmsdash/pkg/cell"
)

// Type is the kind of a task profile.
type Type string

const (
	// CCCV is a constant current / constant voltage charge.
	CCCV Type = "CC_CV"
	// Idle is a rest period.
	Idle Type = "IDLE"
	// CCCD is a constant current discharge.
	CCCD Type = "CC_CD"
)

// Types returns all task types in display order.
func Types() []Type {
	return []Type{CCCV, Idle, CCCD}
}

// ParseType accepts "CC_CV", "cc-cv", "idle", ... ignoring case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch t {
	case CCCV, Idle, CCCD:
		return t, nil
	}
	return "", pkgerrors.Errorf("unknown task type %q, must be one of CC_CV, IDLE, CC_CD", s)
}

// Description is the long name of the task type.
func (t Type) Description() string {
	switch t {
	case CCCV:
		return "Constant Current/Constant Voltage"
	case Idle:
		return "Idle State"
	case CCCD:
		return "Constant Current Discharge"
	}
	return string(t)
}

// Field names, as used in exports and JSON.
const (
	FieldCCCP        = "cc_cp"
	FieldCVVoltage   = "cv_voltage"
	FieldCurrent     = "current"
	FieldCapacity    = "capacity"
	FieldTimeSeconds = "time_seconds"
	FieldVoltage     = "voltage"
)

// Fields lists the fields meaningful for the task type.
func (t Type) Fields() []string {
	switch t {
	case CCCV:
		return []string{FieldCCCP, FieldCVVoltage, FieldCurrent, FieldCapacity, FieldTimeSeconds}
	case Idle:
		return []string{FieldTimeSeconds}
	case CCCD:
		return []string{FieldCCCP, FieldVoltage, FieldCapacity, FieldTimeSeconds}
	}
	return nil
}

// HasField reports whether field belongs to the task type.
func (t Type) HasField(field string) bool {
	for _, f := range t.Fields() {
		if f == field {
			return true
		}
	}
	return false
}

// Task is a user defined charge, discharge or idle profile. Tasks are records
// only; nothing executes them.
type Task struct {
	Key  string `json:"key" form:"-"`
	Type Type   `json:"task_type" form:"task_type"`
	// CCCP is the free text CC/CP set point, e.g. "5A" or "10W".
	CCCP        string  `json:"cc_cp" form:"cc_cp"`
	CVVoltage   float64 `json:"cv_voltage" form:"cv_voltage"`
	Current     float64 `json:"current" form:"current"`
	Capacity    float64 `json:"capacity" form:"capacity"`
	TimeSeconds int     `json:"time_seconds" form:"time_seconds"`
	Voltage     float64 `json:"voltage" form:"voltage"`
}

// DisplayName returns the key in title case, e.g. "Task 1".
func (t Task) DisplayName() string {
	return cell.TitleKey(t.Key)
}

// Validate applies the input constraints of the task form: a known type,
// finite and non-negative numbers, and a duration of at least one second. Fields are
// not checked against each other or against any cell.
func (t Task) Validate() error {
	typ, err := ParseType(string(t.Type))
	if err != nil {
		return err
	}
	if t.TimeSeconds < 1 {
		return pkgerrors.Errorf("time_seconds must be at least 1, got %d", t.TimeSeconds)
	}
	for name, v := range map[string]float64{
		FieldCVVoltage: t.CVVoltage,
		FieldCurrent:   t.Current,
		FieldCapacity:  t.Capacity,
		FieldVoltage:   t.Voltage,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pkgerrors.Errorf("%s must be a finite number, got %v", name, v)
		}
		if typ.HasField(name) && v < 0 {
			return pkgerrors.Errorf("%s must not be negative, got %v", name, v)
		}
	}
	return nil
}

// Normalize canonicalizes the type and clears the fields that do not belong to it.
func (t Task) Normalize() Task {
	if typ, err := ParseType(string(t.Type)); err == nil {
		t.Type = typ
	}
	t.CCCP = strings.TrimSpace(t.CCCP)
	if !t.Type.HasField(FieldCCCP) {
		t.CCCP = ""
	}
	if !t.Type.HasField(FieldCVVoltage) {
		t.CVVoltage = 0
	}
	if !t.Type.HasField(FieldCurrent) {
		t.Current = 0
	}
	if !t.Type.HasField(FieldCapacity) {
		t.Capacity = 0
	}
	if !t.Type.HasField(FieldVoltage) {
		t.Voltage = 0
	}
	return t
}

// Setpoint parses the CC/CP field. ok is false when the text is empty or
// not of the form "<number>A" / "<number>W".
func (t Task) Setpoint() (Setpoint, bool) {
	sp, err := ParseSetpoint(t.CCCP)
	if err != nil {
		return Setpoint{}, false
	}
	return sp, true
}
