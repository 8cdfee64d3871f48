package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/task"
)

const (
	CellsPrefix = "cell_data"
	TasksPrefix = "task_data"
)

// CellHeader is the header row of a cell export.
var CellHeader = []string{"key", "voltage", "current", "temp", "capacity", "min_voltage", "max_voltage", "health", "cycles"}

// TaskHeader is the header row of a task export.
var TaskHeader = []string{
	"key", "task_type",
	task.FieldCCCP, task.FieldCVVoltage, task.FieldCurrent, task.FieldCapacity, task.FieldTimeSeconds, task.FieldVoltage,
}

// Filename returns "<prefix>_YYYYMMDD_HHMMSS.csv".
func Filename(prefix string, t time.Time) string {
	return prefix + "_" + t.Format("20060102_150405") + ".csv"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteCellsCSV writes one row per cell, in the given order.
func WriteCellsCSV(w io.Writer, cells []cell.Cell) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CellHeader); err != nil {
		return pkgerrors.Wrapf(err, "failed to write cell header")
	}
	for _, c := range cells {
		rec := []string{
			c.Key,
			formatFloat(c.Voltage),
			formatFloat(c.Current),
			formatFloat(c.Temperature),
			formatFloat(c.Capacity),
			formatFloat(c.MinVoltage),
			formatFloat(c.MaxVoltage),
			formatFloat(c.Health),
			strconv.Itoa(c.Cycles),
		}
		if err := cw.Write(rec); err != nil {
			return pkgerrors.Wrapf(err, "failed to write cell %s", c.Key)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTasksCSV writes one row per task, in the given order. Columns that do
// not apply to a task's type are left empty.
func WriteTasksCSV(w io.Writer, tasks []task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TaskHeader); err != nil {
		return pkgerrors.Wrapf(err, "failed to write task header")
	}
	for _, t := range tasks {
		values := map[string]string{
			task.FieldCCCP:        t.CCCP,
			task.FieldCVVoltage:   formatFloat(t.CVVoltage),
			task.FieldCurrent:     formatFloat(t.Current),
			task.FieldCapacity:    formatFloat(t.Capacity),
			task.FieldTimeSeconds: strconv.Itoa(t.TimeSeconds),
			task.FieldVoltage:     formatFloat(t.Voltage),
		}
		rec := []string{t.Key, string(t.Type)}
		for _, field := range TaskHeader[2:] {
			if t.Type.HasField(field) {
				rec = append(rec, values[field])
			} else {
				rec = append(rec, "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return pkgerrors.Wrapf(err, "failed to write task %s", t.Key)
		}
	}
	cw.Flush()
	return cw.Error()
}
