package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/task"
)

func readAll(t *testing.T, b []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 10, 18, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "cell_data_20261018_090507.csv", Filename(CellsPrefix, ts))
	assert.Equal(t, "task_data_20261018_090507.csv", Filename(TasksPrefix, ts))
}

func TestWriteCellsCSV(t *testing.T) {
	cells := cell.NewGenerator(8).NewCells([]cell.Chemistry{cell.LTO, cell.LFP, cell.NMC})

	var buf bytes.Buffer
	require.NoError(t, WriteCellsCSV(&buf, cells))

	rows := readAll(t, buf.Bytes())
	require.Len(t, rows, len(cells)+1)
	assert.Equal(t, CellHeader, rows[0])
	for i, c := range cells {
		row := rows[i+1]
		assert.Equal(t, c.Key, row[0])
		assert.Equal(t, formatFloat(c.Voltage), row[1])
		assert.Equal(t, formatFloat(c.Capacity), row[4])
		assert.Equal(t, formatFloat(c.MinVoltage), row[5])
	}
	assert.Equal(t, "cell_1_lto", rows[1][0])
	assert.Equal(t, "3.2", rows[2][1])
}

func TestWriteCellsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCellsCSV(&buf, nil))
	assert.Len(t, readAll(t, buf.Bytes()), 1)
}

func TestWriteTasksCSV(t *testing.T) {
	tasks := []task.Task{
		{Key: "task_1", Type: task.CCCV, CCCP: "5A", CVVoltage: 4.2, Current: 1.5, Capacity: 2, TimeSeconds: 3600},
		{Key: "task_2", Type: task.Idle, TimeSeconds: 600},
		{Key: "task_3", Type: task.CCCD, CCCP: "10W, fast", Voltage: 2.5, Capacity: 1, TimeSeconds: 1200},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTasksCSV(&buf, tasks))

	rows := readAll(t, buf.Bytes())
	require.Len(t, rows, 4)
	assert.Equal(t, TaskHeader, rows[0])
	assert.Equal(t, []string{"task_1", "CC_CV", "5A", "4.2", "1.5", "2", "3600", ""}, rows[1])
	assert.Equal(t, []string{"task_2", "IDLE", "", "", "", "", "600", ""}, rows[2])
	assert.Equal(t, []string{"task_3", "CC_CD", "10W, fast", "", "", "1", "1200", "2.5"}, rows[3])
}
