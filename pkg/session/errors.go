package session

import "errors"

var (
	// ErrTaskNotFound is returned when no task has the requested key.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCellNotFound is returned when no cell has the requested key.
	ErrCellNotFound = errors.New("cell not found")

	// ErrCellCount is returned when a cell set is too small or too large.
	ErrCellCount = errors.New("invalid number of cells")
)
