package events

import "encoding/json"

// Event name constants
const (
	CellsInitialized = "cells.initialized"
	TaskAdded        = "task.added"
	TaskDeleted      = "task.deleted"
	TaskStarted      = "task.started"
)

// Event is a generic SSE event from the dashboard.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// CellsInitializedEvent is the typed payload for cells.initialized.
type CellsInitializedEvent struct {
	Keys []string `json:"keys"`
	Ts   int64    `json:"ts"`
}

// TaskEvent is the typed payload for task.added, task.deleted and task.started.
type TaskEvent struct {
	Key     string `json:"key"`
	Type    string `json:"taskType"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.TaskEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Key, payload.Type)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
