package session

import (
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/bmsdash/pkg/cell"
	"github.com/charlie0129/bmsdash/pkg/events"
	"github.com/charlie0129/bmsdash/pkg/task"
)

const (
	MinCells = 1
	MaxCells = 20
)

// Session is the in-memory state of one dashboard run: the cell set, the task
// list and the list of task types in insertion order. It is safe for
// concurrent use.
type Session struct {
	mu sync.RWMutex

	gen *cell.Generator
	pub events.Publisher
	now func() time.Time

	cellOrder []string
	cells     map[string]cell.Cell

	taskOrder []string
	tasks     map[string]task.Task
	taskTypes []task.Type
	// nextTaskID only grows, so a key is never handed out twice.
	nextTaskID int
}

// New creates an empty session. pub may be nil.
func New(gen *cell.Generator, pub events.Publisher) *Session {
	if gen == nil {
		gen = cell.NewGenerator(0)
	}
	return &Session{
		gen:        gen,
		pub:        pub,
		now:        time.Now,
		cells:      map[string]cell.Cell{},
		tasks:      map[string]task.Task{},
		nextTaskID: 1,
	}
}

func (s *Session) publish(name string, payload any) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(name, payload)
}

// InitializeCells replaces the whole cell set with freshly sampled cells,
// one per chemistry, numbered from 1.
func (s *Session) InitializeCells(chems []cell.Chemistry) ([]cell.Cell, error) {
	if len(chems) < MinCells || len(chems) > MaxCells {
		return nil, pkgerrors.Wrapf(ErrCellCount, "must be between %d and %d, got %d", MinCells, MaxCells, len(chems))
	}
	parsed := make([]cell.Chemistry, 0, len(chems))
	for _, c := range chems {
		pc, err := cell.ParseChemistry(string(c))
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pc)
	}

	cells := s.gen.NewCells(parsed)

	s.mu.Lock()
	s.cellOrder = make([]string, 0, len(cells))
	s.cells = make(map[string]cell.Cell, len(cells))
	for _, c := range cells {
		s.cellOrder = append(s.cellOrder, c.Key)
		s.cells[c.Key] = c
	}
	keys := append([]string(nil), s.cellOrder...)
	s.mu.Unlock()

	logrus.WithField("cells", len(cells)).Info("cells initialized")
	s.publish(events.CellsInitialized, events.CellsInitializedEvent{Keys: keys, Ts: s.now().Unix()})

	return cells, nil
}

// Cells returns the cells in initialization order.
func (s *Session) Cells() []cell.Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cell.Cell, 0, len(s.cellOrder))
	for _, k := range s.cellOrder {
		out = append(out, s.cells[k])
	}
	return out
}

// Cell returns the cell with the given key.
func (s *Session) Cell(key string) (cell.Cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cells[key]
	if !ok {
		return cell.Cell{}, pkgerrors.Wrapf(ErrCellNotFound, "%s", key)
	}
	return c, nil
}

// Summary aggregates the current cells. ok is false when there are none.
func (s *Session) Summary() (cell.Summary, bool) {
	return cell.Summarize(s.Cells())
}

// AddTask validates t, assigns it the next key and appends it.
func (s *Session) AddTask(t task.Task) (task.Task, error) {
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	t = t.Normalize()

	s.mu.Lock()
	t.Key = fmt.Sprintf("task_%d", s.nextTaskID)
	s.nextTaskID++
	s.taskOrder = append(s.taskOrder, t.Key)
	s.tasks[t.Key] = t
	s.taskTypes = append(s.taskTypes, t.Type)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"key": t.Key, "type": t.Type}).Info("task added")
	s.publish(events.TaskAdded, events.TaskEvent{
		Key:     t.Key,
		Type:    string(t.Type),
		Message: fmt.Sprintf("Task %s added successfully!", t.Key),
		Ts:      s.now().Unix(),
	})

	return t, nil
}

// DeleteTask removes exactly the task with the given key, and one occurrence
// of its type from the task type list.
func (s *Session) DeleteTask(key string) (task.Task, error) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok {
		s.mu.Unlock()
		return task.Task{}, pkgerrors.Wrapf(ErrTaskNotFound, "%s", key)
	}
	delete(s.tasks, key)
	for i, k := range s.taskOrder {
		if k == key {
			s.taskOrder = append(s.taskOrder[:i], s.taskOrder[i+1:]...)
			break
		}
	}
	for i, typ := range s.taskTypes {
		if typ == t.Type {
			s.taskTypes = append(s.taskTypes[:i], s.taskTypes[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	logrus.WithField("key", key).Info("task deleted")
	s.publish(events.TaskDeleted, events.TaskEvent{Key: key, Type: string(t.Type), Ts: s.now().Unix()})

	return t, nil
}

// StartTask acknowledges a start request. Nothing is executed.
func (s *Session) StartTask(key string) (task.Task, error) {
	t, err := s.Task(key)
	if err != nil {
		return task.Task{}, err
	}

	logrus.WithField("key", key).Info("task start requested")
	s.publish(events.TaskStarted, events.TaskEvent{
		Key:     key,
		Type:    string(t.Type),
		Message: fmt.Sprintf("Task %s started!", key),
		Ts:      s.now().Unix(),
	})

	return t, nil
}

// Task returns the task with the given key.
func (s *Session) Task(key string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[key]
	if !ok {
		return task.Task{}, pkgerrors.Wrapf(ErrTaskNotFound, "%s", key)
	}
	return t, nil
}

// Tasks returns the tasks in insertion order.
func (s *Session) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.taskOrder))
	for _, k := range s.taskOrder {
		out = append(out, s.tasks[k])
	}
	return out
}

// TaskTypes returns the type of every live task, in insertion order.
func (s *Session) TaskTypes() []task.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]task.Type(nil), s.taskTypes...)
}
