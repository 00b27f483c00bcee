package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/google/uuid"
)

// TaskID identifies a callback registered with a Scheduler.
type TaskID = uuid.UUID

// RenderTask is a callback that records GPU work into the frame's command encoder
// before the main pass.
type RenderTask func(enc CommandEncoder) error

type scheduledTask struct {
	id   TaskID
	fn   RenderTask
	once bool
}

// Scheduler runs before-render callbacks in registration order once per frame.
// Shadows register their depth passes here; one-shot work uses Once.
type Scheduler interface {
	// OnBeforeRender registers a callback that runs every frame until removed.
	//
	// Parameters:
	//   - fn: the callback
	//
	// Returns:
	//   - TaskID: the id used to remove the callback
	OnBeforeRender(fn RenderTask) TaskID

	// Once registers a callback that runs on the next frame only.
	//
	// Parameters:
	//   - fn: the callback
	//
	// Returns:
	//   - TaskID: the id used to cancel the callback before it runs
	Once(fn RenderTask) TaskID

	// Remove deregisters a callback. A callback removed while Run is executing does not run
	// later in the same frame.
	//
	// Parameters:
	//   - id: the callback id
	//
	// Returns:
	//   - bool: whether the id was registered
	Remove(id TaskID) bool

	// Has reports whether a callback is registered.
	Has(id TaskID) bool

	// Len returns the number of registered callbacks.
	Len() int

	// Run executes every registered callback. Errors do not stop later callbacks; they are
	// logged and returned joined.
	//
	// Parameters:
	//   - enc: the frame's command encoder
	//
	// Returns:
	//   - error: the joined callback errors, or nil
	Run(enc CommandEncoder) error
}

type scheduler struct {
	tasks  []scheduledTask
	logger common.Logger
}

var _ Scheduler = &scheduler{}

// NewScheduler creates an empty Scheduler.
//
// Parameters:
//   - logger: receives callback errors (nil disables logging)
//
// Returns:
//   - Scheduler: the scheduler
func NewScheduler(logger common.Logger) Scheduler {
	return &scheduler{logger: common.Coalesce(logger, common.NopLogger())}
}

func (s *scheduler) add(fn RenderTask, once bool) TaskID {
	id := uuid.New()
	s.tasks = append(s.tasks, scheduledTask{id: id, fn: fn, once: once})
	return id
}

func (s *scheduler) OnBeforeRender(fn RenderTask) TaskID {
	return s.add(fn, false)
}

func (s *scheduler) Once(fn RenderTask) TaskID {
	return s.add(fn, true)
}

func (s *scheduler) Remove(id TaskID) bool {
	for i, t := range s.tasks {
		if t.id == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (s *scheduler) Has(id TaskID) bool {
	for _, t := range s.tasks {
		if t.id == id {
			return true
		}
	}
	return false
}

func (s *scheduler) Len() int {
	return len(s.tasks)
}

func (s *scheduler) Run(enc CommandEncoder) error {
	pending := make([]scheduledTask, len(s.tasks))
	copy(pending, s.tasks)

	var errs []error
	for _, t := range pending {
		if !s.Has(t.id) {
			continue
		}
		if t.once {
			s.Remove(t.id)
		}
		if err := t.fn(enc); err != nil {
			s.logger.Errorf("render task %s: %v", t.id, err)
			errs = append(errs, fmt.Errorf("task %s: %w", t.id, err))
		}
	}
	return errors.Join(errs...)
}
