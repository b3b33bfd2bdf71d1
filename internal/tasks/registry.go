package tasks

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"blugr/internal/services"
)

// Status represents the lifecycle of a background task.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type task struct {
	id         string
	descriptor string
	status     Status
	startTime  time.Time
	endTime    time.Time
	progress   float64
	result     string
	errMsg     string
}

// Snapshot is a point-in-time view of one task for status queries.
type Snapshot struct {
	TaskID             string
	Descriptor         string
	Status             Status
	StartTime          time.Time
	Progress           float64
	Elapsed            time.Duration
	EstimatedRemaining time.Duration
	Result             string
	Error              string
}

// Registry is the in-memory record of background jobs with admission
// control. It is created at daemon startup and torn down at shutdown; a
// multi-instance deployment would back the same interface with a shared
// store.
type Registry struct {
	mu        sync.Mutex
	tasks     map[string]*task
	ceiling   int
	retention time.Duration
	now       func() time.Time
}

// NewRegistry constructs a registry. A maxConcurrent of 0 defaults the
// admission ceiling to twice the available parallelism. Terminal tasks are
// swept lazily once they are older than retention.
func NewRegistry(maxConcurrent int, retention time.Duration) *Registry {
	if maxConcurrent <= 0 {
		maxConcurrent = 2 * runtime.GOMAXPROCS(0)
	}
	if retention <= 0 {
		retention = time.Hour
	}
	return &Registry{
		tasks:     make(map[string]*task),
		ceiling:   maxConcurrent,
		retention: retention,
		now:       time.Now,
	}
}

// Ceiling returns the admission ceiling.
func (r *Registry) Ceiling() int {
	return r.ceiling
}

// Create admits a new task. It fails with a resource-exhausted error when
// the count of non-terminal tasks has reached the ceiling; the caller should
// retry later rather than queue.
func (r *Registry) Create(taskID, descriptor string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return services.Wrap(services.ErrInvalidInput, "tasks", "create", "empty task id", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	if _, exists := r.tasks[taskID]; exists {
		return services.Wrap(services.ErrInvalidInput, "tasks", "create", fmt.Sprintf("task %s already exists", taskID), nil)
	}
	if r.activeLocked() >= r.ceiling {
		return services.Wrap(services.ErrResourceExhausted, "tasks", "create", fmt.Sprintf("too many concurrent tasks (ceiling %d)", r.ceiling), nil)
	}

	r.tasks[taskID] = &task{
		id:         taskID,
		descriptor: descriptor,
		status:     StatusProcessing,
		startTime:  r.now(),
	}
	return nil
}

// UpdateProgress sets a task's progress. Values are clamped to [0,100] and
// never regress; callers are expected to report monotonically.
func (r *Registry) UpdateProgress(taskID string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return services.Wrap(services.ErrNotFound, "tasks", "progress", fmt.Sprintf("unknown task %s", taskID), nil)
	}
	if t.status.Terminal() {
		return nil
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	if value > t.progress {
		t.progress = value
	}
	return nil
}

// Complete marks a task completed with its result. Calling it (or Fail)
// again after a terminal state is reached is a no-op that preserves the
// first terminal result.
func (r *Registry) Complete(taskID, result string) error {
	return r.finish(taskID, StatusCompleted, result, "")
}

// Fail marks a task failed with an error message. Idempotent after a
// terminal state like Complete.
func (r *Registry) Fail(taskID, errMsg string) error {
	return r.finish(taskID, StatusFailed, "", errMsg)
}

func (r *Registry) finish(taskID string, status Status, result, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return services.Wrap(services.ErrNotFound, "tasks", "finish", fmt.Sprintf("unknown task %s", taskID), nil)
	}
	if t.status.Terminal() {
		return nil
	}
	t.status = status
	t.endTime = r.now()
	if status == StatusCompleted {
		t.progress = 100
		t.result = result
	} else {
		t.errMsg = errMsg
	}
	return nil
}

// Status returns a snapshot of one task.
func (r *Registry) Status(taskID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok {
		return Snapshot{}, services.Wrap(services.ErrNotFound, "tasks", "status", fmt.Sprintf("unknown task %s", taskID), nil)
	}
	return r.snapshotLocked(t), nil
}

// List returns snapshots of every known task ordered by start time.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, r.snapshotLocked(t))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].StartTime.Equal(out[b].StartTime) {
			return out[a].StartTime.Before(out[b].StartTime)
		}
		return out[a].TaskID < out[b].TaskID
	})
	return out
}

// Active returns the number of non-terminal tasks.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

func (r *Registry) snapshotLocked(t *task) Snapshot {
	snap := Snapshot{
		TaskID:     t.id,
		Descriptor: t.descriptor,
		Status:     t.status,
		StartTime:  t.startTime,
		Progress:   t.progress,
		Result:     t.result,
		Error:      t.errMsg,
	}
	end := t.endTime
	if end.IsZero() {
		end = r.now()
	}
	snap.Elapsed = end.Sub(t.startTime)
	if t.status == StatusProcessing && t.progress > 0 {
		remaining := float64(snap.Elapsed) * (100 - t.progress) / t.progress
		snap.EstimatedRemaining = time.Duration(remaining)
	}
	return snap
}

func (r *Registry) activeLocked() int {
	active := 0
	for _, t := range r.tasks {
		if !t.status.Terminal() {
			active++
		}
	}
	return active
}

func (r *Registry) sweepLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, t := range r.tasks {
		if t.status.Terminal() && t.endTime.Before(cutoff) {
			delete(r.tasks, id)
		}
	}
}
