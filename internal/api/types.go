package api

import (
	"time"

	"blugr/internal/docstore"
	"blugr/internal/tasks"
)

// ProcessRequest asks the daemon to turn a video URL into an article.
type ProcessRequest struct {
	URL string `json:"url"`
}

// ProcessResponse acknowledges an accepted processing request. The content
// id is not known until metadata resolves; poll the task for the result.
type ProcessResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// TaskView is the wire representation of one background task.
type TaskView struct {
	TaskID           string    `json:"task_id"`
	Descriptor       string    `json:"descriptor"`
	Status           string    `json:"status"`
	Progress         float64   `json:"progress"`
	StartTime        time.Time `json:"start_time"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
	RemainingSeconds float64   `json:"estimated_remaining_seconds,omitempty"`
	Result           string    `json:"result,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// TaskListResponse wraps the task listing endpoint payload.
type TaskListResponse struct {
	Tasks []TaskView `json:"tasks"`
}

// ContentResponse wraps a stored content item.
type ContentResponse struct {
	Item docstore.Item `json:"item"`
}

// HealthResponse reports daemon liveness and load.
type HealthResponse struct {
	Status      string `json:"status"`
	ActiveTasks int    `json:"active_tasks"`
	TaskCeiling int    `json:"task_ceiling"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromSnapshot converts a registry snapshot into its wire form.
func FromSnapshot(snap tasks.Snapshot) TaskView {
	return TaskView{
		TaskID:           snap.TaskID,
		Descriptor:       snap.Descriptor,
		Status:           string(snap.Status),
		Progress:         snap.Progress,
		StartTime:        snap.StartTime,
		ElapsedSeconds:   snap.Elapsed.Seconds(),
		RemainingSeconds: snap.EstimatedRemaining.Seconds(),
		Result:           snap.Result,
		Error:            snap.Error,
	}
}
