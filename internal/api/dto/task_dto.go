package dto

// TaskAccepted acknowledges an enqueued background task.
type TaskAccepted struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
}

// TaskResult is a poll snapshot of a background task.
type TaskResult struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
	Value  string `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}
