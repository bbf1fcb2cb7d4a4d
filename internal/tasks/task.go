package tasks

import "time"

// Kind identifies a background job type.
type Kind string

const (
	KindExportReport       Kind = "export-report"
	KindMonthlyReport      Kind = "monthly-report"
	KindSingleNotification Kind = "single-notification"
	KindPendingReminder    Kind = "pending-reminder"
)

// State is the internal lifecycle of a task record.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Task records one enqueued job for its lifetime. Terminal on success
// or failure; there is no automatic retry.
type Task struct {
	ID         string
	Kind       Kind
	Payload    []byte
	State      State
	Result     string
	Error      string
	EnqueuedAt time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// ResultState is the caller-visible progress of a task.
type ResultState string

const (
	ResultPending   ResultState = "pending"
	ResultSucceeded ResultState = "succeeded"
	ResultFailed    ResultState = "failed"
)

// Result is a snapshot returned by GetResult. Safe to poll repeatedly;
// it reports pending until the task reaches a terminal state and never
// reverses.
type Result struct {
	TaskID string
	State  ResultState
	Value  string
	Error  string
}

func (t *Task) result() Result {
	res := Result{TaskID: t.ID, State: ResultPending}
	switch t.State {
	case StateSucceeded:
		res.State = ResultSucceeded
		res.Value = t.Result
	case StateFailed:
		res.State = ResultFailed
		res.Error = t.Error
	}
	return res
}
