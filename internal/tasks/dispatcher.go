// Package tasks implements the on-demand background job queue and the
// periodic scheduler feeding it. Jobs run out of line from request
// handling on a worker pool; delivery is at-least-once under crash
// scenarios, so job bodies tolerate re-runs.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/observability"
)

// Handler executes one job kind. The returned string becomes the task
// result (e.g. a report artifact reference).
type Handler func(ctx context.Context, payload []byte) (string, error)

// Dispatcher owns the task queue, the task records and the worker pool.
type Dispatcher struct {
	mu       sync.RWMutex
	tasks    map[string]*Task
	handlers map[Kind]Handler

	queue   chan string
	workers int
	logger  *zap.Logger
	metrics *observability.Metrics

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewDispatcher builds a dispatcher with the given pool size and queue
// capacity.
func NewDispatcher(workers, queueSize int, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Dispatcher{
		tasks:    make(map[string]*Task),
		handlers: make(map[Kind]Handler),
		queue:    make(chan string, queueSize),
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
}

// Register binds a handler to a job kind. Must happen before Start.
func (d *Dispatcher) Register(kind Kind, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = handler
}

// Start launches the worker pool. Workers run until Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(ctx)
		}
		d.logger.Info("task dispatcher started", zap.Int("workers", d.workers))
	})
}

// Stop drains the workers. Queued tasks that never ran stay queued in
// the record map; callers polling them keep seeing pending.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

// Enqueue creates a task record and hands it to the worker pool. The
// caller never blocks on execution; the returned id is the polling
// handle.
func (d *Dispatcher) Enqueue(kind Kind, payload []byte) (string, error) {
	d.mu.Lock()
	if _, ok := d.handlers[kind]; !ok {
		d.mu.Unlock()
		return "", fmt.Errorf("no handler registered for task kind %q", kind)
	}
	task := &Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		State:      StateQueued,
		EnqueuedAt: time.Now(),
	}
	d.tasks[task.ID] = task
	d.mu.Unlock()

	select {
	case d.queue <- task.ID:
	default:
		d.mu.Lock()
		delete(d.tasks, task.ID)
		d.mu.Unlock()
		return "", fmt.Errorf("task queue full, rejecting %q", kind)
	}

	d.metrics.RecordTask(string(kind), "enqueued")
	return task.ID, nil
}

// GetResult reports task progress. Pending until a terminal state is
// recorded, then stable.
func (d *Dispatcher) GetResult(taskID string) (Result, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	task, ok := d.tasks[taskID]
	if !ok {
		return Result{}, false
	}
	return task.result(), true
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case taskID := <-d.queue:
			d.run(ctx, taskID)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, taskID string) {
	d.mu.Lock()
	task, ok := d.tasks[taskID]
	if !ok {
		d.mu.Unlock()
		return
	}
	handler := d.handlers[task.Kind]
	now := time.Now()
	task.State = StateRunning
	task.StartedAt = &now
	kind := task.Kind
	payload := task.Payload
	d.mu.Unlock()

	result, err := d.invoke(ctx, handler, payload, kind)

	d.mu.Lock()
	finished := time.Now()
	task.FinishedAt = &finished
	if err != nil {
		task.State = StateFailed
		task.Error = err.Error()
	} else {
		task.State = StateSucceeded
		task.Result = result
	}
	d.mu.Unlock()

	if err != nil {
		d.metrics.RecordTask(string(kind), "failed")
		d.logger.Warn("task failed", zap.String("task_id", taskID), zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	d.metrics.RecordTask(string(kind), "succeeded")
	d.logger.Info("task succeeded", zap.String("task_id", taskID), zap.String("kind", string(kind)))
}

func (d *Dispatcher) invoke(ctx context.Context, handler Handler, payload []byte, kind Kind) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", kind, r)
		}
	}()
	return handler(ctx, payload)
}
