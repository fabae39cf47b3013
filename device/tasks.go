package device

import (
	"time"

	"github.com/google/uuid"

	"github.com/openlabkit/labware/logger"
)

// TaskFunc is a periodic device action run by a background task, typically
// a Send over the device's vocabulary.
type TaskFunc func() (any, error)

// TaskResult is one outcome of a background task invocation.
type TaskResult struct {
	Value any
	Err   error
	At    time.Time
}

// Task is a periodically running device action. Results are collected into
// a bounded queue readable through Results; when the queue fills up, new
// results are dropped.
type Task struct {
	// ID identifies the task within the controller's registry.
	ID uuid.UUID

	interval time.Duration
	fn       TaskFunc
	logger   logger.Logger

	results chan TaskResult
	stopCh  chan struct{}
	doneCh  chan struct{}
}

const taskResultsCapacity = 100

// Results returns the task's result queue. Nil results from the task
// function are not queued.
func (t *Task) Results() <-chan TaskResult {
	return t.results
}

// Interval returns the task's execution interval.
func (t *Task) Interval() time.Duration {
	return t.interval
}

func (t *Task) run() {
	defer close(t.doneCh)

	t.logger.Info("background task started", "interval", t.interval)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		v, err := t.fn()
		if v != nil || err != nil {
			select {
			case t.results <- TaskResult{Value: v, Err: err, At: time.Now()}:
			default:
				t.logger.Warn("task result queue full, dropping result", "result", v)
			}
		}

		select {
		case <-t.stopCh:
			t.logger.Info("background task exiting")
			return
		case <-ticker.C:
		}
	}
}

// StartTask runs fn every interval in the background and registers the task
// with this controller. The first invocation happens immediately.
func (c *Controller) StartTask(interval time.Duration, fn TaskFunc) *Task {
	t := &Task{
		ID:       uuid.New(),
		interval: interval,
		fn:       fn,
		results:  make(chan TaskResult, taskResultsCapacity),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	t.logger = c.logger.With("task_id", t.ID.String())

	c.tasksMu.Lock()
	c.tasks = append(c.tasks, t)
	c.tasksMu.Unlock()

	go t.run()

	return t
}

// StopTask signals the task to stop, waits for its goroutine to exit and
// removes it from the registry. Stopping an unknown or already stopped task
// is a no-op.
func (c *Controller) StopTask(t *Task) {
	if t == nil {
		return
	}

	c.tasksMu.Lock()
	found := false
	for i, task := range c.tasks {
		if task == t {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			found = true
			break
		}
	}
	c.tasksMu.Unlock()
	if !found {
		return
	}

	close(t.stopCh)
	<-t.doneCh
}

// StopAllTasks stops every registered background task and waits for each to
// exit.
func (c *Controller) StopAllTasks() {
	c.tasksMu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.tasksMu.Unlock()

	for _, t := range tasks {
		close(t.stopCh)
		<-t.doneCh
	}
}

// Tasks returns a snapshot of the currently registered tasks, in start
// order.
func (c *Controller) Tasks() []*Task {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()

	out := make([]*Task, len(c.tasks))
	copy(out, c.tasks)

	return out
}
