// Package tasks owns the background jobs of the process. Jobs register a
// cancel function when they start; the admin stop endpoint and shutdown
// cancel them all.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrStopTimeout is returned by a cancel function whose task did not wind
// down in time.
var ErrStopTimeout = errors.New("task did not stop in time")

type entry struct {
	name   string
	cancel func() error
}

type Registry struct {
	mu          sync.Mutex
	tasks       []entry
	stopTimeout time.Duration
	log         *logrus.Entry
}

// NewRegistry returns an empty registry. stopTimeout bounds how long a
// cancel function waits for its task to return.
func NewRegistry(stopTimeout time.Duration, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{
		stopTimeout: stopTimeout,
		log:         log.WithField("component", "tasks"),
	}
}

// Register tracks a running task by the function that cancels it.
func (r *Registry) Register(name string, cancel func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = append(r.tasks, entry{name: name, cancel: cancel})
	r.log.WithField("task", name).Debug("task registered")
}

// Go runs fn in its own goroutine and registers it. Cancelling the task
// cancels its context and waits for fn to return.
func (r *Registry) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.WithError(err).WithField("task", name).Error("task failed")
		}
	}()

	r.Register(name, func() error {
		cancel()
		return r.wait(done)
	})
}

// Len reports how many tasks are tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// StopAll cancels every tracked task and clears the registry. Cancel
// errors and panics are logged, never returned. It reports how many tasks
// were cancelled.
func (r *Registry) StopAll() int {
	r.mu.Lock()
	tasks := r.tasks
	r.tasks = nil
	r.mu.Unlock()

	for _, t := range tasks {
		if err := safeCancel(t.cancel); err != nil {
			r.log.WithError(err).WithField("task", t.name).Warn("task cancel failed")
			continue
		}
		r.log.WithField("task", t.name).Info("task cancelled")
	}
	return len(tasks)
}

func (r *Registry) wait(done <-chan struct{}) error {
	if r.stopTimeout <= 0 {
		<-done
		return nil
	}

	timer := time.NewTimer(r.stopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

func safeCancel(cancel func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cancel panicked: %v", p)
		}
	}()
	return cancel()
}
