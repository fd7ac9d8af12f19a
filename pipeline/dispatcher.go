// This file is part of c2t.
//
// c2t is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// c2t is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with c2t.  If not, see <https://www.gnu.org/licenses/>.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qdt/c2t/logger"
)

// Status of a Stepper after one step.
type Status int

// List of valid Status values.
const (
	// the stepper could not make progress. it is waiting on something
	Idle Status = iota

	// the stepper made progress and can continue immediately
	Busy

	// the stepper has finished and will not be stepped again
	Finished
)

// Stepper is a unit of work that is advanced in small steps by a Dispatcher.
type Stepper interface {
	Step() (Status, error)
}

// Task adapts a Pipeline for use with a Dispatcher. The output of the last
// stage is discarded and each completed round counts as progress. The last
// stage should therefore be the consumer of the pipeline's work.
type Task[T any] struct {
	Name string
	p    *Pipeline[T]

	// number of completed rounds
	Rounds int
}

// NewTask is the preferred method of initialisation for the Task type.
func NewTask[T any](name string, stages ...Stage[T]) *Task[T] {
	return &Task[T]{
		Name: name,
		p:    New(stages...),
	}
}

// Step implements the Stepper interface.
func (t *Task[T]) Step() (Status, error) {
	r, err := t.p.Round()
	if err != nil {
		return Finished, err
	}
	switch r.Kind {
	case Output:
		t.Rounds++
		return Busy, nil
	case Done:
		return Finished, nil
	}
	return Idle, nil
}

func (t *Task[T]) String() string {
	return t.Name
}

// DefaultIdleSleep is the length of time a Dispatcher sleeps when no task
// made progress during a cycle.
const DefaultIdleSleep = 10 * time.Millisecond

// Dispatcher interleaves a number of Steppers on a single goroutine. Each
// cycle steps every remaining Stepper once.
type Dispatcher struct {
	tasks     []Stepper
	IdleSleep time.Duration
}

// NewDispatcher is the preferred method of initialisation for the Dispatcher
// type.
func NewDispatcher(tasks ...Stepper) *Dispatcher {
	return &Dispatcher{
		tasks:     tasks,
		IdleSleep: DefaultIdleSleep,
	}
}

// Add a Stepper to the dispatcher.
func (d *Dispatcher) Add(t Stepper) {
	d.tasks = append(d.tasks, t)
}

// Len returns the number of tasks that have not finished.
func (d *Dispatcher) Len() int {
	return len(d.tasks)
}

// Poll steps every task once. Finished and failed tasks are removed. Returns
// true if any task made progress.
func (d *Dispatcher) Poll() (bool, error) {
	var busy bool
	var errs []error

	remaining := d.tasks[:0]
	for _, t := range d.tasks {
		st, err := t.Step()
		if err != nil {
			logger.Logf(logger.Allow, "dispatcher", "%v: %v", t, err)
			errs = append(errs, fmt.Errorf("%v: %w", t, err))
			continue
		}
		switch st {
		case Busy:
			busy = true
			remaining = append(remaining, t)
		case Idle:
			remaining = append(remaining, t)
		}
	}
	clear(d.tasks[len(remaining):])
	d.tasks = remaining

	return busy, errors.Join(errs...)
}

// Run the dispatcher until every task has finished or the context is
// cancelled. A task that fails is removed and the remaining tasks continue.
// The returned error combines the errors of all failed tasks.
func (d *Dispatcher) Run(ctx context.Context) error {
	var errs []error

	for len(d.tasks) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		busy, err := d.Poll()
		if err != nil {
			errs = append(errs, err)
		}

		if !busy && len(d.tasks) > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(d.IdleSleep):
			}
		}
	}

	return errors.Join(errs...)
}
