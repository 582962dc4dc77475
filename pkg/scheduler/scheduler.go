// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package scheduler orders the native mutations requested during a commit.
// Mutations are buffered between BeginCommit and EndCommit and flushed in two
// tiers (HIGH, then NORMAL), each in submission order.
package scheduler

import (
	"fmt"
	"log"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/wavetermdev/nativetree/pkg/util"
)

type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

type State int

const (
	StateIdle State = iota
	StateCommitting
)

func (s State) String() string {
	if s == StateCommitting {
		return "committing"
	}
	return "idle"
}

// Task is a schedulable mutation. Scheduling the same *Task more than once in a
// commit runs it once, so nodes keep their tasks around and reschedule them.
type Task struct {
	Id   string
	Name string
	Fn   func() error
}

func MakeTask(name string, fn func() error) *Task {
	return &Task{Id: uuid.New().String(), Name: name, Fn: fn}
}

func (t *Task) String() string {
	return fmt.Sprintf("%s[%s]", t.Name, t.Id[:8])
}

type Scheduler struct {
	depth        int
	high         *linkedhashset.Set
	normal       *linkedhashset.Set
	microtasks   []func()
	LogMutations bool
}

func MakeScheduler() *Scheduler {
	return &Scheduler{
		high:   linkedhashset.New(),
		normal: linkedhashset.New(),
	}
}

func (s *Scheduler) State() State {
	if s.depth > 0 {
		return StateCommitting
	}
	return StateIdle
}

// BeginCommit is idempotent while a commit is active; only the matching
// outermost EndCommit flushes.
func (s *Scheduler) BeginCommit() {
	s.depth++
}

// EndCommit flushes everything scheduled since the outermost BeginCommit. The
// buffers are swapped out before any task runs, so tasks scheduled from inside
// a running task execute immediately.
func (s *Scheduler) EndCommit() error {
	if s.depth == 0 {
		log.Printf("[scheduler] EndCommit called without BeginCommit\n")
		return nil
	}
	s.depth--
	if s.depth > 0 {
		return nil
	}
	high := s.high.Values()
	normal := s.normal.Values()
	s.high = linkedhashset.New()
	s.normal = linkedhashset.New()
	var errs *multierror.Error
	for _, tier := range [][]interface{}{high, normal} {
		for _, taskVal := range tier {
			task := taskVal.(*Task)
			if err := s.run(task); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	return errs.ErrorOrNil()
}

// Schedule buffers the task when a commit is active, otherwise runs it now.
func (s *Scheduler) Schedule(task *Task, prio Priority) error {
	if task == nil || task.Fn == nil {
		return nil
	}
	if s.depth == 0 {
		return s.run(task)
	}
	if s.high.Contains(task) || s.normal.Contains(task) {
		return nil
	}
	if s.LogMutations {
		log.Printf("[scheduler] queue %s (%s)\n", task, prio)
	}
	if prio == PriorityHigh {
		s.high.Add(task)
	} else {
		s.normal.Add(task)
	}
	return nil
}

// ScheduleFunc schedules a one-off closure. It is never deduplicated.
func (s *Scheduler) ScheduleFunc(name string, fn func(), prio Priority) error {
	if fn == nil {
		return nil
	}
	return s.Schedule(MakeTask(name, func() error { fn(); return nil }), prio)
}

// Pending returns the number of buffered tasks.
func (s *Scheduler) Pending() int {
	return s.high.Size() + s.normal.Size()
}

func (s *Scheduler) run(task *Task) error {
	if s.LogMutations {
		log.Printf("[scheduler] run %s\n", task)
	}
	var taskErr error
	panicErr := util.SafeCall("scheduled task "+task.Name, func() {
		taskErr = task.Fn()
	})
	if panicErr != nil {
		return panicErr
	}
	if taskErr != nil {
		return fmt.Errorf("%s: %w", task.Name, taskErr)
	}
	return nil
}

// QueueMicrotask defers fn to the next microtask boundary (RunMicrotasks).
func (s *Scheduler) QueueMicrotask(fn func()) {
	if fn == nil {
		return
	}
	s.microtasks = append(s.microtasks, fn)
}

func (s *Scheduler) PendingMicrotasks() int {
	return len(s.microtasks)
}

// RunMicrotasks drains the microtask queue, including microtasks queued while
// draining.
func (s *Scheduler) RunMicrotasks() error {
	var errs *multierror.Error
	for len(s.microtasks) > 0 {
		batch := s.microtasks
		s.microtasks = nil
		for _, fn := range batch {
			if err := util.SafeCall("microtask", fn); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	return errs.ErrorOrNil()
}
