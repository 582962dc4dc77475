// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package batchcall coalesces void native calls into a single dispatch.
package batchcall

import (
	"fmt"

	"github.com/wavetermdev/nativetree/pkg/native"
)

type Batcher struct {
	dispatcher native.BatchDispatcher
	depth      int
	queue      []native.Call
	Enabled    bool
	Dispatches int
}

// MakeBatcher returns a batcher; a nil dispatcher makes every call direct.
func MakeBatcher(dispatcher native.BatchDispatcher) *Batcher {
	return &Batcher{dispatcher: dispatcher, Enabled: dispatcher != nil}
}

func (b *Batcher) Active() bool {
	return b.Enabled && b.dispatcher != nil && b.depth > 0
}

func (b *Batcher) Begin() {
	b.depth++
}

func (b *Batcher) End() error {
	if b.depth == 0 {
		return nil
	}
	b.depth--
	if b.depth > 0 {
		return nil
	}
	return b.Flush()
}

// Run executes fn inside a batch.
func (b *Batcher) Run(fn func()) error {
	b.Begin()
	fn()
	return b.End()
}

// Void queues a call whose result is not needed. Outside a batch it runs now.
func (b *Batcher) Void(target native.Object, method string, args ...any) error {
	if target == nil {
		return fmt.Errorf("batchcall: nil target for %s", method)
	}
	if !b.Active() {
		_, err := target.Call(method, args...)
		return err
	}
	b.queue = append(b.queue, native.Call{Target: target, Method: method, Args: args})
	return nil
}

// Call runs a call whose result is needed. Pending void calls are flushed
// first so native ordering is preserved.
func (b *Batcher) Call(target native.Object, method string, args ...any) (any, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	return target.Call(method, args...)
}

func (b *Batcher) Pending() int {
	return len(b.queue)
}

func (b *Batcher) Flush() error {
	if len(b.queue) == 0 {
		return nil
	}
	calls := b.queue
	b.queue = nil
	if len(calls) == 1 || b.dispatcher == nil {
		for _, c := range calls {
			if _, err := c.Target.Call(c.Method, c.Args...); err != nil {
				return err
			}
		}
		return nil
	}
	b.Dispatches++
	return b.dispatcher.DispatchBatch(calls)
}
