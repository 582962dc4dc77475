// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package nativefake

import (
	"time"

	"github.com/wavetermdev/nativetree/pkg/native"
)

// FrameClock is advanced manually by tests.
type FrameClock struct {
	now       time.Duration
	nextId    native.TickId
	callbacks map[native.TickId]func(time.Duration) bool
	order     []native.TickId
}

func MakeFrameClock() *FrameClock {
	return &FrameClock{callbacks: make(map[native.TickId]func(time.Duration) bool)}
}

func (fc *FrameClock) AddTickCallback(fn func(frameTime time.Duration) bool) native.TickId {
	fc.nextId++
	fc.callbacks[fc.nextId] = fn
	fc.order = append(fc.order, fc.nextId)
	return fc.nextId
}

func (fc *FrameClock) RemoveTickCallback(id native.TickId) {
	delete(fc.callbacks, id)
}

func (fc *FrameClock) Active() int {
	return len(fc.callbacks)
}

func (fc *FrameClock) Now() time.Duration {
	return fc.now
}

// Advance moves time forward by d and delivers one frame.
func (fc *FrameClock) Advance(d time.Duration) {
	fc.now += d
	var kept []native.TickId
	n := len(fc.order)
	for _, id := range fc.order[:n] {
		fn := fc.callbacks[id]
		if fn == nil {
			continue
		}
		if !fn(fc.now) {
			delete(fc.callbacks, id)
			continue
		}
		kept = append(kept, id)
	}
	// callbacks added during this frame
	for _, id := range fc.order[n:] {
		if fc.callbacks[id] != nil {
			kept = append(kept, id)
		}
	}
	fc.order = kept
}

// Run advances frame by frame until no callbacks remain or maxFrames is hit.
func (fc *FrameClock) Run(step time.Duration, maxFrames int) int {
	frames := 0
	for fc.Active() > 0 && frames < maxFrames {
		fc.Advance(step)
		frames++
	}
	return frames
}
