// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package animation interpolates numeric property snapshots on a frame clock.
package animation

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
)

const SettleThreshold = 0.001

// max integration step for springs, so a stalled frame does not explode the simulation
const maxSpringStep = time.Second / 30

type track struct {
	prop     string
	from     float64
	to       float64
	value    float64
	velocity float64
	done     bool
}

type deadlineEntry struct {
	Prop     string
	Gen      int
	Deadline time.Duration
}

func deadlineComparator(aArg, bArg any) int {
	a := aArg.(deadlineEntry)
	b := bArg.(deadlineEntry)
	if a.Deadline < b.Deadline {
		return -1
	} else if a.Deadline > b.Deadline {
		return 1
	}
	return 0
}

// ApplyFn writes interpolated values to the target. Keys are prop names.
type ApplyFn func(values map[string]any) error

// Controller drives one target toward successive snapshots. Only numeric values
// interpolate; anything else is applied as soon as the transition starts.
type Controller struct {
	clock      native.FrameClock
	apply      ApplyFn
	current    map[string]float64
	tracks     map[string]*track
	deadlines  *binaryheap.Heap
	transition Transition
	easing     EasingFn
	gen        int
	tickId     native.TickId
	running    bool
	startTime  time.Duration
	lastTime   time.Duration
	started    bool
	onComplete func()
}

func MakeController(clock native.FrameClock, apply ApplyFn) *Controller {
	return &Controller{
		clock:     clock,
		apply:     apply,
		current:   make(map[string]float64),
		tracks:    make(map[string]*track),
		deadlines: binaryheap.NewWith(deadlineComparator),
	}
}

func (c *Controller) Running() bool {
	return c.running
}

// Values returns the last applied numeric values.
func (c *Controller) Values() map[string]float64 {
	rtn := make(map[string]float64, len(c.current))
	for k, v := range c.current {
		rtn[k] = v
	}
	return rtn
}

// Set applies a snapshot immediately and makes it the starting point of the next
// transition. A running transition is left untouched for props it does not name.
func (c *Controller) Set(snapshot map[string]any) error {
	for prop, val := range snapshot {
		if f, ok := util.ToFloat64(val); ok {
			c.current[prop] = f
			delete(c.tracks, prop)
		}
	}
	if len(snapshot) == 0 {
		return nil
	}
	return c.apply(snapshot)
}

// AnimateTo starts a transition from the current values to target. onComplete
// runs once when every prop settles; a transition superseded by another
// AnimateTo does not report completion.
func (c *Controller) AnimateTo(target map[string]any, tr Transition, onComplete func()) error {
	easing, err := Easing(tr.Easing)
	if err != nil {
		return err
	}
	c.gen++
	c.transition = tr
	c.easing = easing
	c.onComplete = onComplete
	c.started = false
	c.deadlines.Clear()
	for _, tr := range c.tracks {
		tr.from = tr.value
	}
	immediate := make(map[string]any)
	for prop, val := range target {
		to, ok := util.ToFloat64(val)
		if !ok {
			immediate[prop] = val
			continue
		}
		from, known := c.current[prop]
		if !known {
			from = to
		}
		// keep velocity when a spring is retargeted mid-flight
		var velocity float64
		if old := c.tracks[prop]; old != nil && !old.done {
			from = old.value
			velocity = old.velocity
		}
		c.tracks[prop] = &track{prop: prop, from: from, to: to, value: from, velocity: velocity}
	}
	if len(immediate) > 0 {
		if err := c.apply(immediate); err != nil {
			return err
		}
	}
	if len(c.tracks) == 0 {
		c.finish()
		return nil
	}
	if !c.running {
		c.running = true
		c.tickId = c.clock.AddTickCallback(c.tick)
	}
	return nil
}

// Stop cancels the running transition where it is, without completion.
func (c *Controller) Stop() {
	if c.running {
		c.clock.RemoveTickCallback(c.tickId)
	}
	c.running = false
	c.tracks = make(map[string]*track)
	c.deadlines.Clear()
	c.onComplete = nil
}

func (c *Controller) tick(frameTime time.Duration) bool {
	if !c.running {
		return false
	}
	if !c.started {
		c.started = true
		c.startTime = frameTime
		c.lastTime = frameTime
		if c.transition.Type == TransitionTimed {
			deadline := frameTime + ms(c.transition.Delay+c.transition.Duration)
			for prop := range c.tracks {
				c.deadlines.Push(deadlineEntry{Prop: prop, Gen: c.gen, Deadline: deadline})
			}
		}
	}
	if c.transition.Type == TransitionSpring {
		c.stepSpring(frameTime)
	} else {
		c.stepTimed(frameTime)
	}
	c.lastTime = frameTime
	values := make(map[string]any, len(c.tracks))
	allDone := true
	for prop, tr := range c.tracks {
		values[prop] = tr.value
		c.current[prop] = tr.value
		if !tr.done {
			allDone = false
		}
	}
	if err := c.apply(values); err != nil {
		log.Printf("[animation] error applying frame: %v\n", err)
	}
	if allDone {
		c.running = false
		c.tracks = make(map[string]*track)
		c.finish()
		return false
	}
	return true
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

func (c *Controller) stepTimed(frameTime time.Duration) {
	elapsed := frameTime - c.startTime - ms(c.transition.Delay)
	progress := 1.0
	if c.transition.Duration > 0 {
		progress = clamp01(float64(elapsed) / float64(ms(c.transition.Duration)))
	}
	eased := c.easing(progress)
	for _, tr := range c.tracks {
		tr.value = lerp(tr.from, tr.to, eased)
	}
	// tracks whose deadline passed snap to their target
	for !c.deadlines.Empty() {
		topVal, _ := c.deadlines.Peek()
		top := topVal.(deadlineEntry)
		if top.Deadline > frameTime {
			break
		}
		c.deadlines.Pop()
		if top.Gen != c.gen {
			continue
		}
		if tr := c.tracks[top.Prop]; tr != nil {
			tr.value = tr.to
			tr.done = true
		}
	}
}

func (c *Controller) stepSpring(frameTime time.Duration) {
	dt := frameTime - c.lastTime
	if dt > maxSpringStep {
		dt = maxSpringStep
	}
	if frameTime-c.startTime < ms(c.transition.Delay) {
		return
	}
	secs := dt.Seconds()
	k := c.transition.Stiffness
	d := c.transition.Damping
	m := c.transition.Mass
	for _, tr := range c.tracks {
		if tr.done {
			continue
		}
		force := -k*(tr.value-tr.to) - d*tr.velocity
		tr.velocity += force / m * secs
		tr.value += tr.velocity * secs
		if math.Abs(tr.velocity) < SettleThreshold && math.Abs(tr.value-tr.to) < SettleThreshold {
			tr.value = tr.to
			tr.velocity = 0
			tr.done = true
		}
	}
}

func (c *Controller) finish() {
	fn := c.onComplete
	c.onComplete = nil
	if fn != nil {
		if err := util.SafeCall("animation complete", fn); err != nil {
			log.Printf("[animation] %v\n", err)
		}
	}
}

// Props returns the numeric prop names of the last snapshot, sorted.
func (c *Controller) Props() []string {
	rtn := make([]string, 0, len(c.current))
	for k := range c.current {
		rtn = append(rtn, k)
	}
	sort.Strings(rtn)
	return rtn
}
