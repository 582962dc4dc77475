// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"
	"reflect"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/outrigdev/goid"
	"github.com/wavetermdev/nativetree/pkg/animation"
	"github.com/wavetermdev/nativetree/pkg/batchcall"
	"github.com/wavetermdev/nativetree/pkg/econfig"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/scheduler"
	"github.com/wavetermdev/nativetree/pkg/signalstore"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

type RootOpts struct {
	Registry *native.Registry
	Toolkit  native.Toolkit
	// Dispatcher enables batched void calls; usually the toolkit itself.
	Dispatcher native.BatchDispatcher
	// Surface, when set, is the native widget top-level nodes are mounted under.
	// Without one, top-level nodes must be windows.
	Surface  native.Widget
	Settings *econfig.Settings
}

// RootContainer is the top-level native surface plus everything the nodes
// mounted under it share. Every node receives it explicitly.
type RootContainer struct {
	Id         string
	Registry   *native.Registry
	Toolkit    native.Toolkit
	Scheduler  *scheduler.Scheduler
	Batcher    *batchcall.Batcher
	Signals    *signalstore.Store
	Clock      native.FrameClock
	Settings   econfig.Settings
	Components map[string]vdom.Component

	node          Node
	ownerGoId     uint64
	dispatchDepth int
	idleQueued    bool
}

func MakeRootContainer(opts RootOpts) (*RootContainer, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("root container needs a class registry")
	}
	settings := econfig.DefaultSettings()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	r := &RootContainer{
		Id:         uuid.New().String(),
		Registry:   opts.Registry,
		Toolkit:    opts.Toolkit,
		Scheduler:  scheduler.MakeScheduler(),
		Batcher:    batchcall.MakeBatcher(opts.Dispatcher),
		Signals:    signalstore.MakeStore(),
		Components: make(map[string]vdom.Component),
		ownerGoId:  goid.Get(),
	}
	if opts.Toolkit != nil {
		r.Clock = opts.Toolkit.FrameClock()
	}
	r.Signals.Wrap = r.wrapHandler
	r.ApplySettings(settings)
	if opts.Surface != nil {
		className := opts.Surface.ClassName()
		node, err := MakeWidgetNodeFromInstance(r, className, opts.Surface, nil)
		if err != nil {
			return nil, fmt.Errorf("wrapping root surface: %w", err)
		}
		r.node = node
	} else {
		r.node = makeWindowsNode(r)
	}
	return r, nil
}

// ApplySettings must be called on the owning goroutine; econfig.Watcher
// subscribers hand their updates over before calling it.
func (r *RootContainer) ApplySettings(s econfig.Settings) {
	r.Settings = s
	r.Scheduler.LogMutations = s.LogMutations
	r.Batcher.Enabled = s.BatchCalls
}

// Node is the container node top-level children are appended to.
func (r *RootContainer) Node() Node {
	return r.node
}

func (r *RootContainer) RegisterComponent(name string, fn vdom.Component) {
	r.Components[name] = fn
}

func (r *RootContainer) checkThread(op string) error {
	if !r.Settings.ThreadCheck {
		return nil
	}
	if gid := goid.Get(); gid != r.ownerGoId {
		return Errorf(ErrCodeThread, "%s called from goroutine %d, root is owned by goroutine %d", op, gid, r.ownerGoId)
	}
	return nil
}

func (r *RootContainer) BeginCommit() {
	r.Scheduler.BeginCommit()
	r.Batcher.Begin()
}

// EndCommit flushes scheduled mutations, then the batched native calls.
func (r *RootContainer) EndCommit() error {
	var rtnErr error
	if err := r.Scheduler.EndCommit(); err != nil {
		rtnErr = multierror.Append(rtnErr, err)
	}
	if err := r.Batcher.End(); err != nil {
		rtnErr = multierror.Append(rtnErr, err)
	}
	return rtnErr
}

// RunMicrotasks drains the microtask queue unless a commit or a native callback
// is still on the stack.
func (r *RootContainer) RunMicrotasks() error {
	if r.dispatchDepth > 0 || r.Scheduler.State() == scheduler.StateCommitting {
		return nil
	}
	return r.Scheduler.RunMicrotasks()
}

// QueueMicrotask defers fn until the native stack has unwound: the next
// ResetAfterCommit or the toolkit's next idle turn, whichever comes first.
func (r *RootContainer) QueueMicrotask(fn func()) {
	r.Scheduler.QueueMicrotask(fn)
	if r.idleQueued || r.Toolkit == nil {
		return
	}
	r.idleQueued = true
	r.Toolkit.IdleAdd(r.runIdle)
}

func (r *RootContainer) runIdle() {
	r.idleQueued = false
	if err := r.RunMicrotasks(); err != nil {
		log.Printf("[engine] running microtasks: %v\n", err)
	}
}

// Dispatch runs a native callback. Microtasks it queues never run before it
// returns to the native caller.
func (r *RootContainer) Dispatch(debugStr string, fn func()) error {
	r.dispatchDepth++
	defer func() { r.dispatchDepth-- }()
	return util.SafeCall(debugStr, fn)
}

func (r *RootContainer) wrapHandler(owner string, event string, handler native.SignalHandler) native.SignalHandler {
	return func(args ...any) any {
		var rtn any
		err := r.Dispatch(fmt.Sprintf("signal %s (%s)", event, owner[:8]), func() {
			rtn = handler(args...)
		})
		if err != nil {
			log.Printf("[engine] %v\n", err)
		}
		return rtn
	}
}

// call is a native call whose result is needed; pending batched calls go first.
func (r *RootContainer) call(target native.Object, method string, args ...any) (any, error) {
	return r.Batcher.Call(target, method, args...)
}

func (r *RootContainer) void(target native.Object, method string, args ...any) error {
	if r.Settings.LogMutations {
		log.Printf("[engine] %s.%s%v\n", target.ClassName(), method, args)
	}
	return r.Batcher.Void(target, method, args...)
}

// nativeParent reads a widget's live native parent, flushing queued calls first.
func (r *RootContainer) nativeParent(w native.Widget) (native.Widget, error) {
	if err := r.Batcher.Flush(); err != nil {
		return nil, err
	}
	return w.Parent(), nil
}

func (r *RootContainer) transitionDefaults() animation.Transition {
	return animation.Transition{
		Type:      animation.TransitionTimed,
		Duration:  r.Settings.AnimDuration,
		Easing:    r.Settings.AnimEasing,
		Stiffness: r.Settings.AnimSpringStiffness,
		Damping:   r.Settings.AnimSpringDamping,
		Mass:      r.Settings.AnimSpringMass,
	}
}

// toSignalHandler adapts a Go func prop to a native signal handler. Accepted
// shapes: func(), func(args ...any), func(args ...any) any, or any func whose
// parameters the signal arguments can be converted to.
func toSignalHandler(val any) (native.SignalHandler, error) {
	switch fn := val.(type) {
	case nil:
		return nil, nil
	case native.SignalHandler:
		return fn, nil
	case func(args ...any) any:
		return fn, nil
	case func(args ...any):
		return func(args ...any) any { fn(args...); return nil }, nil
	case func():
		return func(args ...any) any { fn(); return nil }, nil
	}
	rval := reflect.ValueOf(val)
	if rval.Kind() != reflect.Func {
		return nil, fmt.Errorf("event handler must be a func, got %T", val)
	}
	rtype := rval.Type()
	return func(args ...any) any {
		in := make([]reflect.Value, rtype.NumIn())
		for i := range in {
			argType := rtype.In(i)
			if i < len(args) && args[i] != nil {
				argVal := reflect.ValueOf(args[i])
				if argVal.Type().AssignableTo(argType) {
					in[i] = argVal
					continue
				}
				if argVal.Type().ConvertibleTo(argType) {
					in[i] = argVal.Convert(argType)
					continue
				}
			}
			in[i] = reflect.Zero(argType)
		}
		var out []reflect.Value
		if rtype.IsVariadic() {
			out = rval.CallSlice(in)
		} else {
			out = rval.Call(in)
		}
		if len(out) == 0 {
			return nil
		}
		return out[0].Interface()
	}, nil
}
