// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package nativefake is an in-memory toolkit that records every native call.
// It enforces the native invariants the engine relies on (a widget has at most
// one parent, removing a non-child fails) so ordering bugs surface in tests.
package nativefake

import (
	"fmt"
	"strings"

	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
)

type CallRecord struct {
	Target native.Handle
	Class  string
	Method string
	Args   []any
}

func (cr CallRecord) String() string {
	return fmt.Sprintf("%s#%d.%s%v", cr.Class, cr.Target, cr.Method, cr.Args)
}

type handlerEntry struct {
	id      native.HandlerId
	signal  string
	fn      native.SignalHandler
	blocked bool
}

type methodFn func(args []any) (any, error)

type Object struct {
	tk        *Toolkit
	handle    native.Handle
	class     string
	Props     map[string]any
	Calls     []CallRecord
	handlers  []*handlerEntry
	methods   map[string]methodFn
	Destroyed bool
}

func (tk *Toolkit) makeObject(class string) *Object {
	tk.nextHandle++
	return &Object{
		tk:      tk,
		handle:  native.Handle(tk.nextHandle),
		class:   class,
		Props:   make(map[string]any),
		methods: make(map[string]methodFn),
	}
}

// NewObject creates a plain native object (no widget hierarchy).
func (tk *Toolkit) NewObject(class string) *Object {
	return tk.makeObject(class)
}

func (o *Object) Handle() native.Handle {
	return o.handle
}

func (o *Object) ClassName() string {
	return o.class
}

func (o *Object) record(method string, args []any) {
	rec := CallRecord{Target: o.handle, Class: o.class, Method: method, Args: args}
	o.Calls = append(o.Calls, rec)
	o.tk.Log = append(o.tk.Log, rec)
}

func (o *Object) Call(method string, args ...any) (any, error) {
	o.record(method, args)
	if o.Destroyed {
		return nil, fmt.Errorf("%s#%d.%s: object destroyed", o.class, o.handle, method)
	}
	if fn := o.methods[method]; fn != nil {
		return fn(args)
	}
	if strings.HasPrefix(method, "set") && len(args) == 1 {
		prop := util.KebabCase(method[3:])
		o.Props[prop] = args[0]
		o.Emit("notify::" + prop)
		return nil, nil
	}
	if strings.HasPrefix(method, "get") && len(args) == 0 {
		return o.Props[util.KebabCase(method[3:])], nil
	}
	return nil, nil
}

// CallsTo returns the recorded calls of one method on this object.
func (o *Object) CallsTo(method string) []CallRecord {
	var rtn []CallRecord
	for _, c := range o.Calls {
		if c.Method == method {
			rtn = append(rtn, c)
		}
	}
	return rtn
}

func (o *Object) Connect(signal string, handler native.SignalHandler) (native.HandlerId, error) {
	if o.Destroyed {
		return 0, fmt.Errorf("connect %q on destroyed %s", signal, o.class)
	}
	if o.tk.FailConnect != nil {
		if err := o.tk.FailConnect(o, signal); err != nil {
			return 0, err
		}
	}
	o.tk.nextHandlerId++
	entry := &handlerEntry{id: native.HandlerId(o.tk.nextHandlerId), signal: signal, fn: handler}
	o.handlers = append(o.handlers, entry)
	return entry.id, nil
}

func (o *Object) Disconnect(id native.HandlerId) {
	for i, entry := range o.handlers {
		if entry.id == id {
			o.handlers = append(o.handlers[:i], o.handlers[i+1:]...)
			return
		}
	}
}

func (o *Object) BlockHandler(id native.HandlerId) {
	for _, entry := range o.handlers {
		if entry.id == id {
			entry.blocked = true
		}
	}
}

func (o *Object) UnblockHandler(id native.HandlerId) {
	for _, entry := range o.handlers {
		if entry.id == id {
			entry.blocked = false
		}
	}
}

// HandlerCount returns the number of connected handlers for signal.
func (o *Object) HandlerCount(signal string) int {
	count := 0
	for _, entry := range o.handlers {
		if entry.signal == signal {
			count++
		}
	}
	return count
}

// Emit fires signal synchronously and returns the handler results.
func (o *Object) Emit(signal string, args ...any) []any {
	var rtn []any
	handlers := append([]*handlerEntry(nil), o.handlers...)
	for _, entry := range handlers {
		if entry.signal != signal || entry.blocked {
			continue
		}
		rtn = append(rtn, entry.fn(args...))
	}
	return rtn
}

func (o *Object) setMethod(name string, fn methodFn) {
	o.methods[name] = fn
}
