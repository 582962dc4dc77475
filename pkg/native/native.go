// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package native holds the contracts the engine consumes from the native toolkit
// binding layer. Nothing here performs foreign calls; implementations live in the
// generated bindings (or nativefake for tests).
package native

import "time"

type Handle uint64

type HandlerId uint64

// SignalHandler receives the marshalled signal arguments. The return value is
// handed back to the toolkit for signals that expect one.
type SignalHandler func(args ...any) any

// Object is any instance of the native object system.
type Object interface {
	Handle() Handle
	ClassName() string
	// Call invokes a method by its camelCase accessor name.
	Call(method string, args ...any) (any, error)
	Connect(signal string, handler SignalHandler) (HandlerId, error)
	// Disconnect is a no-op for unknown ids.
	Disconnect(id HandlerId)
	BlockHandler(id HandlerId)
	UnblockHandler(id HandlerId)
}

// Widget is an Object that participates in the native widget hierarchy.
type Widget interface {
	Object
	// Parent returns the current native parent, or nil when unparented.
	Parent() Widget
	Destroy()
}

// StringList is the native list model used to materialize rows.
// Its strings are degenerate keys, row data lives elsewhere.
type StringList interface {
	Object
	Splice(position int, nRemovals int, additions []string) error
	NItems() int
	GetString(position int) string
}

// TreeListModel flattens a root StringList and lazily created child lists.
type TreeListModel interface {
	Object
	NItems() int
	KeyAt(position int) string
	PositionOf(key string) int
	SetExpanded(key string, expanded bool) error
}

// SelectionModel wraps a list model and exposes its selection as a bitset of
// row positions.
type SelectionModel interface {
	Object
	Selection() []uint
	SetSelection(positions []uint) error
}

// ListItem is a recycled row handed out by a list view factory.
type ListItem interface {
	Handle() Handle
	// ModelKey returns the degenerate key string of the bound model row.
	ModelKey() string
	Position() int
	SetChild(w Widget)
}

type ListItemCallback func(item ListItem)

// ListItemFactory forwards the view's row lifecycle to Go callbacks.
type ListItemFactory interface {
	Object
	OnSetup(fn ListItemCallback)
	OnBind(fn ListItemCallback)
	OnUnbind(fn ListItemCallback)
	OnTeardown(fn ListItemCallback)
}

type TickId uint64

// FrameClock delivers per-frame callbacks. A callback returning false is removed.
type FrameClock interface {
	AddTickCallback(fn func(frameTime time.Duration) bool) TickId
	RemoveTickCallback(id TickId)
}

// Call is one void native method invocation, used for batching.
type Call struct {
	Target Object
	Method string
	Args   []any
}

// Toolkit constructs the non-widget native helpers the engine needs.
type Toolkit interface {
	NewStringList(keys []string) (StringList, error)
	NewTreeListModel(root StringList, createChild func(key string) StringList) (TreeListModel, error)
	NewSelectionModel(mode string, model Object) (SelectionModel, error)
	NewListItemFactory() (ListItemFactory, error)
	FrameClock() FrameClock
	// IdleAdd runs fn once from the main loop, after the native callback that is
	// currently on the stack has returned.
	IdleAdd(fn func())
}

// BatchDispatcher is implemented by toolkits that can run several void calls
// with a single crossing into native code.
type BatchDispatcher interface {
	DispatchBatch(calls []Call) error
}
