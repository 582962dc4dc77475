// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
)

func TestAppendInsertReorder(t *testing.T) {
	_, _, h := makeTestRoot(t)
	box := mustCreate(t, h, "GtkBox", nil)
	a := mustCreate(t, h, "GtkLabel", map[string]any{"label": "a"})
	b := mustCreate(t, h, "GtkLabel", map[string]any{"label": "b"})
	c := mustCreate(t, h, "GtkLabel", map[string]any{"label": "c"})
	mustAppend(t, h, box, a)
	mustAppend(t, h, box, b)
	if err := h.InsertBefore(box, c, b); err != nil {
		t.Fatalf("InsertBefore: %v", err)
	}
	checkChildren(t, box, a, c, b)
	checkNativeChildren(t, box, a, c, b)

	// reordering an existing child never removes it
	if err := h.InsertBefore(box, b, a); err != nil {
		t.Fatalf("InsertBefore reorder: %v", err)
	}
	checkChildren(t, box, b, a, c)
	checkNativeChildren(t, box, b, a, c)
	if removes := fakeOf(t, box).CallsTo("remove"); len(removes) != 0 {
		t.Fatalf("reorder issued remove calls: %v", removes)
	}
	mustAppend(t, h, box, b)
	checkChildren(t, box, a, c, b)
	checkNativeChildren(t, box, a, c, b)

	if err := h.RemoveChild(box, c); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	checkChildren(t, box, a, b)
	checkNativeChildren(t, box, a, b)
	if c.Parent() != nil {
		t.Fatalf("removed child still has a parent")
	}
}

func TestStructuralErrors(t *testing.T) {
	_, _, h := makeTestRoot(t)
	box := mustCreate(t, h, "GtkBox", nil)
	label := mustCreate(t, h, "GtkLabel", nil)
	other := mustCreate(t, h, "GtkLabel", nil)

	if err := h.AppendChild(label, other); !IsStructural(err) {
		t.Fatalf("appending into a plain widget: got %v, want structural error", err)
	}
	if err := h.RemoveChild(box, label); !IsStructural(err) {
		t.Fatalf("removing a non-child: got %v, want structural error", err)
	}
	if err := h.InsertBefore(box, label, other); !IsStructural(err) {
		t.Fatalf("inserting before a non-child: got %v, want structural error", err)
	}
	mustAppend(t, h, box, label)
	other2 := mustCreate(t, h, "GtkBox", nil)
	if err := h.AppendChild(other2, label); !IsStructural(err) {
		t.Fatalf("adopting a child that has a parent: got %v, want structural error", err)
	}

	button := mustCreate(t, h, "GtkButton", nil)
	mustAppend(t, h, button, other)
	third := mustCreate(t, h, "GtkLabel", nil)
	if err := h.AppendChild(button, third); !IsStructural(err) {
		t.Fatalf("second child of a single-child widget: got %v, want structural error", err)
	}

	if _, err := h.CreateInstance("Slot", nil); !IsStructural(err) {
		t.Fatalf("slot without id: got %v, want structural error", err)
	}
	if _, err := h.CreateInstance("NoSuchWidget", nil); !IsStructural(err) {
		t.Fatalf("unknown type: got %v, want structural error", err)
	}
	if _, err := h.CreateInstance("GridChild", map[string]any{"columnSpan": 0}); !IsStructural(err) {
		t.Fatalf("zero grid span: got %v, want structural error", err)
	}

	item := mustCreate(t, h, "ListItem", map[string]any{"id": "1"})
	if err := h.AppendChild(box, item); !IsStructural(err) {
		t.Fatalf("list item outside a list view: got %v, want structural error", err)
	}
	seg, err := h.CreateTextInstance("x")
	if err != nil {
		t.Fatalf("CreateTextInstance: %v", err)
	}
	if err := h.AppendChild(box, seg); !IsStructural(err) {
		t.Fatalf("text outside a text view: got %v, want structural error", err)
	}
}

func TestMissingAnchor(t *testing.T) {
	_, _, h := makeTestRoot(t)
	slot := mustCreate(t, h, "Slot", map[string]any{"id": "titlebar"}).(*SlotNode)
	if _, err := slot.ChildWidget(); !IsMissingAnchor(err) {
		t.Fatalf("ChildWidget before a child: got %v, want missing anchor", err)
	}
	if _, err := slot.ParentWidget(); !IsMissingAnchor(err) {
		t.Fatalf("ParentWidget before a parent: got %v, want missing anchor", err)
	}
	anchor := mustCreate(t, h, "TextAnchor", nil).(*TextAnchor)
	if _, err := anchor.Anchor(); !IsMissingAnchor(err) {
		t.Fatalf("Anchor before materialization: got %v, want missing anchor", err)
	}
}

func TestThreadCheck(t *testing.T) {
	_, _, h := makeTestRoot(t)
	done := make(chan error)
	go func() {
		_, err := h.CreateInstance("GtkLabel", nil)
		done <- err
	}()
	err := <-done
	if GetErrorCode(err) != ErrCodeThread {
		t.Fatalf("CreateInstance off the owner goroutine: got %v, want thread error", err)
	}
}

func TestMicrotasksWaitForNativeStack(t *testing.T) {
	root, tk, h := makeTestRoot(t)
	ran := 0
	err := root.Dispatch("callback", func() {
		root.QueueMicrotask(func() { ran++ })
		commit(t, h, func() {})
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ran != 0 {
		t.Fatalf("microtask ran inside the native callback")
	}
	tk.RunIdle()
	if ran != 1 {
		t.Fatalf("microtask ran %d times after idle, want 1", ran)
	}
	if tk.RunIdle() != 0 {
		t.Fatalf("idle callback queued twice")
	}
}

func TestMicrotasksDrainAfterFailedCommit(t *testing.T) {
	root, tk, h := makeTestRoot(t)
	ran := false
	box := mustCreate(t, h, "GtkBox", nil)
	slot := mustCreate(t, h, "Slot", map[string]any{"id": "nosuchslot"})
	mustAppend(t, h, slot, mustCreate(t, h, "GtkLabel", nil))
	if err := h.PrepareForCommit(); err != nil {
		t.Fatalf("PrepareForCommit: %v", err)
	}
	mustAppend(t, h, box, slot)
	root.QueueMicrotask(func() { ran = true })
	if err := h.ResetAfterCommit(); !IsStructural(err) {
		t.Fatalf("ResetAfterCommit: got %v, want structural error", err)
	}
	if !ran {
		t.Fatalf("microtask not drained after a failed commit")
	}
	if root.Scheduler.PendingMicrotasks() != 0 {
		t.Fatalf("pending microtasks = %d, want 0", root.Scheduler.PendingMicrotasks())
	}
	tk.RunIdle()
}

func TestWindowsPresented(t *testing.T) {
	tk := nativefake.MakeToolkit()
	root, err := MakeRootContainer(RootOpts{Registry: tk.Registry(), Toolkit: tk, Dispatcher: tk})
	if err != nil {
		t.Fatalf("MakeRootContainer: %v", err)
	}
	h := MakeHost(root)
	win := mustCreate(t, h, "GtkWindow", map[string]any{"title": "main"})
	if err := h.AppendChildToContainer(win); err != nil {
		t.Fatalf("AppendChildToContainer: %v", err)
	}
	if calls := fakeOf(t, win).CallsTo("present"); len(calls) != 1 {
		t.Fatalf("present called %d times, want 1", len(calls))
	}
	label := mustCreate(t, h, "GtkLabel", nil)
	if err := h.AppendChildToContainer(label); !IsStructural(err) {
		t.Fatalf("non-window at the top level: got %v, want structural error", err)
	}
}

// TestRandomChildSequences mirrors random append/insert/remove mixes in a
// plain slice and checks both the node links and the native order after
// every step, once applying each step directly and once inside a commit.
func TestRandomChildSequences(t *testing.T) {
	for _, batched := range []bool{false, true} {
		for seed := uint64(1); seed <= 12; seed++ {
			t.Run(fmt.Sprintf("batched=%v/seed=%d", batched, seed), func(t *testing.T) {
				runChildSequence(t, seed, batched)
			})
		}
	}
}

func runChildSequence(t *testing.T, seed uint64, batched bool) {
	_, _, h := makeTestRoot(t)
	rnd := rand.New(rand.NewPCG(seed, seed*7919))
	box := mustCreate(t, h, "GtkBox", nil)
	pool := make([]Node, 6)
	for i := range pool {
		pool[i] = mustCreate(t, h, "GtkLabel", map[string]any{"label": fmt.Sprint(i)})
	}
	var want []Node
	apply := func(desc string, fn func() error) {
		t.Helper()
		var err error
		if batched {
			commit(t, h, func() { err = fn() })
		} else {
			err = fn()
		}
		if err != nil {
			t.Fatalf("%s: %v", desc, err)
		}
	}
	for step := 0; step < 60; step++ {
		child := pool[rnd.IntN(len(pool))]
		switch op := rnd.IntN(3); {
		case op == 0 || len(want) == 0:
			apply("append", func() error { return h.AppendChild(box, child) })
			if idx := slices.Index(want, child); idx >= 0 {
				want = slices.Delete(want, idx, idx+1)
			}
			want = append(want, child)
		case op == 1:
			before := want[rnd.IntN(len(want))]
			apply("insert", func() error { return h.InsertBefore(box, child, before) })
			if child == before {
				break
			}
			if idx := slices.Index(want, child); idx >= 0 {
				want = slices.Delete(want, idx, idx+1)
			}
			want = slices.Insert(want, slices.Index(want, before), child)
		default:
			victim := want[rnd.IntN(len(want))]
			apply("remove", func() error { return h.RemoveChild(box, victim) })
			want = slices.DeleteFunc(want, func(n Node) bool { return n == victim })
			if victim.Parent() != nil {
				t.Fatalf("step %d: removed child still has a parent", step)
			}
		}
		checkChildren(t, box, want...)
		checkNativeChildren(t, box, want...)
	}
}
