// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
)

func registerHeaderHost(t *testing.T, tk *nativefake.Toolkit) {
	t.Helper()
	_, err := tk.RegisterWidgetClass(&native.ClassDescriptor{
		Name:       "TestHeaderHost",
		Parent:     "GtkWidget",
		Properties: []native.PropertyMeta{{Name: "header", Type: "GtkWidget"}},
	})
	if err != nil {
		t.Fatalf("RegisterWidgetClass: %v", err)
	}
}

// slotArgs returns the handle passed to each setHeader call, 0 for nil.
func slotArgs(w *nativefake.Widget, method string) []native.Handle {
	var rtn []native.Handle
	for _, c := range w.CallsTo(method) {
		if obj, ok := c.Args[0].(native.Object); ok && obj != nil {
			rtn = append(rtn, obj.Handle())
		} else {
			rtn = append(rtn, 0)
		}
	}
	return rtn
}

func TestSlotSetsAndClearsProperty(t *testing.T) {
	root, tk, h := makeTestRoot(t)
	registerHeaderHost(t, tk)
	var hostNode, slot, label Node
	commit(t, h, func() {
		hostNode = mustCreate(t, h, "TestHeaderHost", nil)
		slot = mustCreate(t, h, "Slot", map[string]any{"id": "header"})
		label = mustCreate(t, h, "GtkLabel", map[string]any{"label": "title"})
		mustAppend(t, h, slot, label)
		mustAppend(t, h, hostNode, slot)
	})
	hostW := fakeOf(t, hostNode)
	labelW := fakeOf(t, label)
	if diff := cmp.Diff([]native.Handle{labelW.Handle()}, slotArgs(hostW, "setHeader")); diff != "" {
		t.Fatalf("setHeader calls mismatch (-want +got):\n%s", diff)
	}
	if labelW.ParentWidget() != hostW {
		t.Fatalf("label is not natively parented to the host")
	}

	commit(t, h, func() {
		if err := h.RemoveChild(hostNode, slot); err != nil {
			t.Fatalf("RemoveChild: %v", err)
		}
		if err := h.DetachDeletedInstance(label); err != nil {
			t.Fatalf("DetachDeletedInstance(label): %v", err)
		}
		if err := h.DetachDeletedInstance(slot); err != nil {
			t.Fatalf("DetachDeletedInstance(slot): %v", err)
		}
	})
	if diff := cmp.Diff([]native.Handle{labelW.Handle(), 0}, slotArgs(hostW, "setHeader")); diff != "" {
		t.Fatalf("setHeader calls mismatch (-want +got):\n%s", diff)
	}
	if _, ok := hostW.Props["header"]; ok {
		t.Fatalf("header property still set")
	}
	if n := root.Signals.Count(slot.Base().Id); n != 0 {
		t.Fatalf("slot still owns %d signal registrations", n)
	}
	if !labelW.Destroyed {
		t.Fatalf("deleted label was not destroyed")
	}
}

// Within one commit the old occupant must be out before the new one goes in.
func TestSlotSwapRemovesBeforeAttach(t *testing.T) {
	_, tk, h := makeTestRoot(t)
	registerHeaderHost(t, tk)
	var hostNode, slot, x, y Node
	commit(t, h, func() {
		hostNode = mustCreate(t, h, "TestHeaderHost", nil)
		slot = mustCreate(t, h, "Slot", map[string]any{"id": "header"})
		x = mustCreate(t, h, "GtkLabel", map[string]any{"label": "x"})
		mustAppend(t, h, slot, x)
		mustAppend(t, h, hostNode, slot)
	})
	commit(t, h, func() {
		y = mustCreate(t, h, "GtkLabel", map[string]any{"label": "y"})
		if err := h.RemoveChild(slot, x); err != nil {
			t.Fatalf("RemoveChild: %v", err)
		}
		mustAppend(t, h, slot, y)
	})
	hostW := fakeOf(t, hostNode)
	want := []native.Handle{fakeOf(t, x).Handle(), 0, fakeOf(t, y).Handle()}
	if diff := cmp.Diff(want, slotArgs(hostW, "setHeader")); diff != "" {
		t.Fatalf("setHeader calls mismatch (-want +got):\n%s", diff)
	}
	if fakeOf(t, x).ParentWidget() != nil {
		t.Fatalf("old occupant still parented")
	}
	if fakeOf(t, y).ParentWidget() != hostW {
		t.Fatalf("new occupant not parented to the host")
	}
}

func TestSlotIdChangeReattaches(t *testing.T) {
	_, _, h := makeTestRoot(t)
	var paned, slot, label Node
	commit(t, h, func() {
		paned = mustCreate(t, h, "GtkPaned", nil)
		slot = mustCreate(t, h, "Slot", map[string]any{"id": "startChild"})
		label = mustCreate(t, h, "GtkLabel", nil)
		mustAppend(t, h, slot, label)
		mustAppend(t, h, paned, slot)
	})
	panedW := fakeOf(t, paned)
	if panedW.Props["start-child"] != fakeOf(t, label) {
		t.Fatalf("start-child not set")
	}
	commit(t, h, func() {
		if err := h.CommitUpdate(slot, "Slot", map[string]any{"id": "startChild"}, map[string]any{"id": "endChild"}); err != nil {
			t.Fatalf("CommitUpdate: %v", err)
		}
	})
	if _, ok := panedW.Props["start-child"]; ok {
		t.Fatalf("start-child still set after the id changed")
	}
	if panedW.Props["end-child"] != fakeOf(t, label) {
		t.Fatalf("end-child not set")
	}
}

func TestSlotUnknownProperty(t *testing.T) {
	root, _, h := makeTestRoot(t)
	box := mustCreate(t, h, "GtkBox", nil)
	slot := mustCreate(t, h, "Slot", map[string]any{"id": "nosuchslot"})
	mustAppend(t, h, slot, mustCreate(t, h, "GtkLabel", nil))
	h.PrepareForCommit()
	mustAppend(t, h, box, slot)
	if err := root.EndCommit(); !IsStructural(err) {
		t.Fatalf("slot with no matching setter: got %v, want structural error", err)
	}
}
