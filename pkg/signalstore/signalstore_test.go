// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package signalstore

import (
	"errors"
	"testing"

	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
)

func TestSetNilWithoutRegistration(t *testing.T) {
	tk := nativefake.MakeToolkit()
	btn := tk.NewWidget("GtkButton")
	store := MakeStore()
	if err := store.Set("owner", btn, "clicked", nil, nil); err != nil {
		t.Fatalf("nil handler without registration should be a no-op: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestReplaceKeepsOneRegistration(t *testing.T) {
	tk := nativefake.MakeToolkit()
	btn := tk.NewWidget("GtkButton")
	store := MakeStore()
	var got []string
	store.Set("owner", btn, "clicked", func(args ...any) any { got = append(got, "first"); return nil }, nil)
	store.Set("owner", btn, "clicked", func(args ...any) any { got = append(got, "second"); return nil }, nil)
	if n := btn.HandlerCount("clicked"); n != 1 {
		t.Fatalf("expected exactly one native registration, got %d", n)
	}
	btn.Emit("clicked")
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only the replacement handler to fire, got %v", got)
	}
	store.Set("owner", btn, "clicked", nil, nil)
	if n := btn.HandlerCount("clicked"); n != 0 {
		t.Fatalf("expected registration to be released, got %d", n)
	}
}

func TestClearByOwner(t *testing.T) {
	tk := nativefake.MakeToolkit()
	btn := tk.NewWidget("GtkButton")
	entry := tk.NewWidget("GtkEntry")
	store := MakeStore()
	noop := func(args ...any) any { return nil }
	store.Set("a", btn, "clicked", noop, nil)
	store.Set("a", entry, "changed", noop, nil)
	store.Set("b", btn, "clicked", noop, nil)
	if store.Count("a") != 2 || store.Count("b") != 1 {
		t.Fatalf("unexpected counts a=%d b=%d", store.Count("a"), store.Count("b"))
	}
	if n := store.Clear("a"); n != 2 {
		t.Fatalf("expected 2 released, got %d", n)
	}
	if store.Count("a") != 0 || btn.HandlerCount("clicked") != 1 || entry.HandlerCount("changed") != 0 {
		t.Fatalf("clear released the wrong registrations")
	}
	if n := store.Clear("a"); n != 0 {
		t.Fatalf("second clear should be a no-op")
	}
}

func TestFailedConnectLeavesNoRegistration(t *testing.T) {
	tk := nativefake.MakeToolkit()
	btn := tk.NewWidget("GtkButton")
	store := MakeStore()
	noop := func(args ...any) any { return nil }
	store.Set("owner", btn, "clicked", noop, nil)
	connectErr := errors.New("marshalling failed")
	tk.FailConnect = func(obj *nativefake.Object, signal string) error { return connectErr }
	err := store.Set("owner", btn, "clicked", noop, nil)
	if !errors.Is(err, connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if btn.HandlerCount("clicked") != 0 || store.Len() != 0 {
		t.Fatalf("failed reconnect must not leave a registration behind")
	}
}

func TestBlockSkipsNonBlockable(t *testing.T) {
	tk := nativefake.MakeToolkit()
	entry := tk.NewWidget("GtkEntry")
	store := MakeStore()
	var fired []string
	store.Set("owner", entry, "changed", func(args ...any) any { fired = append(fired, "changed"); return nil }, nil)
	store.Set("owner", entry, "destroy", func(args ...any) any { fired = append(fired, "destroy"); return nil }, &Options{NonBlockable: true})
	store.Block("owner")
	entry.Emit("changed")
	entry.Emit("destroy")
	store.Unblock("owner")
	entry.Emit("changed")
	want := []string{"destroy", "changed"}
	if len(fired) != 2 || fired[0] != want[0] || fired[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, fired)
	}
}

func TestWrapDecoratesHandlers(t *testing.T) {
	tk := nativefake.MakeToolkit()
	btn := tk.NewWidget("GtkButton")
	store := MakeStore()
	wrapped := 0
	store.Wrap = func(owner string, event string, handler native.SignalHandler) native.SignalHandler {
		return func(args ...any) any {
			wrapped++
			return handler(args...)
		}
	}
	store.Set("owner", btn, "clicked", func(args ...any) any { return nil }, nil)
	btn.Emit("clicked")
	if wrapped != 1 {
		t.Fatalf("expected wrapper to run once, ran %d", wrapped)
	}
}
