// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package vdom

import "testing"

func TestH(t *testing.T) {
	elem := H("GtkBox", map[string]any{"spacing": 4},
		"hello",
		nil,
		false,
		[]any{H("GtkLabel", nil), 42},
		H("GtkButton", nil).WithKey("ok"),
	)
	if len(elem.Children) != 4 {
		t.Fatalf("expected 4 children, got %d", len(elem.Children))
	}
	if elem.Children[0].Tag != TextTag || elem.Children[0].Text != "hello" {
		t.Fatalf("bad text child: %#v", elem.Children[0])
	}
	if elem.Children[2].Text != "42" {
		t.Fatalf("number should render as text, got %#v", elem.Children[2])
	}
	if elem.Children[3].Key() != "ok" {
		t.Fatalf("key not preserved")
	}
}

func TestToElem(t *testing.T) {
	if ToElem(nil) != nil {
		t.Fatalf("nil should normalize to nil")
	}
	if e := ToElem(H("GtkLabel", nil)); e == nil || e.Tag != "GtkLabel" {
		t.Fatalf("single element should pass through")
	}
	e := ToElem([]any{H("A", nil), H("B", nil)})
	if e.Tag != FragmentTag || len(e.Children) != 2 {
		t.Fatalf("multiple elements should become a fragment, got %#v", e)
	}
}

func TestCopyProps(t *testing.T) {
	props := CopyProps(map[string]any{"key": "k", "ref": &Ref{}, "label": "x"})
	if len(props) != 1 || props["label"] != "x" {
		t.Fatalf("unexpected props %v", props)
	}
}
