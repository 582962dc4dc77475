// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

func keyedLabels(keys ...string) []any {
	return vdom.ForEach(keys, func(k string, _ int) any {
		return vdom.H("GtkLabel", map[string]any{"key": k, "label": k})
	})
}

func labelsOf(ws []*nativefake.Widget) []any {
	rtn := make([]any, 0, len(ws))
	for _, w := range ws {
		rtn = append(rtn, w.Props["label"])
	}
	return rtn
}

func TestRenderKeyedReorder(t *testing.T) {
	root, _, _ := makeTestRoot(t)
	ref := &vdom.Ref{}
	r := MakeRenderer(root, nil)
	doc := func(keys ...string) *vdom.VDomElem {
		return vdom.H("GtkBox", map[string]any{"ref": ref}, keyedLabels(keys...))
	}
	if err := r.Render(doc("a", "b", "c")); err != nil {
		t.Fatalf("Render: %v", err)
	}
	box, ok := ref.Current.(*WidgetNode)
	if !ok {
		t.Fatalf("ref holds %T, want the box node", ref.Current)
	}
	before := fakeOf(t, box).Children()
	if diff := cmp.Diff([]any{"a", "b", "c"}, labelsOf(before)); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	removed := before[1]

	if err := r.Render(doc("c", "a")); err != nil {
		t.Fatalf("Render: %v", err)
	}
	after := fakeOf(t, box).Children()
	if diff := cmp.Diff([]native.Handle{before[2].Handle(), before[0].Handle()}, handlesOf(after)); diff != "" {
		t.Fatalf("reorder should keep widgets (-want +got):\n%s", diff)
	}
	if !removed.Destroyed {
		t.Fatalf("dropped label not destroyed")
	}
	if n := len(fakeOf(t, box).CallsTo("remove")); n != 1 {
		t.Fatalf("remove called %d times, want 1", n)
	}

	if err := r.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if ref.Current != nil {
		t.Fatalf("ref not cleared on unmount")
	}
	if len(fakeOf(t, root.Node()).Children()) != 0 {
		t.Fatalf("container not empty after unmount")
	}
	for _, w := range after {
		if !w.Destroyed {
			t.Fatalf("label %v not destroyed on unmount", w.Props["label"])
		}
	}
}

func TestRenderComponents(t *testing.T) {
	root, _, _ := makeTestRoot(t)
	renders := 0
	root.RegisterComponent("Greeting", func(props map[string]any) any {
		renders++
		if props["boom"] == true {
			panic("greeting exploded")
		}
		name, _ := props["name"].(string)
		return vdom.Fragment(
			vdom.H("GtkLabel", map[string]any{"label": "hello " + name}),
			props["children"],
		)
	})
	r := MakeRenderer(root, nil)
	doc := func(props map[string]any) *vdom.VDomElem {
		return vdom.H("Greeting", props, vdom.H("GtkButton", map[string]any{"label": "ok"}))
	}
	if err := r.Render(doc(map[string]any{"name": "world"})); err != nil {
		t.Fatalf("Render: %v", err)
	}
	kids := fakeOf(t, root.Node()).Children()
	if diff := cmp.Diff([]any{"hello world", "ok"}, labelsOf(kids)); diff != "" {
		t.Fatalf("component output mismatch (-want +got):\n%s", diff)
	}

	if err := r.Render(doc(map[string]any{"name": "there"})); err != nil {
		t.Fatalf("Render: %v", err)
	}
	updated := fakeOf(t, root.Node()).Children()
	if diff := cmp.Diff(handlesOf(kids), handlesOf(updated)); diff != "" {
		t.Fatalf("rerender replaced widgets (-want +got):\n%s", diff)
	}
	if updated[0].Props["label"] != "hello there" {
		t.Fatalf("label = %v after rerender", updated[0].Props["label"])
	}

	err := r.Render(doc(map[string]any{"name": "x", "boom": true}))
	if err == nil {
		t.Fatalf("expected the component panic to be reported")
	}
	if renders != 3 {
		t.Fatalf("component rendered %d times, want 3", renders)
	}
	kept := fakeOf(t, root.Node()).Children()
	if diff := cmp.Diff([]any{"hello there", "ok"}, labelsOf(kept)); diff != "" {
		t.Fatalf("panicking component should keep its output (-want +got):\n%s", diff)
	}
}

func TestRenderErrorsAreStructural(t *testing.T) {
	root, _, _ := makeTestRoot(t)
	r := MakeRenderer(root, nil)
	err := r.Render(vdom.H("GtkLabel", nil, vdom.H("GtkLabel", nil)))
	if !IsStructural(err) {
		t.Fatalf("label inside a label: got %v", err)
	}
	err = r.Render(vdom.H("NoSuchWidget", nil))
	if !IsStructural(err) {
		t.Fatalf("unknown tag: got %v", err)
	}
}
