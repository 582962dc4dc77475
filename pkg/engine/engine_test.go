// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
)

func makeTestRoot(t *testing.T) (*RootContainer, *nativefake.Toolkit, *Host) {
	t.Helper()
	tk := nativefake.MakeToolkit()
	root, err := MakeRootContainer(RootOpts{
		Registry:   tk.Registry(),
		Toolkit:    tk,
		Dispatcher: tk,
		Surface:    tk.NewWidget("GtkBox"),
	})
	if err != nil {
		t.Fatalf("MakeRootContainer: %v", err)
	}
	return root, tk, MakeHost(root)
}

func mustCreate(t *testing.T, h *Host, typeName string, props map[string]any) Node {
	t.Helper()
	n, err := h.CreateInstance(typeName, props)
	if err != nil {
		t.Fatalf("CreateInstance(%s): %v", typeName, err)
	}
	return n
}

func mustAppend(t *testing.T, h *Host, parent Node, child Node) {
	t.Helper()
	if err := h.AppendChild(parent, child); err != nil {
		t.Fatalf("AppendChild(<%s>, <%s>): %v", parent.Base().TypeName(), child.Base().TypeName(), err)
	}
}

// commit runs fn between PrepareForCommit and ResetAfterCommit.
func commit(t *testing.T, h *Host, fn func()) {
	t.Helper()
	if err := h.PrepareForCommit(); err != nil {
		t.Fatalf("PrepareForCommit: %v", err)
	}
	fn()
	if err := h.ResetAfterCommit(); err != nil {
		t.Fatalf("ResetAfterCommit: %v", err)
	}
}

func fakeOf(t *testing.T, n Node) *nativefake.Widget {
	t.Helper()
	wn, ok := n.(*WidgetNode)
	if !ok {
		t.Fatalf("<%s> is not a widget node", n.Base().TypeName())
	}
	return wn.Widget().(*nativefake.Widget)
}

func handlesOf(ws []*nativefake.Widget) []native.Handle {
	rtn := make([]native.Handle, 0, len(ws))
	for _, w := range ws {
		rtn = append(rtn, w.Handle())
	}
	return rtn
}

func nodesHandles(t *testing.T, nodes ...Node) []native.Handle {
	t.Helper()
	rtn := make([]native.Handle, 0, len(nodes))
	for _, n := range nodes {
		rtn = append(rtn, fakeOf(t, n).Handle())
	}
	return rtn
}

func checkNativeChildren(t *testing.T, parent Node, want ...Node) {
	t.Helper()
	got := handlesOf(fakeOf(t, parent).Children())
	if diff := cmp.Diff(nodesHandles(t, want...), got); diff != "" {
		t.Fatalf("native children of <%s> mismatch (-want +got):\n%s", parent.Base().TypeName(), diff)
	}
}

func checkChildren(t *testing.T, parent Node, want ...Node) {
	t.Helper()
	got := parent.Children()
	if len(got) != len(want) {
		t.Fatalf("<%s> has %d children, want %d", parent.Base().TypeName(), len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("<%s> child %d is <%s> %s, want %s", parent.Base().TypeName(), i, got[i].Base().TypeName(), got[i].Base().Id, want[i].Base().Id)
		}
		if got[i].Parent() != parent {
			t.Fatalf("child %d of <%s> does not point back at its parent", i, parent.Base().TypeName())
		}
	}
}
