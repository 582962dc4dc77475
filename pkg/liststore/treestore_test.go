// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package liststore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
)

func makeTestTree(t *testing.T) (*TreeStore, native.TreeListModel) {
	t.Helper()
	tk := nativefake.MakeToolkit()
	ts, err := MakeTreeStore(tk.NewStringList)
	if err != nil {
		t.Fatalf("MakeTreeStore: %v", err)
	}
	model, err := tk.NewTreeListModel(ts.Root().Model(), ts.ChildModel)
	if err != nil {
		t.Fatalf("NewTreeListModel: %v", err)
	}
	return ts, model
}

func TestTreeAddAndRemove(t *testing.T) {
	ts, _ := makeTestTree(t)
	mustOk(t, ts.AddItem(RootParent, "docs", "Docs"))
	mustOk(t, ts.AddItem("docs", "a.txt", "A"))
	mustOk(t, ts.AddItem("docs", "b.txt", "B"))
	mustOk(t, ts.AddItem(RootParent, "src", "Src"))
	if err := ts.AddItem("missing", "x", "X"); err == nil {
		t.Fatalf("expected error for unknown parent")
	}
	if diff := cmp.Diff([]string{"docs", "a.txt", "b.txt", "src"}, ts.Preorder()); diff != "" {
		t.Fatalf("preorder mismatch (-want +got):\n%s", diff)
	}
	if !ts.HasChildren("docs") || ts.HasChildren("src") {
		t.Fatalf("HasChildren wrong")
	}
	mustOk(t, ts.RemoveItem("docs"))
	if _, ok := ts.GetItem("a.txt"); ok {
		t.Fatalf("descendants should be removed with their parent")
	}
	if diff := cmp.Diff([]string{"src"}, ts.Preorder()); diff != "" {
		t.Fatalf("preorder after remove mismatch (-want +got):\n%s", diff)
	}
	if err := ts.Root().Verify(); err != nil {
		t.Fatalf("root level inconsistent: %v", err)
	}
}

func TestTreeMoveBetweenParents(t *testing.T) {
	ts, _ := makeTestTree(t)
	mustOk(t, ts.AddItem(RootParent, "p1", nil))
	mustOk(t, ts.AddItem(RootParent, "p2", nil))
	mustOk(t, ts.AddItem("p1", "c", "C"))
	mustOk(t, ts.AddItem("p2", "d", "D"))
	if err := ts.InsertItemBefore("p2", "c", "d", "C2"); err != nil {
		t.Fatalf("InsertItemBefore: %v", err)
	}
	if len(ts.Children("p1")) != 0 {
		t.Fatalf("c should have left p1")
	}
	if diff := cmp.Diff([]string{"c", "d"}, ts.Children("p2")); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if parent, _ := ts.ParentOf("c"); parent != "p2" {
		t.Fatalf("ParentOf(c) = %q", parent)
	}
}

func TestTreeSelection(t *testing.T) {
	ts, model := makeTestTree(t)
	mustOk(t, ts.AddItem(RootParent, "p", nil))
	mustOk(t, ts.AddItem("p", "c1", nil))
	mustOk(t, ts.AddItem("p", "c2", nil))
	mustOk(t, ts.AddItem(RootParent, "q", nil))
	mustOk(t, model.SetExpanded("p", true))
	bits := ts.IdsToSelection(model, []string{"q", "c2"})
	if diff := cmp.Diff([]uint{2, 3}, bits); diff != "" {
		t.Fatalf("bitset mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c2", "q"}, ts.SelectionToIds(model, bits)); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	var updated string
	ts.OnItemUpdated = func(id string, value any) { updated = id }
	if !ts.UpdateItem("c1", "new") {
		t.Fatalf("UpdateItem(c1) reported a missing id")
	}
	if updated != "c1" {
		t.Fatalf("tree update callback not forwarded")
	}
}
