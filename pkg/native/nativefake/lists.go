// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package nativefake

import (
	"fmt"
	"sort"

	"github.com/wavetermdev/nativetree/pkg/native"
)

type StringList struct {
	*Object
	keys []string
	// FailSplice, if set, can reject a splice before it applies.
	FailSplice func(position int, nRemovals int, additions []string) error
}

func (tk *Toolkit) NewStringList(keys []string) (native.StringList, error) {
	return &StringList{Object: tk.makeObject("StringList"), keys: append([]string(nil), keys...)}, nil
}

func (sl *StringList) Splice(position int, nRemovals int, additions []string) error {
	sl.record("splice", []any{position, nRemovals, additions})
	if sl.FailSplice != nil {
		if err := sl.FailSplice(position, nRemovals, additions); err != nil {
			return err
		}
	}
	if position < 0 || position+nRemovals > len(sl.keys) {
		return fmt.Errorf("splice: range [%d,%d) out of bounds (len %d)", position, position+nRemovals, len(sl.keys))
	}
	rtn := make([]string, 0, len(sl.keys)-nRemovals+len(additions))
	rtn = append(rtn, sl.keys[:position]...)
	rtn = append(rtn, additions...)
	rtn = append(rtn, sl.keys[position+nRemovals:]...)
	sl.keys = rtn
	sl.Emit("items-changed", position, nRemovals, len(additions))
	return nil
}

func (sl *StringList) NItems() int {
	return len(sl.keys)
}

func (sl *StringList) GetString(position int) string {
	if position < 0 || position >= len(sl.keys) {
		return ""
	}
	return sl.keys[position]
}

func (sl *StringList) Keys() []string {
	return append([]string(nil), sl.keys...)
}

type SelectionModel struct {
	*Object
	Mode     string
	Model    native.Object
	selected []uint
}

func (tk *Toolkit) NewSelectionModel(mode string, model native.Object) (native.SelectionModel, error) {
	return &SelectionModel{Object: tk.makeObject("SelectionModel"), Mode: mode, Model: model}, nil
}

func (sm *SelectionModel) Selection() []uint {
	return append([]uint(nil), sm.selected...)
}

func (sm *SelectionModel) SetSelection(positions []uint) error {
	sm.record("setSelection", []any{positions})
	sm.selected = append([]uint(nil), positions...)
	sort.Slice(sm.selected, func(i, j int) bool { return sm.selected[i] < sm.selected[j] })
	sm.Emit("selection-changed")
	return nil
}

// UserSelect simulates a selection made through the native view.
func (sm *SelectionModel) UserSelect(positions ...uint) {
	sm.selected = append([]uint(nil), positions...)
	sm.Emit("selection-changed")
}

type treeNode struct {
	key      string
	expanded bool
	children *StringList
}

// TreeListModel is a flattened view over a root list and lazily created child lists.
type TreeListModel struct {
	*Object
	root        native.StringList
	createChild func(key string) native.StringList
	nodes       map[string]*treeNode
}

func (tk *Toolkit) NewTreeListModel(root native.StringList, createChild func(key string) native.StringList) (native.TreeListModel, error) {
	return &TreeListModel{
		Object:      tk.makeObject("TreeListModel"),
		root:        root,
		createChild: createChild,
		nodes:       make(map[string]*treeNode),
	}, nil
}

func (tm *TreeListModel) node(key string) *treeNode {
	n := tm.nodes[key]
	if n == nil {
		n = &treeNode{key: key}
		tm.nodes[key] = n
	}
	return n
}

func (tm *TreeListModel) SetExpanded(key string, expanded bool) error {
	tm.record("setExpanded", []any{key, expanded})
	n := tm.node(key)
	n.expanded = expanded
	if expanded && n.children == nil && tm.createChild != nil {
		if child, ok := tm.createChild(key).(*StringList); ok {
			n.children = child
		}
	}
	return nil
}

func (tm *TreeListModel) flatten(list native.StringList, out []string) []string {
	if list == nil {
		return out
	}
	for i := 0; i < list.NItems(); i++ {
		key := list.GetString(i)
		out = append(out, key)
		if n := tm.nodes[key]; n != nil && n.expanded && n.children != nil {
			out = tm.flatten(n.children, out)
		}
	}
	return out
}

func (tm *TreeListModel) Rows() []string {
	return tm.flatten(tm.root, nil)
}

func (tm *TreeListModel) NItems() int {
	return len(tm.Rows())
}

func (tm *TreeListModel) KeyAt(position int) string {
	rows := tm.Rows()
	if position < 0 || position >= len(rows) {
		return ""
	}
	return rows[position]
}

func (tm *TreeListModel) PositionOf(key string) int {
	for i, k := range tm.Rows() {
		if k == key {
			return i
		}
	}
	return -1
}

type ListItem struct {
	handle   native.Handle
	key      string
	position int
	Child    native.Widget
}

func (tk *Toolkit) NewListItem() *ListItem {
	tk.nextHandle++
	return &ListItem{handle: native.Handle(tk.nextHandle), position: -1}
}

func (li *ListItem) Handle() native.Handle {
	return li.handle
}

func (li *ListItem) ModelKey() string {
	return li.key
}

func (li *ListItem) Position() int {
	return li.position
}

func (li *ListItem) SetChild(w native.Widget) {
	li.Child = w
}

// ListItemFactory lets tests drive the row lifecycle a native view would.
type ListItemFactory struct {
	*Object
	setup, bind, unbind, teardown native.ListItemCallback
}

func (tk *Toolkit) NewListItemFactory() (native.ListItemFactory, error) {
	return &ListItemFactory{Object: tk.makeObject("SignalListItemFactory")}, nil
}

func (f *ListItemFactory) OnSetup(fn native.ListItemCallback)    { f.setup = fn }
func (f *ListItemFactory) OnBind(fn native.ListItemCallback)     { f.bind = fn }
func (f *ListItemFactory) OnUnbind(fn native.ListItemCallback)   { f.unbind = fn }
func (f *ListItemFactory) OnTeardown(fn native.ListItemCallback) { f.teardown = fn }

func (f *ListItemFactory) Setup(li *ListItem) {
	if f.setup != nil {
		f.setup(li)
	}
}

// Bind points the row at a model position and key before invoking the callback.
func (f *ListItemFactory) Bind(li *ListItem, position int, key string) {
	li.position = position
	li.key = key
	if f.bind != nil {
		f.bind(li)
	}
}

func (f *ListItemFactory) Unbind(li *ListItem) {
	if f.unbind != nil {
		f.unbind(li)
	}
	li.position = -1
	li.key = ""
}

func (f *ListItemFactory) Teardown(li *ListItem) {
	if f.teardown != nil {
		f.teardown(li)
	}
	li.Child = nil
}
