// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/liststore"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/scheduler"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

const DefaultSelectionMode = "single"

var (
	listViewParents = mapset.NewSet(string(native.KindListView))
	treeItemParents = mapset.NewSet(string(native.KindListView), TypeTreeItem)
	selectionModes  = mapset.NewSet("none", "single", "multiple")
	listOwnedProps  = mapset.NewSet("renderItem", "renderHeader", "selectionMode", "selected",
		"onSelectionChanged", "tree", "rowContainer")
)

// listController backs a list view: list entry children feed a store whose
// native model drives row materialization, and rows are rendered on demand by
// the item renderer.
type listController struct {
	view      *WidgetNode
	tree      bool
	store     *liststore.Store
	treeStore *liststore.TreeStore
	treeModel native.TreeListModel
	selection native.SelectionModel
	items     *ItemRenderer
	// owners maps each registered id to the entry node holding it
	owners map[string]Node

	selectionTask     *scheduler.Task
	applyingSelection bool
}

func makeListController(view *WidgetNode, props map[string]any) (*listController, error) {
	root := view.root
	if root.Toolkit == nil {
		return nil, fmt.Errorf("<%s> needs a toolkit for its list models", view.typeName)
	}
	lc := &listController{view: view, owners: make(map[string]Node)}
	lc.tree, _ = props["tree"].(bool)
	var model native.Object
	if lc.tree {
		ts, err := liststore.MakeTreeStore(root.Toolkit.NewStringList)
		if err != nil {
			return nil, err
		}
		tm, err := root.Toolkit.NewTreeListModel(ts.Root().Model(), func(key string) native.StringList {
			if _, ok := ts.GetItem(key); !ok {
				return nil
			}
			return ts.ChildModel(key)
		})
		if err != nil {
			return nil, err
		}
		ts.OnItemUpdated = lc.onItemUpdated
		lc.treeStore, lc.treeModel, model = ts, tm, tm
	} else {
		sl, err := root.Toolkit.NewStringList(nil)
		if err != nil {
			return nil, err
		}
		lc.store = liststore.MakeStore(sl)
		lc.store.OnItemUpdated = lc.onItemUpdated
		lc.store.OnHeaderUpdated = lc.onHeaderUpdated
		model = sl
	}
	mode := DefaultSelectionMode
	if m, ok := props["selectionMode"].(string); ok && m != "" {
		mode = m
	}
	if !selectionModes.Contains(mode) {
		return nil, StructuralError("<%s>: unknown selectionMode %q", view.typeName, mode)
	}
	sel, err := root.Toolkit.NewSelectionModel(mode, model)
	if err != nil {
		return nil, err
	}
	lc.selection = sel
	lc.items, err = makeItemRenderer(lc, props)
	if err != nil {
		return nil, err
	}
	if err := root.void(view.widget, "setModel", sel); err != nil {
		return nil, err
	}
	if err := root.void(view.widget, "setFactory", lc.items.factory); err != nil {
		return nil, err
	}
	if !lc.tree && view.class.SetterFor("header-factory") != "" {
		if err := root.void(view.widget, "setHeaderFactory", lc.items.headerFactory); err != nil {
			return nil, err
		}
	}
	if err := root.Signals.Set(view.Id, sel, "selection-changed", lc.onNativeSelection, nil); err != nil {
		return nil, err
	}
	lc.selectionTask = scheduler.MakeTask("list selection", lc.applySelection)
	return lc, nil
}

func (lc *listController) ownsProp(key string) bool {
	return listOwnedProps.Contains(key)
}

func (lc *listController) commitUpdate(oldProps map[string]any, newProps map[string]any) error {
	for _, key := range []string{"selectionMode", "tree", "rowContainer"} {
		if !util.ValEqual(oldProps[key], newProps[key]) {
			log.Printf("[engine] <%s> %s cannot change after creation\n", lc.view.typeName, key)
		}
	}
	if oldVal, ok := oldProps["renderItem"]; propChanged(oldVal, ok, newProps["renderItem"]) {
		lc.items.rerenderRows()
	}
	if oldVal, ok := oldProps["renderHeader"]; propChanged(oldVal, ok, newProps["renderHeader"]) {
		lc.items.rerenderHeaders()
	}
	if !util.ValEqual(oldProps["selected"], newProps["selected"]) {
		return lc.scheduleSelection()
	}
	return nil
}

func (lc *listController) getItem(id string) (any, bool) {
	if lc.tree {
		return lc.treeStore.GetItem(id)
	}
	return lc.store.GetItem(id)
}

// Ids returns the top level ids in order.
func (lc *listController) Ids() []string {
	if lc.tree {
		return lc.treeStore.Root().Ids()
	}
	return lc.store.Ids()
}

func (lc *listController) selectedProp() ([]string, bool) {
	switch v := lc.view.props["selected"].(type) {
	case []string:
		return v, true
	case []any:
		rtn := make([]string, 0, len(v))
		for _, id := range v {
			if s, ok := id.(string); ok {
				rtn = append(rtn, s)
			}
		}
		return rtn, true
	case string:
		return []string{v}, true
	}
	return nil, false
}

func (lc *listController) scheduleSelection() error {
	if _, ok := lc.selectedProp(); !ok {
		return nil
	}
	return lc.view.root.Scheduler.Schedule(lc.selectionTask, scheduler.PriorityNormal)
}

func (lc *listController) idsToSelection(ids []string) []uint {
	if lc.tree {
		return lc.treeStore.IdsToSelection(lc.treeModel, ids)
	}
	return lc.store.IdsToSelection(ids)
}

func (lc *listController) selectionToIds(positions []uint) []string {
	if lc.tree {
		return lc.treeStore.SelectionToIds(lc.treeModel, positions)
	}
	return lc.store.SelectionToIds(positions)
}

// SelectedIds returns the native selection as ids, in store order.
func (lc *listController) SelectedIds() []string {
	return lc.selectionToIds(lc.selection.Selection())
}

// applySelection writes the selected prop to the native selection without
// reporting it back as a user change.
func (lc *listController) applySelection() error {
	ids, ok := lc.selectedProp()
	if !ok || lc.view.destroyed {
		return nil
	}
	positions := lc.idsToSelection(ids)
	cur := lc.selection.Selection()
	if len(cur) == len(positions) {
		same := true
		for i := range cur {
			if cur[i] != positions[i] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	if err := lc.view.root.Batcher.Flush(); err != nil {
		return err
	}
	lc.applyingSelection = true
	defer func() { lc.applyingSelection = false }()
	return lc.selection.SetSelection(positions)
}

func (lc *listController) onNativeSelection(args ...any) any {
	if lc.applyingSelection {
		return nil
	}
	cb, _ := lc.view.props["onSelectionChanged"].(func(ids []string))
	if cb != nil {
		cb(lc.SelectedIds())
	}
	return nil
}

func (lc *listController) onItemUpdated(id string, value any) {
	lc.items.rerenderId(id)
}

func (lc *listController) onHeaderUpdated(section string, header any) {
	lc.items.rerenderSection(section)
}

// nextRegistered returns the id of the first sibling after child, among
// siblings, that is already in the store.
func nextRegistered(siblings []Node, child Node) string {
	idx := -1
	for i, c := range siblings {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ""
	}
	for _, c := range siblings[idx+1:] {
		switch v := c.(type) {
		case *ListItem:
			if v.registeredId != "" {
				return v.registeredId
			}
		case *TreeItem:
			if v.registeredId != "" {
				return v.registeredId
			}
		}
	}
	return ""
}

func (lc *listController) attachChild(child Node) error {
	switch c := child.(type) {
	case *ListItem:
		if lc.tree {
			return StructuralError("<%s> in a tree list view, use <%s>", TypeListItem, TypeTreeItem)
		}
		return lc.placeListItem(c)
	case *ListSection:
		if lc.tree {
			return StructuralError("<%s> is not supported in tree list views", TypeListSection)
		}
		lc.store.SetSectionHeader(c.sectionId(), c.props["header"])
		return nil
	case *TreeItem:
		if !lc.tree {
			return StructuralError("<%s> needs a list view with the tree prop", TypeTreeItem)
		}
		return lc.placeTreeItem(c, liststore.RootParent, lc.view.children)
	}
	return nil
}

func (lc *listController) detachChild(child Node) error {
	switch c := child.(type) {
	case *ListItem:
		return lc.unplaceListItem(c)
	case *ListSection:
		if !lc.tree {
			lc.store.RemoveSection(c.sectionId())
		}
	case *TreeItem:
		return lc.unplaceTreeItem(c)
	}
	return nil
}

// checkId rejects an id another entry node already holds.
func (lc *listController) checkId(id string, entry Node) error {
	if owner, ok := lc.owners[id]; ok && owner != entry {
		return StructuralError("<%s> id %q is already used by another entry of <%s>", entry.Base().TypeName(), id, lc.view.typeName)
	}
	return nil
}

func (lc *listController) releaseId(id string, entry Node) {
	if lc.owners[id] == entry {
		delete(lc.owners, id)
	}
}

func (lc *listController) placeListItem(item *ListItem) error {
	id := item.itemId()
	if err := lc.checkId(id, item); err != nil {
		return err
	}
	if item.registeredId != "" && item.registeredId != id {
		if err := lc.unplaceListItem(item); err != nil {
			return err
		}
	}
	value := item.props["value"]
	var err error
	if before := nextRegistered(lc.view.children, item); before != "" && before != id {
		err = lc.store.InsertItemBefore(id, before, value)
	} else {
		err = lc.store.AddItem(id, value)
	}
	if err != nil {
		return err
	}
	item.registeredId = id
	lc.owners[id] = item
	lc.store.SetSection(id, item.section())
	return lc.scheduleSelection()
}

func (lc *listController) unplaceListItem(item *ListItem) error {
	if item.registeredId == "" {
		return nil
	}
	id := item.registeredId
	item.registeredId = ""
	lc.releaseId(id, item)
	return lc.store.RemoveItem(id)
}

// placeTreeItem adds item under parentId, then its whole subtree.
func (lc *listController) placeTreeItem(item *TreeItem, parentId string, siblings []Node) error {
	id := item.itemId()
	if err := lc.checkId(id, item); err != nil {
		return err
	}
	if item.registeredId != "" && item.registeredId != id {
		if err := lc.unplaceTreeItem(item); err != nil {
			return err
		}
	}
	value := item.props["value"]
	var err error
	if before := nextRegistered(siblings, item); before != "" && before != id {
		err = lc.treeStore.InsertItemBefore(parentId, id, before, value)
	} else {
		err = lc.treeStore.AddItem(parentId, id, value)
	}
	if err != nil {
		return err
	}
	item.registeredId = id
	lc.owners[id] = item
	for _, c := range item.children {
		if sub, ok := c.(*TreeItem); ok {
			if err := lc.placeTreeItem(sub, id, item.children); err != nil {
				return err
			}
		}
	}
	if err := lc.applyExpanded(item); err != nil {
		return err
	}
	return lc.scheduleSelection()
}

func (lc *listController) applyExpanded(item *TreeItem) error {
	expanded, ok := item.props["expanded"].(bool)
	if !ok || item.registeredId == "" {
		return nil
	}
	return lc.treeModel.SetExpanded(item.registeredId, expanded)
}

func (lc *listController) unplaceTreeItem(item *TreeItem) error {
	if item.registeredId == "" {
		return nil
	}
	id := item.registeredId
	var clear func(n *TreeItem)
	clear = func(n *TreeItem) {
		if n.registeredId != "" {
			lc.releaseId(n.registeredId, n)
		}
		n.registeredId = ""
		for _, c := range n.children {
			if sub, ok := c.(*TreeItem); ok {
				clear(sub)
			}
		}
	}
	clear(item)
	return lc.treeStore.RemoveItem(id)
}

func (lc *listController) teardown() error {
	return lc.items.close()
}

// listControllerOf finds the list view controller an entry belongs to.
func listControllerOf(n Node) *listController {
	if wn := nearestWidgetNode(n); wn != nil {
		return wn.list
	}
	return nil
}

// ListItem is one row of a flat list view.
type ListItem struct {
	VirtualNode
	registeredId string
}

func makeListItem(root *RootContainer, props map[string]any) (Node, error) {
	n := &ListItem{}
	n.initVirtual(n, root, TypeListItem, props, listViewParents)
	return n, nil
}

// itemId is the stable id, falling back to the node id when none is given.
func (n *ListItem) itemId() string {
	if id, ok := n.props["id"]; ok && id != nil {
		return fmt.Sprint(id)
	}
	return n.Id
}

func (n *ListItem) section() string {
	section, _ := n.props["section"].(string)
	return section
}

func (n *ListItem) IsValidChild(child Node) bool {
	return false
}

func (n *ListItem) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	lc := listControllerOf(n)
	if lc == nil || n.registeredId == "" {
		return nil
	}
	if n.itemId() != n.registeredId {
		return lc.placeListItem(n)
	}
	if !util.ValEqual(oldProps["section"], newProps["section"]) {
		lc.store.SetSection(n.registeredId, n.section())
	}
	if !util.ValEqual(oldProps["value"], newProps["value"]) {
		lc.store.UpdateItem(n.registeredId, newProps["value"])
	}
	return nil
}

// ListSection carries the header value of a section of a flat list view.
type ListSection struct {
	VirtualNode
}

func makeListSection(root *RootContainer, props map[string]any) (Node, error) {
	n := &ListSection{}
	n.initVirtual(n, root, TypeListSection, props, listViewParents)
	if n.sectionId() == "" {
		return nil, StructuralError("<%s> requires an id prop", TypeListSection)
	}
	return n, nil
}

func (n *ListSection) sectionId() string {
	id, _ := n.props["id"].(string)
	return id
}

func (n *ListSection) IsValidChild(child Node) bool {
	return false
}

func (n *ListSection) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	oldId := n.sectionId()
	n.props = vdom.CopyProps(newProps)
	lc := listControllerOf(n)
	if lc == nil || lc.tree || n.parent == nil {
		return nil
	}
	if oldId != n.sectionId() {
		lc.store.RemoveSection(oldId)
	} else if util.ValEqual(oldProps["header"], newProps["header"]) {
		return nil
	}
	lc.store.SetSectionHeader(n.sectionId(), newProps["header"])
	return nil
}

// TreeItem is a row of a tree list view; nested TreeItems are its children.
type TreeItem struct {
	VirtualNode
	registeredId string
}

func makeTreeItem(root *RootContainer, props map[string]any) (Node, error) {
	n := &TreeItem{}
	n.initVirtual(n, root, TypeTreeItem, props, treeItemParents)
	return n, nil
}

func (n *TreeItem) itemId() string {
	if id, ok := n.props["id"]; ok && id != nil {
		return fmt.Sprint(id)
	}
	return n.Id
}

func (n *TreeItem) IsValidChild(child Node) bool {
	_, ok := child.(*TreeItem)
	return ok
}

func (n *TreeItem) attachChild(child Node) error {
	sub, ok := child.(*TreeItem)
	if !ok || n.registeredId == "" {
		return nil
	}
	lc := listControllerOf(n)
	if lc == nil {
		return nil
	}
	return lc.placeTreeItem(sub, n.registeredId, n.children)
}

func (n *TreeItem) detachChild(child Node) error {
	sub, ok := child.(*TreeItem)
	if !ok {
		return nil
	}
	lc := listControllerOf(n)
	if lc == nil {
		return nil
	}
	return lc.unplaceTreeItem(sub)
}

func (n *TreeItem) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	lc := listControllerOf(n)
	if lc == nil || n.registeredId == "" {
		return nil
	}
	if n.itemId() != n.registeredId {
		parentId := liststore.RootParent
		siblings := lc.view.children
		if p, ok := n.parent.(*TreeItem); ok {
			parentId, siblings = p.registeredId, p.children
		}
		return lc.placeTreeItem(n, parentId, siblings)
	}
	if !util.ValEqual(oldProps["value"], newProps["value"]) {
		lc.treeStore.UpdateItem(n.registeredId, newProps["value"])
	}
	if !util.ValEqual(oldProps["expanded"], newProps["expanded"]) {
		return lc.applyExpanded(n)
	}
	return nil
}
