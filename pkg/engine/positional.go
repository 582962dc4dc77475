// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

var (
	overlayParents  = mapset.NewSet(string(native.KindOverlay))
	stackParents    = mapset.NewSet(string(native.KindStack))
	notebookParents = mapset.NewSet(string(native.KindNotebook))
	gridParents     = mapset.NewSet(string(native.KindGrid))
	fixedParents    = mapset.NewSet(string(native.KindFixed))
)

// propsChanged reports whether any of keys differs between old and new.
func propsChanged(oldProps map[string]any, newProps map[string]any, keys ...string) bool {
	for _, k := range keys {
		if !util.ValEqual(oldProps[k], newProps[k]) {
			return true
		}
	}
	return false
}

// OverlayChild adds its child as an overlay on top of the overlay's main child.
type OverlayChild struct {
	attachedVirtual
}

func makeOverlayChild(root *RootContainer, props map[string]any) (Node, error) {
	n := &OverlayChild{}
	n.initAttached(n, n, root, TypeOverlayChild, props, overlayParents)
	return n, nil
}

func (n *OverlayChild) applyFlags(host *WidgetNode, obj native.Object) error {
	if measure, ok := n.props["measure"].(bool); ok {
		if err := n.root.void(host.widget, "setMeasureOverlay", obj, measure); err != nil {
			return err
		}
	}
	if clip, ok := n.props["clipOverlay"].(bool); ok {
		if err := n.root.void(host.widget, "setClipOverlay", obj, clip); err != nil {
			return err
		}
	}
	return nil
}

func (n *OverlayChild) doAttach(host *WidgetNode, obj native.Object) error {
	if err := n.root.void(host.widget, "addOverlay", obj); err != nil {
		return err
	}
	return n.applyFlags(host, obj)
}

func (n *OverlayChild) doDetach(host *WidgetNode, obj native.Object) error {
	return removeIfChildOfWith(n.root, host, obj, "removeOverlay")
}

func (n *OverlayChild) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if n.att.applied == nil || !propsChanged(oldProps, newProps, "measure", "clipOverlay") {
		return nil
	}
	return n.applyFlags(n.att.appliedHost, n.att.applied)
}

// StackPage adds its child to a stack under a page name, titled when a title
// is given.
type StackPage struct {
	attachedVirtual
}

func makeStackPage(root *RootContainer, props map[string]any) (Node, error) {
	n := &StackPage{}
	n.initAttached(n, n, root, TypeStackPage, props, stackParents)
	return n, nil
}

func (n *StackPage) pageName() string {
	if name, ok := n.props["name"].(string); ok && name != "" {
		return name
	}
	return n.Id
}

func (n *StackPage) doAttach(host *WidgetNode, obj native.Object) error {
	if title, ok := n.props["title"].(string); ok && title != "" {
		return n.root.void(host.widget, "addTitled", obj, n.pageName(), title)
	}
	return n.root.void(host.widget, "addNamed", obj, n.pageName())
}

func (n *StackPage) doDetach(host *WidgetNode, obj native.Object) error {
	return removeIfChildOf(n.root, host, obj)
}

func (n *StackPage) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if propsChanged(oldProps, newProps, "name", "title") {
		return n.att.markStale()
	}
	return nil
}

// NotebookPage inserts its child as a page at its index among the notebook's
// page children.
type NotebookPage struct {
	attachedVirtual
	appliedPos int
}

func makeNotebookPage(root *RootContainer, props map[string]any) (Node, error) {
	n := &NotebookPage{appliedPos: -1}
	n.initAttached(n, n, root, TypeNotebookPage, props, notebookParents)
	return n, nil
}

// Position counts the preceding sibling pages that are already in the notebook.
func (n *NotebookPage) Position() (int, error) {
	host, err := n.ParentWidget()
	if err != nil {
		return 0, err
	}
	pos := 0
	for _, sib := range host.children {
		if sib == Node(n) {
			return pos, nil
		}
		if page, ok := sib.(*NotebookPage); ok && page.att.applied != nil {
			pos++
		}
	}
	return 0, MissingAnchorError(n, "notebook position")
}

func (n *NotebookPage) doAttach(host *WidgetNode, obj native.Object) error {
	pos, err := n.Position()
	if err != nil {
		return err
	}
	if err := n.root.void(host.widget, "insertPage", obj, nil, pos); err != nil {
		return err
	}
	n.appliedPos = pos
	return n.applyLabel(host, obj)
}

func (n *NotebookPage) applyLabel(host *WidgetNode, obj native.Object) error {
	label, ok := n.props["label"].(string)
	if !ok {
		return nil
	}
	return n.root.void(host.widget, "setTabLabelText", obj, label)
}

func (n *NotebookPage) doDetach(host *WidgetNode, obj native.Object) error {
	n.appliedPos = -1
	pageVal, err := n.root.call(host.widget, "pageNum", obj)
	if err != nil {
		return err
	}
	page, ok := util.ToInt(pageVal)
	if !ok || page < 0 {
		return nil
	}
	return n.root.void(host.widget, "removePage", page)
}

func (n *NotebookPage) onPlacement() error {
	if n.att.applied == nil {
		return n.att.sync()
	}
	pos, err := n.Position()
	if err != nil {
		return err
	}
	if pos == n.appliedPos {
		return nil
	}
	return n.att.markStale()
}

func (n *NotebookPage) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if n.att.applied == nil || !propsChanged(oldProps, newProps, "label") {
		return nil
	}
	return n.applyLabel(n.att.appliedHost, n.att.applied)
}

type gridCoords struct {
	Column     int `json:"column"`
	Row        int `json:"row"`
	ColumnSpan int `json:"columnSpan"`
	RowSpan    int `json:"rowSpan"`
}

func parseGridCoords(props map[string]any) (gridCoords, error) {
	coords := gridCoords{ColumnSpan: 1, RowSpan: 1}
	if err := util.DoMapStructure(&coords, props); err != nil {
		return coords, fmt.Errorf("<%s>: %w", TypeGridChild, err)
	}
	if coords.ColumnSpan < 1 || coords.RowSpan < 1 {
		return coords, StructuralError("<%s>: spans must be at least 1, got %dx%d", TypeGridChild, coords.ColumnSpan, coords.RowSpan)
	}
	return coords, nil
}

// GridChild attaches its child to a grid cell.
type GridChild struct {
	attachedVirtual
	coords gridCoords
}

func makeGridChild(root *RootContainer, props map[string]any) (Node, error) {
	coords, err := parseGridCoords(props)
	if err != nil {
		return nil, err
	}
	n := &GridChild{coords: coords}
	n.initAttached(n, n, root, TypeGridChild, props, gridParents)
	return n, nil
}

func (n *GridChild) doAttach(host *WidgetNode, obj native.Object) error {
	c := n.coords
	return n.root.void(host.widget, "attach", obj, c.Column, c.Row, c.ColumnSpan, c.RowSpan)
}

func (n *GridChild) doDetach(host *WidgetNode, obj native.Object) error {
	return removeIfChildOf(n.root, host, obj)
}

func (n *GridChild) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	coords, err := parseGridCoords(newProps)
	if err != nil {
		return err
	}
	n.props = vdom.CopyProps(newProps)
	if coords == n.coords {
		return nil
	}
	n.coords = coords
	return n.att.markStale()
}

type fixedCoords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FixedChild puts its child at absolute coordinates. Coordinate changes move
// the child in place.
type FixedChild struct {
	attachedVirtual
	coords fixedCoords
}

func makeFixedChild(root *RootContainer, props map[string]any) (Node, error) {
	n := &FixedChild{}
	if err := util.DoMapStructure(&n.coords, props); err != nil {
		return nil, fmt.Errorf("<%s>: %w", TypeFixedChild, err)
	}
	n.initAttached(n, n, root, TypeFixedChild, props, fixedParents)
	return n, nil
}

func (n *FixedChild) doAttach(host *WidgetNode, obj native.Object) error {
	return n.root.void(host.widget, "put", obj, n.coords.X, n.coords.Y)
}

func (n *FixedChild) doDetach(host *WidgetNode, obj native.Object) error {
	return removeIfChildOf(n.root, host, obj)
}

func (n *FixedChild) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	var coords fixedCoords
	if err := util.DoMapStructure(&coords, newProps); err != nil {
		return fmt.Errorf("<%s>: %w", TypeFixedChild, err)
	}
	n.props = vdom.CopyProps(newProps)
	if coords == n.coords {
		return nil
	}
	n.coords = coords
	if n.att.applied == nil || n.att.appliedHost.destroyed {
		return nil
	}
	return n.root.void(n.att.appliedHost.widget, "move", n.att.applied, coords.X, coords.Y)
}
