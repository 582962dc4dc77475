// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/scheduler"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

const menuModelClass = "GMenu"

var (
	menuHostParents = mapset.NewSet(string(native.KindMenuHost))
	menuParents     = mapset.NewSet(TypeMenu, TypeMenuSection, TypeMenuSubmenu)
	menuEntryKinds  = mapset.NewSet(TypeMenuItem, TypeMenuSection, TypeMenuSubmenu)
)

func makeMenuModel(root *RootContainer) (native.Object, error) {
	model, err := root.Registry.Construct(menuModelClass, nil)
	if err != nil {
		return nil, fmt.Errorf("creating menu model: %w", err)
	}
	return model, nil
}

// menuRootOf walks up through menu nodes to the Menu that owns n.
func menuRootOf(n Node) *MenuNode {
	for cur := n; cur != nil; cur = cur.Base().parent {
		if m, ok := cur.(*MenuNode); ok {
			return m
		}
		if !menuEntryKinds.Contains(cur.Base().typeName) {
			return nil
		}
	}
	return nil
}

func requestRebuild(n Node) error {
	if m := menuRootOf(n); m != nil {
		return m.root.Scheduler.Schedule(m.rebuildTask, scheduler.PriorityNormal)
	}
	return nil
}

// MenuNode builds a native menu model from its entries and sets it on the
// menu-host parent (menu buttons, popover menus).
type MenuNode struct {
	VirtualNode
	model       native.Object
	att         *attachment
	rebuildTask *scheduler.Task
}

func makeMenuNode(root *RootContainer, props map[string]any) (Node, error) {
	model, err := makeMenuModel(root)
	if err != nil {
		return nil, err
	}
	n := &MenuNode{model: model}
	n.initVirtual(n, root, TypeMenu, props, menuHostParents)
	n.att = makeAttachment(n, n, func() (*WidgetNode, native.Object) {
		host, _ := n.parent.(*WidgetNode)
		if host == nil {
			return nil, nil
		}
		return host, n.model
	})
	n.rebuildTask = scheduler.MakeTask("menu rebuild", n.rebuild)
	return n, nil
}

// Model is the native menu model, rebuilt in place as entries change.
func (n *MenuNode) Model() native.Object {
	return n.model
}

func (n *MenuNode) IsValidChild(child Node) bool {
	_, isWidget := child.(*WidgetNode)
	return !isWidget && menuEntryKinds.Contains(child.Base().typeName)
}

func (n *MenuNode) doAttach(host *WidgetNode, obj native.Object) error {
	setter := host.class.SetterFor("menu-model")
	if setter == "" {
		return StructuralError("<%s> cannot host a menu", host.typeName)
	}
	return n.root.void(host.widget, setter, obj)
}

func (n *MenuNode) doDetach(host *WidgetNode, obj native.Object) error {
	if getter := host.class.GetterFor("menu-model"); getter != "" {
		cur, err := n.root.call(host.widget, getter)
		if err != nil {
			return err
		}
		if !sameObject(cur, obj) {
			return nil
		}
	}
	return n.root.void(host.widget, host.class.SetterFor("menu-model"), nil)
}

func (n *MenuNode) onParentChange(oldParent Node) error {
	return n.att.sync()
}

func (n *MenuNode) attachChild(child Node) error {
	return requestRebuild(n)
}

func (n *MenuNode) DetachDeletedInstance() error {
	err := n.BaseNode.DetachDeletedInstance()
	if syncErr := n.att.sync(); syncErr != nil && err == nil {
		err = syncErr
	}
	return err
}

func (n *MenuNode) rebuild() error {
	if n.deleted {
		return nil
	}
	return fillMenu(n.root, n.model, n.children)
}

func fillMenu(root *RootContainer, model native.Object, entries []Node) error {
	if err := root.void(model, "removeAll"); err != nil {
		return err
	}
	for _, entry := range entries {
		switch v := entry.(type) {
		case *MenuItem:
			if err := root.void(model, "appendItem", v.label(), v.action()); err != nil {
				return err
			}
		case *MenuGroup:
			if err := fillMenu(root, v.model, v.children); err != nil {
				return err
			}
			method := "appendSection"
			if v.typeName == TypeMenuSubmenu {
				method = "appendSubmenu"
			}
			if err := root.void(model, method, v.label(), v.model); err != nil {
				return err
			}
		}
	}
	return nil
}

// MenuGroup is a section or a submenu; both own a nested menu model.
type MenuGroup struct {
	VirtualNode
	model native.Object
}

func makeMenuGroup(typeName string) func(root *RootContainer, props map[string]any) (Node, error) {
	return func(root *RootContainer, props map[string]any) (Node, error) {
		model, err := makeMenuModel(root)
		if err != nil {
			return nil, err
		}
		n := &MenuGroup{model: model}
		n.initVirtual(n, root, typeName, props, menuParents)
		return n, nil
	}
}

func (n *MenuGroup) label() any {
	if label, ok := n.props["label"].(string); ok {
		return label
	}
	return nil
}

func (n *MenuGroup) IsValidChild(child Node) bool {
	_, isWidget := child.(*WidgetNode)
	return !isWidget && menuEntryKinds.Contains(child.Base().typeName)
}

func (n *MenuGroup) attachChild(child Node) error {
	return requestRebuild(n)
}

func (n *MenuGroup) onParentChange(oldParent Node) error {
	if oldParent != nil {
		if err := requestRebuild(oldParent); err != nil {
			return err
		}
	}
	return requestRebuild(n)
}

func (n *MenuGroup) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	return requestRebuild(n)
}

// MenuItem is one activatable entry bound to an action name.
type MenuItem struct {
	VirtualNode
}

func makeMenuItem(root *RootContainer, props map[string]any) (Node, error) {
	n := &MenuItem{}
	n.initVirtual(n, root, TypeMenuItem, props, menuParents)
	return n, nil
}

func (n *MenuItem) label() string {
	label, _ := n.props["label"].(string)
	return label
}

func (n *MenuItem) action() string {
	action, _ := n.props["action"].(string)
	return action
}

func (n *MenuItem) IsValidChild(child Node) bool {
	return false
}

func (n *MenuItem) onParentChange(oldParent Node) error {
	if oldParent != nil {
		if err := requestRebuild(oldParent); err != nil {
			return err
		}
	}
	return requestRebuild(n)
}

func (n *MenuItem) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if !propsChanged(oldProps, newProps, "label", "action") {
		return nil
	}
	return requestRebuild(n)
}
