// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"

	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

// SlotNode places its child into a named single-child property of the parent
// widget ("titlebar", "startChild", ...) through that property's setter.
type SlotNode struct {
	attachedVirtual
	appliedSetter string
	appliedGetter string
}

func makeSlotNode(root *RootContainer, props map[string]any) (Node, error) {
	n := &SlotNode{}
	n.initAttached(n, n, root, TypeSlot, props, allWidgetKinds)
	if n.slotId() == "" {
		return nil, StructuralError("<%s> requires an id prop", TypeSlot)
	}
	return n, nil
}

func (n *SlotNode) slotId() string {
	id, _ := n.props["id"].(string)
	return id
}

func (n *SlotNode) doAttach(host *WidgetNode, obj native.Object) error {
	propName := util.KebabCase(n.slotId())
	setter := host.class.SetterFor(propName)
	if setter == "" {
		return StructuralError("<%s> has no slot %q", host.typeName, n.slotId())
	}
	if err := n.root.void(host.widget, setter, obj); err != nil {
		return fmt.Errorf("slot %q: %w", n.slotId(), err)
	}
	n.appliedSetter = setter
	n.appliedGetter = host.class.GetterFor(propName)
	return nil
}

// doDetach clears the slot only if it still holds the widget this node put there.
func (n *SlotNode) doDetach(host *WidgetNode, obj native.Object) error {
	setter, getter := n.appliedSetter, n.appliedGetter
	n.appliedSetter, n.appliedGetter = "", ""
	if setter == "" {
		return nil
	}
	if getter != "" {
		cur, err := n.root.call(host.widget, getter)
		if err != nil {
			return err
		}
		if !sameObject(cur, obj) {
			return nil
		}
	}
	return n.root.void(host.widget, setter, nil)
}

func (n *SlotNode) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	oldId := n.slotId()
	n.props = vdom.CopyProps(newProps)
	if n.slotId() == oldId {
		return nil
	}
	if n.slotId() == "" {
		return StructuralError("<%s> requires an id prop", TypeSlot)
	}
	return n.att.markStale()
}
