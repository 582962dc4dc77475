// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/hashicorp/go-multierror"
)

type virtualCtor func(root *RootContainer, props map[string]any) (Node, error)

// virtualCtors maps virtual element types to their constructors.
var virtualCtors map[string]virtualCtor

func init() {
	virtualCtors = map[string]virtualCtor{
		TypeSlot:          makeSlotNode,
		TypePackStart:     makePackNode(TypePackStart, "packStart"),
		TypePackEnd:       makePackNode(TypePackEnd, "packEnd"),
		TypeOverlayChild:  makeOverlayChild,
		TypeStackPage:     makeStackPage,
		TypeNotebookPage:  makeNotebookPage,
		TypeGridChild:     makeGridChild,
		TypeFixedChild:    makeFixedChild,
		TypeAnimation:     makeAnimationNode,
		TypeTextSegment:   makeTextSegmentNode,
		TypeTextTag:       makeTextTag,
		TypeTextAnchor:    makeTextAnchor,
		TypeTextPaintable: makeTextPaintable,
		TypeMenu:          makeMenuNode,
		TypeMenuSection:   makeMenuGroup(TypeMenuSection),
		TypeMenuSubmenu:   makeMenuGroup(TypeMenuSubmenu),
		TypeMenuItem:      makeMenuItem,
		TypeListItem:      makeListItem,
		TypeListSection:   makeListSection,
		TypeTreeItem:      makeTreeItem,
	}
}

// IsVirtualType reports whether typeName names a virtual node kind.
func IsVirtualType(typeName string) bool {
	_, ok := virtualCtors[typeName]
	return ok
}

// Host is the set of lifecycle entry points a diff algorithm drives. Every
// call must come from the goroutine that created the root container.
type Host struct {
	Root *RootContainer
}

func MakeHost(root *RootContainer) *Host {
	return &Host{Root: root}
}

func (h *Host) CreateInstance(typeName string, props map[string]any) (Node, error) {
	if err := h.Root.checkThread("CreateInstance"); err != nil {
		return nil, err
	}
	if ctor := virtualCtors[typeName]; ctor != nil {
		return ctor(h.Root, props)
	}
	return MakeWidgetNode(h.Root, typeName, props)
}

// CreateTextInstance creates a text segment; it is only valid inside text views.
func (h *Host) CreateTextInstance(text string) (Node, error) {
	if err := h.Root.checkThread("CreateTextInstance"); err != nil {
		return nil, err
	}
	return MakeTextSegment(h.Root, text), nil
}

func (h *Host) AppendInitialChild(parent Node, child Node) error {
	if err := h.Root.checkThread("AppendInitialChild"); err != nil {
		return err
	}
	return parent.AppendChild(child)
}

// FinalizeInitialChildren reports whether CommitMount must be called once the
// node is attached.
func (h *Host) FinalizeInitialChildren(n Node, typeName string, props map[string]any) (bool, error) {
	if err := h.Root.checkThread("FinalizeInitialChildren"); err != nil {
		return false, err
	}
	if _, ok := n.(*AnimationNode); ok {
		return true, nil
	}
	autofocus, _ := props["autofocus"].(bool)
	return autofocus, nil
}

// PrepareUpdate reports whether the props differ and CommitUpdate is needed.
func (h *Host) PrepareUpdate(n Node, typeName string, oldProps map[string]any, newProps map[string]any) bool {
	return !propsEqual(oldProps, newProps)
}

func (h *Host) CommitUpdate(n Node, typeName string, oldProps map[string]any, newProps map[string]any) error {
	if err := h.Root.checkThread("CommitUpdate"); err != nil {
		return err
	}
	return n.CommitUpdate(oldProps, newProps)
}

func (h *Host) CommitTextUpdate(n Node, oldText string, newText string) error {
	if err := h.Root.checkThread("CommitTextUpdate"); err != nil {
		return err
	}
	seg, ok := n.(*TextSegment)
	if !ok {
		return StructuralError("<%s> is not a text instance", n.Base().typeName)
	}
	return seg.SetText(newText)
}

func (h *Host) CommitMount(n Node) error {
	if err := h.Root.checkThread("CommitMount"); err != nil {
		return err
	}
	return n.CommitMount()
}

func (h *Host) AppendChild(parent Node, child Node) error {
	if err := h.Root.checkThread("AppendChild"); err != nil {
		return err
	}
	return parent.AppendChild(child)
}

func (h *Host) AppendChildToContainer(child Node) error {
	return h.AppendChild(h.Root.Node(), child)
}

func (h *Host) InsertBefore(parent Node, child Node, before Node) error {
	if err := h.Root.checkThread("InsertBefore"); err != nil {
		return err
	}
	return parent.InsertBefore(child, before)
}

func (h *Host) InsertInContainerBefore(child Node, before Node) error {
	return h.InsertBefore(h.Root.Node(), child, before)
}

func (h *Host) RemoveChild(parent Node, child Node) error {
	if err := h.Root.checkThread("RemoveChild"); err != nil {
		return err
	}
	return parent.RemoveChild(child)
}

func (h *Host) RemoveChildFromContainer(child Node) error {
	return h.RemoveChild(h.Root.Node(), child)
}

func (h *Host) DetachDeletedInstance(n Node) error {
	if err := h.Root.checkThread("DetachDeletedInstance"); err != nil {
		return err
	}
	return n.DetachDeletedInstance()
}

func (h *Host) PrepareForCommit() error {
	if err := h.Root.checkThread("PrepareForCommit"); err != nil {
		return err
	}
	h.Root.BeginCommit()
	return nil
}

// ResetAfterCommit flushes the commit, then drains microtasks even when the
// flush failed.
func (h *Host) ResetAfterCommit() error {
	if err := h.Root.checkThread("ResetAfterCommit"); err != nil {
		return err
	}
	var rtnErr error
	if err := h.Root.EndCommit(); err != nil {
		rtnErr = multierror.Append(rtnErr, err)
	}
	if err := h.Root.RunMicrotasks(); err != nil {
		rtnErr = multierror.Append(rtnErr, err)
	}
	return rtnErr
}
