// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/google/uuid"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

// Node is one instance in the reconciled tree. The exported methods are the
// lifecycle contract the diff algorithm drives; the unexported hooks let the
// concrete node kinds react to structural changes.
type Node interface {
	Base() *BaseNode
	Parent() Node
	Children() []Node
	Deleted() bool
	IsValidChild(child Node) bool
	IsValidParent(parent Node) bool
	AppendChild(child Node) error
	InsertBefore(child Node, before Node) error
	RemoveChild(child Node) error
	CommitUpdate(oldProps map[string]any, newProps map[string]any) error
	CommitMount() error
	DetachDeletedInstance() error

	// attachChild runs after child was placed at its index in the children sequence
	// (new or reordered); detachChild runs before child leaves it.
	attachChild(child Node) error
	detachChild(child Node) error
	onParentChange(oldParent Node) error
	// contributedWidget is the native widget this node currently places into its
	// parent, used to find native siblings.
	contributedWidget() native.Widget
}

// BaseNode carries identity, props and tree links. Concrete kinds embed it and
// register themselves as self so BaseNode can dispatch to their overrides.
type BaseNode struct {
	Id       string
	typeName string
	props    map[string]any
	parent   Node
	children []Node
	root     *RootContainer
	self     Node
	deleted  bool
}

func (b *BaseNode) init(self Node, root *RootContainer, typeName string, props map[string]any) {
	b.Id = uuid.New().String()
	b.self = self
	b.root = root
	b.typeName = typeName
	b.props = vdom.CopyProps(props)
}

func (b *BaseNode) Base() *BaseNode {
	return b
}

func (b *BaseNode) TypeName() string {
	return b.typeName
}

func (b *BaseNode) Props() map[string]any {
	return b.props
}

func (b *BaseNode) Root() *RootContainer {
	return b.root
}

func (b *BaseNode) Parent() Node {
	return b.parent
}

func (b *BaseNode) Children() []Node {
	return append([]Node(nil), b.children...)
}

func (b *BaseNode) Deleted() bool {
	return b.deleted
}

func (b *BaseNode) IndexOf(child Node) int {
	for i, c := range b.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (b *BaseNode) IsValidChild(child Node) bool {
	return true
}

func (b *BaseNode) IsValidParent(parent Node) bool {
	return true
}

func (b *BaseNode) checkLink(parent Node, child Node) error {
	if !parent.IsValidChild(child) || !child.IsValidParent(parent) {
		return invalidChildError(parent, child)
	}
	return nil
}

// SetParent validates and sets the parent link. It does not touch the parent's
// children sequence; AppendChild/InsertBefore/RemoveChild keep both in sync.
func (b *BaseNode) SetParent(parent Node) error {
	if parent != nil {
		if err := b.checkLink(parent, b.self); err != nil {
			return err
		}
	}
	old := b.parent
	b.parent = parent
	if old == parent {
		return nil
	}
	return b.self.onParentChange(old)
}

func (b *BaseNode) adopt(child Node, pos int) error {
	cb := child.Base()
	if cb.parent != nil {
		return StructuralError("<%s> already has parent <%s>", cb.typeName, cb.parent.Base().typeName)
	}
	if err := b.checkLink(b.self, child); err != nil {
		return err
	}
	if pos < 0 || pos > len(b.children) {
		pos = len(b.children)
	}
	b.children = append(b.children, nil)
	copy(b.children[pos+1:], b.children[pos:])
	b.children[pos] = child
	if err := cb.SetParent(b.self); err != nil {
		b.children = append(b.children[:pos], b.children[pos+1:]...)
		cb.parent = nil
		return err
	}
	return b.self.attachChild(child)
}

func (b *BaseNode) AppendChild(child Node) error {
	if child == nil {
		return StructuralError("<%s>: cannot append a nil child", b.typeName)
	}
	if child.Base().parent == b.self {
		return b.moveChild(child, len(b.children)-1)
	}
	return b.adopt(child, -1)
}

// InsertBefore places child immediately before the existing child before. A
// child that is already present is reordered without being removed.
func (b *BaseNode) InsertBefore(child Node, before Node) error {
	if child == nil {
		return StructuralError("<%s>: cannot insert a nil child", b.typeName)
	}
	if before == nil {
		return b.AppendChild(child)
	}
	beforeIdx := b.IndexOf(before)
	if beforeIdx < 0 {
		return StructuralError("<%s>: insert <%s> before <%s>, which is not a child", b.typeName, child.Base().typeName, before.Base().typeName)
	}
	if child == before {
		return nil
	}
	curIdx := b.IndexOf(child)
	if curIdx >= 0 {
		if curIdx < beforeIdx {
			beforeIdx--
		}
		return b.moveChild(child, beforeIdx)
	}
	return b.adopt(child, beforeIdx)
}

func (b *BaseNode) moveChild(child Node, pos int) error {
	curIdx := b.IndexOf(child)
	if curIdx == pos {
		return nil
	}
	b.children = append(b.children[:curIdx], b.children[curIdx+1:]...)
	b.children = append(b.children, nil)
	copy(b.children[pos+1:], b.children[pos:])
	b.children[pos] = child
	return b.self.attachChild(child)
}

func (b *BaseNode) RemoveChild(child Node) error {
	idx := b.IndexOf(child)
	if idx < 0 {
		return StructuralError("<%s>: remove <%s>, which is not a child", b.typeName, child.Base().typeName)
	}
	detachErr := b.self.detachChild(child)
	b.children = append(b.children[:idx], b.children[idx+1:]...)
	if err := child.Base().SetParent(nil); err != nil && detachErr == nil {
		detachErr = err
	}
	return detachErr
}

// CommitUpdate only replaces the stored props.
func (b *BaseNode) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	b.props = vdom.CopyProps(newProps)
	return nil
}

func (b *BaseNode) CommitMount() error {
	return nil
}

// DetachDeletedInstance releases the signal registrations this node owns.
func (b *BaseNode) DetachDeletedInstance() error {
	b.deleted = true
	b.root.Signals.Clear(b.Id)
	return nil
}

func (b *BaseNode) attachChild(child Node) error {
	return nil
}

func (b *BaseNode) detachChild(child Node) error {
	return nil
}

func (b *BaseNode) onParentChange(oldParent Node) error {
	return nil
}

func (b *BaseNode) contributedWidget() native.Widget {
	return nil
}

// prevWidget returns the nearest preceding sibling widget that is natively
// parented to nativeParent, or nil when child comes first.
func (b *BaseNode) prevWidget(child Node, nativeParent native.Widget) (native.Widget, error) {
	idx := b.IndexOf(child)
	for i := idx - 1; i >= 0; i-- {
		w := b.children[i].contributedWidget()
		if w == nil {
			continue
		}
		p, err := b.root.nativeParent(w)
		if err != nil {
			return nil, err
		}
		if p == nativeParent {
			return w, nil
		}
	}
	return nil, nil
}

// nearestWidgetNode walks up from n (exclusive) to the closest widget node.
func nearestWidgetNode(n Node) *WidgetNode {
	for p := n.Base().parent; p != nil; p = p.Base().parent {
		if wn, ok := p.(*WidgetNode); ok {
			return wn
		}
	}
	return nil
}

// windowsNode is the root container node when there is no surface widget: it
// holds top-level windows and presents them as they are mounted.
type windowsNode struct {
	BaseNode
}

func makeWindowsNode(root *RootContainer) *windowsNode {
	n := &windowsNode{}
	n.init(n, root, "#root", nil)
	return n
}

func (n *windowsNode) IsValidChild(child Node) bool {
	wn, ok := child.(*WidgetNode)
	return ok && wn.Kind() == native.KindWindow
}

func (n *windowsNode) attachChild(child Node) error {
	wn := child.(*WidgetNode)
	if !wn.class.HasMethod("present") {
		return nil
	}
	return n.root.void(wn.widget, "present")
}
