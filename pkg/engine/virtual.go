// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/scheduler"
)

// virtual element type names
const (
	TypeSlot          = "Slot"
	TypePackStart     = "PackStart"
	TypePackEnd       = "PackEnd"
	TypeOverlayChild  = "OverlayChild"
	TypeStackPage     = "StackPage"
	TypeNotebookPage  = "NotebookPage"
	TypeGridChild     = "GridChild"
	TypeFixedChild    = "FixedChild"
	TypeAnimation     = "Animation"
	TypeTextSegment   = "TextSegment"
	TypeTextTag       = "TextTag"
	TypeTextAnchor    = "TextAnchor"
	TypeTextPaintable = "TextPaintable"
	TypeMenu          = "Menu"
	TypeMenuSection   = "MenuSection"
	TypeMenuSubmenu   = "MenuSubmenu"
	TypeMenuItem      = "MenuItem"
	TypeListItem      = "ListItem"
	TypeListSection   = "ListSection"
	TypeTreeItem      = "TreeItem"
)

var allWidgetKinds = mapset.NewSet(
	string(native.KindPlain), string(native.KindSingleChild), string(native.KindBox),
	string(native.KindPackable), string(native.KindOverlay), string(native.KindStack),
	string(native.KindNotebook), string(native.KindGrid), string(native.KindFixed),
	string(native.KindTextView), string(native.KindListView), string(native.KindMenuHost),
	string(native.KindWindow),
)

var (
	inlineKinds    = mapset.NewSet(TypeTextSegment, TypeTextTag, TypeTextAnchor, TypeTextPaintable)
	listEntryKinds = mapset.NewSet(TypeListItem, TypeListSection, TypeTreeItem)
	positionalKinds = mapset.NewSet(TypePackStart, TypePackEnd, TypeOverlayChild, TypeStackPage,
		TypeNotebookPage, TypeGridChild, TypeFixedChild)
)

// nodeKind is what parent/child sets are matched against: the container kind
// for widget nodes, the type name for virtual nodes.
func nodeKind(n Node) string {
	if wn, ok := n.(*WidgetNode); ok {
		return string(wn.Kind())
	}
	return n.Base().typeName
}

func isInline(n Node) bool {
	_, isWidget := n.(*WidgetNode)
	return !isWidget && inlineKinds.Contains(n.Base().typeName)
}

func isListEntry(n Node) bool {
	_, isWidget := n.(*WidgetNode)
	return !isWidget && listEntryKinds.Contains(n.Base().typeName)
}

// childChangeHook is implemented by every virtual kind that reacts to its child
// widget being set, replaced or cleared.
type childChangeHook interface {
	onChildChange(old native.Widget) error
}

// VirtualNode mediates between native widgets without owning one itself. It
// holds a non-owning reference to the widget its single widget child contributes.
type VirtualNode struct {
	BaseNode
	childWidget native.Widget
	parentKinds mapset.Set[string]
}

func (v *VirtualNode) initVirtual(self Node, root *RootContainer, typeName string, props map[string]any, parentKinds mapset.Set[string]) {
	v.init(self, root, typeName, props)
	v.parentKinds = parentKinds
}

func (v *VirtualNode) IsValidParent(parent Node) bool {
	if v.parentKinds == nil {
		return true
	}
	return v.parentKinds.Contains(nodeKind(parent))
}

// IsValidChild accepts a single widget-contributing child.
func (v *VirtualNode) IsValidChild(child Node) bool {
	if !occupiesWidgetSlot(child) {
		return false
	}
	for _, c := range v.children {
		if c != child && occupiesWidgetSlot(c) {
			return false
		}
	}
	return true
}

// ChildWidget returns the native widget of the child.
func (v *VirtualNode) ChildWidget() (native.Widget, error) {
	if v.childWidget == nil {
		return nil, MissingAnchorError(v.self, "child widget")
	}
	return v.childWidget, nil
}

// ParentWidget returns the widget node this node is attached under.
func (v *VirtualNode) ParentWidget() (*WidgetNode, error) {
	wn, ok := v.parent.(*WidgetNode)
	if !ok || wn == nil {
		return nil, MissingAnchorError(v.self, "parent widget")
	}
	return wn, nil
}

func (v *VirtualNode) contributedWidget() native.Widget {
	return v.childWidget
}

func (v *VirtualNode) attachChild(child Node) error {
	if w := child.contributedWidget(); w != nil {
		return v.self.(widgetHost).hostAttach(child, w)
	}
	return nil
}

func (v *VirtualNode) detachChild(child Node) error {
	if w := child.contributedWidget(); w != nil {
		return v.self.(widgetHost).hostDetach(child, w)
	}
	return nil
}

func (v *VirtualNode) hostAttach(from Node, w native.Widget) error {
	if v.childWidget == w {
		return nil
	}
	old := v.childWidget
	v.childWidget = w
	if hook, ok := v.self.(childChangeHook); ok {
		return hook.onChildChange(old)
	}
	return nil
}

func (v *VirtualNode) hostDetach(from Node, w native.Widget) error {
	if v.childWidget != w {
		return nil
	}
	v.childWidget = nil
	if hook, ok := v.self.(childChangeHook); ok {
		return hook.onChildChange(w)
	}
	return nil
}

// attachStrategy performs the native side of placing a child object into a
// host widget. Objects are widgets for every kind except menus.
type attachStrategy interface {
	doAttach(host *WidgetNode, obj native.Object) error
	doDetach(host *WidgetNode, obj native.Object) error
}

// attachment tracks what a virtual node has applied natively against what it
// currently wants applied. Detaches run in the HIGH tier and attaches in the
// NORMAL tier of the scheduler, so within one commit every stale occupant is
// out before a new one goes in.
type attachment struct {
	node        Node
	strategy    attachStrategy
	desired     func() (*WidgetNode, native.Object)
	applied     native.Object
	appliedHost *WidgetNode
	stale       bool
	detachTask  *scheduler.Task
	attachTask  *scheduler.Task
}

func makeAttachment(node Node, strategy attachStrategy, desired func() (*WidgetNode, native.Object)) *attachment {
	a := &attachment{node: node, strategy: strategy, desired: desired}
	name := node.Base().typeName
	a.detachTask = scheduler.MakeTask(name+" detach", a.runDetach)
	a.attachTask = scheduler.MakeTask(name+" attach", a.runAttach)
	return a
}

// widgetDesired is the desired function for nodes that place their child widget
// into their parent widget.
func widgetDesired(v *VirtualNode) func() (*WidgetNode, native.Object) {
	return func() (*WidgetNode, native.Object) {
		host, _ := v.parent.(*WidgetNode)
		if host == nil || v.childWidget == nil {
			return nil, nil
		}
		return host, v.childWidget
	}
}

func (a *attachment) upToDate() bool {
	host, obj := a.desired()
	return !a.stale && a.applied != nil && host == a.appliedHost && sameObject(a.applied, obj)
}

// sync schedules whatever is needed to converge on the desired state.
func (a *attachment) sync() error {
	sched := a.node.Base().root.Scheduler
	if a.applied != nil && !a.upToDate() {
		if err := sched.Schedule(a.detachTask, scheduler.PriorityHigh); err != nil {
			return err
		}
	}
	if host, obj := a.desired(); host != nil && obj != nil {
		return sched.Schedule(a.attachTask, scheduler.PriorityNormal)
	}
	return nil
}

// markStale forces a detach and re-attach, used when placement props change.
func (a *attachment) markStale() error {
	if a.applied == nil {
		return nil
	}
	a.stale = true
	return a.sync()
}

func (a *attachment) runDetach() error {
	if a.applied == nil || a.upToDate() {
		return nil
	}
	obj, host := a.applied, a.appliedHost
	a.applied, a.appliedHost, a.stale = nil, nil, false
	if host.destroyed {
		return nil
	}
	return a.strategy.doDetach(host, obj)
}

func (a *attachment) runAttach() error {
	host, obj := a.desired()
	if host == nil || obj == nil || a.upToDate() {
		return nil
	}
	if a.applied != nil {
		if err := a.runDetach(); err != nil {
			return err
		}
	}
	if host.destroyed || a.node.Base().deleted {
		return nil
	}
	if err := a.strategy.doAttach(host, obj); err != nil {
		return err
	}
	a.applied, a.appliedHost = obj, host
	return nil
}

// attachedVirtual is the shared base of the virtual kinds that place one child
// widget into their parent widget through an attachStrategy.
type attachedVirtual struct {
	VirtualNode
	att *attachment
}

func (p *attachedVirtual) initAttached(self Node, strategy attachStrategy, root *RootContainer, typeName string, props map[string]any, parentKinds mapset.Set[string]) {
	p.initVirtual(self, root, typeName, props, parentKinds)
	p.att = makeAttachment(self, strategy, widgetDesired(&p.VirtualNode))
}

func (p *attachedVirtual) onChildChange(old native.Widget) error {
	return p.att.sync()
}

func (p *attachedVirtual) onParentChange(oldParent Node) error {
	return p.att.sync()
}

// DetachDeletedInstance also drops the attachment if a detach is still owed.
func (p *attachedVirtual) DetachDeletedInstance() error {
	err := p.BaseNode.DetachDeletedInstance()
	if syncErr := p.att.sync(); syncErr != nil && err == nil {
		err = syncErr
	}
	return err
}
