// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"
	"reflect"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/scheduler"
	"github.com/wavetermdev/nativetree/pkg/signalstore"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

// signals that keep firing while a node's handlers are blocked for programmatic writes
var nonBlockableSignals = mapset.NewSet("destroy", "close-request", "unmap", "unrealize")

// WidgetNode owns exactly one native widget for its whole lifetime.
type WidgetNode struct {
	BaseNode
	class       *native.Class
	widget      native.Widget
	destroyed   bool
	destroyTask *scheduler.Task
	text        *textHost
	list        *listController
}

// MakeWidgetNode constructs the native widget registered for typeName.
// Constructor arguments come from props.
func MakeWidgetNode(root *RootContainer, typeName string, props map[string]any) (*WidgetNode, error) {
	class := root.Registry.Lookup(typeName)
	if class == nil {
		return nil, StructuralError("unknown element type <%s>", typeName)
	}
	obj, err := root.Registry.Construct(typeName, props)
	if err != nil {
		return nil, fmt.Errorf("constructing <%s>: %w", typeName, err)
	}
	widget, ok := obj.(native.Widget)
	if !ok {
		return nil, StructuralError("<%s> is not a widget class", typeName)
	}
	return makeWidgetNode(root, class, widget, props)
}

// MakeWidgetNodeFromInstance wraps an existing native widget. The node owns it
// from here on.
func MakeWidgetNodeFromInstance(root *RootContainer, typeName string, widget native.Widget, props map[string]any) (*WidgetNode, error) {
	class := root.Registry.Lookup(typeName)
	if class == nil {
		return nil, StructuralError("unknown element type <%s>", typeName)
	}
	if widget == nil {
		return nil, fmt.Errorf("<%s>: nil native instance", typeName)
	}
	return makeWidgetNode(root, class, widget, props)
}

func makeWidgetNode(root *RootContainer, class *native.Class, widget native.Widget, props map[string]any) (*WidgetNode, error) {
	n := &WidgetNode{class: class, widget: widget}
	n.init(n, root, class.Name(), nil)
	n.destroyTask = scheduler.MakeTask("destroy "+class.Name(), n.destroyNow)
	switch class.Kind {
	case native.KindTextView:
		n.text = makeTextHost(n)
	case native.KindListView:
		lc, err := makeListController(n, props)
		if err != nil {
			return nil, err
		}
		n.list = lc
	}
	ctorParams := mapset.NewSet(class.Desc.ConstructorParams...)
	initial := make(map[string]any, len(props))
	for k, v := range props {
		if !ctorParams.Contains(util.KebabCase(k)) {
			initial[k] = v
		}
	}
	if err := n.applyProps(nil, initial); err != nil {
		return nil, err
	}
	n.props = vdom.CopyProps(props)
	if n.list != nil {
		if err := n.list.scheduleSelection(); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *WidgetNode) Widget() native.Widget {
	return n.widget
}

func (n *WidgetNode) Class() *native.Class {
	return n.class
}

func (n *WidgetNode) Kind() native.Kind {
	return n.class.Kind
}

func (n *WidgetNode) Destroyed() bool {
	return n.destroyed
}

func (n *WidgetNode) contributedWidget() native.Widget {
	return n.widget
}

func (n *WidgetNode) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	err := n.applyProps(oldProps, newProps)
	n.props = vdom.CopyProps(newProps)
	if n.list != nil {
		if listErr := n.list.commitUpdate(oldProps, newProps); listErr != nil && err == nil {
			err = listErr
		}
	}
	return err
}

func isReservedProp(key string) bool {
	return key == vdom.ChildrenPropKey || key == vdom.KeyPropKey || key == vdom.RefPropKey
}

// propChanged treats func-valued props as always changed: closures created by
// the same literal share a code pointer and cannot be told apart.
func propChanged(oldVal any, oldOk bool, newVal any) bool {
	if !oldOk {
		return true
	}
	if oldVal != nil && newVal != nil && reflect.TypeOf(newVal).Kind() == reflect.Func {
		return true
	}
	return !util.ValEqual(oldVal, newVal)
}

// propsEqual is a shallow compare of two prop maps that ignores reserved keys.
func propsEqual(oldProps map[string]any, newProps map[string]any) bool {
	return len(changedKeys(oldProps, newProps)) == 0
}

func changedKeys(oldProps map[string]any, newProps map[string]any) []string {
	var keys []string
	for k, v := range newProps {
		if isReservedProp(k) {
			continue
		}
		if ov, ok := oldProps[k]; propChanged(ov, ok, v) {
			keys = append(keys, k)
		}
	}
	for k := range oldProps {
		if isReservedProp(k) {
			continue
		}
		if _, ok := newProps[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// applyProps diffs old against new and writes the changes: event props become
// signal registrations, everything else a property setter. Keys the class does
// not know are ignored.
func (n *WidgetNode) applyProps(oldProps map[string]any, newProps map[string]any) error {
	var setters []native.Call
	for _, key := range changedKeys(oldProps, newProps) {
		val := newProps[key]
		if n.list != nil && n.list.ownsProp(key) {
			continue
		}
		if util.IsEventProp(key) {
			if err := n.setSignal(key, val); err != nil {
				return err
			}
			continue
		}
		propName := util.KebabCase(key)
		setter := n.class.SetterFor(propName)
		if setter == "" {
			if n.root.Settings.LogMutations {
				log.Printf("[engine] <%s> ignoring unknown prop %q\n", n.typeName, key)
			}
			continue
		}
		pm := n.class.Property(propName)
		if pm != nil && pm.ConstructOnly {
			continue
		}
		if val == nil && pm != nil && !pm.Nullable {
			continue
		}
		setters = append(setters, native.Call{Target: n.widget, Method: setter, Args: []any{val}})
	}
	return n.writeProps(setters)
}

// writeProps runs setter calls with this node's blockable handlers blocked, so
// programmatic writes do not echo back as user events.
func (n *WidgetNode) writeProps(setters []native.Call) error {
	if len(setters) == 0 {
		return nil
	}
	if n.root.Signals.Count(n.Id) == 0 {
		for _, c := range setters {
			if err := n.root.void(c.Target, c.Method, c.Args...); err != nil {
				return err
			}
		}
		return nil
	}
	if err := n.root.Batcher.Flush(); err != nil {
		return err
	}
	n.root.Signals.Block(n.Id)
	defer n.root.Signals.Unblock(n.Id)
	for _, c := range setters {
		if _, err := c.Target.Call(c.Method, c.Args...); err != nil {
			return err
		}
	}
	return nil
}

func (n *WidgetNode) setSignal(key string, val any) error {
	event := util.EventName(key)
	if n.class.Signal(event) == nil {
		if n.root.Settings.LogMutations {
			log.Printf("[engine] <%s> has no signal %q\n", n.typeName, event)
		}
		return nil
	}
	handler, err := toSignalHandler(val)
	if err != nil {
		return fmt.Errorf("<%s> %s: %w", n.typeName, key, err)
	}
	opts := &signalstore.Options{NonBlockable: nonBlockableSignals.Contains(event)}
	return n.root.Signals.Set(n.Id, n.widget, event, handler, opts)
}

// CommitMount handles autofocus.
func (n *WidgetNode) CommitMount() error {
	if autofocus, _ := n.props["autofocus"].(bool); autofocus && n.class.HasMethod("grabFocus") {
		return n.root.void(n.widget, "grabFocus")
	}
	return nil
}

// DetachDeletedInstance releases signals and schedules the widget's destruction
// after this commit's detachments.
// DetachDeletedInstance schedules the destroy even when releasing the rows failed.
func (n *WidgetNode) DetachDeletedInstance() error {
	var errs *multierror.Error
	if err := n.BaseNode.DetachDeletedInstance(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if n.list != nil {
		if err := n.list.teardown(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := n.root.Scheduler.Schedule(n.destroyTask, scheduler.PriorityHigh); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (n *WidgetNode) destroyNow() error {
	if n.destroyed {
		return nil
	}
	n.destroyed = true
	if err := n.root.Batcher.Flush(); err != nil {
		return err
	}
	n.widget.Destroy()
	return nil
}

func (n *WidgetNode) IsValidChild(child Node) bool {
	switch n.class.Kind {
	case native.KindTextView:
		return isInline(child)
	case native.KindListView:
		return isListEntry(child)
	}
	switch child.(type) {
	case *WidgetNode, *AnimationNode:
		if !n.acceptsWidgets() {
			return false
		}
		if n.singleOccupant() {
			for _, c := range n.children {
				if c != child && occupiesWidgetSlot(c) {
					return false
				}
			}
		}
		return true
	}
	return !isInline(child) && !isListEntry(child)
}

func occupiesWidgetSlot(n Node) bool {
	switch n.(type) {
	case *WidgetNode, *AnimationNode:
		return true
	}
	return false
}

func (n *WidgetNode) acceptsWidgets() bool {
	switch n.class.Kind {
	case native.KindPlain, native.KindMenuHost, native.KindTextView, native.KindListView:
		return false
	}
	return true
}

func (n *WidgetNode) singleOccupant() bool {
	switch n.class.Kind {
	case native.KindSingleChild, native.KindWindow, native.KindOverlay:
		return true
	}
	return false
}

// placementAware virtual children re-place themselves when their index among
// siblings changes.
type placementAware interface {
	onPlacement() error
}

func (n *WidgetNode) attachChild(child Node) error {
	switch {
	case n.text != nil:
		return n.text.attachChild(child)
	case n.list != nil:
		return n.list.attachChild(child)
	}
	switch c := child.(type) {
	case *WidgetNode:
		return n.hostAttach(child, c.widget)
	case *AnimationNode:
		if w := c.contributedWidget(); w != nil {
			return n.hostAttach(child, w)
		}
	case placementAware:
		return c.onPlacement()
	}
	return nil
}

func (n *WidgetNode) detachChild(child Node) error {
	switch {
	case n.text != nil:
		return n.text.detachChild(child)
	case n.list != nil:
		return n.list.detachChild(child)
	}
	if occupiesWidgetSlot(child) {
		if w := child.contributedWidget(); w != nil {
			return n.hostDetach(child, w)
		}
	}
	return nil
}
