// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"log"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/animation"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

var animationParents = func() mapset.Set[string] {
	rtn := allWidgetKinds.Difference(mapset.NewSet(
		string(native.KindPlain), string(native.KindTextView),
		string(native.KindListView), string(native.KindMenuHost),
	))
	return rtn.Union(positionalKinds).Union(mapset.NewSet(TypeTextAnchor, TypeSlot))
}()

// AnimationNode is transparent in the tree: its child widget is placed into the
// parent exactly as if there were no wrapper, while a controller interpolates
// the widget's numeric properties.
type AnimationNode struct {
	VirtualNode
	controller     *animation.Controller
	initialApplied bool
	mounted        bool
	pending        bool
}

func makeAnimationNode(root *RootContainer, props map[string]any) (Node, error) {
	n := &AnimationNode{}
	n.initVirtual(n, root, TypeAnimation, props, animationParents)
	if _, err := animation.ParseTransition(props["transition"], root.transitionDefaults()); err != nil {
		return nil, StructuralError("<%s>: %v", TypeAnimation, err)
	}
	return n, nil
}

func snapshotProp(props map[string]any, key string) map[string]any {
	snap, _ := props[key].(map[string]any)
	return snap
}

func (n *AnimationNode) hostAttach(from Node, w native.Widget) error {
	if n.childWidget == w {
		return nil
	}
	if n.childWidget != nil {
		if err := n.hostDetach(from, n.childWidget); err != nil {
			return err
		}
	}
	n.childWidget = w
	n.controller = animation.MakeController(n.root.Clock, n.applyFn(w))
	if initial := snapshotProp(n.props, "initial"); initial != nil && !n.initialApplied {
		n.initialApplied = true
		if err := n.controller.Set(initial); err != nil {
			return err
		}
	}
	n.pending = true
	if host, ok := n.parent.(widgetHost); ok {
		if err := host.hostAttach(n, w); err != nil {
			return err
		}
	}
	if n.mounted {
		return n.start()
	}
	return nil
}

func (n *AnimationNode) hostDetach(from Node, w native.Widget) error {
	if n.childWidget != w {
		return nil
	}
	if n.controller != nil {
		n.controller.Stop()
		n.controller = nil
	}
	n.childWidget = nil
	if host, ok := n.parent.(widgetHost); ok {
		return host.hostDetach(n, w)
	}
	return nil
}

func (n *AnimationNode) applyFn(w native.Widget) animation.ApplyFn {
	class := n.root.Registry.Lookup(w.ClassName())
	return func(values map[string]any) error {
		if class == nil || n.deleted {
			return nil
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			setter := class.SetterFor(util.KebabCase(k))
			if setter == "" {
				continue
			}
			if err := n.root.void(w, setter, values[k]); err != nil {
				return err
			}
		}
		return nil
	}
}

// start runs the transition toward the animate snapshot if one is owed.
func (n *AnimationNode) start() error {
	if !n.pending || n.controller == nil {
		return nil
	}
	n.pending = false
	target := snapshotProp(n.props, "animate")
	if target == nil {
		return nil
	}
	if n.root.Clock == nil {
		if err := n.controller.Set(target); err != nil {
			return err
		}
		n.complete()
		return nil
	}
	tr, err := animation.ParseTransition(n.props["transition"], n.root.transitionDefaults())
	if err != nil {
		return StructuralError("<%s>: %v", TypeAnimation, err)
	}
	return n.controller.AnimateTo(target, tr, n.complete)
}

func (n *AnimationNode) complete() {
	cb, _ := n.props["onAnimationComplete"].(func())
	if cb == nil {
		return
	}
	if err := n.root.Dispatch("animation complete", cb); err != nil {
		log.Printf("[engine] %v\n", err)
	}
}

// Running reports whether a transition is in flight.
func (n *AnimationNode) Running() bool {
	return n.controller != nil && n.controller.Running()
}

func (n *AnimationNode) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if util.MapShallowEqual(snapshotProp(oldProps, "animate"), snapshotProp(newProps, "animate")) {
		return nil
	}
	n.pending = true
	if n.mounted {
		return n.start()
	}
	return nil
}

func (n *AnimationNode) CommitMount() error {
	n.mounted = true
	return n.start()
}

func (n *AnimationNode) DetachDeletedInstance() error {
	if n.controller != nil {
		n.controller.Stop()
	}
	return n.BaseNode.DetachDeletedInstance()
}
