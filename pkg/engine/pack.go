// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/native"
)

var packableParents = mapset.NewSet(string(native.KindPackable))

// PackNode packs its child at the start or end of a packable parent
// (header bars, action bars).
type PackNode struct {
	attachedVirtual
	method string
}

func makePackNode(typeName string, method string) func(root *RootContainer, props map[string]any) (Node, error) {
	return func(root *RootContainer, props map[string]any) (Node, error) {
		n := &PackNode{method: method}
		n.initAttached(n, n, root, typeName, props, packableParents)
		return n, nil
	}
}

func (n *PackNode) doAttach(host *WidgetNode, obj native.Object) error {
	return n.root.void(host.widget, n.method, obj)
}

func (n *PackNode) doDetach(host *WidgetNode, obj native.Object) error {
	return removeIfChildOf(n.root, host, obj)
}

// removeIfChildOf calls remove only while obj is still natively parented to host.
func removeIfChildOf(root *RootContainer, host *WidgetNode, obj native.Object) error {
	return removeIfChildOfWith(root, host, obj, "remove")
}

func removeIfChildOfWith(root *RootContainer, host *WidgetNode, obj native.Object, method string) error {
	w, ok := obj.(native.Widget)
	if !ok {
		return nil
	}
	parent, err := root.nativeParent(w)
	if err != nil {
		return err
	}
	if parent == nil || parent.Handle() != host.widget.Handle() {
		return nil
	}
	return root.void(host.widget, method, w)
}
