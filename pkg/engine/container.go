// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
)

// widgetHost is implemented by nodes that can receive a native widget from a
// child: widget nodes place it natively, virtual nodes remember it and apply
// it through their own attach strategy.
type widgetHost interface {
	hostAttach(from Node, w native.Widget) error
	hostDetach(from Node, w native.Widget) error
}

func sameObject(val any, obj native.Object) bool {
	if val == nil || obj == nil {
		return val == nil && obj == nil
	}
	o, ok := val.(native.Object)
	return ok && o.Handle() == obj.Handle()
}

// hostAttach places w, contributed by the direct child from, into this widget
// using the container strategy of the class. Calling it again for a widget that
// is already in place only fixes its order.
func (n *WidgetNode) hostAttach(from Node, w native.Widget) error {
	if n.destroyed || w == nil {
		return nil
	}
	curParent, err := n.root.nativeParent(w)
	if err != nil {
		return err
	}
	attached := curParent != nil && curParent.Handle() == n.widget.Handle()
	switch n.class.Kind {
	case native.KindBox:
		prev, err := n.prevWidget(from, n.widget)
		if err != nil {
			return err
		}
		var prevArg any
		if prev != nil {
			prevArg = prev
		}
		if attached {
			return n.root.void(n.widget, "reorderChildAfter", w, prevArg)
		}
		return n.root.void(n.widget, "insertChildAfter", w, prevArg)
	case native.KindSingleChild, native.KindWindow, native.KindOverlay:
		cur, err := n.root.call(n.widget, "getChild")
		if err != nil {
			return err
		}
		if sameObject(cur, w) {
			return nil
		}
		return n.root.void(n.widget, "setChild", w)
	}
	if attached {
		return nil
	}
	switch n.class.Kind {
	case native.KindPackable:
		return n.root.void(n.widget, "packStart", w)
	case native.KindStack:
		return n.root.void(n.widget, "addNamed", w, from.Base().Id)
	case native.KindNotebook:
		return n.root.void(n.widget, "insertPage", w, nil, -1)
	case native.KindGrid:
		return n.root.void(n.widget, "attach", w, 0, n.IndexOf(from), 1, 1)
	case native.KindFixed:
		return n.root.void(n.widget, "put", w, 0, 0)
	}
	return StructuralError("<%s> cannot hold widget children", n.typeName)
}

// hostDetach removes w if it is still natively held by this widget; a widget
// that was already re-parented elsewhere is left alone.
func (n *WidgetNode) hostDetach(from Node, w native.Widget) error {
	if n.destroyed || w == nil {
		return nil
	}
	switch n.class.Kind {
	case native.KindSingleChild, native.KindWindow, native.KindOverlay:
		cur, err := n.root.call(n.widget, "getChild")
		if err != nil {
			return err
		}
		if !sameObject(cur, w) {
			return nil
		}
		return n.root.void(n.widget, "setChild", nil)
	case native.KindNotebook:
		pageVal, err := n.root.call(n.widget, "pageNum", w)
		if err != nil {
			return err
		}
		if page, ok := util.ToInt(pageVal); ok && page >= 0 {
			return n.root.void(n.widget, "removePage", page)
		}
		return nil
	}
	curParent, err := n.root.nativeParent(w)
	if err != nil {
		return err
	}
	if curParent == nil || curParent.Handle() != n.widget.Handle() {
		return nil
	}
	return n.root.void(n.widget, "remove", w)
}
