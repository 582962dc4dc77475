// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package nativefake

import (
	"fmt"
	"strings"

	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
)

type Widget struct {
	*Object
	parent   *Widget
	children []*Widget
	buffer   *TextBuffer
}

func (tk *Toolkit) NewWidget(class string) *Widget {
	w := &Widget{Object: tk.makeObject(class)}
	w.installMethods()
	return w
}

func (w *Widget) Parent() native.Widget {
	if w.parent == nil {
		return nil
	}
	return w.parent
}

// ParentWidget is Parent without the interface conversion.
func (w *Widget) ParentWidget() *Widget {
	return w.parent
}

func (w *Widget) Children() []*Widget {
	return append([]*Widget(nil), w.children...)
}

func (w *Widget) Destroy() {
	w.record("destroy", nil)
	if w.Destroyed {
		return
	}
	w.Emit("destroy")
	if w.parent != nil {
		w.parent.removeChild(w)
	}
	w.Destroyed = true
}

func asWidget(arg any) (*Widget, error) {
	if arg == nil {
		return nil, nil
	}
	if w, ok := arg.(*Widget); ok {
		return w, nil
	}
	if nw, ok := arg.(native.Widget); ok && nw == nil {
		return nil, nil
	}
	return nil, fmt.Errorf("expected widget argument, got %T", arg)
}

func (w *Widget) adopt(child *Widget, pos int) error {
	if child == nil {
		return fmt.Errorf("%s: nil child", w.class)
	}
	if child.parent != nil {
		return fmt.Errorf("%s#%d already has a parent (%s#%d)", child.class, child.handle, child.parent.class, child.parent.handle)
	}
	if pos < 0 || pos > len(w.children) {
		pos = len(w.children)
	}
	w.children = append(w.children, nil)
	copy(w.children[pos+1:], w.children[pos:])
	w.children[pos] = child
	child.parent = w
	return nil
}

func (w *Widget) indexOf(child *Widget) int {
	for i, c := range w.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (w *Widget) removeChild(child *Widget) error {
	idx := w.indexOf(child)
	if idx < 0 {
		return fmt.Errorf("%s#%d is not a child of %s#%d", child.class, child.handle, w.class, w.handle)
	}
	w.children = append(w.children[:idx], w.children[idx+1:]...)
	child.parent = nil
	return nil
}

func (w *Widget) appendFirstArg(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing child argument")
	}
	child, err := asWidget(args[0])
	if err != nil {
		return nil, err
	}
	return nil, w.adopt(child, -1)
}

func (w *Widget) removeFirstArg(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing child argument")
	}
	child, err := asWidget(args[0])
	if err != nil || child == nil {
		return nil, fmt.Errorf("remove: bad child argument")
	}
	return nil, w.removeChild(child)
}

func (w *Widget) installMethods() {
	for _, name := range []string{"append", "packStart", "packEnd", "addOverlay", "put", "attach", "addNamed", "addTitled", "addChildAtAnchor"} {
		w.setMethod(name, w.appendFirstArg)
	}
	for _, name := range []string{"remove", "removeOverlay"} {
		w.setMethod(name, w.removeFirstArg)
	}
	w.setMethod("prepend", func(args []any) (any, error) {
		child, err := asWidget(args[0])
		if err != nil {
			return nil, err
		}
		return nil, w.adopt(child, 0)
	})
	w.setMethod("insertChildAfter", func(args []any) (any, error) {
		child, err := asWidget(args[0])
		if err != nil {
			return nil, err
		}
		sibling, err := asWidget(args[1])
		if err != nil {
			return nil, err
		}
		pos := 0
		if sibling != nil {
			idx := w.indexOf(sibling)
			if idx < 0 {
				return nil, fmt.Errorf("insertChildAfter: sibling is not a child")
			}
			pos = idx + 1
		}
		return nil, w.adopt(child, pos)
	})
	w.setMethod("reorderChildAfter", func(args []any) (any, error) {
		child, err := asWidget(args[0])
		if err != nil {
			return nil, err
		}
		sibling, err := asWidget(args[1])
		if err != nil {
			return nil, err
		}
		if err := w.removeChild(child); err != nil {
			return nil, err
		}
		pos := 0
		if sibling != nil {
			pos = w.indexOf(sibling) + 1
		}
		return nil, w.adopt(child, pos)
	})
	w.setMethod("insertPage", func(args []any) (any, error) {
		child, err := asWidget(args[0])
		if err != nil {
			return nil, err
		}
		pos := -1
		if len(args) > 2 {
			if p, ok := util.ToInt(args[2]); ok {
				pos = p
			}
		}
		if err := w.adopt(child, pos); err != nil {
			return nil, err
		}
		return w.indexOf(child), nil
	})
	w.setMethod("removePage", func(args []any) (any, error) {
		idx, ok := util.ToInt(args[0])
		if !ok || idx < 0 || idx >= len(w.children) {
			return nil, fmt.Errorf("removePage: bad index %v", args[0])
		}
		return nil, w.removeChild(w.children[idx])
	})
	w.setMethod("pageNum", func(args []any) (any, error) {
		child, err := asWidget(args[0])
		if err != nil {
			return nil, err
		}
		return w.indexOf(child), nil
	})
	w.setMethod("move", func(args []any) (any, error) {
		child, err := asWidget(args[0])
		if err != nil {
			return nil, err
		}
		if w.indexOf(child) < 0 {
			return nil, fmt.Errorf("move: not a child")
		}
		return nil, nil
	})
	w.setMethod("getBuffer", func(args []any) (any, error) {
		if w.buffer == nil {
			w.buffer = w.tk.NewTextBuffer()
		}
		return w.buffer, nil
	})
	w.setMethod("present", func(args []any) (any, error) { return nil, nil })
}

// Call handles widget-valued setters as single-child slots: the previous
// occupant is unparented, the new one must not have a parent.
func (w *Widget) Call(method string, args ...any) (any, error) {
	if w.Destroyed || w.methods[method] != nil || !strings.HasPrefix(method, "set") || len(args) != 1 {
		return w.Object.Call(method, args...)
	}
	prop := util.KebabCase(method[3:])
	newChild, isWidgetArg := args[0].(*Widget)
	oldChild, hadWidget := w.Props[prop].(*Widget)
	if !isWidgetArg && !(args[0] == nil && hadWidget) {
		return w.Object.Call(method, args...)
	}
	w.record(method, args)
	if hadWidget && oldChild != nil && oldChild != newChild {
		if err := w.removeChild(oldChild); err != nil {
			return nil, err
		}
	}
	if newChild != nil && newChild != oldChild {
		if err := w.adopt(newChild, -1); err != nil {
			return nil, err
		}
	}
	if newChild == nil {
		delete(w.Props, prop)
	} else {
		w.Props[prop] = newChild
	}
	w.Emit("notify::" + prop)
	return nil, nil
}

// Buffer returns the text buffer, creating it if needed.
func (w *Widget) Buffer() *TextBuffer {
	v, _ := w.Call("getBuffer")
	return v.(*TextBuffer)
}
