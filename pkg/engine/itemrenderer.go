// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

const DefaultRowContainer = "GtkBox"

// RenderItemFn renders the content of one row.
type RenderItemFn func(value any, id string) any

// RenderHeaderFn renders a section header row.
type RenderHeaderFn func(header any, section string) any

type itemRow struct {
	item      native.ListItem
	header    bool
	container *WidgetNode
	renderer  *Renderer
	id        string
	section   string
	torn      bool
}

// ItemRenderer materializes list rows on demand. Each native row gets its own
// container widget and a Renderer for the element tree renderItem returns.
type ItemRenderer struct {
	root          *RootContainer
	list          *listController
	rowClass      string
	factory       native.ListItemFactory
	headerFactory native.ListItemFactory
	rows          map[native.Handle]*itemRow
	closed        bool
}

func makeItemRenderer(lc *listController, props map[string]any) (*ItemRenderer, error) {
	root := lc.view.root
	ir := &ItemRenderer{
		root:     root,
		list:     lc,
		rowClass: DefaultRowContainer,
		rows:     make(map[native.Handle]*itemRow),
	}
	if rc, ok := props["rowContainer"].(string); ok && rc != "" {
		ir.rowClass = rc
	}
	if root.Registry.Lookup(ir.rowClass) == nil {
		return nil, StructuralError("<%s> rowContainer: unknown class %q", lc.view.typeName, ir.rowClass)
	}
	factory, err := root.Toolkit.NewListItemFactory()
	if err != nil {
		return nil, err
	}
	ir.wireFactory(factory, false)
	ir.factory = factory
	if !lc.tree {
		headerFactory, err := root.Toolkit.NewListItemFactory()
		if err != nil {
			return nil, err
		}
		ir.wireFactory(headerFactory, true)
		ir.headerFactory = headerFactory
	}
	return ir, nil
}

func (ir *ItemRenderer) wireFactory(f native.ListItemFactory, header bool) {
	f.OnSetup(ir.callback("setup", func(li native.ListItem) error { return ir.setup(li, header) }))
	f.OnBind(ir.callback("bind", ir.bind))
	f.OnUnbind(ir.callback("unbind", ir.unbind))
	f.OnTeardown(ir.callback("teardown", ir.teardown))
}

func (ir *ItemRenderer) callback(name string, fn func(li native.ListItem) error) native.ListItemCallback {
	return func(li native.ListItem) {
		if ir.closed {
			return
		}
		var err error
		dispatchErr := ir.root.Dispatch("list item "+name, func() {
			err = fn(li)
		})
		if err == nil {
			err = dispatchErr
		}
		if err != nil {
			log.Printf("[engine] list item %s: %v\n", name, err)
		}
	}
}

// Rows returns the number of live rows.
func (ir *ItemRenderer) Rows() int {
	return len(ir.rows)
}

func (ir *ItemRenderer) setup(li native.ListItem, header bool) error {
	if old := ir.rows[li.Handle()]; old != nil && !old.torn {
		if err := ir.teardown(li); err != nil {
			return err
		}
	}
	container, err := MakeWidgetNode(ir.root, ir.rowClass, nil)
	if err != nil {
		return err
	}
	row := &itemRow{
		item:      li,
		header:    header,
		container: container,
		renderer:  MakeRenderer(ir.root, container),
	}
	li.SetChild(container.Widget())
	ir.rows[li.Handle()] = row
	return nil
}

func (ir *ItemRenderer) bind(li native.ListItem) error {
	row := ir.rows[li.Handle()]
	if row == nil || row.torn {
		return fmt.Errorf("bind of list item %d without setup", li.Handle())
	}
	if row.header {
		_, _, section := ir.list.store.SectionRange(li.Position())
		row.section = section
		return ir.renderHeader(row)
	}
	row.id = li.ModelKey()
	return ir.renderRow(row)
}

func (ir *ItemRenderer) unbind(li native.ListItem) error {
	if row := ir.rows[li.Handle()]; row != nil {
		row.id = ""
		row.section = ""
	}
	return nil
}

// teardown unmounts the row now; its bookkeeping entry goes away in a
// microtask, unless the handle was set up again in the meantime.
func (ir *ItemRenderer) teardown(li native.ListItem) error {
	h := li.Handle()
	row := ir.rows[h]
	if row == nil || row.torn {
		return nil
	}
	row.torn = true
	err := row.renderer.Unmount()
	li.SetChild(nil)
	if detachErr := row.container.DetachDeletedInstance(); detachErr != nil && err == nil {
		err = detachErr
	}
	ir.root.QueueMicrotask(func() {
		if ir.rows[h] == row {
			delete(ir.rows, h)
		}
	})
	return err
}

func renderSafely(debugStr string, fn func() any) (any, error) {
	var out any
	err := util.SafeCall(debugStr, func() {
		out = fn()
	})
	return out, err
}

func (ir *ItemRenderer) renderRow(row *itemRow) error {
	fn, _ := ir.list.view.props["renderItem"].(func(value any, id string) any)
	if rf, ok := ir.list.view.props["renderItem"].(RenderItemFn); ok {
		fn = rf
	}
	value, ok := ir.list.getItem(row.id)
	if fn == nil || !ok {
		return row.renderer.Render(nil)
	}
	out, err := renderSafely("renderItem", func() any { return fn(value, row.id) })
	if err != nil {
		return err
	}
	return row.renderer.Render(vdom.ToElem(out))
}

func (ir *ItemRenderer) renderHeader(row *itemRow) error {
	fn, _ := ir.list.view.props["renderHeader"].(func(header any, section string) any)
	if hf, ok := ir.list.view.props["renderHeader"].(RenderHeaderFn); ok {
		fn = hf
	}
	if fn == nil {
		return row.renderer.Render(nil)
	}
	header, _ := ir.list.store.SectionHeader(row.section)
	out, err := renderSafely("renderHeader", func() any { return fn(header, row.section) })
	if err != nil {
		return err
	}
	return row.renderer.Render(vdom.ToElem(out))
}

// sortedRows returns the live rows matching pred in handle order.
func (ir *ItemRenderer) sortedRows(pred func(row *itemRow) bool) []*itemRow {
	var rtn []*itemRow
	for _, row := range ir.rows {
		if !row.torn && pred(row) {
			rtn = append(rtn, row)
		}
	}
	sort.Slice(rtn, func(i, j int) bool { return rtn[i].item.Handle() < rtn[j].item.Handle() })
	return rtn
}

func (ir *ItemRenderer) rerender(rows []*itemRow) {
	for _, row := range rows {
		var err error
		if row.header {
			err = ir.renderHeader(row)
		} else {
			err = ir.renderRow(row)
		}
		if err != nil {
			log.Printf("[engine] rerendering list row: %v\n", err)
		}
	}
}

func (ir *ItemRenderer) rerenderId(id string) {
	ir.rerender(ir.sortedRows(func(row *itemRow) bool { return !row.header && row.id == id }))
}

func (ir *ItemRenderer) rerenderSection(section string) {
	ir.rerender(ir.sortedRows(func(row *itemRow) bool { return row.header && row.section == section }))
}

func (ir *ItemRenderer) rerenderRows() {
	ir.rerender(ir.sortedRows(func(row *itemRow) bool { return !row.header && row.id != "" }))
}

func (ir *ItemRenderer) rerenderHeaders() {
	ir.rerender(ir.sortedRows(func(row *itemRow) bool { return row.header && row.section != "" }))
}

// close unmounts every row when the list view goes away.
func (ir *ItemRenderer) close() error {
	var errs *multierror.Error
	for _, row := range ir.sortedRows(func(row *itemRow) bool { return true }) {
		if err := ir.teardown(row.item); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("closing list row %d: %w", row.item.Handle(), err))
		}
	}
	ir.closed = true
	return errs.ErrorOrNil()
}
