// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package nativefake

import (
	"fmt"

	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/util"
)

type Toolkit struct {
	Log     []CallRecord
	Batches [][]native.Call
	// FailConnect, if set, can inject connect failures.
	FailConnect func(obj *Object, signal string) error

	nextHandle    uint64
	nextHandlerId uint64
	clock         *FrameClock
	registry      *native.Registry
	idle          []func()
}

func MakeToolkit() *Toolkit {
	return &Toolkit{clock: MakeFrameClock()}
}

func (tk *Toolkit) FrameClock() native.FrameClock {
	return tk.clock
}

func (tk *Toolkit) Clock() *FrameClock {
	return tk.clock
}

func (tk *Toolkit) IdleAdd(fn func()) {
	tk.idle = append(tk.idle, fn)
}

func (tk *Toolkit) PendingIdle() int {
	return len(tk.idle)
}

// RunIdle plays the main loop going idle: it runs queued idle callbacks,
// including ones they queue, and returns how many ran.
func (tk *Toolkit) RunIdle() int {
	count := 0
	for len(tk.idle) > 0 {
		fn := tk.idle[0]
		tk.idle = tk.idle[1:]
		fn()
		count++
	}
	return count
}

func (tk *Toolkit) DispatchBatch(calls []native.Call) error {
	tk.Batches = append(tk.Batches, calls)
	for _, c := range calls {
		if _, err := c.Target.Call(c.Method, c.Args...); err != nil {
			return err
		}
	}
	return nil
}

// CallsTo returns every recorded call of method across all objects.
func (tk *Toolkit) CallsTo(method string) []CallRecord {
	var rtn []CallRecord
	for _, c := range tk.Log {
		if c.Method == method {
			rtn = append(rtn, c)
		}
	}
	return rtn
}

func (tk *Toolkit) ResetLog() {
	tk.Log = nil
	tk.Batches = nil
}

func prop(name string, typ string) native.PropertyMeta {
	pascal := util.PascalCase(name)
	return native.PropertyMeta{Name: name, Type: typ, Getter: "get" + pascal, Setter: "set" + pascal, Nullable: true}
}

func (tk *Toolkit) widgetConstructor(class string, params []string) func(args []any) (native.Object, error) {
	return func(args []any) (native.Object, error) {
		w := tk.NewWidget(class)
		w.record("new", args)
		for i, p := range params {
			if i < len(args) && args[i] != nil {
				w.Props[p] = args[i]
			}
		}
		return w, nil
	}
}

// Registry returns a registry describing a small widget set modelled on GTK 4.
func (tk *Toolkit) Registry() *native.Registry {
	if tk.registry != nil {
		return tk.registry
	}
	reg := native.MakeRegistry()
	widget := func(desc *native.ClassDescriptor) {
		if !desc.Abstract {
			desc.Construct = tk.widgetConstructor(desc.Name, desc.ConstructorParams)
		}
		reg.MustRegister(desc)
	}
	widget(&native.ClassDescriptor{
		Name:     "GtkWidget",
		Abstract: true,
		Properties: []native.PropertyMeta{
			prop("opacity", "double"), prop("visible", "boolean"), prop("sensitive", "boolean"),
			prop("margin-start", "int"), prop("margin-end", "int"), prop("margin-top", "int"),
			prop("margin-bottom", "int"), prop("hexpand", "boolean"), prop("vexpand", "boolean"),
			prop("halign", "enum"), prop("valign", "enum"), prop("tooltip-text", "string"),
			prop("css-classes", "strv"), prop("width-request", "int"), prop("height-request", "int"),
			prop("can-focus", "boolean"),
		},
		Signals: []native.SignalMeta{
			{Name: "destroy"}, {Name: "map"}, {Name: "unmap"}, {Name: "state-flags-changed"},
		},
		Methods: []string{"grabFocus"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkBox", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapBox},
		ConstructorParams: []string{"orientation", "spacing"},
		Properties:        []native.PropertyMeta{prop("orientation", "enum"), prop("spacing", "int"), prop("homogeneous", "boolean")},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkButton", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapSingleChild},
		Properties: []native.PropertyMeta{prop("label", "string"), prop("icon-name", "string"), prop("child", "GtkWidget")},
		Signals:    []native.SignalMeta{{Name: "clicked"}, {Name: "activate"}},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkLabel", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapAutowrap},
		ConstructorParams: []string{"label"},
		Properties:        []native.PropertyMeta{prop("label", "string"), prop("wrap", "boolean"), prop("xalign", "float")},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkEntry", Parent: "GtkWidget",
		Properties: []native.PropertyMeta{prop("text", "string"), prop("placeholder-text", "string")},
		Signals:    []native.SignalMeta{{Name: "changed"}, {Name: "activate"}},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkWindow", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapWindow},
		Properties: []native.PropertyMeta{
			prop("title", "string"), prop("child", "GtkWidget"), prop("titlebar", "GtkWidget"),
			prop("default-width", "int"), prop("default-height", "int"),
		},
		Signals: []native.SignalMeta{{Name: "close-request", ReturnType: "boolean"}},
		Methods: []string{"present"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkHeaderBar", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapPackable},
		Properties: []native.PropertyMeta{prop("title-widget", "GtkWidget"), prop("show-title-buttons", "boolean")},
		Methods:    []string{"packStart", "packEnd", "remove"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkActionBar", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapPackable},
		Properties: []native.PropertyMeta{prop("center-widget", "GtkWidget"), prop("revealed", "boolean")},
		Methods:    []string{"packStart", "packEnd", "remove"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkPaned", Parent: "GtkWidget",
		Properties: []native.PropertyMeta{
			prop("start-child", "GtkWidget"), prop("end-child", "GtkWidget"),
			prop("orientation", "enum"), prop("position", "int"),
		},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkOverlay", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapSingleChild, native.CapOverlay},
		Properties: []native.PropertyMeta{prop("child", "GtkWidget")},
		Methods:    []string{"addOverlay", "removeOverlay", "setMeasureOverlay", "setClipOverlay"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkStack", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapStack},
		Properties: []native.PropertyMeta{prop("visible-child-name", "string"), prop("transition-type", "enum")},
		Methods:    []string{"addNamed", "addTitled", "remove"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkNotebook", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapNotebook},
		Properties: []native.PropertyMeta{prop("page", "int"), prop("show-tabs", "boolean")},
		Methods:    []string{"insertPage", "removePage", "pageNum"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkGrid", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapGrid},
		Properties: []native.PropertyMeta{prop("row-spacing", "int"), prop("column-spacing", "int")},
		Methods:    []string{"attach", "remove"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkFixed", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapFixed},
		Methods: []string{"put", "move", "remove"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkScrolledWindow", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapSingleChild},
		Properties: []native.PropertyMeta{prop("child", "GtkWidget"), prop("hscrollbar-policy", "enum")},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkTextView", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapTextView},
		Properties: []native.PropertyMeta{prop("editable", "boolean"), prop("wrap-mode", "enum")},
		Methods:    []string{"getBuffer", "addChildAtAnchor", "remove"},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkListView", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapListView},
		Properties: []native.PropertyMeta{
			prop("model", "GtkSelectionModel"), prop("factory", "GtkListItemFactory"),
			prop("header-factory", "GtkListItemFactory"), prop("show-separators", "boolean"),
		},
		Signals: []native.SignalMeta{{Name: "activate", ParamTypes: []string{"uint"}}},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkGridView", Parent: "GtkListView",
		Properties: []native.PropertyMeta{prop("max-columns", "uint")},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkMenuButton", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapMenuHost},
		Properties: []native.PropertyMeta{prop("menu-model", "GMenuModel"), prop("label", "string")},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkPopoverMenu", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapMenuHost},
		Properties: []native.PropertyMeta{prop("menu-model", "GMenuModel")},
	})
	widget(&native.ClassDescriptor{
		Name: "GtkScale", Parent: "GtkWidget", Capabilities: []native.Capability{native.CapAdjustable},
		ConstructorParams: []string{"orientation"},
		Properties: []native.PropertyMeta{
			{Name: "orientation", Type: "enum", Getter: "getOrientation", Setter: "setOrientation"},
			prop("value", "double"), prop("digits", "int"),
		},
		Signals: []native.SignalMeta{{Name: "value-changed"}},
	})
	reg.MustRegister(&native.ClassDescriptor{
		Name:    "GMenu",
		Methods: []string{"appendItem", "appendSection", "appendSubmenu", "removeAll"},
		Construct: func(args []any) (native.Object, error) {
			return tk.NewMenu(), nil
		},
	})
	tk.registry = reg
	return reg
}

// RegisterWidgetClass adds a widget class backed by a fake widget to the
// toolkit's registry. Property metas without accessors get the camelCase ones.
func (tk *Toolkit) RegisterWidgetClass(desc *native.ClassDescriptor) (*native.Class, error) {
	for i, p := range desc.Properties {
		if p.Setter == "" && p.Getter == "" {
			desc.Properties[i] = prop(p.Name, p.Type)
		}
	}
	if !desc.Abstract {
		desc.Construct = tk.widgetConstructor(desc.Name, desc.ConstructorParams)
	}
	return tk.Registry().Register(desc)
}

type MenuEntry struct {
	Kind   string
	Label  string
	Action string
	Sub    *Menu
}

type Menu struct {
	*Object
	Entries []MenuEntry
}

func (tk *Toolkit) NewMenu() *Menu {
	m := &Menu{Object: tk.makeObject("GMenu")}
	m.setMethod("appendItem", func(args []any) (any, error) {
		label, _ := args[0].(string)
		action, _ := args[1].(string)
		m.Entries = append(m.Entries, MenuEntry{Kind: "item", Label: label, Action: action})
		return nil, nil
	})
	appendSub := func(kind string) methodFn {
		return func(args []any) (any, error) {
			label, _ := args[0].(string)
			sub, ok := args[1].(*Menu)
			if !ok {
				return nil, fmt.Errorf("%s: expected menu argument, got %T", kind, args[1])
			}
			m.Entries = append(m.Entries, MenuEntry{Kind: kind, Label: label, Sub: sub})
			return nil, nil
		}
	}
	m.setMethod("appendSection", appendSub("section"))
	m.setMethod("appendSubmenu", appendSub("submenu"))
	m.setMethod("removeAll", func(args []any) (any, error) {
		m.Entries = nil
		return nil, nil
	})
	return m
}
