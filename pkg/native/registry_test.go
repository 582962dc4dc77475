// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package native

import (
	"strings"
	"testing"
)

func makeTestRegistry(t *testing.T) *Registry {
	reg := MakeRegistry()
	reg.MustRegister(&ClassDescriptor{
		Name:     "Widget",
		Abstract: true,
		Properties: []PropertyMeta{
			{Name: "opacity", Type: "double", Getter: "getOpacity", Setter: "setOpacity"},
		},
		Signals: []SignalMeta{{Name: "destroy"}},
	})
	reg.MustRegister(&ClassDescriptor{
		Name:         "Box",
		Parent:       "Widget",
		Capabilities: []Capability{CapBox},
		Properties: []PropertyMeta{
			{Name: "spacing", Type: "int", Getter: "getSpacing", Setter: "setSpacing"},
		},
		Methods: []string{"setCenterWidget"},
	})
	reg.MustRegister(&ClassDescriptor{
		Name:              "Scale",
		Parent:            "Widget",
		ConstructorParams: []string{"orientation"},
		Properties: []PropertyMeta{
			{Name: "orientation", Type: "enum", Getter: "getOrientation", Setter: "setOrientation"},
		},
		Construct: func(args []any) (Object, error) { return nil, nil },
	})
	return reg
}

func TestRegistryFlattensInheritance(t *testing.T) {
	reg := makeTestRegistry(t)
	box := reg.Lookup("Box")
	if box == nil {
		t.Fatalf("Box not registered")
	}
	if box.Property("opacity") == nil {
		t.Fatalf("inherited property not flattened")
	}
	if box.Signal("destroy") == nil {
		t.Fatalf("inherited signal not flattened")
	}
	if box.Kind != KindBox {
		t.Fatalf("expected box kind, got %s", box.Kind)
	}
	if !box.IsA("Widget") || box.IsA("Scale") {
		t.Fatalf("bad chain: %v", box.Chain)
	}
	if got := box.SetterFor("spacing"); got != "setSpacing" {
		t.Fatalf("SetterFor(spacing) = %q", got)
	}
	if got := box.SetterFor("center-widget"); got != "setCenterWidget" {
		t.Fatalf("SetterFor(center-widget) = %q", got)
	}
	if got := box.SetterFor("nope"); got != "" {
		t.Fatalf("SetterFor(nope) = %q", got)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := makeTestRegistry(t)
	if _, err := reg.Register(&ClassDescriptor{Name: "Box"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := reg.Register(&ClassDescriptor{Name: "Orphan", Parent: "Missing"}); err == nil {
		t.Fatalf("expected missing parent error")
	}
	if _, err := reg.Construct("Widget", nil); err == nil {
		t.Fatalf("abstract class should not construct")
	}
	_, err := reg.Construct("Scale", map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "orientation") {
		t.Fatalf("expected missing constructor property error, got %v", err)
	}
	if _, err := reg.Construct("Scale", map[string]any{"orientation": "horizontal"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRankKind(t *testing.T) {
	cs := CapSet(0).With(CapSingleChild, CapOverlay)
	if got := RankKind(cs); got != KindOverlay {
		t.Fatalf("expected overlay, got %s", got)
	}
	if got := RankKind(0); got != KindPlain {
		t.Fatalf("expected plain, got %s", got)
	}
	if s := cs.String(); s != "single-child|overlay" {
		t.Fatalf("CapSet.String() = %q", s)
	}
}
