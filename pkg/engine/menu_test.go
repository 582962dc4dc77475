// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

func menuDoc(open string) *vdom.VDomElem {
	return vdom.H("GtkMenuButton", nil,
		vdom.H("Menu", nil,
			vdom.H("MenuItem", map[string]any{"label": open, "action": "app.open"}),
			vdom.H("MenuSection", nil,
				vdom.H("MenuItem", map[string]any{"label": "Quit", "action": "app.quit"}),
			),
		),
	)
}

func TestMenuModel(t *testing.T) {
	root, _, _ := makeTestRoot(t)
	r := MakeRenderer(root, nil)
	if err := r.Render(menuDoc("Open")); err != nil {
		t.Fatalf("Render: %v", err)
	}
	kids := fakeOf(t, root.Node()).Children()
	if len(kids) != 1 {
		t.Fatalf("surface has %d children, want 1", len(kids))
	}
	button := kids[0]
	calls := button.CallsTo("setMenuModel")
	if len(calls) != 1 {
		t.Fatalf("setMenuModel called %d times, want 1", len(calls))
	}
	menu, ok := calls[0].Args[0].(*nativefake.Menu)
	if !ok {
		t.Fatalf("menu model is %T", calls[0].Args[0])
	}
	checkMenu := func(openLabel string) {
		t.Helper()
		if len(menu.Entries) != 2 {
			t.Fatalf("menu has %d entries, want 2", len(menu.Entries))
		}
		if e := menu.Entries[0]; e.Kind != "item" || e.Label != openLabel || e.Action != "app.open" {
			t.Fatalf("first entry = %+v", e)
		}
		sec := menu.Entries[1]
		if sec.Kind != "section" || sec.Sub == nil || len(sec.Sub.Entries) != 1 {
			t.Fatalf("second entry = %+v", sec)
		}
		if e := sec.Sub.Entries[0]; e.Label != "Quit" || e.Action != "app.quit" {
			t.Fatalf("section entry = %+v", e)
		}
	}
	checkMenu("Open")

	if err := r.Render(menuDoc("Open…")); err != nil {
		t.Fatalf("Render: %v", err)
	}
	checkMenu("Open…")
	if n := len(button.CallsTo("setMenuModel")); n != 1 {
		t.Fatalf("menu model was replaced, setMenuModel called %d times", n)
	}

	if err := r.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if !button.Destroyed {
		t.Fatalf("menu button not destroyed on unmount")
	}
}
