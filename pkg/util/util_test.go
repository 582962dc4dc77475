// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"errors"
	"testing"
)

func TestNameConversion(t *testing.T) {
	if got := KebabCase("marginStart"); got != "margin-start" {
		t.Fatalf("KebabCase: %q", got)
	}
	if got := CamelCase("margin-start"); got != "marginStart" {
		t.Fatalf("CamelCase: %q", got)
	}
	if got := PascalCase("show-title-buttons"); got != "ShowTitleButtons" {
		t.Fatalf("PascalCase: %q", got)
	}
	if got := EventName("onStateFlagsChanged"); got != "state-flags-changed" {
		t.Fatalf("EventName: %q", got)
	}
	if got := EventName("onClicked"); got != "clicked" {
		t.Fatalf("EventName: %q", got)
	}
	if IsEventProp("one") || IsEventProp("on") {
		t.Fatalf("IsEventProp accepted non-event keys")
	}
}

func TestValEqual(t *testing.T) {
	if !ValEqual(1, 1.0) {
		t.Errorf("expected numeric up-conversion")
	}
	if ValEqual("1", 1) {
		t.Errorf("string and int should differ")
	}
	arr := []int{1, 2}
	if !ValEqual(arr, arr) {
		t.Errorf("same slice should be equal")
	}
	if ValEqual(arr, []int{1, 2}) {
		t.Errorf("distinct slices compare by pointer")
	}
	if !MapShallowEqual(map[string]any{"opacity": 1}, map[string]any{"opacity": 1.0}) {
		t.Errorf("expected shallow map equality")
	}
	if MapShallowEqual(map[string]any{"opacity": 1}, map[string]any{"opacity": 0.5}) {
		t.Errorf("expected shallow map inequality")
	}
}

func TestSafeCall(t *testing.T) {
	sentinel := errors.New("boom")
	err := SafeCall("test", func() { panic(sentinel) })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if err := SafeCall("test", func() {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
