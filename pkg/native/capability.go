// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package native

import "strings"

type Capability uint32

const (
	CapSingleChild Capability = 1 << iota
	CapBox
	CapPackable
	CapOverlay
	CapStack
	CapNotebook
	CapGrid
	CapFixed
	CapTextView
	CapListView
	CapMenuHost
	CapWindow
	CapAdjustable
	CapAutowrap
)

var capNames = map[Capability]string{
	CapSingleChild: "single-child",
	CapBox:         "box",
	CapPackable:    "packable",
	CapOverlay:     "overlay",
	CapStack:       "stack",
	CapNotebook:    "notebook",
	CapGrid:        "grid",
	CapFixed:       "fixed",
	CapTextView:    "text-view",
	CapListView:    "list-view",
	CapMenuHost:    "menu-host",
	CapWindow:      "window",
	CapAdjustable:  "adjustable",
	CapAutowrap:    "autowrap",
}

type CapSet uint32

func (cs CapSet) Has(c Capability) bool {
	return uint32(cs)&uint32(c) != 0
}

func (cs CapSet) With(c ...Capability) CapSet {
	rtn := cs
	for _, capVal := range c {
		rtn |= CapSet(capVal)
	}
	return rtn
}

func (cs CapSet) String() string {
	var parts []string
	for bit := Capability(1); bit <= CapAutowrap; bit <<= 1 {
		if cs.Has(bit) {
			parts = append(parts, capNames[bit])
		}
	}
	return strings.Join(parts, "|")
}

// Kind is the container strategy a widget class is driven with. It is the
// most specific capability of the class by a fixed ranking.
type Kind string

const (
	KindPlain       Kind = "plain"
	KindSingleChild Kind = "single-child"
	KindBox         Kind = "box"
	KindPackable    Kind = "packable"
	KindOverlay     Kind = "overlay"
	KindStack       Kind = "stack"
	KindNotebook    Kind = "notebook"
	KindGrid        Kind = "grid"
	KindFixed       Kind = "fixed"
	KindTextView    Kind = "text-view"
	KindListView    Kind = "list-view"
	KindMenuHost    Kind = "menu-host"
	KindWindow      Kind = "window"
)

var kindRanking = []struct {
	cap  Capability
	kind Kind
}{
	{CapListView, KindListView},
	{CapTextView, KindTextView},
	{CapStack, KindStack},
	{CapNotebook, KindNotebook},
	{CapGrid, KindGrid},
	{CapFixed, KindFixed},
	{CapOverlay, KindOverlay},
	{CapPackable, KindPackable},
	{CapBox, KindBox},
	{CapWindow, KindWindow},
	{CapSingleChild, KindSingleChild},
	{CapMenuHost, KindMenuHost},
}

func RankKind(cs CapSet) Kind {
	for _, entry := range kindRanking {
		if cs.Has(entry.cap) {
			return entry.kind
		}
	}
	return KindPlain
}
