// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package vdom describes element trees. Host tags name native classes or
// virtual node kinds; any other tag must be a registered component.
package vdom

import (
	"fmt"
	"reflect"
)

const TextTag = "#text"
const FragmentTag = "#fragment"

const KeyPropKey = "key"
const ChildrenPropKey = "children"
const RefPropKey = "ref"

type VDomElem struct {
	Tag      string         `json:"tag"`
	Props    map[string]any `json:"props,omitempty"`
	Children []VDomElem     `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// Component renders props into an element, a slice of elements, a string, or nil.
type Component func(props map[string]any) any

// Ref receives the node created for an element once it is mounted.
type Ref struct {
	Current any
}

func (e *VDomElem) Key() string {
	if e == nil {
		return ""
	}
	keyVal, ok := e.Props[KeyPropKey]
	if !ok || keyVal == nil {
		return ""
	}
	if keyStr, ok := keyVal.(string); ok {
		return keyStr
	}
	return fmt.Sprint(keyVal)
}

func (e *VDomElem) WithKey(key string) *VDomElem {
	if e == nil {
		return nil
	}
	if e.Props == nil {
		e.Props = make(map[string]any)
	}
	e.Props[KeyPropKey] = key
	return e
}

func TextElem(text string) VDomElem {
	return VDomElem{Tag: TextTag, Text: text}
}

func H(tag string, props map[string]any, children ...any) *VDomElem {
	rtn := &VDomElem{Tag: tag, Props: props}
	for _, part := range children {
		rtn.Children = append(rtn.Children, PartToElems(part)...)
	}
	return rtn
}

// Fragment groups children without a host element.
func Fragment(children ...any) *VDomElem {
	return H(FragmentTag, nil, children...)
}

func If(cond bool, part any) any {
	if cond {
		return part
	}
	return nil
}

func ForEach[T any](items []T, fn func(T, int) any) []any {
	elems := make([]any, 0, len(items))
	for idx, item := range items {
		elems = append(elems, fn(item, idx))
	}
	return elems
}

func PartToElems(part any) []VDomElem {
	if part == nil {
		return nil
	}
	switch partTyped := part.(type) {
	case string:
		return []VDomElem{TextElem(partTyped)}
	case bool:
		return nil
	case VDomElem:
		return []VDomElem{partTyped}
	case *VDomElem:
		if partTyped == nil {
			return nil
		}
		return []VDomElem{*partTyped}
	case []VDomElem:
		return partTyped
	default:
		partVal := reflect.ValueOf(part)
		if partVal.Kind() == reflect.Slice {
			var rtn []VDomElem
			for i := 0; i < partVal.Len(); i++ {
				rtn = append(rtn, PartToElems(partVal.Index(i).Interface())...)
			}
			return rtn
		}
		return []VDomElem{TextElem(fmt.Sprint(part))}
	}
}

// ToElem normalizes a component result to at most one element, wrapping
// multiple results in a fragment.
func ToElem(part any) *VDomElem {
	elems := PartToElems(part)
	switch len(elems) {
	case 0:
		return nil
	case 1:
		return &elems[0]
	}
	return &VDomElem{Tag: FragmentTag, Children: elems}
}

// CopyProps returns a shallow copy with the reserved reconciliation keys removed.
func CopyProps(props map[string]any) map[string]any {
	rtn := make(map[string]any, len(props))
	for k, v := range props {
		if k == KeyPropKey || k == RefPropKey {
			continue
		}
		rtn[k] = v
	}
	return rtn
}
