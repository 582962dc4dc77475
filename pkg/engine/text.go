// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"sort"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wavetermdev/nativetree/pkg/native"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

var textParents = mapset.NewSet(string(native.KindTextView), TypeTextTag)

// inlineState is the buffer bookkeeping shared by all inline kinds. offset is
// the character offset recorded by the last layout pass.
type inlineState struct {
	inBuffer bool
	offset   int
}

type inlineNode interface {
	Node
	inline() *inlineState
}

func (s *inlineState) inline() *inlineState {
	return s
}

// TextSegment is a run of plain text.
type TextSegment struct {
	VirtualNode
	inlineState
	text string
}

// MakeTextSegment creates the node backing a text instance.
func MakeTextSegment(root *RootContainer, text string) *TextSegment {
	n := &TextSegment{text: text}
	n.initVirtual(n, root, TypeTextSegment, map[string]any{"text": text}, textParents)
	return n
}

func makeTextSegmentNode(root *RootContainer, props map[string]any) (Node, error) {
	text, _ := props["text"].(string)
	n := MakeTextSegment(root, text)
	n.props = vdom.CopyProps(props)
	return n, nil
}

func (n *TextSegment) Text() string {
	return n.text
}

func (n *TextSegment) IsValidChild(child Node) bool {
	return false
}

func (n *TextSegment) length() int {
	return utf8.RuneCountInString(n.text)
}

// SetText replaces the segment's text in place and shifts everything after it.
func (n *TextSegment) SetText(text string) error {
	if text == n.text {
		return nil
	}
	host := textHostOf(n)
	if host == nil || !n.inBuffer {
		n.text = text
		return nil
	}
	return host.replaceText(n, text)
}

func (n *TextSegment) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	text, _ := newProps["text"].(string)
	return n.SetText(text)
}

// TextPaintable embeds an image-like object as a single character.
type TextPaintable struct {
	VirtualNode
	inlineState
}

func makeTextPaintable(root *RootContainer, props map[string]any) (Node, error) {
	n := &TextPaintable{}
	n.initVirtual(n, root, TypeTextPaintable, props, textParents)
	return n, nil
}

func (n *TextPaintable) IsValidChild(child Node) bool {
	return false
}

func (n *TextPaintable) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if !propsChanged(oldProps, newProps, "paintable") {
		return nil
	}
	host := textHostOf(n)
	if host == nil || !n.inBuffer {
		return nil
	}
	return host.insertNode(n)
}

// TextAnchor embeds its single widget child in the text at its offset.
type TextAnchor struct {
	VirtualNode
	inlineState
	anchor native.Object
}

func makeTextAnchor(root *RootContainer, props map[string]any) (Node, error) {
	n := &TextAnchor{}
	n.initVirtual(n, root, TypeTextAnchor, props, textParents)
	return n, nil
}

// Anchor is the native child anchor, available once the anchor is in a buffer.
func (n *TextAnchor) Anchor() (native.Object, error) {
	if n.anchor == nil {
		return nil, MissingAnchorError(n, "child anchor")
	}
	return n.anchor, nil
}

func (n *TextAnchor) onChildChange(old native.Widget) error {
	host := textHostOf(n)
	if host == nil || n.anchor == nil {
		return nil
	}
	if old != nil {
		if err := removeIfChildOf(n.root, host.view, old); err != nil {
			return err
		}
	}
	if n.childWidget != nil {
		return n.root.void(host.view.widget, "addChildAtAnchor", n.childWidget, n.anchor)
	}
	return nil
}

// TextTag applies a named buffer tag over the range of its children.
type TextTag struct {
	VirtualNode
	inlineState
}

func makeTextTag(root *RootContainer, props map[string]any) (Node, error) {
	n := &TextTag{}
	n.initVirtual(n, root, TypeTextTag, props, textParents)
	if n.tagName() == "" {
		return nil, StructuralError("<%s> requires a name prop", TypeTextTag)
	}
	return n, nil
}

func (n *TextTag) tagName() string {
	name, _ := n.props["name"].(string)
	return name
}

func (n *TextTag) IsValidChild(child Node) bool {
	return isInline(child)
}

func (n *TextTag) attachChild(child Node) error {
	host := textHostOf(n)
	if host == nil || !n.inBuffer {
		return nil
	}
	return host.insertNode(child)
}

func (n *TextTag) detachChild(child Node) error {
	host := textHostOf(n)
	if host == nil {
		return nil
	}
	return host.removeNode(child)
}

func (n *TextTag) CommitUpdate(oldProps map[string]any, newProps map[string]any) error {
	n.props = vdom.CopyProps(newProps)
	if n.tagName() == "" {
		return StructuralError("<%s> requires a name prop", TypeTextTag)
	}
	host := textHostOf(n)
	if host == nil || !propsChanged(oldProps, newProps, "name") {
		return nil
	}
	return host.relayout()
}

// textHostOf finds the text view an inline node is rendered into.
func textHostOf(n Node) *textHost {
	if wn := nearestWidgetNode(n); wn != nil {
		return wn.text
	}
	return nil
}

type tagRange struct {
	start int
	end   int
}

// textHost keeps a text view's buffer in sync with its inline children.
type textHost struct {
	view        *WidgetNode
	buffer      native.Object
	appliedTags map[string][]tagRange
	charCount   int
}

func makeTextHost(view *WidgetNode) *textHost {
	return &textHost{view: view, appliedTags: make(map[string][]tagRange)}
}

func (h *textHost) getBuffer() (native.Object, error) {
	if h.buffer != nil {
		return h.buffer, nil
	}
	val, err := h.view.root.call(h.view.widget, "getBuffer")
	if err != nil {
		return nil, err
	}
	buf, ok := val.(native.Object)
	if !ok || buf == nil {
		return nil, fmt.Errorf("<%s>: getBuffer returned %T", h.view.typeName, val)
	}
	h.buffer = buf
	return buf, nil
}

func (h *textHost) attachChild(child Node) error {
	return h.insertNode(child)
}

func (h *textHost) detachChild(child Node) error {
	return h.removeNode(child)
}

func inlineChildren(n Node) []Node {
	if tag, ok := n.(*TextTag); ok {
		return tag.children
	}
	return nil
}

func leafLength(n Node) int {
	switch v := n.(type) {
	case *TextSegment:
		return v.length()
	case *TextAnchor, *TextPaintable:
		return 1
	}
	return 0
}

// bufferedLength is the number of characters n currently has in the buffer.
func bufferedLength(n Node) int {
	in, ok := n.(inlineNode)
	if !ok || !in.inline().inBuffer {
		return 0
	}
	if _, isTag := n.(*TextTag); isTag {
		total := 0
		for _, c := range inlineChildren(n) {
			total += bufferedLength(c)
		}
		return total
	}
	return leafLength(n)
}

// offsetOf sums the buffered content preceding target in document order.
func (h *textHost) offsetOf(target Node) (int, error) {
	offset := 0
	var visit func(nodes []Node) bool
	visit = func(nodes []Node) bool {
		for _, c := range nodes {
			if c == target {
				return true
			}
			if _, isTag := c.(*TextTag); isTag {
				if visit(inlineChildren(c)) {
					return true
				}
				continue
			}
			offset += bufferedLength(c)
		}
		return false
	}
	if !visit(h.view.children) {
		return 0, MissingAnchorError(target, "text offset")
	}
	return offset, nil
}

// insertNode writes n (and, for tags, its whole subtree) at its position.
// A node already in the buffer is taken out first, which moves it.
func (h *textHost) insertNode(n Node) error {
	if in, ok := n.(inlineNode); ok && in.inline().inBuffer {
		if err := h.dematerialize(n); err != nil {
			return err
		}
	}
	offset, err := h.offsetOf(n)
	if err != nil {
		return err
	}
	if _, err := h.materialize(n, offset); err != nil {
		return err
	}
	return h.relayout()
}

func (h *textHost) removeNode(n Node) error {
	in, ok := n.(inlineNode)
	if !ok || !in.inline().inBuffer {
		return nil
	}
	if err := h.dematerialize(n); err != nil {
		return err
	}
	return h.relayout()
}

func (h *textHost) materialize(n Node, offset int) (int, error) {
	buf, err := h.getBuffer()
	if err != nil {
		return offset, err
	}
	root := h.view.root
	switch v := n.(type) {
	case *TextSegment:
		if v.text != "" {
			if err := root.void(buf, "insert", offset, v.text); err != nil {
				return offset, err
			}
		}
		v.inBuffer = true
		return offset + v.length(), nil
	case *TextPaintable:
		if err := root.void(buf, "insertPaintable", offset, v.props["paintable"]); err != nil {
			return offset, err
		}
		v.inBuffer = true
		return offset + 1, nil
	case *TextAnchor:
		anchorVal, err := root.call(buf, "createChildAnchor", offset)
		if err != nil {
			return offset, err
		}
		anchor, ok := anchorVal.(native.Object)
		if !ok {
			return offset, fmt.Errorf("createChildAnchor returned %T", anchorVal)
		}
		v.anchor = anchor
		v.inBuffer = true
		if v.childWidget != nil {
			if err := root.void(h.view.widget, "addChildAtAnchor", v.childWidget, anchor); err != nil {
				return offset, err
			}
		}
		return offset + 1, nil
	case *TextTag:
		v.inBuffer = true
		for _, c := range v.children {
			offset, err = h.materialize(c, offset)
			if err != nil {
				return offset, err
			}
		}
		return offset, nil
	}
	return offset, StructuralError("<%s> cannot be placed in a text buffer", n.Base().typeName)
}

// dematerialize removes n's content using the offsets of the last layout.
func (h *textHost) dematerialize(n Node) error {
	buf, err := h.getBuffer()
	if err != nil {
		return err
	}
	in := n.(inlineNode)
	start := in.inline().offset
	length := bufferedLength(n)
	var release func(c Node) error
	release = func(c Node) error {
		switch v := c.(type) {
		case *TextAnchor:
			if v.childWidget != nil && v.anchor != nil {
				if err := removeIfChildOf(h.view.root, h.view, v.childWidget); err != nil {
					return err
				}
			}
			v.anchor = nil
		case *TextTag:
			for _, gc := range v.children {
				if err := release(gc); err != nil {
					return err
				}
			}
		}
		if ci, ok := c.(inlineNode); ok {
			ci.inline().inBuffer = false
		}
		return nil
	}
	if err := release(n); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	return h.view.root.void(buf, "delete", start, start+length)
}

func (h *textHost) replaceText(seg *TextSegment, text string) error {
	buf, err := h.getBuffer()
	if err != nil {
		return err
	}
	start := seg.offset
	if oldLen := seg.length(); oldLen > 0 {
		if err := h.view.root.void(buf, "delete", start, start+oldLen); err != nil {
			return err
		}
	}
	seg.text = text
	if text != "" {
		if err := h.view.root.void(buf, "insert", start, text); err != nil {
			return err
		}
	}
	return h.relayout()
}

// relayout records every node's offset and reapplies the tags whose ranges
// changed.
func (h *textHost) relayout() error {
	tags := make(map[string][]tagRange)
	offset := 0
	var visit func(nodes []Node)
	visit = func(nodes []Node) {
		for _, c := range nodes {
			in, ok := c.(inlineNode)
			if !ok || !in.inline().inBuffer {
				continue
			}
			in.inline().offset = offset
			if tag, isTag := c.(*TextTag); isTag {
				start := offset
				visit(tag.children)
				if name := tag.tagName(); name != "" && offset > start {
					tags[name] = append(tags[name], tagRange{start: start, end: offset})
				}
				continue
			}
			offset += leafLength(c)
		}
	}
	visit(h.view.children)
	h.charCount = offset
	return h.applyTags(tags)
}

func (h *textHost) applyTags(tags map[string][]tagRange) error {
	names := mapset.NewSet[string]()
	for name := range tags {
		names.Add(name)
	}
	for name := range h.appliedTags {
		names.Add(name)
	}
	sorted := names.ToSlice()
	sort.Strings(sorted)
	buf, err := h.getBuffer()
	if err != nil {
		return err
	}
	root := h.view.root
	for _, name := range sorted {
		if rangesEqual(h.appliedTags[name], tags[name]) {
			continue
		}
		if len(h.appliedTags[name]) > 0 {
			if err := root.void(buf, "removeTagByName", name, 0, h.charCount); err != nil {
				return err
			}
		}
		for _, r := range tags[name] {
			if err := root.void(buf, "applyTagByName", name, r.start, r.end); err != nil {
				return err
			}
		}
	}
	h.appliedTags = tags
	return nil
}

func rangesEqual(a []tagRange, b []tagRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
