// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"
	"github.com/wavetermdev/nativetree/pkg/util"
	"github.com/wavetermdev/nativetree/pkg/vdom"
)

// compNode is the renderer's record of one rendered element. Host tags and
// text own a Node; components keep their output in Rendered; fragments only
// have Children.
type compNode struct {
	Tag      string
	Key      string
	Elem     *vdom.VDomElem
	Props    map[string]any
	Text     string
	Node     Node
	Ref      *vdom.Ref
	Children []*compNode
	Rendered *compNode
}

func (c *compNode) matches(tag string, key string) bool {
	return c.Tag == tag && c.Key == key
}

// ChildKey identifies a child across renders: by tag and key when keyed,
// otherwise by tag and index.
type ChildKey struct {
	Tag string
	Idx int
	Key string
}

// Renderer reconciles element trees into a container node through the Host
// entry points, one commit per Render call.
type Renderer struct {
	root      *RootContainer
	host      *Host
	container Node
	top       *compNode
	mounts    []Node
	errs      *multierror.Error
}

// MakeRenderer renders into container, or into the root's node when nil.
func MakeRenderer(root *RootContainer, container Node) *Renderer {
	if container == nil {
		container = root.Node()
	}
	return &Renderer{root: root, host: MakeHost(root), container: container}
}

func (r *Renderer) Container() Node {
	return r.container
}

func (r *Renderer) addErr(err error) {
	if err != nil {
		r.errs = multierror.Append(r.errs, err)
	}
}

func (r *Renderer) Render(elem *vdom.VDomElem) error {
	return r.commit(func() {
		r.render(elem, &r.top)
		r.syncChildren(r.container, hostNodes(r.top))
	})
}

// Unmount removes everything this renderer placed in its container.
func (r *Renderer) Unmount() error {
	return r.commit(func() {
		r.unmount(&r.top)
	})
}

func (r *Renderer) commit(fn func()) error {
	r.errs = nil
	r.mounts = nil
	if err := r.host.PrepareForCommit(); err != nil {
		return err
	}
	fn()
	r.addErr(r.host.ResetAfterCommit())
	mounts := r.mounts
	r.mounts = nil
	for _, n := range mounts {
		if n.Deleted() {
			continue
		}
		r.addErr(r.host.CommitMount(n))
	}
	return r.errs.ErrorOrNil()
}

func (r *Renderer) render(elem *vdom.VDomElem, comp **compNode) {
	if elem == nil || elem.Tag == "" {
		r.unmount(comp)
		return
	}
	elemKey := elem.Key()
	if *comp == nil || !(*comp).matches(elem.Tag, elemKey) {
		r.unmount(comp)
		*comp = &compNode{Tag: elem.Tag, Key: elemKey}
	}
	c := *comp
	c.Elem = elem
	switch {
	case elem.Tag == vdom.TextTag:
		r.renderText(elem.Text, c)
	case elem.Tag == vdom.FragmentTag:
		c.Children = r.renderChildren(elem.Children, c.Children)
	case r.root.Components[elem.Tag] != nil:
		r.renderComponent(r.root.Components[elem.Tag], elem, c)
	default:
		r.renderHost(elem, c)
	}
}

func (r *Renderer) renderText(text string, c *compNode) {
	if c.Node == nil {
		n, err := r.host.CreateTextInstance(text)
		if err != nil {
			r.addErr(err)
			return
		}
		c.Node = n
		c.Text = text
		return
	}
	if c.Text != text {
		r.addErr(r.host.CommitTextUpdate(c.Node, c.Text, text))
		c.Text = text
	}
}

func hostProps(elem *vdom.VDomElem) map[string]any {
	props := vdom.CopyProps(elem.Props)
	delete(props, vdom.ChildrenPropKey)
	return props
}

func (r *Renderer) renderHost(elem *vdom.VDomElem, c *compNode) {
	props := hostProps(elem)
	created := false
	if c.Node == nil {
		n, err := r.host.CreateInstance(elem.Tag, props)
		if err != nil {
			r.addErr(fmt.Errorf("creating <%s>: %w", elem.Tag, err))
			return
		}
		c.Node = n
		created = true
	} else if r.host.PrepareUpdate(c.Node, elem.Tag, c.Props, props) {
		r.addErr(r.host.CommitUpdate(c.Node, elem.Tag, c.Props, props))
	}
	c.Props = props
	c.Children = r.renderChildren(elem.Children, c.Children)
	desired := childHostNodes(c.Children)
	if created {
		for _, child := range desired {
			r.addErr(r.host.AppendInitialChild(c.Node, child))
		}
		needsMount, err := r.host.FinalizeInitialChildren(c.Node, elem.Tag, props)
		r.addErr(err)
		if needsMount {
			r.mounts = append(r.mounts, c.Node)
		}
	} else {
		r.syncChildren(c.Node, desired)
	}
	r.setRef(elem, c)
}

func (r *Renderer) setRef(elem *vdom.VDomElem, c *compNode) {
	ref, _ := elem.Props[vdom.RefPropKey].(*vdom.Ref)
	if c.Ref != nil && c.Ref != ref {
		c.Ref.Current = nil
	}
	c.Ref = ref
	if ref != nil {
		ref.Current = c.Node
	}
}

// a panicking component keeps its previous output
func (r *Renderer) renderComponent(cfunc vdom.Component, elem *vdom.VDomElem, c *compNode) {
	for i := range c.Children {
		r.unmount(&c.Children[i])
	}
	c.Children = nil
	props := make(map[string]any, len(elem.Props)+1)
	for k, v := range elem.Props {
		props[k] = v
	}
	props[vdom.ChildrenPropKey] = elem.Children
	var out any
	err := util.SafeCall(fmt.Sprintf("render component '%s'", elem.Tag), func() {
		out = cfunc(props)
	})
	if err != nil {
		log.Printf("[engine] %v\n", err)
		r.addErr(err)
		return
	}
	r.render(vdom.ToElem(out), &c.Rendered)
}

// renderChildren maps children via key or index (exclusively).
func (r *Renderer) renderChildren(elems []vdom.VDomElem, curChildren []*compNode) []*compNode {
	newChildren := make([]*compNode, len(elems))
	curCM := make(map[ChildKey]*compNode)
	used := make(map[*compNode]bool)
	for idx, child := range curChildren {
		if child == nil {
			continue
		}
		if child.Key != "" {
			curCM[ChildKey{Tag: child.Tag, Key: child.Key}] = child
		} else {
			curCM[ChildKey{Tag: child.Tag, Idx: idx}] = child
		}
	}
	for idx := range elems {
		elem := &elems[idx]
		var curChild *compNode
		if elemKey := elem.Key(); elemKey != "" {
			curChild = curCM[ChildKey{Tag: elem.Tag, Key: elemKey}]
		} else {
			curChild = curCM[ChildKey{Tag: elem.Tag, Idx: idx}]
		}
		if curChild != nil && used[curChild] {
			// duplicate key, the second one gets a fresh node
			curChild = nil
		}
		used[curChild] = true
		newChildren[idx] = curChild
		r.render(elem, &newChildren[idx])
	}
	for i, child := range curChildren {
		if child != nil && !used[child] {
			r.unmount(&curChildren[i])
		}
	}
	rtn := newChildren[:0]
	for _, child := range newChildren {
		if child != nil {
			rtn = append(rtn, child)
		}
	}
	return rtn
}

// hostNodes returns the top level nodes c contributes to its host parent.
func hostNodes(c *compNode) []Node {
	if c == nil {
		return nil
	}
	if c.Node != nil {
		return []Node{c.Node}
	}
	if c.Rendered != nil {
		return hostNodes(c.Rendered)
	}
	return childHostNodes(c.Children)
}

func childHostNodes(children []*compNode) []Node {
	var rtn []Node
	for _, child := range children {
		rtn = append(rtn, hostNodes(child)...)
	}
	return rtn
}

func nextSibling(parent Node, child Node) Node {
	siblings := parent.Children()
	for i, c := range siblings {
		if c == child {
			if i+1 < len(siblings) {
				return siblings[i+1]
			}
			return nil
		}
	}
	return nil
}

// syncChildren walks desired from the end, so every insertion anchor is
// already in its final place.
func (r *Renderer) syncChildren(parent Node, desired []Node) {
	var before Node
	for i := len(desired) - 1; i >= 0; i-- {
		child := desired[i]
		inPlace := child.Parent() == parent && nextSibling(parent, child) == before
		if !inPlace {
			if before == nil {
				r.addErr(r.host.AppendChild(parent, child))
			} else {
				r.addErr(r.host.InsertBefore(parent, child, before))
			}
		}
		before = child
	}
}

func (r *Renderer) unmount(comp **compNode) {
	c := *comp
	if c == nil {
		return
	}
	for _, n := range hostNodes(c) {
		if p := n.Parent(); p != nil {
			r.addErr(r.host.RemoveChild(p, n))
		}
	}
	r.detach(c)
	*comp = nil
}

// detach releases every node of a removed subtree, children first.
func (r *Renderer) detach(c *compNode) {
	if c == nil {
		return
	}
	r.detach(c.Rendered)
	for _, child := range c.Children {
		r.detach(child)
	}
	if c.Ref != nil {
		c.Ref.Current = nil
	}
	if c.Node != nil {
		r.addErr(r.host.DetachDeletedInstance(c.Node))
	}
}
