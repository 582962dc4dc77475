// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package liststore

import (
	"fmt"
	"sort"

	"github.com/wavetermdev/nativetree/pkg/native"
)

// RootParent is the parent id of top level tree items.
const RootParent = ""

// TreeStore is a hierarchy of Stores, one per parent with children. Every level
// backs its own native string list; the native tree model asks for child lists
// through ChildModel.
type TreeStore struct {
	newList  func(keys []string) (native.StringList, error)
	levels   map[string]*Store
	parentOf map[string]string

	OnItemUpdated func(id string, value any)
}

func MakeTreeStore(newList func(keys []string) (native.StringList, error)) (*TreeStore, error) {
	ts := &TreeStore{
		newList:  newList,
		levels:   make(map[string]*Store),
		parentOf: make(map[string]string),
	}
	if _, err := ts.level(RootParent, true); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TreeStore) level(parentId string, create bool) (*Store, error) {
	if lvl := ts.levels[parentId]; lvl != nil {
		return lvl, nil
	}
	if !create {
		return nil, nil
	}
	var model native.StringList
	if ts.newList != nil {
		var err error
		model, err = ts.newList(nil)
		if err != nil {
			return nil, fmt.Errorf("creating child list for %q: %w", parentId, err)
		}
	}
	lvl := MakeStore(model)
	lvl.OnItemUpdated = func(id string, value any) {
		if ts.OnItemUpdated != nil {
			ts.OnItemUpdated(id, value)
		}
	}
	ts.levels[parentId] = lvl
	return lvl, nil
}

func (ts *TreeStore) Root() *Store {
	return ts.levels[RootParent]
}

// ChildModel returns the native list of parentId's children, creating it on demand.
func (ts *TreeStore) ChildModel(parentId string) native.StringList {
	lvl, err := ts.level(parentId, true)
	if err != nil || lvl == nil {
		return nil
	}
	return lvl.Model()
}

func (ts *TreeStore) checkParent(parentId string) error {
	if parentId == RootParent {
		return nil
	}
	if _, ok := ts.parentOf[parentId]; !ok {
		return fmt.Errorf("parent item %q not found", parentId)
	}
	return nil
}

// detachForMove unlinks id from its current level when it moves to a different parent.
func (ts *TreeStore) detachForMove(id string, parentId string) error {
	oldParent, ok := ts.parentOf[id]
	if !ok || oldParent == parentId {
		return nil
	}
	if lvl := ts.levels[oldParent]; lvl != nil {
		return lvl.RemoveItem(id)
	}
	return nil
}

func (ts *TreeStore) AddItem(parentId string, id string, value any) error {
	if err := ts.checkParent(parentId); err != nil {
		return err
	}
	if err := ts.detachForMove(id, parentId); err != nil {
		return err
	}
	lvl, err := ts.level(parentId, true)
	if err != nil {
		return err
	}
	if err := lvl.AddItem(id, value); err != nil {
		return err
	}
	ts.parentOf[id] = parentId
	return nil
}

func (ts *TreeStore) InsertItemBefore(parentId string, id string, beforeId string, value any) error {
	if err := ts.checkParent(parentId); err != nil {
		return err
	}
	lvl, err := ts.level(parentId, true)
	if err != nil {
		return err
	}
	if !lvl.Has(beforeId) {
		return fmt.Errorf("insert %q: before item %q not found under %q", id, beforeId, parentId)
	}
	if err := ts.detachForMove(id, parentId); err != nil {
		return err
	}
	if err := lvl.InsertItemBefore(id, beforeId, value); err != nil {
		return err
	}
	ts.parentOf[id] = parentId
	return nil
}

// RemoveItem removes id and all of its descendants.
func (ts *TreeStore) RemoveItem(id string) error {
	parentId, ok := ts.parentOf[id]
	if !ok {
		return nil
	}
	if childLvl := ts.levels[id]; childLvl != nil {
		for _, childId := range childLvl.Ids() {
			if err := ts.RemoveItem(childId); err != nil {
				return err
			}
		}
		delete(ts.levels, id)
	}
	if lvl := ts.levels[parentId]; lvl != nil {
		if err := lvl.RemoveItem(id); err != nil {
			return err
		}
	}
	delete(ts.parentOf, id)
	return nil
}

func (ts *TreeStore) UpdateItem(id string, value any) bool {
	parentId, ok := ts.parentOf[id]
	if !ok {
		return false
	}
	return ts.levels[parentId].UpdateItem(id, value)
}

func (ts *TreeStore) GetItem(id string) (any, bool) {
	parentId, ok := ts.parentOf[id]
	if !ok {
		return nil, false
	}
	return ts.levels[parentId].GetItem(id)
}

func (ts *TreeStore) ParentOf(id string) (string, bool) {
	p, ok := ts.parentOf[id]
	return p, ok
}

func (ts *TreeStore) Children(parentId string) []string {
	lvl := ts.levels[parentId]
	if lvl == nil {
		return nil
	}
	return lvl.Ids()
}

func (ts *TreeStore) HasChildren(id string) bool {
	lvl := ts.levels[id]
	return lvl != nil && lvl.Len() > 0
}

// Preorder returns every id depth first, which is the tree's store order.
func (ts *TreeStore) Preorder() []string {
	var rtn []string
	var walk func(parentId string)
	walk = func(parentId string) {
		for _, id := range ts.Children(parentId) {
			rtn = append(rtn, id)
			walk(id)
		}
	}
	walk(RootParent)
	return rtn
}

// SelectionToIds maps visible positions of the native tree model to ids,
// ordered by the store's preorder.
func (ts *TreeStore) SelectionToIds(model native.TreeListModel, positions []uint) []string {
	selected := make(map[string]bool)
	for _, pos := range positions {
		if key := model.KeyAt(int(pos)); key != "" {
			selected[key] = true
		}
	}
	var rtn []string
	for _, id := range ts.Preorder() {
		if selected[id] {
			rtn = append(rtn, id)
		}
	}
	return rtn
}

// IdsToSelection maps ids to visible positions; collapsed or unknown ids are dropped.
func (ts *TreeStore) IdsToSelection(model native.TreeListModel, ids []string) []uint {
	seen := make(map[int]bool)
	var rtn []uint
	for _, id := range ids {
		pos := model.PositionOf(id)
		if pos < 0 || seen[pos] {
			continue
		}
		seen[pos] = true
		rtn = append(rtn, uint(pos))
	}
	sort.Slice(rtn, func(i, j int) bool { return rtn[i] < rtn[j] })
	return rtn
}
