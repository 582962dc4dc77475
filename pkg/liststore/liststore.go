// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package liststore keeps an ordered, id-keyed collection in lockstep with a
// native string list model. The model only holds degenerate keys (the ids), row
// values are always read back through the store.
package liststore

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/wavetermdev/nativetree/pkg/native"
)

type Store struct {
	ids      *arraylist.List
	index    map[string]int
	values   map[string]any
	sections map[string]string
	headers  map[string]any
	model    native.StringList

	OnItemUpdated   func(id string, value any)
	OnHeaderUpdated func(section string, header any)
}

func MakeStore(model native.StringList) *Store {
	return &Store{
		ids:      arraylist.New(),
		index:    make(map[string]int),
		values:   make(map[string]any),
		sections: make(map[string]string),
		headers:  make(map[string]any),
		model:    model,
	}
}

func (s *Store) Model() native.StringList {
	return s.model
}

func (s *Store) Len() int {
	return s.ids.Size()
}

func (s *Store) Ids() []string {
	rtn := make([]string, 0, s.ids.Size())
	for _, v := range s.ids.Values() {
		rtn = append(rtn, v.(string))
	}
	return rtn
}

func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store) IndexOf(id string) int {
	idx, ok := s.index[id]
	if !ok {
		return -1
	}
	return idx
}

func (s *Store) IdAt(position int) string {
	v, ok := s.ids.Get(position)
	if !ok {
		return ""
	}
	return v.(string)
}

func (s *Store) GetItem(id string) (any, bool) {
	v, ok := s.values[id]
	return v, ok
}

func (s *Store) rebuildIndex(from int) {
	for i := from; i < s.ids.Size(); i++ {
		v, _ := s.ids.Get(i)
		s.index[v.(string)] = i
	}
}

func (s *Store) insertAt(id string, pos int) error {
	if s.model != nil {
		if err := s.model.Splice(pos, 0, []string{id}); err != nil {
			return fmt.Errorf("inserting %q at %d: %w", id, pos, err)
		}
	}
	s.ids.Insert(pos, id)
	s.rebuildIndex(pos)
	return nil
}

func (s *Store) removeAt(id string, pos int) error {
	if s.model != nil {
		if err := s.model.Splice(pos, 1, nil); err != nil {
			return fmt.Errorf("removing %q at %d: %w", id, pos, err)
		}
	}
	s.ids.Remove(pos)
	delete(s.index, id)
	s.rebuildIndex(pos)
	return nil
}

// AddItem appends id. An id already present is moved to the end.
func (s *Store) AddItem(id string, value any) error {
	if idx, ok := s.index[id]; ok {
		if err := s.removeAt(id, idx); err != nil {
			return err
		}
	}
	if err := s.insertAt(id, s.ids.Size()); err != nil {
		s.forget(id)
		return err
	}
	s.values[id] = value
	return nil
}

// forget drops the side tables of an id that is no longer in the order.
func (s *Store) forget(id string) {
	delete(s.values, id)
	delete(s.sections, id)
}

// InsertItemBefore places id immediately before beforeId, moving it if present.
func (s *Store) InsertItemBefore(id string, beforeId string, value any) error {
	if id == beforeId {
		return fmt.Errorf("cannot insert %q before itself", id)
	}
	if _, ok := s.index[beforeId]; !ok {
		return fmt.Errorf("insert %q: before item %q not found", id, beforeId)
	}
	if idx, ok := s.index[id]; ok {
		if err := s.removeAt(id, idx); err != nil {
			return err
		}
	}
	if err := s.insertAt(id, s.index[beforeId]); err != nil {
		s.forget(id)
		return err
	}
	s.values[id] = value
	return nil
}

// RemoveItem is a no-op for unknown ids.
func (s *Store) RemoveItem(id string) error {
	idx, ok := s.index[id]
	if !ok {
		return nil
	}
	if err := s.removeAt(id, idx); err != nil {
		return err
	}
	s.forget(id)
	return nil
}

// UpdateItem replaces the value of an existing id without touching the model.
func (s *Store) UpdateItem(id string, value any) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	s.values[id] = value
	if s.OnItemUpdated != nil {
		s.OnItemUpdated(id, value)
	}
	return true
}

// Clear removes every item.
func (s *Store) Clear() error {
	n := s.ids.Size()
	if n == 0 {
		return nil
	}
	if s.model != nil {
		if err := s.model.Splice(0, n, nil); err != nil {
			return err
		}
	}
	s.ids.Clear()
	s.index = make(map[string]int)
	s.values = make(map[string]any)
	s.sections = make(map[string]string)
	return nil
}

func (s *Store) SetSection(id string, section string) {
	if section == "" {
		delete(s.sections, id)
		return
	}
	s.sections[id] = section
}

func (s *Store) SectionOf(id string) string {
	return s.sections[id]
}

func (s *Store) SetSectionHeader(section string, header any) {
	s.headers[section] = header
	if s.OnHeaderUpdated != nil {
		s.OnHeaderUpdated(section, header)
	}
}

func (s *Store) RemoveSection(section string) {
	delete(s.headers, section)
}

func (s *Store) SectionHeader(section string) (any, bool) {
	h, ok := s.headers[section]
	return h, ok
}

// SectionRange returns the run of rows sharing the section of position
// as [start, end).
func (s *Store) SectionRange(position int) (int, int, string) {
	id := s.IdAt(position)
	if id == "" {
		return 0, 0, ""
	}
	section := s.sections[id]
	start := position
	for start > 0 && s.sections[s.IdAt(start-1)] == section {
		start--
	}
	end := position + 1
	for end < s.ids.Size() && s.sections[s.IdAt(end)] == section {
		end++
	}
	return start, end, section
}

// SelectionToIds translates a native selection bitset into ids, in store order.
func (s *Store) SelectionToIds(positions []uint) []string {
	sorted := append([]uint(nil), positions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var rtn []string
	var last uint
	for i, pos := range sorted {
		if i > 0 && pos == last {
			continue
		}
		last = pos
		if id := s.IdAt(int(pos)); id != "" {
			rtn = append(rtn, id)
		}
	}
	return rtn
}

// IdsToSelection translates ids into a sorted bitset; unknown ids are dropped.
func (s *Store) IdsToSelection(ids []string) []uint {
	seen := make(map[int]bool)
	var rtn []uint
	for _, id := range ids {
		idx, ok := s.index[id]
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		rtn = append(rtn, uint(idx))
	}
	sort.Slice(rtn, func(i, j int) bool { return rtn[i] < rtn[j] })
	return rtn
}

// Verify checks that ids, index and model agree.
func (s *Store) Verify() error {
	if s.model != nil && s.model.NItems() != s.ids.Size() {
		return fmt.Errorf("model has %d rows, store has %d ids", s.model.NItems(), s.ids.Size())
	}
	if len(s.index) != s.ids.Size() {
		return fmt.Errorf("index has %d entries, store has %d ids", len(s.index), s.ids.Size())
	}
	if len(s.values) != s.ids.Size() {
		return fmt.Errorf("values has %d entries, store has %d ids", len(s.values), s.ids.Size())
	}
	for id := range s.sections {
		if _, ok := s.index[id]; !ok {
			return fmt.Errorf("section entry for unknown id %q", id)
		}
	}
	for i, id := range s.Ids() {
		if s.index[id] != i {
			return fmt.Errorf("index of %q is %d, expected %d", id, s.index[id], i)
		}
		if s.model != nil && s.model.GetString(i) != id {
			return fmt.Errorf("model row %d is %q, expected %q", i, s.model.GetString(i), id)
		}
	}
	return nil
}
