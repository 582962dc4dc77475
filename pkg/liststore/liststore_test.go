// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package liststore

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/wavetermdev/nativetree/pkg/native/nativefake"
)

func mustOk(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func makeTestStore(t *testing.T) (*Store, *nativefake.StringList) {
	t.Helper()
	tk := nativefake.MakeToolkit()
	model, err := tk.NewStringList(nil)
	if err != nil {
		t.Fatalf("NewStringList: %v", err)
	}
	return MakeStore(model), model.(*nativefake.StringList)
}

func checkStore(t *testing.T, s *Store, model *nativefake.StringList, want []string) {
	t.Helper()
	if diff := cmp.Diff(want, s.Ids(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("store ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, model.Keys(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("model keys mismatch (-want +got):\n%s", diff)
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("store inconsistent: %v", err)
	}
}

func TestAddGetRemove(t *testing.T) {
	s, model := makeTestStore(t)
	mustOk(t, s.AddItem("1", "A"))
	v, ok := s.GetItem("1")
	if !ok || v != "A" {
		t.Fatalf("GetItem(1) = %v, %v", v, ok)
	}
	mustOk(t, s.RemoveItem("1"))
	if _, ok := s.GetItem("1"); ok {
		t.Fatalf("removed item still present")
	}
	checkStore(t, s, model, []string{})
	if err := s.RemoveItem("missing"); err != nil {
		t.Fatalf("removing unknown id should be a no-op: %v", err)
	}
}

func TestInsertBefore(t *testing.T) {
	s, model := makeTestStore(t)
	mustOk(t, s.AddItem("1", "A"))
	mustOk(t, s.AddItem("2", "B"))
	if err := s.InsertItemBefore("3", "2", "C"); err != nil {
		t.Fatalf("InsertItemBefore: %v", err)
	}
	checkStore(t, s, model, []string{"1", "3", "2"})
	if model.NItems() != 3 {
		t.Fatalf("expected 3 rows, got %d", model.NItems())
	}
	if err := s.InsertItemBefore("4", "missing", "D"); err == nil {
		t.Fatalf("expected error for unknown before id")
	}
	checkStore(t, s, model, []string{"1", "3", "2"})
}

func TestReorderExisting(t *testing.T) {
	s, model := makeTestStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		mustOk(t, s.AddItem(id, id))
	}
	mustOk(t, s.InsertItemBefore("d", "b", "d2"))
	checkStore(t, s, model, []string{"a", "d", "b", "c"})
	mustOk(t, s.AddItem("a", "a2"))
	checkStore(t, s, model, []string{"d", "b", "c", "a"})
	mustOk(t, s.RemoveItem("b"))
	checkStore(t, s, model, []string{"d", "c", "a"})
	if v, _ := s.GetItem("d"); v != "d2" {
		t.Fatalf("moved item should carry its new value, got %v", v)
	}
}

func TestMoveFailureDropsItem(t *testing.T) {
	s, model := makeTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		mustOk(t, s.AddItem(id, id))
	}
	s.SetSection("a", "first")
	model.FailSplice = func(position int, nRemovals int, additions []string) error {
		if len(additions) > 0 {
			return fmt.Errorf("model rejected insert")
		}
		return nil
	}
	if err := s.AddItem("a", "a2"); err == nil {
		t.Fatalf("expected the failed insert to be reported")
	}
	if err := s.InsertItemBefore("c", "b", "c2"); err == nil {
		t.Fatalf("expected the failed insert to be reported")
	}
	if _, ok := s.GetItem("a"); ok {
		t.Fatalf("a keeps a value after leaving the order")
	}
	if s.SectionOf("a") != "" {
		t.Fatalf("a keeps its section after leaving the order")
	}
	checkStore(t, s, model, []string{"b"})
}

func TestUpdateDoesNotTouchModel(t *testing.T) {
	s, model := makeTestStore(t)
	mustOk(t, s.AddItem("1", "A"))
	var updated []string
	s.OnItemUpdated = func(id string, value any) { updated = append(updated, id) }
	splices := len(model.CallsTo("splice"))
	if !s.UpdateItem("1", "A2") {
		t.Fatalf("UpdateItem should succeed")
	}
	if len(model.CallsTo("splice")) != splices {
		t.Fatalf("update must not splice the model")
	}
	if s.UpdateItem("missing", "x") {
		t.Fatalf("UpdateItem on unknown id should report false")
	}
	if diff := cmp.Diff([]string{"1"}, updated); diff != "" {
		t.Fatalf("update callback mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	s, _ := makeTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		mustOk(t, s.AddItem(id, id))
	}
	bits := s.IdsToSelection([]string{"b"})
	if diff := cmp.Diff([]uint{1}, bits); diff != "" {
		t.Fatalf("bitset mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, s.SelectionToIds(bits)); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	ids := s.SelectionToIds([]uint{2, 0, 2})
	if diff := cmp.Diff([]string{"a", "c"}, ids); diff != "" {
		t.Fatalf("selection should follow store order (-want +got):\n%s", diff)
	}
	if got := s.IdsToSelection([]string{"c", "zz", "a"}); !cmp.Equal([]uint{0, 2}, got) {
		t.Fatalf("IdsToSelection = %v", got)
	}
}

func TestSections(t *testing.T) {
	s, _ := makeTestStore(t)
	var headers []string
	s.OnHeaderUpdated = func(section string, header any) { headers = append(headers, section) }
	for _, id := range []string{"f1", "f2", "v1"} {
		mustOk(t, s.AddItem(id, id))
	}
	s.SetSection("f1", "fruit")
	s.SetSection("f2", "fruit")
	s.SetSection("v1", "veg")
	s.SetSectionHeader("fruit", "Fruit")
	start, end, section := s.SectionRange(1)
	if start != 0 || end != 2 || section != "fruit" {
		t.Fatalf("SectionRange(1) = %d,%d,%q", start, end, section)
	}
	start, end, section = s.SectionRange(2)
	if start != 2 || end != 3 || section != "veg" {
		t.Fatalf("SectionRange(2) = %d,%d,%q", start, end, section)
	}
	if h, ok := s.SectionHeader("fruit"); !ok || h != "Fruit" {
		t.Fatalf("SectionHeader(fruit) = %v,%v", h, ok)
	}
	if len(headers) != 1 {
		t.Fatalf("expected one header update, got %v", headers)
	}
}

// TestRandomStoreSequences checks that store order, index and model rows stay
// in lockstep across random add/insert/remove/update mixes.
func TestRandomStoreSequences(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewPCG(seed, seed^0x5eed))
			s, model := makeTestStore(t)
			var want []string
			values := make(map[string]int)
			for step := 0; step < 80; step++ {
				id := ids[rnd.IntN(len(ids))]
				switch op := rnd.IntN(4); {
				case op == 0 || len(want) == 0:
					mustOk(t, s.AddItem(id, step))
					want = slices.DeleteFunc(want, func(v string) bool { return v == id })
					want = append(want, id)
					values[id] = step
				case op == 1:
					before := want[rnd.IntN(len(want))]
					if before == id {
						if err := s.InsertItemBefore(id, before, step); err == nil {
							t.Fatalf("step %d: inserting %q before itself should fail", step, id)
						}
						break
					}
					mustOk(t, s.InsertItemBefore(id, before, step))
					want = slices.DeleteFunc(want, func(v string) bool { return v == id })
					want = slices.Insert(want, slices.Index(want, before), id)
					values[id] = step
				case op == 2:
					mustOk(t, s.RemoveItem(id))
					want = slices.DeleteFunc(want, func(v string) bool { return v == id })
					delete(values, id)
				default:
					_, present := values[id]
					if s.UpdateItem(id, step) != present {
						t.Fatalf("step %d: UpdateItem(%q) disagrees about presence", step, id)
					}
					if present {
						values[id] = step
					}
				}
				checkStore(t, s, model, want)
				for _, v := range want {
					if got, _ := s.GetItem(v); got != values[v] {
						t.Fatalf("step %d: value of %q = %v, want %d", step, v, got, values[v])
					}
				}
			}
		})
	}
}
