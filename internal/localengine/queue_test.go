package localengine

import (
	"testing"

	"github.com/kvit-s/veribench/internal/model"
)

func TestQueue_DrainsInOrder(t *testing.T) {
	rs1 := &model.RunSet{Name: "a", Runs: []*model.Run{{Identifier: "1"}, {Identifier: "2"}}}
	rs2 := &model.RunSet{Name: "b", Runs: []*model.Run{{Identifier: "3"}}}

	q := NewQueue([]*model.RunSet{rs1, rs2})
	if q.Total() != 3 {
		t.Fatalf("Total() = %d, want 3", q.Total())
	}

	var seen []string
	for {
		item, ok := q.Pop()
		if !ok {
			break
		}
		seen = append(seen, item.Run.Identifier)
	}
	want := []string{"1", "2", "3"}
	for i, id := range want {
		if seen[i] != id {
			t.Errorf("seen[%d] = %s, want %s", i, seen[i], id)
		}
	}
}

func TestQueue_PopOnEmptyReturnsFalse(t *testing.T) {
	q := NewQueue(nil)
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue should return ok=false")
	}
}

func TestQueue_LenDecreasesAsItemsArePopped(t *testing.T) {
	rs := &model.RunSet{Runs: []*model.Run{{Identifier: "1"}, {Identifier: "2"}}}
	q := NewQueue([]*model.RunSet{rs})
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	q.Pop()
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
}
