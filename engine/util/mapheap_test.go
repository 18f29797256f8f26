package util

import (
	"container/heap"
	"sort"
	"testing"
)

// keys and priorities below are revision-index/distance pairs, mirroring
// how store.VersionedDocument.Prune uses MapHeap: Key is a revision's arena
// index, Priority its tentative distance from the nearest leaf.

func TestNewMapHeapStartsEmpty(t *testing.T) {
	mh := NewMapHeap()
	if mh == nil {
		t.Fatal("NewMapHeap() returned nil")
	}
	if mh.Len() != 0 {
		t.Errorf("fresh heap should have length 0, got %d", mh.Len())
	}
	if len(mh.itemsMap) != 0 {
		t.Errorf("fresh heap's index map should be empty, has %d entries", len(mh.itemsMap))
	}
}

func TestAddItemTracksMinAndMembership(t *testing.T) {
	mh := NewMapHeap()
	heap.Init(mh)

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 50)

	if mh.Len() != 3 {
		t.Errorf("expected 3 items, got %d", mh.Len())
	}
	for _, k := range []uint64{1, 2, 3} {
		if !mh.Contains(k) {
			t.Errorf("heap should contain key %d", k)
		}
	}

	top, ok := mh.Peek()
	if !ok {
		t.Fatal("Peek() on non-empty heap should return ok=true")
	}
	if top.Key != 3 || top.Priority != 50 {
		t.Errorf("min item should be (3,50), got (%d,%d)", top.Key, top.Priority)
	}
}

// TestAddItemRelaxesExistingDistance mirrors Prune's relaxation step: a
// revision already in the frontier gets a new tentative distance, and
// AddItem must replace its distance (whether higher or lower) and
// re-heapify in place rather than duplicate the entry.
func TestAddItemRelaxesExistingDistance(t *testing.T) {
	mh := NewMapHeap()
	heap.Init(mh)

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)

	mh.AddItem(1, 300)
	item, ok := mh.GetByKey(1)
	if !ok {
		t.Fatal("key 1 should still be present after relaxation")
	}
	if item.Priority != 300 {
		t.Errorf("relaxed priority should be 300, got %d", item.Priority)
	}
	if mh.Len() != 2 {
		t.Errorf("relaxing an existing key must not grow the heap, len=%d", mh.Len())
	}

	min, _ := mh.Peek()
	if min.Key != 2 {
		t.Errorf("min should now be key 2, got %d", min.Key)
	}

	mh.AddItem(2, 50)
	min, _ = mh.Peek()
	if min.Key != 2 || min.Priority != 50 {
		t.Errorf("min should now be (2,50), got (%d,%d)", min.Key, min.Priority)
	}
}

func TestRemoveByKeyDropsEntry(t *testing.T) {
	mh := NewMapHeap()
	heap.Init(mh)

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 300)

	priority, ok := mh.RemoveByKey(2)
	if !ok {
		t.Fatal("RemoveByKey should report ok=true for a present key")
	}
	if priority != 200 {
		t.Errorf("RemoveByKey should return the removed priority 200, got %d", priority)
	}
	if mh.Len() != 2 {
		t.Errorf("expected 2 items after removal, got %d", mh.Len())
	}
	if mh.Contains(2) {
		t.Error("key 2 should be gone after removal")
	}

	if _, ok := mh.RemoveByKey(99); ok {
		t.Error("RemoveByKey on an absent key should report ok=false")
	}
}

func TestHeapPopsInAscendingPriorityOrder(t *testing.T) {
	mh := NewMapHeap()
	heap.Init(mh)

	entries := []struct {
		key      uint64
		priority uint64
	}{
		{5, 50}, {3, 30}, {1, 10}, {4, 40}, {2, 20},
	}
	for _, e := range entries {
		mh.AddItem(e.key, e.priority)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].priority < entries[j].priority })

	for i, want := range entries {
		if mh.Len() == 0 {
			t.Fatalf("heap ran dry after %d pops, expected %d entries total", i, len(entries))
		}
		got := heap.Pop(mh).(*item)
		if got.Key != want.key || got.Priority != want.priority {
			t.Errorf("pop %d: expected (%d,%d), got (%d,%d)", i, want.key, want.priority, got.Key, got.Priority)
		}
	}
	if mh.Len() != 0 {
		t.Errorf("heap should be drained, still has %d items", mh.Len())
	}
}

func TestPeekOnEmptyHeapReportsAbsent(t *testing.T) {
	mh := NewMapHeap()
	heap.Init(mh)

	if _, ok := mh.Peek(); ok {
		t.Error("Peek on an empty heap should report ok=false")
	}
}

func TestGetByKeyDoesNotRemove(t *testing.T) {
	mh := NewMapHeap()
	heap.Init(mh)

	mh.AddItem(1, 100)
	mh.AddItem(2, 200)

	item, ok := mh.GetByKey(1)
	if !ok {
		t.Fatal("GetByKey should find a present key")
	}
	if item.Key != 1 || item.Priority != 100 {
		t.Errorf("expected (1,100), got (%d,%d)", item.Key, item.Priority)
	}
	if mh.Len() != 2 {
		t.Errorf("GetByKey must not remove the entry, len=%d", mh.Len())
	}

	if _, ok := mh.GetByKey(99); ok {
		t.Error("GetByKey should report ok=false for an absent key")
	}
}

// TestFrontierSweepRelaxesThroughTheCurrentMinimum simulates Prune's use
// pattern directly: seed two leaves at distances 0 and 1, pop the current minimum,
// and relax its shared ancestor through it. Mirrors Dijkstra's invariant
// that the node popped first always supplies the shortest relaxation.
func TestFrontierSweepRelaxesThroughTheCurrentMinimum(t *testing.T) {
	frontier := NewMapHeap()
	heap.Init(frontier)

	const leafA, leafB, ancestor = 10, 11, 1
	frontier.AddItem(leafA, 0)
	frontier.AddItem(leafB, 1)

	popped, ok := frontier.Peek()
	if !ok || popped.Key != leafA {
		t.Fatalf("expected leafA (distance 0) to be the current minimum, got %+v", popped)
	}
	frontier.RemoveByKey(popped.Key)
	frontier.AddItem(ancestor, popped.Priority+1)

	got, ok := frontier.GetByKey(ancestor)
	if !ok {
		t.Fatal("ancestor should have entered the frontier")
	}
	if got.Priority != 1 {
		t.Errorf("expected relaxed distance 1, got %d", got.Priority)
	}
}
