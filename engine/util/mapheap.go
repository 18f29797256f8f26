// Package util
//
// This file provides MapHeap, a priority queue keyed by a uint64 identifier
// with O(1) key-based lookup alongside the usual O(log n) heap operations.
// store.VersionedDocument.Prune uses one to run a multi-source shortest-path
// sweep over a rev-tree: every leaf is seeded with distance 0, and MapHeap
// always yields the not-yet-finalized revision with the smallest tentative
// distance next, the same role a priority queue plays in any Dijkstra-style
// traversal.
//
// Not thread-safe; callers serialize access externally.
package util

import (
	"container/heap"
	"strconv"
)

// item represents an item in our garbage collection queue
// with a uint64 key for identification and uint64 value for priority
type item struct {
	Key      uint64 // Unique identifier for the item
	Priority uint64 // Priority used for priority in the heap
	index    int    // Index in the heap, maintained by heap package
}

func (i *item) String() string {
	return "{Key: " + strconv.FormatUint(i.Key, 10) + ", Priority: " + strconv.FormatUint(i.Priority, 10) + "}"
}

// MapHeap implements a priority queue for garbage collection
// with both heap operations and key-based access
type MapHeap struct {
	items    []*item          // The actual heap slice
	itemsMap map[uint64]*item // Map for O(1) access by key
}

// NewMapHeap creates a new garbage collection queue
func NewMapHeap() *MapHeap {
	return &MapHeap{
		items:    make([]*item, 0),
		itemsMap: make(map[uint64]*item),
	}
}

// Len returns the number of items in the queue (part of heap.Interface)
func (gcq *MapHeap) Len() int { return len(gcq.items) }

// Less compares items by value (part of heap.Interface)
// For GC, typically we want oldest items first (min-heap by timestamp)
func (gcq *MapHeap) Less(i, j int) bool {
	return gcq.items[i].Priority < gcq.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (gcq *MapHeap) Swap(i, j int) {
	gcq.items[i], gcq.items[j] = gcq.items[j], gcq.items[i]
	gcq.items[i].index = i
	gcq.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface)
func (gcq *MapHeap) Push(x interface{}) {
	n := len(gcq.items)
	item := x.(*item)
	item.index = n
	gcq.items = append(gcq.items, item)
	gcq.itemsMap[item.Key] = item
}

// Pop removes and returns the minimum item (part of heap.Interface)
func (gcq *MapHeap) Pop() interface{} {
	old := gcq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // Avoid memory leak
	item.index = -1 // For safety
	gcq.items = old[:n-1]
	delete(gcq.itemsMap, item.Key)
	return item
}

// AddItem adds a new item to the queue or updates existing one
func (gcq *MapHeap) AddItem(key, priority uint64) {
	// Check if item already exists
	if item, exists := gcq.itemsMap[key]; exists {
		// Update priority and fix heap
		item.Priority = priority
		heap.Fix(gcq, item.index)
		return
	}

	// Create and add new item
	item := &item{
		Key:      key,
		Priority: priority,
	}
	heap.Push(gcq, item)
}

// RemoveByKey removes an item by its key
func (gcq *MapHeap) RemoveByKey(key uint64) (uint64, bool) {
	item, exists := gcq.itemsMap[key]
	if !exists {
		return 0, false
	}

	// Remove from heap
	heap.Remove(gcq, item.index)
	return item.Priority, true
}

// Peek returns the minimum value item without removing it
func (gcq *MapHeap) Peek() (*item, bool) {
	if len(gcq.items) == 0 {
		return nil, false
	}
	return gcq.items[0], true
}

// Contains checks if a key exists in the queue
func (gcq *MapHeap) Contains(key uint64) bool {
	_, exists := gcq.itemsMap[key]
	return exists
}

// GetByKey retrieves an item by its key without removing it
func (gcq *MapHeap) GetByKey(key uint64) (*item, bool) {
	item, exists := gcq.itemsMap[key]
	return item, exists
}
