package queue

import (
	"sync"
)

// Pending is a thread-safe FIFO set: pushing a key that is already queued keeps
// its original place instead of queueing it twice.
type Pending[K comparable] struct {
	mu    sync.Mutex
	keys  []K
	index map[K]struct{}
}

// New creates a new empty set.
func New[K comparable]() *Pending[K] {
	return &Pending[K]{
		keys:  make([]K, 0),
		index: make(map[K]struct{}),
	}
}

// Push appends keys that are not already queued. Returns how many were added.
func (q *Pending[K]) Push(keys ...K) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	added := 0
	for _, k := range keys {
		if _, ok := q.index[k]; ok {
			continue
		}
		q.index[k] = struct{}{}
		q.keys = append(q.keys, k)
		added++
	}
	return added
}

// Remove drops key if queued.
func (q *Pending[K]) Remove(key K) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.index[key]; !ok {
		return
	}
	delete(q.index, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			break
		}
	}
}

// Empty returns true if nothing is queued.
func (q *Pending[K]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys) == 0
}

// Len returns the number of queued keys.
func (q *Pending[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}

// Clear removes all keys.
func (q *Pending[K]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.keys = q.keys[:0]
	q.index = make(map[K]struct{})
}

// GetAndEmpty returns all keys in push order and clears the set.
func (q *Pending[K]) GetAndEmpty() []K {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.keys
	q.keys = make([]K, 0, cap(q.keys))
	q.index = make(map[K]struct{})
	return result
}
