// Package dedupe guards the oracle against replaying an event commitment.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen event hashes to ensure at-most-once valuation.
type Deduper interface {
	// SeenAndRecord atomically checks if hash was seen and records it if not.
	// Returns true if hash was already seen.
	SeenAndRecord(ctx context.Context, hash string) (bool, error)

	// Unrecord forgets hash so the event can be retried. Only used when an
	// event was recorded but could not be enqueued or processed.
	Unrecord(ctx context.Context, hash string) error
}

type node struct {
	hash string
	next *node
}

func (n *node) reset() {
	n.hash = ""
	n.next = nil
}

// InMemoryDeduper keeps hashes in a map. In bounded mode entries also sit on a
// singly linked FIFO so the oldest hash is evicted first.
type InMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node // oldest
	tail     *node // newest
	maxSize  int   // <= 0 means unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) *InMemoryDeduper {
	d := &InMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{New: func() any { return &node{} }}
	return d
}

// SeenAndRecord implements Deduper. It never fails.
func (d *InMemoryDeduper) SeenAndRecord(_ context.Context, hash string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[hash]; exists {
		return true, nil
	}

	if d.maxSize <= 0 {
		d.seen[hash] = nil
		d.size.Add(1)
		return false, nil
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	n := d.nodePool.Get().(*node)
	n.hash = hash
	if d.tail == nil {
		d.head = n
	} else {
		d.tail.next = n
	}
	d.tail = n
	d.seen[hash] = n
	d.size.Add(1)
	return false, nil
}

// Unrecord implements Deduper.
func (d *InMemoryDeduper) Unrecord(_ context.Context, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, exists := d.seen[hash]
	if !exists {
		return nil
	}
	delete(d.seen, hash)
	d.size.Add(-1)
	if n == nil {
		return nil
	}

	var prev *node
	for cur := d.head; cur != nil && cur != n; cur = cur.next {
		prev = cur
	}
	if prev == nil {
		d.head = n.next
	} else {
		prev.next = n.next
	}
	if d.tail == n {
		d.tail = prev
	}
	n.reset()
	d.nodePool.Put(n)
	return nil
}

// evictOldest drops the head of the FIFO. Caller holds d.mu.
func (d *InMemoryDeduper) evictOldest() {
	n := d.head
	if n == nil {
		return
	}
	d.head = n.next
	if d.head == nil {
		d.tail = nil
	}
	delete(d.seen, n.hash)
	d.size.Add(-1)
	n.reset()
	d.nodePool.Put(n)
}

// Size returns the number of hashes held.
func (d *InMemoryDeduper) Size() int64 {
	return d.size.Load()
}
