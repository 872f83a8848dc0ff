// Package dedupe remembers recently queued report deliveries so the same
// report is not sent twice while it is still remembered.
package dedupe

import (
	"container/list"
	"context"
	"strconv"
	"strings"
	"sync"
)

// Deduper records delivery keys.
type Deduper interface {
	// SeenAndRecord reports whether key is already remembered and records it
	// when it is not. The check and the record happen atomically.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key, e.g. when the delivery it guarded was never queued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key builds the delivery key of a report for one recipient.
func Key(requestID, recipient string, includeContacts bool) string {
	return requestID + "|" + strings.ToLower(strings.TrimSpace(recipient)) + "|" + strconv.FormatBool(includeContacts)
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest one
// once maxSize is reached. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	order   *list.List
	keys    map[string]*list.Element
	maxSize int
}

// NewInMemoryDeduper creates a deduper remembering up to 10000 keys by default.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
		order:   list.New(),
		keys:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.keys[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.keys) >= d.maxSize {
		d.evictOldest()
	}
	d.keys[key] = d.order.PushBack(key)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.keys[key]; ok {
		d.order.Remove(el)
		delete(d.keys, key)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.keys, front.Value.(string))
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.keys))
}
