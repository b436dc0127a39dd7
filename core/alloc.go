package core

import (
	"fmt"
	"sync"
)

// Allocator hands out byte buffers for a core's audio and video storage.
// Every successful Alloc must be paired with exactly one Free.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}

// PoolAllocator recycles buffers of identical size through per-size pools.
// Returned buffers are zeroed.
type PoolAllocator struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

// DefaultAllocator is shared by cores that are not given one explicitly.
var DefaultAllocator Allocator = &PoolAllocator{}

func (a *PoolAllocator) pool(size int) *sync.Pool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pools == nil {
		a.pools = make(map[int]*sync.Pool)
	}
	p, ok := a.pools[size]
	if !ok {
		p = &sync.Pool{New: func() any {
			b := make([]byte, size)
			return &b
		}}
		a.pools[size] = p
	}
	return p
}

// Alloc returns a zeroed buffer of exactly size bytes.
func (a *PoolAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrAllocation, size)
	}
	bp := a.pool(size).Get().(*[]byte)
	buf := *bp
	clear(buf)
	return buf, nil
}

// Free returns buf to its pool.
func (a *PoolAllocator) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	a.pool(len(buf)).Put(&buf)
}

// TrackingAllocator wraps another allocator, counts outstanding buffers, and
// can be told to fail after a number of successful allocations.
type TrackingAllocator struct {
	// Next is the underlying allocator; DefaultAllocator when nil.
	Next Allocator
	// FailAfter makes Alloc fail once this many allocations have succeeded.
	// Negative disables failure injection.
	FailAfter int

	mu          sync.Mutex
	allocs      int
	outstanding int
}

// NewTrackingAllocator returns a tracker that never fails.
func NewTrackingAllocator() *TrackingAllocator {
	return &TrackingAllocator{FailAfter: -1}
}

func (t *TrackingAllocator) next() Allocator {
	if t.Next != nil {
		return t.Next
	}
	return DefaultAllocator
}

func (t *TrackingAllocator) Alloc(size int) ([]byte, error) {
	t.mu.Lock()
	if t.FailAfter >= 0 && t.allocs >= t.FailAfter {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: injected failure", ErrAllocation)
	}
	t.mu.Unlock()

	buf, err := t.next().Alloc(size)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.allocs++
	t.outstanding++
	t.mu.Unlock()
	return buf, nil
}

func (t *TrackingAllocator) Free(buf []byte) {
	if buf == nil {
		return
	}
	t.next().Free(buf)
	t.mu.Lock()
	t.outstanding--
	t.mu.Unlock()
}

// Outstanding returns allocations not yet freed.
func (t *TrackingAllocator) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outstanding
}
