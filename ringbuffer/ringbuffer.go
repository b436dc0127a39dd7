// Package ringbuffer implements a lock-free single-producer/single-consumer
// byte ring used to carry PCM audio from the core execution goroutine to the
// audio output goroutine.
//
// Exactly one goroutine may call Write and exactly one (possibly different)
// goroutine may call Read. AvailableRead and AvailableWrite may be called from
// either side. Clear and Close require external synchronisation with both.
package ringbuffer

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// MaxCapacity bounds the storage a single ring may request.
const MaxCapacity = 64 * 1024 * 1024

// ErrInvalidCapacity is returned by New when the requested capacity is out of range.
var ErrInvalidCapacity = errors.New("invalid ring buffer capacity")

// cacheLine is the assumed coherence granule. The cursors are padded apart so
// producer and consumer do not false-share.
const cacheLine = 64

// RingBuffer is a fixed-capacity byte ring. One slot is always kept free so
// that head == tail unambiguously means empty; at most Capacity()-1 bytes can
// be buffered at once.
type RingBuffer struct {
	// head is the next byte the consumer will read. Written by the consumer only.
	head atomic.Uint64
	_    [cacheLine - 8]byte

	// tail is the next byte the producer will write. Written by the producer only.
	tail atomic.Uint64
	_    [cacheLine - 8]byte

	buf      []byte
	capacity uint64
}

// New allocates a ring with the given byte capacity. Capacity must be at
// least 2 (one byte usable) and no larger than MaxCapacity. A failed call
// allocates nothing, so the caller may retry with a smaller size.
func New(capacity int) (*RingBuffer, error) {
	if capacity < 2 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &RingBuffer{
		buf:      make([]byte, capacity),
		capacity: uint64(capacity),
	}, nil
}

// Capacity returns the byte capacity fixed at construction.
func (r *RingBuffer) Capacity() int {
	return int(r.capacity)
}

// Close releases the backing storage. After Close, Read and Write move no
// bytes and both Available calls report zero.
func (r *RingBuffer) Close() {
	r.buf = nil
	r.capacity = 0
	r.head.Store(0)
	r.tail.Store(0)
}

// Go's sync/atomic operations are sequentially consistent, which is strictly
// stronger than the acquire/release pairing the ring relies on. The helpers
// below name the intended ordering at each call site.

func loadAcquire(v *atomic.Uint64) uint64     { return v.Load() }
func loadRelaxed(v *atomic.Uint64) uint64     { return v.Load() }
func storeRelease(v *atomic.Uint64, x uint64) { v.Store(x) }

// used returns the number of buffered bytes given a head/tail snapshot.
func (r *RingBuffer) used(head, tail uint64) uint64 {
	if tail >= head {
		return tail - head
	}
	return r.capacity - head + tail
}

// AvailableRead returns how many bytes the consumer could read right now.
// The value may grow concurrently if the producer is active.
func (r *RingBuffer) AvailableRead() int {
	if r.capacity == 0 {
		return 0
	}
	return int(r.used(loadAcquire(&r.head), loadAcquire(&r.tail)))
}

// AvailableWrite returns how many bytes the producer could write right now.
// AvailableRead()+AvailableWrite() == Capacity()-1 whenever both cursors are
// quiescent.
func (r *RingBuffer) AvailableWrite() int {
	if r.capacity == 0 {
		return 0
	}
	return int(r.capacity - 1 - r.used(loadAcquire(&r.head), loadAcquire(&r.tail)))
}

// Write copies all of src into the ring and returns len(src), or copies
// nothing and returns 0 when there is not enough room. Producer side only.
func (r *RingBuffer) Write(src []byte) int {
	n := uint64(len(src))
	if n == 0 || r.capacity == 0 {
		return 0
	}

	tail := loadRelaxed(&r.tail)
	head := loadAcquire(&r.head)
	if n > r.capacity-1-r.used(head, tail) {
		return 0
	}

	first := min(n, r.capacity-tail)
	copy(r.buf[tail:tail+first], src[:first])
	if first < n {
		copy(r.buf[:n-first], src[first:])
	}

	storeRelease(&r.tail, (tail+n)%r.capacity)
	return int(n)
}

// Read fills all of dst from the ring and returns len(dst), or copies nothing
// and returns 0 when fewer than len(dst) bytes are buffered. Consumer side only.
func (r *RingBuffer) Read(dst []byte) int {
	n := uint64(len(dst))
	if n == 0 || r.capacity == 0 {
		return 0
	}

	head := loadRelaxed(&r.head)
	tail := loadAcquire(&r.tail)
	if n > r.used(head, tail) {
		return 0
	}

	first := min(n, r.capacity-head)
	copy(dst[:first], r.buf[head:head+first])
	if first < n {
		copy(dst[first:], r.buf[:n-first])
	}

	storeRelease(&r.head, (head+n)%r.capacity)
	return int(n)
}

// Clear empties the ring and zeroes its storage. It must not run
// concurrently with Read or Write.
func (r *RingBuffer) Clear() {
	r.head.Store(0)
	r.tail.Store(0)
	clear(r.buf)
}
