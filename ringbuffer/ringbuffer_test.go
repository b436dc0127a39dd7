package ringbuffer

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func newRing(t *testing.T, capacity int) *RingBuffer {
	t.Helper()
	r, err := New(capacity)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", capacity, err)
	}
	return r
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{-1, 0, 1, MaxCapacity + 1} {
		r, err := New(c)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("New(%d): expected ErrInvalidCapacity, got %v", c, err)
		}
		if r != nil {
			t.Errorf("New(%d): expected nil ring on failure", c)
		}
	}
}

func TestNew_Empty(t *testing.T) {
	r := newRing(t, 16)
	if r.Capacity() != 16 {
		t.Errorf("expected capacity 16, got %d", r.Capacity())
	}
	if r.AvailableRead() != 0 {
		t.Errorf("expected 0 readable, got %d", r.AvailableRead())
	}
	if r.AvailableWrite() != 15 {
		t.Errorf("expected 15 writable, got %d", r.AvailableWrite())
	}
}

func TestCapacityConservation(t *testing.T) {
	r := newRing(t, 10)
	ops := []struct {
		write int
		read  int
	}{
		{3, 0}, {4, 2}, {0, 5}, {8, 0}, {0, 8}, {9, 0}, {0, 9}, {5, 5},
	}
	for i, op := range ops {
		if op.write > 0 {
			r.Write(make([]byte, op.write))
		}
		if op.read > 0 {
			r.Read(make([]byte, op.read))
		}
		if got := r.AvailableRead() + r.AvailableWrite(); got != 9 {
			t.Fatalf("step %d: expected read+write == 9, got %d", i, got)
		}
	}
}

func TestWrite_AllOrNothing(t *testing.T) {
	r := newRing(t, 8)
	if n := r.Write([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Fatalf("expected 5 written, got %d", n)
	}
	if n := r.Write([]byte{6, 7, 8}); n != 0 {
		t.Fatalf("expected overflowing write to return 0, got %d", n)
	}
	if r.AvailableRead() != 5 {
		t.Errorf("state changed after refused write: %d readable", r.AvailableRead())
	}
	if n := r.Write([]byte{6, 7}); n != 2 {
		t.Fatalf("expected exact fill to succeed, got %d", n)
	}
	if r.AvailableWrite() != 0 {
		t.Errorf("expected full ring, got %d writable", r.AvailableWrite())
	}
}

func TestRead_AllOrNothing(t *testing.T) {
	r := newRing(t, 8)
	r.Write([]byte{1, 2, 3})
	dst := []byte{9, 9, 9, 9}
	if n := r.Read(dst); n != 0 {
		t.Fatalf("expected short read to return 0, got %d", n)
	}
	if !bytes.Equal(dst, []byte{9, 9, 9, 9}) {
		t.Errorf("destination modified by refused read: %v", dst)
	}
	if r.AvailableRead() != 3 {
		t.Errorf("expected 3 readable after refused read, got %d", r.AvailableRead())
	}
}

func TestEmptyOps(t *testing.T) {
	r := newRing(t, 4)
	if r.Write(nil) != 0 || r.Read(nil) != 0 {
		t.Error("expected zero-length operations to return 0")
	}
}

func TestRoundTripAcrossWrap(t *testing.T) {
	r := newRing(t, 8)

	// Move both cursors to 5 so the next write straddles the end.
	r.Write(make([]byte, 5))
	r.Read(make([]byte, 5))

	src := []byte{10, 11, 12, 13, 14, 15}
	if n := r.Write(src); n != len(src) {
		t.Fatalf("expected %d written, got %d", len(src), n)
	}
	dst := make([]byte, len(src))
	if n := r.Read(dst); n != len(dst) {
		t.Fatalf("expected %d read, got %d", len(dst), n)
	}
	if !bytes.Equal(src, dst) {
		t.Errorf("expected %v, got %v", src, dst)
	}
}

func TestRoundTrip_AllOffsets(t *testing.T) {
	const capacity = 13
	for offset := 0; offset < capacity; offset++ {
		for size := 1; size < capacity; size++ {
			r := newRing(t, capacity)
			if offset > 0 {
				r.Write(make([]byte, offset))
				r.Read(make([]byte, offset))
			}
			src := make([]byte, size)
			for i := range src {
				src[i] = byte(offset*31 + i + 1)
			}
			if r.Write(src) != size {
				t.Fatalf("offset %d size %d: write refused", offset, size)
			}
			dst := make([]byte, size)
			if r.Read(dst) != size {
				t.Fatalf("offset %d size %d: read refused", offset, size)
			}
			if !bytes.Equal(src, dst) {
				t.Fatalf("offset %d size %d: expected %v, got %v", offset, size, src, dst)
			}
		}
	}
}

func TestNoFalseFullness(t *testing.T) {
	r := newRing(t, 32)
	for range 100 {
		avail := r.AvailableWrite()
		if avail > 0 {
			if n := r.Write(make([]byte, avail)); n != avail {
				t.Fatalf("write of %d with %d available returned %d", avail, avail, n)
			}
		}
		r.Read(make([]byte, 7))
	}
}

func TestClear(t *testing.T) {
	r := newRing(t, 8)
	r.Write([]byte{1, 2, 3, 4})
	r.Read(make([]byte, 2))
	r.Clear()

	if r.AvailableRead() != 0 {
		t.Errorf("expected empty after clear, got %d readable", r.AvailableRead())
	}
	if r.AvailableWrite() != 7 {
		t.Errorf("expected 7 writable after clear, got %d", r.AvailableWrite())
	}
	for i, b := range r.buf {
		if b != 0 {
			t.Fatalf("expected zeroed storage, byte %d = %d", i, b)
		}
	}
	if r.Capacity() != 8 {
		t.Errorf("expected capacity unchanged, got %d", r.Capacity())
	}
}

func TestClose(t *testing.T) {
	r := newRing(t, 8)
	r.Write([]byte{1, 2})
	r.Close()
	if r.Write([]byte{1}) != 0 {
		t.Error("expected write after close to return 0")
	}
	if r.Read(make([]byte, 1)) != 0 {
		t.Error("expected read after close to return 0")
	}
	if r.AvailableRead() != 0 || r.AvailableWrite() != 0 {
		t.Error("expected no availability after close")
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const total = 1 << 18
	r := newRing(t, 1031)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var next byte
		chunk := make([]byte, 0, 97)
		for sent := 0; sent < total; {
			n := min(cap(chunk), total-sent)
			chunk = chunk[:n]
			for i := range chunk {
				chunk[i] = next + byte(i)
			}
			if r.Write(chunk) == n {
				next += byte(n)
				sent += n
			}
		}
	}()

	mismatches := 0
	go func() {
		defer wg.Done()
		var want byte
		buf := make([]byte, 61)
		for got := 0; got < total; {
			n := min(len(buf), total-got)
			if r.Read(buf[:n]) != n {
				continue
			}
			for i := 0; i < n; i++ {
				if buf[i] != want {
					mismatches++
				}
				want = buf[i] + 1
			}
			got += n
		}
	}()

	wg.Wait()
	if mismatches != 0 {
		t.Fatalf("expected bytes in order, got %d mismatches", mismatches)
	}
	if r.AvailableRead() != 0 {
		t.Errorf("expected drained ring, got %d readable", r.AvailableRead())
	}
}

func BenchmarkWriteRead(b *testing.B) {
	r, _ := New(8192)
	src := make([]byte, 1470*4)
	dst := make([]byte, len(src))
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Write(src)
		r.Read(dst)
	}
}
