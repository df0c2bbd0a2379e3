package image

import "sync"

// Pool is a thread-safe pool for reusing Buf instances.
//
// Buffers are grouped by dimensions and channel count. The renderer
// allocates one scratch buffer per graph node and returns them between
// passes, so identically sized buffers are the common case.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Buf
	maxSize int // max buffers per bucket
}

type poolKey struct {
	width    int
	height   int
	channels int
}

// NewPool creates a pool retaining at most maxPerBucket buffers per shape.
// A maxPerBucket of 0 means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*Buf),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a zeroed buffer from the pool or creates a new one.
// It returns nil for invalid dimensions or channel counts.
func (p *Pool) Get(width, height, channels int) *Buf {
	key := poolKey{width: width, height: height, channels: channels}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		buf.Clear()
		return buf
	}
	p.mu.Unlock()

	buf, err := NewBuf(width, height, channels)
	if err != nil {
		return nil
	}
	return buf
}

// Put returns a buffer to the pool. Nil buffers and buffers beyond the
// bucket limit are discarded.
func (p *Pool) Put(buf *Buf) {
	if buf == nil {
		return
	}

	key := poolKey{width: buf.width, height: buf.height, channels: buf.channels}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, buf)
}

// Len returns the number of pooled buffers across all buckets.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
