package tilegemm

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/klog/v2"

	"github.com/LynnColeArt/tilegemm/accel"
)

// staging is a host-side padded copy of one operand.
type staging struct {
	data       []float32
	rows, cols int // logical shape last padded into data
}

// pad copies src into the staging buffer and returns it. When the logical
// shape differs from the previous call the buffer is zeroed first, since
// cells that were inside the old shape may lie in the new padding.
func (s *staging) pad(src []float32, rows, cols, tile int) []float32 {
	if s.rows != 0 && (s.rows != rows || s.cols != cols) {
		clear(s.data)
	}
	Pad(s.data, src, rows, cols, tile)
	s.rows, s.cols = rows, cols
	return s.data
}

// bufferSet holds the device buffers and staging buffers for one padded
// (M, N, K).
type bufferSet struct {
	padded  Dims
	a, b, c accel.Buffer
	stageA  staging
	stageB  staging
	stageC  []float32
}

func newBufferSet(ctx accel.Context, padded Dims) (*bufferSet, error) {
	set := &bufferSet{padded: padded}
	sizes := []int{padded.M * padded.K, padded.K * padded.N, padded.M * padded.N}
	bufs := []*accel.Buffer{&set.a, &set.b, &set.c}
	for i, n := range sizes {
		buf, err := ctx.NewBuffer(accel.MemReadWrite, n*4)
		if err != nil {
			_ = set.release()
			switch accel.StatusOf(err) {
			case accel.StatusMemObjectAllocationFailure, accel.StatusOutOfHostMemory:
				return nil, NewMemoryError("clCreateBuffer",
					fmt.Sprintf("cannot allocate %d bytes for buffer set %v", n*4, padded), err)
			}
			return nil, checkDevice("clCreateBuffer", err)
		}
		*bufs[i] = buf
	}
	set.stageA.data = make([]float32, sizes[0])
	set.stageB.data = make([]float32, sizes[1])
	set.stageC = make([]float32, sizes[2])
	return set, nil
}

// release frees the device buffers in A, B, C order.
func (s *bufferSet) release() error {
	var errs []error
	for _, buf := range []*accel.Buffer{&s.a, &s.b, &s.c} {
		if *buf == nil {
			continue
		}
		if err := (*buf).Release(); err != nil {
			errs = append(errs, checkDevice("clReleaseMemObject", err))
		}
		*buf = nil
	}
	return errors.Join(errs...)
}

// bufferPool keeps buffer sets keyed by padded dimensions and releases the
// least recently used set when a new one does not fit.
type bufferPool struct {
	ctx      accel.Context
	cache    *lru.Cache[Dims, *bufferSet]
	evictErr error
}

func newBufferPool(ctx accel.Context, size int) (*bufferPool, error) {
	p := &bufferPool{ctx: ctx}
	cache, err := lru.NewWithEvict[Dims, *bufferSet](size, p.evicted)
	if err != nil {
		return nil, NewInvalidArgError("BufferPool", err.Error())
	}
	p.cache = cache
	return p, nil
}

func (p *bufferPool) evicted(padded Dims, set *bufferSet) {
	klog.V(2).Infof("Releasing buffer set %v", padded)
	if err := set.release(); err != nil {
		klog.Warningf("Releasing buffer set %v: %v", padded, err)
		p.evictErr = errors.Join(p.evictErr, err)
	}
}

// get returns the set for padded, allocating it on first use.
func (p *bufferPool) get(padded Dims) (*bufferSet, error) {
	if set, ok := p.cache.Get(padded); ok {
		return set, nil
	}
	set, err := newBufferSet(p.ctx, padded)
	if err != nil {
		return nil, err
	}
	klog.V(2).Infof("Allocated buffer set %v", padded)
	p.cache.Add(padded, set)
	return set, nil
}

// len returns the number of live sets.
func (p *bufferPool) len() int {
	return p.cache.Len()
}

// purge releases every set and reports release failures, including those
// from earlier evictions.
func (p *bufferPool) purge() error {
	p.cache.Purge()
	err := p.evictErr
	p.evictErr = nil
	return err
}
