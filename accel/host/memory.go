package host

import (
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// memoryPool hands out float32 backing stores for device buffers and keeps
// released ones on a free list for reuse.
type memoryPool struct {
	mu         sync.Mutex
	limit      int64
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	data []float32
	used bool
}

func newMemoryPool(limit int64) *memoryPool {
	return &memoryPool{limit: limit}
}

// allocate returns a store of at least n floats. Reused stores keep whatever
// they held before, as device memory would.
func (mp *memoryPool) allocate(n int) (*allocation, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Round up to a cache line of floats.
	const alignment = 16
	aligned := (n + alignment - 1) &^ (alignment - 1)

	for i, alloc := range mp.freeList {
		if cap(alloc.data) >= aligned {
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true
			alloc.data = alloc.data[:n]
			mp.track(int64(cap(alloc.data)) * 4)
			return alloc, nil
		}
	}

	bytes := int64(aligned) * 4
	if mp.limit > 0 && mp.totalAlloc+bytes > mp.limit {
		return nil, accel.Errorf("clCreateBuffer", accel.StatusMemObjectAllocationFailure,
			"%d bytes requested, %d of %d in use", bytes, mp.totalAlloc, mp.limit)
	}
	alloc := &allocation{
		data: make([]float32, n, aligned),
		used: true,
	}
	mp.track(bytes)
	return alloc, nil
}

func (mp *memoryPool) track(bytes int64) {
	mp.totalAlloc += bytes
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}
}

// free returns alloc to the pool.
func (mp *memoryPool) free(alloc *allocation) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if !alloc.used {
		return accel.Errorf("clReleaseMemObject", accel.StatusInvalidMemObject, "buffer already released")
	}
	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(cap(alloc.data)) * 4
	return nil
}

// stats returns the bytes currently allocated and the high-water mark.
func (mp *memoryPool) stats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}
