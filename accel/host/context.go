package host

import (
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Context owns the queues, programs and buffers created on the host device.
type Context struct {
	device *Device
	memory *memoryPool

	mu       sync.Mutex
	released bool
}

// Buffer is host memory standing in for device memory.
type Buffer struct {
	ctx  *Context
	size int

	mu    sync.Mutex
	alloc *allocation // nil once released
}

func newContext(d *Device) *Context {
	return &Context{
		device: d,
		memory: newMemoryPool(int64(d.memBytes)),
	}
}

func (c *Context) check(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return accel.Errorf(op, accel.StatusInvalidContext, "context released")
	}
	return nil
}

// NewQueue starts an in-order queue served by its own goroutine.
func (c *Context) NewQueue() (accel.Queue, error) {
	if err := c.check("clCreateCommandQueue"); err != nil {
		return nil, err
	}
	return newQueue(c), nil
}

// NewProgram keeps a copy of source for Build.
func (c *Context) NewProgram(source []byte) (accel.Program, error) {
	if err := c.check("clCreateProgramWithSource"); err != nil {
		return nil, err
	}
	if len(source) == 0 {
		return nil, accel.Errorf("clCreateProgramWithSource", accel.StatusInvalidValue, "empty source")
	}
	return &Program{ctx: c, source: string(source)}, nil
}

// NewBuffer allocates size bytes. Sizes are rounded up to whole floats.
func (c *Context) NewBuffer(flags accel.MemFlags, size int) (accel.Buffer, error) {
	if err := c.check("clCreateBuffer"); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, accel.Errorf("clCreateBuffer", accel.StatusInvalidBufferSize, "size %d", size)
	}
	if flags&(accel.MemReadWrite|accel.MemReadOnly|accel.MemWriteOnly) == 0 {
		return nil, accel.Errorf("clCreateBuffer", accel.StatusInvalidValue, "no access flag set")
	}
	alloc, err := c.memory.allocate((size + 3) / 4)
	if err != nil {
		return nil, err
	}
	return &Buffer{ctx: c, size: size, alloc: alloc}, nil
}

// MemoryStats reports bytes held by live buffers and the peak.
func (c *Context) MemoryStats() (allocated, peak int64) {
	return c.memory.stats()
}

// Release marks the context unusable. Objects created from it keep working
// until they are released themselves.
func (c *Context) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return accel.Errorf("clReleaseContext", accel.StatusInvalidContext, "context already released")
	}
	c.released = true
	return nil
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int { return b.size }

// Float32 exposes the backing store. Kernels read and write through it.
// It returns nil after Release.
func (b *Buffer) Float32() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.alloc == nil {
		return nil
	}
	return b.alloc.data
}

// Release returns the backing store to the context's pool. The handle is
// invalid afterwards even if the store is handed to a new buffer.
func (b *Buffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.alloc == nil {
		return accel.Errorf("clReleaseMemObject", accel.StatusInvalidMemObject, "buffer already released")
	}
	alloc := b.alloc
	b.alloc = nil
	return b.ctx.memory.free(alloc)
}

func (b *Buffer) span(op string, offset, n int) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.alloc == nil {
		return nil, accel.Errorf(op, accel.StatusInvalidMemObject, "buffer released")
	}
	if offset < 0 || offset%4 != 0 || offset+n*4 > b.size {
		return nil, accel.Errorf(op, accel.StatusInvalidValue,
			"offset %d + %d bytes exceeds buffer of %d bytes", offset, n*4, b.size)
	}
	return b.alloc.data[offset/4 : offset/4+n], nil
}
