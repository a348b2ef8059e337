package host

import (
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Queue is an in-order command queue. Commands run one at a time on the
// queue's worker goroutine in submission order.
type Queue struct {
	ctx   *Context
	tasks chan func() error
	done  chan struct{}
	wg    sync.WaitGroup

	mu       sync.Mutex
	err      error // first failure since the last Finish
	released bool
}

func newQueue(ctx *Context) *Queue {
	q := &Queue{
		ctx:   ctx,
		tasks: make(chan func() error, 64),
		done:  make(chan struct{}),
	}
	go q.worker()
	return q
}

func (q *Queue) worker() {
	for task := range q.tasks {
		if err := task(); err != nil {
			q.mu.Lock()
			if q.err == nil {
				q.err = err
			}
			q.mu.Unlock()
		}
		q.wg.Done()
	}
	close(q.done)
}

// submit enqueues task. When blocking, it waits for the task and returns its
// error directly instead of leaving it for Finish.
func (q *Queue) submit(op string, blocking bool, task func() error) error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return accel.Errorf(op, accel.StatusInvalidCommandQueue, "queue released")
	}
	q.wg.Add(1)
	q.mu.Unlock()

	if !blocking {
		q.tasks <- task
		return nil
	}
	result := make(chan error, 1)
	q.tasks <- func() error {
		result <- task()
		return nil
	}
	return <-result
}

// WriteBuffer copies src into b. A non-blocking write reads src when the
// command runs, so src must not change until Finish.
func (q *Queue) WriteBuffer(b accel.Buffer, blocking bool, offset int, src []float32) error {
	buf, err := q.buffer("clEnqueueWriteBuffer", b)
	if err != nil {
		return err
	}
	return q.submit("clEnqueueWriteBuffer", blocking, func() error {
		dst, err := buf.span("clEnqueueWriteBuffer", offset, len(src))
		if err != nil {
			return err
		}
		copy(dst, src)
		return nil
	})
}

// ReadBuffer copies len(dst) floats out of b.
func (q *Queue) ReadBuffer(b accel.Buffer, blocking bool, offset int, dst []float32) error {
	buf, err := q.buffer("clEnqueueReadBuffer", b)
	if err != nil {
		return err
	}
	return q.submit("clEnqueueReadBuffer", blocking, func() error {
		src, err := buf.span("clEnqueueReadBuffer", offset, len(dst))
		if err != nil {
			return err
		}
		copy(dst, src)
		return nil
	})
}

// EnqueueNDRange validates the launch geometry and the bound arguments, then
// queues the launch. Arguments are captured now, so rebinding them later does
// not affect this launch.
func (q *Queue) EnqueueNDRange(k accel.Kernel, global, local []int) error {
	const op = "clEnqueueNDRangeKernel"
	kern, ok := k.(*Kernel)
	if !ok || kern == nil {
		return accel.Errorf(op, accel.StatusInvalidKernel, "kernel %T not created by host runtime", k)
	}
	grid, block, err := geometry(global, local)
	if err != nil {
		return err
	}
	if block.Size() > MaxWorkGroupSize {
		return accel.Errorf(op, accel.StatusInvalidWorkGroupSize,
			"work-group of %d items exceeds %d", block.Size(), MaxWorkGroupSize)
	}
	args, err := kern.snapshot()
	if err != nil {
		return err
	}
	return q.submit(op, false, func() error {
		return launch(kern.def.fn, grid, block, args)
	})
}

// Finish waits for every queued command and reports the first failure among
// the non-blocking ones.
func (q *Queue) Finish() error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return accel.Errorf("clFinish", accel.StatusInvalidCommandQueue, "queue released")
	}
	q.mu.Unlock()

	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.err
	q.err = nil
	return err
}

// Release drains the queue and stops its worker.
func (q *Queue) Release() error {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return accel.Errorf("clReleaseCommandQueue", accel.StatusInvalidCommandQueue, "queue already released")
	}
	q.released = true
	q.mu.Unlock()

	q.wg.Wait()
	close(q.tasks)
	<-q.done
	return nil
}

func (q *Queue) buffer(op string, b accel.Buffer) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil {
		return nil, accel.Errorf(op, accel.StatusInvalidMemObject, "buffer %T not created by host runtime", b)
	}
	if buf.ctx != q.ctx {
		return nil, accel.Errorf(op, accel.StatusInvalidContext, "buffer belongs to another context")
	}
	return buf, nil
}

// geometry converts per-dimension global and local sizes into a grid of
// work-groups and the work-group shape.
func geometry(global, local []int) (grid, block Dim3, err error) {
	const op = "clEnqueueNDRangeKernel"
	if len(global) < 1 || len(global) > 3 {
		return grid, block, accel.Errorf(op, accel.StatusInvalidWorkDimension, "%d dimensions", len(global))
	}
	if len(local) != len(global) {
		return grid, block, accel.Errorf(op, accel.StatusInvalidWorkGroupSize,
			"local has %d dimensions, global has %d", len(local), len(global))
	}
	g := [3]int{1, 1, 1}
	l := [3]int{1, 1, 1}
	for i := range global {
		if global[i] <= 0 {
			return grid, block, accel.Errorf(op, accel.StatusInvalidValue, "global[%d] = %d", i, global[i])
		}
		if local[i] <= 0 || global[i]%local[i] != 0 {
			return grid, block, accel.Errorf(op, accel.StatusInvalidWorkGroupSize,
				"global[%d] = %d is not a multiple of local[%d] = %d", i, global[i], i, local[i])
		}
		g[i], l[i] = global[i], local[i]
	}
	block = Dim3{X: l[0], Y: l[1], Z: l[2]}
	grid = Dim3{X: g[0] / l[0], Y: g[1] / l[1], Z: g[2] / l[2]}
	return grid, block, nil
}
