package tilegemm

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// recordingRuntime is an accel runtime that executes nothing and logs every
// driver call, so tests can check ordering and arguments.
const recordingRuntime = "recording"

var recorder = &callLog{}

func init() {
	accel.Register(recordingRuntime, &fakeRuntime{log: recorder})
}

type callLog struct {
	mu      sync.Mutex
	calls   []string
	failOn  string // call prefix that returns an error
	status  accel.Status
	maxWG   int
	buffers int
}

// reset clears the log and configures the next engine.
func (l *callLog) reset(failOn string, maxWG int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls, l.failOn, l.maxWG, l.buffers = nil, failOn, maxWG, 0
	l.status = accel.StatusOutOfResources
}

// failWith makes calls starting with failOn return status.
func (l *callLog) failWith(failOn string, status accel.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failOn, l.status = failOn, status
}

func (l *callLog) record(format string, args ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	call := fmt.Sprintf(format, args...)
	l.calls = append(l.calls, call)
	if l.failOn != "" && strings.HasPrefix(call, l.failOn) {
		return accel.Errorf(call, l.status, "injected")
	}
	return nil
}

// matching returns the logged calls that start with prefix.
func (l *callLog) matching(prefix string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// upTo returns the logged calls through the first occurrence of call.
func (l *callLog) upTo(call string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.Index(l.calls, call)
	if i < 0 {
		return slices.Clone(l.calls)
	}
	return slices.Clone(l.calls[:i+1])
}

func (l *callLog) since(call string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.Index(l.calls, call)
	if i < 0 {
		return nil
	}
	return slices.Clone(l.calls[i+1:])
}

type fakeRuntime struct{ log *callLog }

func (r *fakeRuntime) Name() string                        { return recordingRuntime }
func (r *fakeRuntime) DefaultDeviceType() accel.DeviceType { return accel.DeviceTypeGPU }
func (r *fakeRuntime) Platforms() ([]accel.Platform, error) {
	return []accel.Platform{&fakePlatform{log: r.log}}, nil
}

type fakePlatform struct{ log *callLog }

func (p *fakePlatform) Name() string   { return "Recording Platform" }
func (p *fakePlatform) Vendor() string { return "test" }
func (p *fakePlatform) Devices(t accel.DeviceType) ([]accel.Device, error) {
	if t&accel.DeviceTypeGPU == 0 {
		return nil, accel.Errorf("clGetDeviceIDs", accel.StatusDeviceNotFound, "no %s device", t)
	}
	return []accel.Device{&fakeDevice{log: p.log}}, nil
}

type fakeDevice struct{ log *callLog }

func (d *fakeDevice) Name() string           { return "Recording Device" }
func (d *fakeDevice) Type() accel.DeviceType { return accel.DeviceTypeGPU }
func (d *fakeDevice) MaxWorkGroupSize() int  { return 1024 }
func (d *fakeDevice) GlobalMemSize() uint64  { return 1 << 30 }
func (d *fakeDevice) NewContext() (accel.Context, error) {
	if err := d.log.record("create context"); err != nil {
		return nil, err
	}
	return &fakeContext{log: d.log}, nil
}

type fakeContext struct{ log *callLog }

func (c *fakeContext) NewQueue() (accel.Queue, error) {
	if err := c.log.record("create queue"); err != nil {
		return nil, err
	}
	return &fakeQueue{log: c.log}, nil
}

func (c *fakeContext) NewProgram(source []byte) (accel.Program, error) {
	if err := c.log.record("create program"); err != nil {
		return nil, err
	}
	return &fakeProgram{log: c.log}, nil
}

func (c *fakeContext) NewBuffer(flags accel.MemFlags, size int) (accel.Buffer, error) {
	c.log.mu.Lock()
	name := fmt.Sprintf("buf%d", c.log.buffers)
	c.log.buffers++
	c.log.mu.Unlock()
	if err := c.log.record("create buffer %s %d", name, size); err != nil {
		return nil, err
	}
	return &fakeBuffer{log: c.log, name: name, size: size}, nil
}

func (c *fakeContext) Release() error { return c.log.record("release context") }

type fakeBuffer struct {
	log  *callLog
	name string
	size int
}

func (b *fakeBuffer) Size() int      { return b.size }
func (b *fakeBuffer) Release() error { return b.log.record("release buffer %s", b.name) }

type fakeProgram struct{ log *callLog }

func (p *fakeProgram) Build(options string) error { return p.log.record("build program") }
func (p *fakeProgram) BuildLog() string           { return "" }
func (p *fakeProgram) Release() error             { return p.log.record("release program") }
func (p *fakeProgram) NewKernel(name string) (accel.Kernel, error) {
	if err := p.log.record("create kernel %s", name); err != nil {
		return nil, err
	}
	return &fakeKernel{log: p.log, name: name}, nil
}

type fakeKernel struct {
	log  *callLog
	name string
}

func (k *fakeKernel) Name() string          { return k.name }
func (k *fakeKernel) NumArgs() (int, error) { return KernelArgs, nil }
func (k *fakeKernel) WorkGroupSize() (int, error) {
	k.log.mu.Lock()
	defer k.log.mu.Unlock()
	return k.log.maxWG, nil
}
func (k *fakeKernel) PreferredWorkGroupSizeMultiple() (int, error) { return 32, nil }
func (k *fakeKernel) Release() error                               { return k.log.record("release kernel") }
func (k *fakeKernel) SetArg(index int, value any) error {
	if b, ok := value.(*fakeBuffer); ok {
		return k.log.record("arg %d %s", index, b.name)
	}
	return k.log.record("arg %d %T(%v)", index, value, value)
}

type fakeQueue struct{ log *callLog }

func (q *fakeQueue) WriteBuffer(b accel.Buffer, blocking bool, offset int, src []float32) error {
	return q.log.record("write %s blocking=%t n=%d", b.(*fakeBuffer).name, blocking, len(src))
}

func (q *fakeQueue) ReadBuffer(b accel.Buffer, blocking bool, offset int, dst []float32) error {
	clear(dst)
	return q.log.record("read %s blocking=%t n=%d", b.(*fakeBuffer).name, blocking, len(dst))
}

func (q *fakeQueue) EnqueueNDRange(k accel.Kernel, global, local []int) error {
	return q.log.record("launch %s global=%v local=%v", k.Name(), global, local)
}

func (q *fakeQueue) Finish() error  { return q.log.record("finish") }
func (q *fakeQueue) Release() error { return q.log.record("release queue") }
