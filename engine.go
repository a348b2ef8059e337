package tilegemm

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"k8s.io/klog/v2"

	"github.com/LynnColeArt/tilegemm/accel"
	_ "github.com/LynnColeArt/tilegemm/accel/host"
)

// Dims are the logical or padded sizes of one multiplication:
// A is M×K, B is K×N, C is M×N.
type Dims struct {
	M, N, K int
}

// Padded rounds every dimension up to a multiple of tile.
func (d Dims) Padded(tile int) Dims {
	return Dims{M: PaddedSize(d.M, tile), N: PaddedSize(d.N, tile), K: PaddedSize(d.K, tile)}
}

func (d Dims) String() string {
	return fmt.Sprintf("M=%d N=%d K=%d", d.M, d.N, d.K)
}

// DeviceInfo describes the device an engine runs on.
type DeviceInfo struct {
	Runtime    string
	Platform   string
	Device     string
	DeviceType accel.DeviceType

	MaxWorkGroupSize    int
	KernelWorkGroupSize int
	PreferredMultiple   int // 0 when the runtime cannot report it

	TileWidth   int
	VectorWidth int
}

// Stats counts the work an engine has done.
type Stats struct {
	Calls      uint64
	PaddedA    uint64 // calls that staged A through the padding buffer
	PaddedB    uint64
	UnpaddedC  uint64 // calls that un-padded C from the staging buffer
	BufferSets int    // buffer sets currently allocated
}

// record counts a completed call made under plan.
func (s *Stats) record(plan Plan) {
	s.Calls++
	if plan.PadA {
		s.PaddedA++
	}
	if plan.PadB {
		s.PaddedB++
	}
	if plan.PadC {
		s.UnpaddedC++
	}
}

// Engine multiplies float32 matrices on an accelerator. It owns the device
// context, command queue, compiled kernel and the device buffers sized for
// the dimensions it was created with.
//
// An Engine is safe for use from multiple goroutines; calls are serialized.
//
// Example:
//
//	e, err := tilegemm.NewEngine(1024, 1024, 1024)
//	if err != nil {
//	    return err
//	}
//	defer e.Finalize()
//	err = e.Multiply(a, b, c, 1024, 1024, 1024)
type Engine struct {
	mu   sync.Mutex
	cfg  Config
	dims Dims
	info DeviceInfo

	platform accel.Platform
	device   accel.Device
	ctx      accel.Context
	queue    accel.Queue
	program  accel.Program
	kernel   accel.Kernel
	pool     *bufferPool

	stats     Stats
	finalized bool
}

// NewEngine discovers the device, compiles the kernel and allocates buffers
// for an M×K by K×N multiplication. On failure every resource created so far
// is released and the returned error is an *Error describing the first
// failure: a driver status, an unreadable kernel source, or a compile error
// carrying the compiler log.
func NewEngine(m, n, k int, opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dims := Dims{M: m, N: n, K: k}
	if err := checkDims("NewEngine", dims, cfg.TileWidth); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, dims: dims}
	if err := e.initialize(); err != nil {
		if rerr := e.releaseAll(); rerr != nil {
			klog.Warningf("Releasing partially initialized engine: %v", rerr)
		}
		return nil, err
	}
	return e, nil
}

func (e *Engine) initialize() error {
	name := e.cfg.Runtime
	if name == "" {
		var err error
		if name, err = accel.Preferred(); err != nil {
			return checkDevice("Open", err)
		}
	}
	rt, err := accel.Open(name)
	if err != nil {
		return checkDevice("Open", err)
	}

	platforms, err := rt.Platforms()
	if err != nil {
		return checkDevice("clGetPlatformIDs", err)
	}
	if len(platforms) == 0 {
		return checkDevice("clGetPlatformIDs",
			accel.Errorf("clGetPlatformIDs", accel.StatusDeviceNotFound, "runtime %s has no platforms", name))
	}
	e.platform = platforms[0]
	klog.V(1).Infof("Detected platform: %s", e.platform.Name())

	typ := e.cfg.DeviceType
	if typ == 0 {
		typ = rt.DefaultDeviceType()
	}
	devices, err := e.platform.Devices(typ)
	if err != nil {
		return checkDevice("clGetDeviceIDs", err)
	}
	if len(devices) == 0 {
		return checkDevice("clGetDeviceIDs",
			accel.Errorf("clGetDeviceIDs", accel.StatusDeviceNotFound, "no %s device", typ))
	}
	e.device = devices[0]
	klog.V(1).Infof("Detected device: %s", e.device.Name())

	if e.ctx, err = e.device.NewContext(); err != nil {
		return checkDevice("clCreateContext", err)
	}
	if e.queue, err = e.ctx.NewQueue(); err != nil {
		return checkDevice("clCreateCommandQueue", err)
	}
	if err := e.buildProgram(); err != nil {
		return err
	}
	if e.kernel, err = e.program.NewKernel(e.cfg.KernelName); err != nil {
		return checkDevice("clCreateKernel", err)
	}

	e.info = DeviceInfo{
		Runtime:          name,
		Platform:         e.platform.Name(),
		Device:           e.device.Name(),
		DeviceType:       e.device.Type(),
		MaxWorkGroupSize: e.device.MaxWorkGroupSize(),
		TileWidth:        e.cfg.TileWidth,
		VectorWidth:      e.cfg.VectorWidth,
	}
	if err := e.validateContract(); err != nil {
		return err
	}

	if e.pool, err = newBufferPool(e.ctx, e.cfg.PoolSize); err != nil {
		return err
	}
	_, err = e.pool.get(e.dims.Padded(e.cfg.TileWidth))
	return err
}

// buildProgram reads the kernel source and compiles it for the device.
func (e *Engine) buildProgram() error {
	path := e.cfg.KernelSource
	source, err := os.ReadFile(path)
	if err != nil {
		return NewSourceError(path, err)
	}
	if e.program, err = e.ctx.NewProgram(source); err != nil {
		return checkDevice("clCreateProgramWithSource", err)
	}
	if err := e.program.Build(e.cfg.BuildOptions); err != nil {
		if accel.StatusOf(err) == accel.StatusBuildProgramFailure {
			return NewBuildError(path, e.program.BuildLog(), err)
		}
		return checkDevice("clBuildProgram", err)
	}
	return nil
}

// validateContract checks that the kernel can be launched with the
// work-group shape the dispatch uses: (TileWidth, TileWidth/VectorWidth).
func (e *Engine) validateContract() error {
	const op = "ValidateKernel"
	local := e.cfg.TileWidth * (e.cfg.TileWidth / e.cfg.VectorWidth)

	if n, err := e.kernel.NumArgs(); err != nil {
		klog.V(1).Infof("Kernel %s does not report its argument count: %v", e.cfg.KernelName, err)
	} else if n != KernelArgs {
		return NewContractError(op,
			fmt.Sprintf("kernel %s takes %d arguments, dispatch binds %d", e.cfg.KernelName, n, KernelArgs))
	}

	maxGroup, err := e.kernel.WorkGroupSize()
	if err != nil {
		return checkDevice("clGetKernelWorkGroupInfo", err)
	}
	e.info.KernelWorkGroupSize = maxGroup
	if local > maxGroup {
		return NewContractError(op, fmt.Sprintf(
			"work-group of %d items (tile %d, vector %d) exceeds the kernel limit of %d",
			local, e.cfg.TileWidth, e.cfg.VectorWidth, maxGroup))
	}
	if limit := e.device.MaxWorkGroupSize(); limit > 0 && local > limit {
		return NewContractError(op, fmt.Sprintf(
			"work-group of %d items exceeds the device limit of %d", local, limit))
	}

	if multiple, err := e.kernel.PreferredWorkGroupSizeMultiple(); err == nil && multiple > 0 {
		e.info.PreferredMultiple = multiple
		if local%multiple != 0 {
			klog.Warningf("Work-group of %d items is not a multiple of the preferred %d", local, multiple)
		}
	}
	return nil
}

// Finalize releases the device buffers, kernel, program, queue and context,
// in that order. Calling it again does nothing.
func (e *Engine) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalized {
		return nil
	}
	e.finalized = true
	return e.releaseAll()
}

func (e *Engine) releaseAll() error {
	var errs []error
	if e.pool != nil {
		if err := e.pool.purge(); err != nil {
			errs = append(errs, err)
		}
		e.pool = nil
	}
	if e.kernel != nil {
		if err := e.kernel.Release(); err != nil {
			errs = append(errs, checkDevice("clReleaseKernel", err))
		}
		e.kernel = nil
	}
	if e.program != nil {
		if err := e.program.Release(); err != nil {
			errs = append(errs, checkDevice("clReleaseProgram", err))
		}
		e.program = nil
	}
	if e.queue != nil {
		if err := e.queue.Release(); err != nil {
			errs = append(errs, checkDevice("clReleaseCommandQueue", err))
		}
		e.queue = nil
	}
	if e.ctx != nil {
		if err := e.ctx.Release(); err != nil {
			errs = append(errs, checkDevice("clReleaseContext", err))
		}
		e.ctx = nil
	}
	return errors.Join(errs...)
}

// Dims returns the dimensions the engine was created for.
func (e *Engine) Dims() Dims { return e.dims }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Info describes the device the engine runs on.
func (e *Engine) Info() DeviceInfo { return e.info }

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	if e.pool != nil {
		s.BufferSets = e.pool.len()
	}
	return s
}

// checkDims rejects non-positive dimensions and padded sizes that do not fit
// the kernel's int parameters.
func checkDims(op string, d Dims, tile int) error {
	if d.M <= 0 || d.N <= 0 || d.K <= 0 {
		return NewInvalidArgError(op, fmt.Sprintf("dimensions must be positive, got %v", d))
	}
	p := d.Padded(tile)
	for _, v := range []int{p.M * p.K, p.K * p.N, p.M * p.N} {
		if v > math.MaxInt32 {
			return NewInvalidArgError(op, fmt.Sprintf("padded size %v overflows int32 indexing", p))
		}
	}
	return nil
}
