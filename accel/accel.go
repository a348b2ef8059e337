// Package accel defines the accelerator API that the tilegemm engine drives.
//
// The shape follows the OpenCL execution model: a Runtime exposes platforms,
// a platform exposes devices, and a device creates a Context. A Context owns
// command queues, programs compiled from source, and device buffers. Kernels
// are extracted from a built program by name, bound by positional argument
// index, and launched over a 2-D range with explicit global and local sizes.
//
// Implementations live in sub-packages and register themselves by name:
//
//	import _ "github.com/LynnColeArt/tilegemm/accel/host"
//
//	rt, err := accel.Open("host")
//	platforms, err := rt.Platforms()
//	devices, err := platforms[0].Devices(rt.DefaultDeviceType())
//
// Every method that can fail returns an *Error carrying an OpenCL-numbered
// Status, so callers can report the same codes whichever runtime is in use.
package accel

// DeviceType is a bit mask of device classes.
type DeviceType uint64

// Device classes, numbered as in cl.h.
const (
	DeviceTypeDefault     DeviceType = 1 << 0
	DeviceTypeCPU         DeviceType = 1 << 1
	DeviceTypeGPU         DeviceType = 1 << 2
	DeviceTypeAccelerator DeviceType = 1 << 3
	DeviceTypeAll         DeviceType = 0xFFFFFFFF
)

// String returns a short name for the device class.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeDefault:
		return "default"
	case DeviceTypeCPU:
		return "cpu"
	case DeviceTypeGPU:
		return "gpu"
	case DeviceTypeAccelerator:
		return "accelerator"
	case DeviceTypeAll:
		return "all"
	default:
		return "mixed"
	}
}

// MemFlags controls buffer access from kernels.
type MemFlags uint64

const (
	MemReadWrite MemFlags = 1 << 0
	MemWriteOnly MemFlags = 1 << 1
	MemReadOnly  MemFlags = 1 << 2
)

// Runtime is an accelerator driver.
type Runtime interface {
	// Name is the name the runtime was registered under.
	Name() string

	// Platforms enumerates the platforms the runtime can see, in driver order.
	Platforms() ([]Platform, error)

	// DefaultDeviceType is the accelerator class the runtime should be asked
	// for when the caller has no preference.
	DefaultDeviceType() DeviceType
}

// Platform groups the devices of one vendor driver.
type Platform interface {
	Name() string
	Vendor() string

	// Devices returns the devices matching t, or StatusDeviceNotFound.
	Devices(t DeviceType) ([]Device, error)
}

// Device is a single compute device.
type Device interface {
	Name() string
	Type() DeviceType
	MaxWorkGroupSize() int
	GlobalMemSize() uint64

	// NewContext creates an execution context bound to this device only.
	NewContext() (Context, error)
}

// DeviceLimits is implemented by devices that report their parallelism.
type DeviceLimits interface {
	ComputeUnits() int

	// PreferredVectorWidth is the native float32 vector width.
	PreferredVectorWidth() int
}

// Context owns the objects created on one device.
type Context interface {
	NewQueue() (Queue, error)

	// NewProgram creates an unbuilt program from kernel source text.
	NewProgram(source []byte) (Program, error)

	// NewBuffer allocates size bytes of device memory.
	NewBuffer(flags MemFlags, size int) (Buffer, error)

	Release() error
}

// Program is a compilation unit of device code.
type Program interface {
	// Build compiles the program for the context's device. A compile error
	// is reported as StatusBuildProgramFailure and BuildLog holds the
	// compiler diagnostics.
	Build(options string) error
	BuildLog() string

	// NewKernel extracts the entry point called name from a built program.
	NewKernel(name string) (Kernel, error)

	Release() error
}

// Kernel is a launchable entry point with bound arguments.
type Kernel interface {
	Name() string

	// NumArgs returns the declared parameter count.
	NumArgs() (int, error)

	// SetArg binds a Buffer or an int32 scalar to the parameter at index.
	SetArg(index int, value any) error

	// WorkGroupSize is the largest work-group the kernel can be launched with
	// on the context's device.
	WorkGroupSize() (int, error)

	// PreferredWorkGroupSizeMultiple is the granularity the device schedules
	// work items at.
	PreferredWorkGroupSizeMultiple() (int, error)

	Release() error
}

// Queue is an in-order command queue.
type Queue interface {
	// WriteBuffer copies src into b starting at byte offset.
	WriteBuffer(b Buffer, blocking bool, offset int, src []float32) error

	// ReadBuffer copies len(dst) floats from b starting at byte offset.
	ReadBuffer(b Buffer, blocking bool, offset int, dst []float32) error

	// EnqueueNDRange launches k over global work items grouped by local.
	// Both slices have one entry per dimension.
	EnqueueNDRange(k Kernel, global, local []int) error

	// Finish blocks until every enqueued command has completed.
	Finish() error

	Release() error
}

// Buffer is device-resident memory.
type Buffer interface {
	// Size in bytes.
	Size() int
	Release() error
}
