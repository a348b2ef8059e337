// Package host is an in-process accelerator runtime. It exposes one platform
// with one device backed by the host CPU, and executes kernels written in Go
// that have been registered under the names a kernel source file declares.
//
// Importing the package registers it with accel under the name "host":
//
//	import _ "github.com/LynnColeArt/tilegemm/accel/host"
//
// Work-groups of a launch run in parallel across GOMAXPROCS goroutines. The
// work items of one group are executed by the kernel function itself, which
// lets a kernel stage tiles in group-local memory between its load and
// compute phases the way a device kernel does around a barrier.
package host

import (
	"runtime"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Name is the name the runtime is registered under.
const Name = "host"

const (
	// MaxWorkGroupSize bounds the work items of one work-group.
	MaxWorkGroupSize = 1024

	defaultSystemMemory = 16 << 30
)

// Runtime is the host accelerator runtime.
type Runtime struct {
	platform *Platform
}

// Platform is the single host platform.
type Platform struct {
	device *Device
}

// Device is the host CPU presented as a compute device.
type Device struct {
	name     string
	units    int
	memBytes uint64
}

func init() {
	accel.Register(Name, New())
}

// New returns a runtime with one platform and one device. Separate runtimes
// share nothing.
func New() *Runtime {
	dev := &Device{
		name:     "host " + features.String(),
		units:    runtime.GOMAXPROCS(0),
		memBytes: systemMemory(),
	}
	return &Runtime{platform: &Platform{device: dev}}
}

func (r *Runtime) Name() string { return Name }

// Platforms returns the host platform.
func (r *Runtime) Platforms() ([]accel.Platform, error) {
	return []accel.Platform{r.platform}, nil
}

// DefaultDeviceType is accel.DeviceTypeCPU.
func (r *Runtime) DefaultDeviceType() accel.DeviceType {
	return accel.DeviceTypeCPU
}

func (p *Platform) Name() string   { return "tilegemm host" }
func (p *Platform) Vendor() string { return "tilegemm" }

// Devices returns the host device if t includes the CPU class.
func (p *Platform) Devices(t accel.DeviceType) ([]accel.Device, error) {
	if t&(accel.DeviceTypeCPU|accel.DeviceTypeDefault) == 0 {
		return nil, accel.Errorf("clGetDeviceIDs", accel.StatusDeviceNotFound, "no %s device on host platform", t)
	}
	return []accel.Device{p.device}, nil
}

func (d *Device) Name() string              { return d.name }
func (d *Device) Type() accel.DeviceType    { return accel.DeviceTypeCPU }
func (d *Device) MaxWorkGroupSize() int     { return MaxWorkGroupSize }
func (d *Device) GlobalMemSize() uint64     { return d.memBytes }
func (d *Device) ComputeUnits() int         { return d.units }
func (d *Device) PreferredVectorWidth() int { return features.preferredVectorWidth() }

// NewContext creates a context with its own memory pool.
func (d *Device) NewContext() (accel.Context, error) {
	return newContext(d), nil
}
