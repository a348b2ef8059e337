package host

import (
	"fmt"
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// ArgKind is the type of a kernel parameter.
type ArgKind int

const (
	ArgBuffer ArgKind = iota // __global float*
	ArgInt32                 // int
)

func (k ArgKind) String() string {
	switch k {
	case ArgBuffer:
		return "buffer"
	case ArgInt32:
		return "int32"
	default:
		return "unknown"
	}
}

// KernelFunc executes one work-group. Buffer arguments arrive as *Buffer and
// scalars as int32, in parameter order. The function runs every work item of
// the group; groups of one launch run concurrently.
type KernelFunc func(g WorkGroup, args []any) error

type kernelDef struct {
	name   string
	params []ArgKind
	fn     KernelFunc
}

var (
	kernelsMu sync.RWMutex
	kernels   = make(map[string]*kernelDef)
)

// RegisterKernel provides the host implementation of the kernel that source
// files declare as name with the given parameter list.
func RegisterKernel(name string, params []ArgKind, fn KernelFunc) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	if fn == nil {
		panic("host: RegisterKernel function is nil")
	}
	if _, dup := kernels[name]; dup {
		panic("host: RegisterKernel called twice for " + name)
	}
	kernels[name] = &kernelDef{name: name, params: params, fn: fn}
}

func lookupKernel(name string) (*kernelDef, bool) {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	def, ok := kernels[name]
	return def, ok
}

// Kernel is an entry point of a built program with its bound arguments.
type Kernel struct {
	def *kernelDef

	mu       sync.Mutex
	args     []any
	set      []bool
	released bool
}

func (k *Kernel) Name() string { return k.def.name }

func (k *Kernel) NumArgs() (int, error) { return len(k.def.params), nil }

// SetArg binds value to parameter index. Buffers must be *Buffer and scalars
// int32, matching the declared parameter kind.
func (k *Kernel) SetArg(index int, value any) error {
	const op = "clSetKernelArg"
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return accel.Errorf(op, accel.StatusInvalidKernel, "kernel released")
	}
	if index < 0 || index >= len(k.def.params) {
		return accel.Errorf(op, accel.StatusInvalidArgIndex,
			"%s takes %d arguments, index %d", k.def.name, len(k.def.params), index)
	}
	switch k.def.params[index] {
	case ArgBuffer:
		buf, ok := value.(*Buffer)
		if !ok || buf == nil {
			return accel.Errorf(op, accel.StatusInvalidMemObject,
				"argument %d of %s wants a buffer, got %T", index, k.def.name, value)
		}
	case ArgInt32:
		if _, ok := value.(int32); !ok {
			return accel.Errorf(op, accel.StatusInvalidArgSize,
				"argument %d of %s wants int32, got %T", index, k.def.name, value)
		}
	}
	k.args[index] = value
	k.set[index] = true
	return nil
}

// WorkGroupSize is MaxWorkGroupSize for every host kernel.
func (k *Kernel) WorkGroupSize() (int, error) { return MaxWorkGroupSize, nil }

// PreferredWorkGroupSizeMultiple is the host's float32 vector width.
func (k *Kernel) PreferredWorkGroupSizeMultiple() (int, error) {
	return features.preferredVectorWidth(), nil
}

func (k *Kernel) Release() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return accel.Errorf("clReleaseKernel", accel.StatusInvalidKernel, "kernel already released")
	}
	k.released = true
	return nil
}

// snapshot copies the bound arguments for a launch.
func (k *Kernel) snapshot() ([]any, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.released {
		return nil, accel.Errorf("clEnqueueNDRangeKernel", accel.StatusInvalidKernel, "kernel released")
	}
	for i, ok := range k.set {
		if !ok {
			return nil, accel.Errorf("clEnqueueNDRangeKernel", accel.StatusInvalidKernelArgs,
				"argument %d (%s) of %s not set", i, k.def.params[i], k.def.name)
		}
	}
	return append([]any(nil), k.args...), nil
}

func (k *Kernel) String() string {
	return fmt.Sprintf("%s/%d", k.def.name, len(k.def.params))
}
