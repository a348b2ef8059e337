//go:build opencl

package opencl

/*
#cgo linux CFLAGS: -I/opt/rocm/include -I/usr/include
#cgo linux LDFLAGS: -L/opt/rocm/lib -L/usr/lib/x86_64-linux-gnu -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#cgo windows LDFLAGS: -lOpenCL

#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif

#include <stdlib.h>

static cl_program create_program(cl_context ctx, const char* src, size_t len, cl_int* err) {
    return clCreateProgramWithSource(ctx, 1, &src, &len, err);
}
*/
import "C"

import (
	"strings"
	"sync"
	"unsafe"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Name is the registry name of the OpenCL runtime.
const Name = "opencl"

func init() {
	accel.Register(Name, Runtime{})
}

func check(op string, code C.cl_int) error {
	if code == C.CL_SUCCESS {
		return nil
	}
	return &accel.Error{Op: op, Status: accel.Status(code)}
}

// Runtime enumerates the installed OpenCL platforms.
type Runtime struct{}

func (Runtime) Name() string { return Name }

// DefaultDeviceType is GPU: the kernel is written for a discrete work-group
// memory hierarchy.
func (Runtime) DefaultDeviceType() accel.DeviceType { return accel.DeviceTypeGPU }

func (Runtime) Platforms() ([]accel.Platform, error) {
	var n C.cl_uint
	if err := check("clGetPlatformIDs", C.clGetPlatformIDs(0, nil, &n)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	ids := make([]C.cl_platform_id, n)
	if err := check("clGetPlatformIDs", C.clGetPlatformIDs(n, &ids[0], nil)); err != nil {
		return nil, err
	}
	platforms := make([]accel.Platform, n)
	for i, id := range ids {
		platforms[i] = &Platform{id: id}
	}
	return platforms, nil
}

// Platform is one installed OpenCL implementation.
type Platform struct {
	id C.cl_platform_id
}

func (p *Platform) info(param C.cl_platform_info) string {
	var size C.size_t
	if C.clGetPlatformInfo(p.id, param, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetPlatformInfo(p.id, param, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func (p *Platform) Name() string   { return p.info(C.CL_PLATFORM_NAME) }
func (p *Platform) Vendor() string { return p.info(C.CL_PLATFORM_VENDOR) }

func (p *Platform) Devices(t accel.DeviceType) ([]accel.Device, error) {
	var n C.cl_uint
	typ := C.cl_device_type(t)
	if err := check("clGetDeviceIDs", C.clGetDeviceIDs(p.id, typ, 0, nil, &n)); err != nil {
		return nil, err
	}
	ids := make([]C.cl_device_id, n)
	if n > 0 {
		if err := check("clGetDeviceIDs", C.clGetDeviceIDs(p.id, typ, n, &ids[0], nil)); err != nil {
			return nil, err
		}
	}
	devices := make([]accel.Device, n)
	for i, id := range ids {
		devices[i] = &Device{id: id}
	}
	return devices, nil
}

// Device is one OpenCL device.
type Device struct {
	id C.cl_device_id
}

func (d *Device) Name() string {
	var size C.size_t
	if C.clGetDeviceInfo(d.id, C.CL_DEVICE_NAME, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetDeviceInfo(d.id, C.CL_DEVICE_NAME, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func (d *Device) Type() accel.DeviceType {
	var t C.cl_device_type
	C.clGetDeviceInfo(d.id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(t)), unsafe.Pointer(&t), nil)
	return accel.DeviceType(t)
}

func (d *Device) MaxWorkGroupSize() int {
	var v C.size_t
	if C.clGetDeviceInfo(d.id, C.CL_DEVICE_MAX_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil) != C.CL_SUCCESS {
		return 0
	}
	return int(v)
}

func (d *Device) GlobalMemSize() uint64 {
	var v C.cl_ulong
	if C.clGetDeviceInfo(d.id, C.CL_DEVICE_GLOBAL_MEM_SIZE, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil) != C.CL_SUCCESS {
		return 0
	}
	return uint64(v)
}

func (d *Device) ComputeUnits() int {
	var v C.cl_uint
	if C.clGetDeviceInfo(d.id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil) != C.CL_SUCCESS {
		return 0
	}
	return int(v)
}

func (d *Device) PreferredVectorWidth() int {
	var v C.cl_uint
	if C.clGetDeviceInfo(d.id, C.CL_DEVICE_PREFERRED_VECTOR_WIDTH_FLOAT, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil) != C.CL_SUCCESS {
		return 0
	}
	return int(v)
}

func (d *Device) NewContext() (accel.Context, error) {
	var code C.cl_int
	id := d.id
	ctx := C.clCreateContext(nil, 1, &id, nil, nil, &code)
	if err := check("clCreateContext", code); err != nil {
		return nil, err
	}
	return &Context{id: ctx, device: d.id}, nil
}

// Context owns the queue, programs and buffers created from it.
type Context struct {
	id     C.cl_context
	device C.cl_device_id
}

func (c *Context) NewQueue() (accel.Queue, error) {
	var code C.cl_int
	q := C.clCreateCommandQueue(c.id, c.device, 0, &code)
	if err := check("clCreateCommandQueue", code); err != nil {
		return nil, err
	}
	return &Queue{id: q}, nil
}

func (c *Context) NewProgram(source []byte) (accel.Program, error) {
	if len(source) == 0 {
		return nil, accel.Errorf("clCreateProgramWithSource", accel.StatusInvalidValue, "empty source")
	}
	src := C.CString(string(source))
	defer C.free(unsafe.Pointer(src))

	var code C.cl_int
	p := C.create_program(c.id, src, C.size_t(len(source)), &code)
	if err := check("clCreateProgramWithSource", code); err != nil {
		return nil, err
	}
	return &Program{id: p, device: c.device}, nil
}

func (c *Context) NewBuffer(flags accel.MemFlags, size int) (accel.Buffer, error) {
	var code C.cl_int
	mem := C.clCreateBuffer(c.id, C.cl_mem_flags(flags), C.size_t(size), nil, &code)
	if err := check("clCreateBuffer", code); err != nil {
		return nil, err
	}
	return &Buffer{id: mem, size: size}, nil
}

func (c *Context) Release() error {
	return check("clReleaseContext", C.clReleaseContext(c.id))
}

// Program is OpenCL C source compiled for one device.
type Program struct {
	id     C.cl_program
	device C.cl_device_id
}

func (p *Program) Build(options string) error {
	opts := C.CString(options)
	defer C.free(unsafe.Pointer(opts))
	dev := p.device
	return check("clBuildProgram", C.clBuildProgram(p.id, 1, &dev, opts, nil, nil))
}

func (p *Program) BuildLog() string {
	var size C.size_t
	if C.clGetProgramBuildInfo(p.id, p.device, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}
	buf := make([]byte, size)
	if C.clGetProgramBuildInfo(p.id, p.device, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func (p *Program) NewKernel(name string) (accel.Kernel, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var code C.cl_int
	k := C.clCreateKernel(p.id, cname, &code)
	if err := check("clCreateKernel", code); err != nil {
		return nil, err
	}
	return &Kernel{id: k, device: p.device, name: name}, nil
}

func (p *Program) Release() error {
	return check("clReleaseProgram", C.clReleaseProgram(p.id))
}

// Kernel is an entry point of a built program.
type Kernel struct {
	mu     sync.Mutex
	id     C.cl_kernel
	device C.cl_device_id
	name   string
}

func (k *Kernel) Name() string { return k.name }

func (k *Kernel) NumArgs() (int, error) {
	var n C.cl_uint
	code := C.clGetKernelInfo(k.id, C.CL_KERNEL_NUM_ARGS, C.size_t(unsafe.Sizeof(n)), unsafe.Pointer(&n), nil)
	return int(n), check("clGetKernelInfo", code)
}

func (k *Kernel) workGroupInfo(param C.cl_kernel_work_group_info) (int, error) {
	var v C.size_t
	code := C.clGetKernelWorkGroupInfo(k.id, k.device, param, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil)
	return int(v), check("clGetKernelWorkGroupInfo", code)
}

func (k *Kernel) WorkGroupSize() (int, error) {
	return k.workGroupInfo(C.CL_KERNEL_WORK_GROUP_SIZE)
}

func (k *Kernel) PreferredWorkGroupSizeMultiple() (int, error) {
	return k.workGroupInfo(C.CL_KERNEL_PREFERRED_WORK_GROUP_SIZE_MULTIPLE)
}

// SetArg binds a *Buffer or an int32 to parameter index.
func (k *Kernel) SetArg(index int, value any) error {
	const op = "clSetKernelArg"
	k.mu.Lock()
	defer k.mu.Unlock()
	switch v := value.(type) {
	case *Buffer:
		mem := v.id
		return check(op, C.clSetKernelArg(k.id, C.cl_uint(index), C.size_t(unsafe.Sizeof(mem)), unsafe.Pointer(&mem)))
	case int32:
		n := C.cl_int(v)
		return check(op, C.clSetKernelArg(k.id, C.cl_uint(index), C.size_t(unsafe.Sizeof(n)), unsafe.Pointer(&n)))
	default:
		return accel.Errorf(op, accel.StatusInvalidArgValue, "unsupported argument type %T", value)
	}
}

func (k *Kernel) Release() error {
	return check("clReleaseKernel", C.clReleaseKernel(k.id))
}

// Buffer is device global memory.
type Buffer struct {
	id   C.cl_mem
	size int
}

func (b *Buffer) Size() int { return b.size }

func (b *Buffer) Release() error {
	return check("clReleaseMemObject", C.clReleaseMemObject(b.id))
}

// Queue is an in-order command queue.
type Queue struct {
	id C.cl_command_queue
}

func transfer(op string, b accel.Buffer, blocking bool, offset int, n int) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok {
		return nil, accel.Errorf(op, accel.StatusInvalidMemObject, "buffer %T is not an OpenCL buffer", b)
	}
	if !blocking {
		return nil, accel.Errorf(op, accel.StatusInvalidOperation, "non-blocking transfers are not supported")
	}
	if offset < 0 || offset+n*4 > buf.size {
		return nil, accel.Errorf(op, accel.StatusInvalidValue,
			"%d bytes at offset %d exceed buffer of %d bytes", n*4, offset, buf.size)
	}
	return buf, nil
}

func (q *Queue) WriteBuffer(b accel.Buffer, blocking bool, offset int, src []float32) error {
	const op = "clEnqueueWriteBuffer"
	buf, err := transfer(op, b, blocking, offset, len(src))
	if err != nil || len(src) == 0 {
		return err
	}
	return check(op, C.clEnqueueWriteBuffer(q.id, buf.id, C.CL_TRUE, C.size_t(offset), C.size_t(len(src)*4),
		unsafe.Pointer(&src[0]), 0, nil, nil))
}

func (q *Queue) ReadBuffer(b accel.Buffer, blocking bool, offset int, dst []float32) error {
	const op = "clEnqueueReadBuffer"
	buf, err := transfer(op, b, blocking, offset, len(dst))
	if err != nil || len(dst) == 0 {
		return err
	}
	return check(op, C.clEnqueueReadBuffer(q.id, buf.id, C.CL_TRUE, C.size_t(offset), C.size_t(len(dst)*4),
		unsafe.Pointer(&dst[0]), 0, nil, nil))
}

func (q *Queue) EnqueueNDRange(k accel.Kernel, global, local []int) error {
	const op = "clEnqueueNDRangeKernel"
	kern, ok := k.(*Kernel)
	if !ok {
		return accel.Errorf(op, accel.StatusInvalidKernel, "kernel %T is not an OpenCL kernel", k)
	}
	if len(global) == 0 || len(global) > 3 || len(local) != len(global) {
		return accel.Errorf(op, accel.StatusInvalidWorkDimension, "global %v local %v", global, local)
	}
	g := make([]C.size_t, len(global))
	l := make([]C.size_t, len(local))
	for i := range global {
		g[i], l[i] = C.size_t(global[i]), C.size_t(local[i])
	}
	kern.mu.Lock()
	defer kern.mu.Unlock()
	return check(op, C.clEnqueueNDRangeKernel(q.id, kern.id, C.cl_uint(len(g)), nil, &g[0], &l[0], 0, nil, nil))
}

func (q *Queue) Finish() error {
	return check("clFinish", C.clFinish(q.id))
}

func (q *Queue) Release() error {
	return check("clReleaseCommandQueue", C.clReleaseCommandQueue(q.id))
}
