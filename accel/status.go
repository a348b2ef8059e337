package accel

import (
	"errors"
	"fmt"
)

// Status is a driver result code. Values match the OpenCL 1.2 cl_int codes.
type Status int32

const (
	StatusSuccess                    Status = 0
	StatusDeviceNotFound             Status = -1
	StatusDeviceNotAvailable         Status = -2
	StatusCompilerNotAvailable       Status = -3
	StatusMemObjectAllocationFailure Status = -4
	StatusOutOfResources             Status = -5
	StatusOutOfHostMemory            Status = -6
	StatusBuildProgramFailure        Status = -11
	StatusInvalidValue               Status = -30
	StatusInvalidDeviceType          Status = -31
	StatusInvalidPlatform            Status = -32
	StatusInvalidDevice              Status = -33
	StatusInvalidContext             Status = -34
	StatusInvalidCommandQueue        Status = -36
	StatusInvalidMemObject           Status = -38
	StatusInvalidBuildOptions        Status = -43
	StatusInvalidProgram             Status = -44
	StatusInvalidProgramExecutable   Status = -45
	StatusInvalidKernelName          Status = -46
	StatusInvalidKernel              Status = -48
	StatusInvalidArgIndex            Status = -49
	StatusInvalidArgValue            Status = -50
	StatusInvalidArgSize             Status = -51
	StatusInvalidKernelArgs          Status = -52
	StatusInvalidWorkDimension       Status = -53
	StatusInvalidWorkGroupSize       Status = -54
	StatusInvalidWorkItemSize        Status = -55
	StatusInvalidOperation           Status = -59
	StatusInvalidBufferSize          Status = -61
)

var statusNames = map[Status]string{
	StatusSuccess:                    "CL_SUCCESS",
	StatusDeviceNotFound:             "CL_DEVICE_NOT_FOUND",
	StatusDeviceNotAvailable:         "CL_DEVICE_NOT_AVAILABLE",
	StatusCompilerNotAvailable:       "CL_COMPILER_NOT_AVAILABLE",
	StatusMemObjectAllocationFailure: "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	StatusOutOfResources:             "CL_OUT_OF_RESOURCES",
	StatusOutOfHostMemory:            "CL_OUT_OF_HOST_MEMORY",
	StatusBuildProgramFailure:        "CL_BUILD_PROGRAM_FAILURE",
	StatusInvalidValue:               "CL_INVALID_VALUE",
	StatusInvalidDeviceType:          "CL_INVALID_DEVICE_TYPE",
	StatusInvalidPlatform:            "CL_INVALID_PLATFORM",
	StatusInvalidDevice:              "CL_INVALID_DEVICE",
	StatusInvalidContext:             "CL_INVALID_CONTEXT",
	StatusInvalidCommandQueue:        "CL_INVALID_COMMAND_QUEUE",
	StatusInvalidMemObject:           "CL_INVALID_MEM_OBJECT",
	StatusInvalidBuildOptions:        "CL_INVALID_BUILD_OPTIONS",
	StatusInvalidProgram:             "CL_INVALID_PROGRAM",
	StatusInvalidProgramExecutable:   "CL_INVALID_PROGRAM_EXECUTABLE",
	StatusInvalidKernelName:          "CL_INVALID_KERNEL_NAME",
	StatusInvalidKernel:              "CL_INVALID_KERNEL",
	StatusInvalidArgIndex:            "CL_INVALID_ARG_INDEX",
	StatusInvalidArgValue:            "CL_INVALID_ARG_VALUE",
	StatusInvalidArgSize:             "CL_INVALID_ARG_SIZE",
	StatusInvalidKernelArgs:          "CL_INVALID_KERNEL_ARGS",
	StatusInvalidWorkDimension:       "CL_INVALID_WORK_DIMENSION",
	StatusInvalidWorkGroupSize:       "CL_INVALID_WORK_GROUP_SIZE",
	StatusInvalidWorkItemSize:        "CL_INVALID_WORK_ITEM_SIZE",
	StatusInvalidOperation:           "CL_INVALID_OPERATION",
	StatusInvalidBufferSize:          "CL_INVALID_BUFFER_SIZE",
}

// String returns the cl.h name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CL_UNKNOWN(%d)", int32(s))
}

// Error is a failed driver call.
type Error struct {
	Op     string // driver entry point, e.g. "clBuildProgram"
	Status Status
	Detail string
}

// Errorf builds an *Error with a formatted detail message.
func Errorf(op string, status Status, format string, args ...any) *Error {
	return &Error{Op: op, Status: status, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Status, int32(e.Status), e.Detail)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Status, int32(e.Status))
}

// StatusOf extracts the driver status from err. A nil error is StatusSuccess;
// errors that did not come from a driver call report StatusInvalidValue.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return StatusInvalidValue
}
