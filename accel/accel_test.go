package accel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRuntime struct{ name string }

func (r stubRuntime) Name() string                   { return r.name }
func (r stubRuntime) Platforms() ([]Platform, error) { return nil, nil }
func (r stubRuntime) DefaultDeviceType() DeviceType  { return DeviceTypeDefault }

func TestStatusString(t *testing.T) {
	assert.Equal(t, "CL_SUCCESS", StatusSuccess.String())
	assert.Equal(t, "CL_BUILD_PROGRAM_FAILURE", StatusBuildProgramFailure.String())
	assert.Equal(t, "CL_INVALID_WORK_GROUP_SIZE", StatusInvalidWorkGroupSize.String())
	assert.Equal(t, "CL_UNKNOWN(-9999)", Status(-9999).String())
}

func TestErrorFormat(t *testing.T) {
	err := Errorf("clBuildProgram", StatusBuildProgramFailure, "%d error(s)", 2)
	assert.Equal(t, "clBuildProgram: CL_BUILD_PROGRAM_FAILURE (-11): 2 error(s)", err.Error())

	bare := &Error{Op: "clFinish", Status: StatusOutOfResources}
	assert.Equal(t, "clFinish: CL_OUT_OF_RESOURCES (-5)", bare.Error())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusOf(nil))

	wrapped := fmt.Errorf("launch: %w", Errorf("clEnqueueNDRangeKernel", StatusInvalidWorkGroupSize, ""))
	assert.Equal(t, StatusInvalidWorkGroupSize, StatusOf(wrapped))

	assert.Equal(t, StatusInvalidValue, StatusOf(errors.New("not a driver error")))
}

func TestDeviceTypeString(t *testing.T) {
	assert.Equal(t, "gpu", DeviceTypeGPU.String())
	assert.Equal(t, "cpu", DeviceTypeCPU.String())
	assert.Equal(t, "mixed", (DeviceTypeCPU | DeviceTypeGPU).String())
}

func TestRegistry(t *testing.T) {
	Register("stub-b", stubRuntime{"stub-b"})
	Register("stub-a", stubRuntime{"stub-a"})

	rt, err := Open("stub-a")
	require.NoError(t, err)
	assert.Equal(t, "stub-a", rt.Name())

	names := Runtimes()
	assert.IsIncreasing(t, names)
	assert.Subset(t, names, []string{"stub-a", "stub-b"})

	_, err = Open("missing")
	assert.Equal(t, StatusInvalidPlatform, StatusOf(err))

	assert.Panics(t, func() { Register("stub-a", stubRuntime{"again"}) })
	assert.Panics(t, func() { Register("nil", nil) })
}

func TestPreferred(t *testing.T) {
	name, err := Preferred()
	require.NoError(t, err, "TestRegistry registers runtimes first")
	if _, ok := runtimes["opencl"]; ok {
		assert.Equal(t, "opencl", name)
	} else {
		assert.Equal(t, Runtimes()[0], name)
	}
}
