//go:build opencl

package opencl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/tilegemm/accel"
)

// firstDevice skips the test on machines without an OpenCL device.
func firstDevice(t *testing.T) accel.Device {
	t.Helper()
	platforms, err := Runtime{}.Platforms()
	if err != nil || len(platforms) == 0 {
		t.Skipf("no OpenCL platform: %v", err)
	}
	for _, p := range platforms {
		devices, err := p.Devices(accel.DeviceTypeAll)
		if err == nil && len(devices) > 0 {
			return devices[0]
		}
	}
	t.Skip("no OpenCL device")
	return nil
}

func TestRegistered(t *testing.T) {
	rt, err := accel.Open(Name)
	require.NoError(t, err)
	assert.Equal(t, Name, rt.Name())

	name, err := accel.Preferred()
	require.NoError(t, err)
	assert.Equal(t, Name, name)
}

func TestBufferRoundTrip(t *testing.T) {
	dev := firstDevice(t)
	ctx, err := dev.NewContext()
	require.NoError(t, err)
	defer ctx.Release()

	q, err := ctx.NewQueue()
	require.NoError(t, err)
	defer q.Release()

	buf, err := ctx.NewBuffer(accel.MemReadWrite, 16)
	require.NoError(t, err)
	defer buf.Release()

	require.NoError(t, q.WriteBuffer(buf, true, 0, []float32{1, 2, 3, 4}))
	got := make([]float32, 4)
	require.NoError(t, q.ReadBuffer(buf, true, 0, got))
	assert.Equal(t, []float32{1, 2, 3, 4}, got)

	err = q.WriteBuffer(buf, false, 0, got)
	assert.Equal(t, accel.StatusInvalidOperation, accel.StatusOf(err))
}

func TestBuildLog(t *testing.T) {
	dev := firstDevice(t)
	ctx, err := dev.NewContext()
	require.NoError(t, err)
	defer ctx.Release()

	prog, err := ctx.NewProgram([]byte("__kernel void broken(__global float* x) { x[0] = ; }"))
	require.NoError(t, err)
	defer prog.Release()

	err = prog.Build("")
	assert.Equal(t, accel.StatusBuildProgramFailure, accel.StatusOf(err))
	assert.NotEmpty(t, prog.BuildLog())
}
