package tilegemm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogger(t *testing.T) {
	l, err := NewRunLogger(t.TempDir(), "session")
	require.NoError(t, err)

	empty, err := ReadRunLog(l.Path())
	require.NoError(t, err)
	assert.Empty(t, empty, "a new session is flushed as an empty list")

	require.NoError(t, l.Log(RunResult{Name: "a", Status: "pass", M: 1, N: 2, K: 3, Padded: Dims{M: 64, N: 64, K: 64}}))
	require.NoError(t, l.Log(RunResult{Name: "b", Status: "fail", Error: "boom"}))

	got, err := ReadRunLog(l.Path())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, Dims{M: 64, N: 64, K: 64}, got[0].Padded)
	assert.Equal(t, "boom", got[1].Error)
	assert.False(t, got[1].Timestamp.IsZero())
	assert.Len(t, l.Results(), 2)
}

func TestGFLOPS(t *testing.T) {
	assert.InDelta(t, 2.0, GFLOPS(1000, 1000, 1000, time.Second), 1e-9)
	assert.Zero(t, GFLOPS(1, 1, 1, 0))
}
