package main

import (
	"bytes"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/tilegemm"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestDevicesListsHost(t *testing.T) {
	out := execute(t, newDevicesCommand())
	assert.Contains(t, out, "RUNTIME")
	assert.Contains(t, out, "host")
}

func TestListDevicesReportsLimits(t *testing.T) {
	rows, _ := listDevices()
	var found bool
	for _, r := range rows {
		if r.runtime != "host" {
			continue
		}
		found = true
		assert.Equal(t, runtime.GOMAXPROCS(0), r.units)
		assert.GreaterOrEqual(t, r.vector, 1)
	}
	require.True(t, found, "host device missing from %v", rows)
	assert.Contains(t, execute(t, newDevicesCommand()), "UNITS")
}

func TestRunValidates(t *testing.T) {
	logDir := t.TempDir()
	out := execute(t, newRunCommand(),
		"-m", "65", "-n", "70", "-k", "33",
		"--runtime", "host",
		"--kernel", filepath.Join("..", "..", "kernel.cl"),
		"--iterations", "2",
		"--validate",
		"--log-dir", logDir)

	assert.Contains(t, out, "padded M=128 N=128 K=64")
	assert.Contains(t, out, "global [128 8] local [64 4]")
	assert.Contains(t, out, "max relative error")

	logs, err := filepath.Glob(filepath.Join(logDir, "sgemm_*.json"))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	results, err := tilegemm.ReadRunLog(logs[0])
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pass", results[0].Status)
	assert.Equal(t, tilegemm.Dims{M: 128, N: 128, K: 64}, results[0].Padded)
	assert.Equal(t, 2, results[0].Iterations)
	assert.LessOrEqual(t, results[0].MaxRelErr, 1e-3)
}

func TestRunRejectsZeroIterations(t *testing.T) {
	cmd := newRunCommand()
	cmd.SetArgs([]string{"--iterations", "0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestVersion(t *testing.T) {
	assert.Contains(t, execute(t, newVersionCommand()), "tilegemm")
}

func TestRunLogsFailure(t *testing.T) {
	logDir := t.TempDir()
	cmd := newRunCommand()
	cmd.SetArgs([]string{
		"-m", "8", "-n", "8", "-k", "8",
		"--runtime", "host",
		"--kernel", filepath.Join(t.TempDir(), "missing.cl"),
		"--log-dir", logDir,
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, tilegemm.IsSourceIOError(err), "got %v", err)

	logs, err := filepath.Glob(filepath.Join(logDir, "sgemm_*.json"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	results, err := tilegemm.ReadRunLog(logs[0])
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fail", results[0].Status)
	assert.Contains(t, results[0].Error, "missing.cl")
}
