package tilegemm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LynnColeArt/tilegemm/accel"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "kernel.cl", cfg.KernelSource)
	assert.Equal(t, "sgemm", cfg.KernelName)
	assert.Equal(t, 64, cfg.TileWidth)
	assert.Equal(t, 16, cfg.VectorWidth)
	assert.Zero(t, cfg.TileWidth%cfg.VectorWidth)
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithRuntime("host"),
		WithDeviceType(accel.DeviceTypeCPU),
		WithKernelSource("k.cl"),
		WithKernelName("mm"),
		WithBuildOptions("-cl-fast-relaxed-math"),
		WithGeometry(32, 8),
		WithPoolSize(2),
	} {
		opt(&cfg)
	}
	assert.Equal(t, Config{
		Runtime:      "host",
		DeviceType:   accel.DeviceTypeCPU,
		KernelSource: "k.cl",
		KernelName:   "mm",
		BuildOptions: "-cl-fast-relaxed-math",
		TileWidth:    32,
		VectorWidth:  8,
		PoolSize:     2,
	}, cfg)

	WithConfig(DefaultConfig())(&cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		opt      Option
		contract bool
	}{
		{"zero tile", WithGeometry(0, 16), false},
		{"negative vector", WithGeometry(64, -1), false},
		{"tile not multiple of vector", WithGeometry(64, 24), true},
		{"empty source", WithKernelSource(""), false},
		{"empty kernel name", WithKernelName(""), false},
		{"empty pool", WithPoolSize(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.opt(&cfg)
			err := cfg.Validate()
			if tt.contract {
				assert.True(t, IsContractError(err), "got %v", err)
			} else {
				assert.True(t, IsInvalidArgError(err), "got %v", err)
			}
		})
	}
}
