// Package tilegemm configuration
package tilegemm

import (
	"fmt"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Launch geometry shared with the device kernel
const (
	// TileWidth is the block size matrix dimensions are padded to. It is also
	// the work-group extent along rows.
	TileWidth = 64

	// VectorWidth is the number of output columns one work item computes.
	VectorWidth = 16
)

// Kernel compilation unit
const (
	// KernelSource is the default kernel source path, relative to the
	// working directory.
	KernelSource = "kernel.cl"

	// KernelName is the entry point the source must define.
	KernelName = "sgemm"

	// KernelArgs is the number of parameters the entry point takes:
	// A, B, C, M_padded, N_padded, K_padded.
	KernelArgs = 6
)

// Buffer pool
const (
	// DefaultPoolSize is the number of buffer sets kept per engine.
	DefaultPoolSize = 4
)

// Config controls engine construction.
type Config struct {
	// Runtime names a registered accel runtime. Empty picks accel.Preferred.
	Runtime string

	// DeviceType selects the device class. Zero asks the runtime for its
	// accelerator class.
	DeviceType accel.DeviceType

	KernelSource string
	KernelName   string
	BuildOptions string

	TileWidth   int
	VectorWidth int

	// PoolSize bounds the buffer sets kept for distinct padded dimensions.
	PoolSize int
}

// DefaultConfig returns the configuration matching kernel.cl.
func DefaultConfig() Config {
	return Config{
		KernelSource: KernelSource,
		KernelName:   KernelName,
		TileWidth:    TileWidth,
		VectorWidth:  VectorWidth,
		PoolSize:     DefaultPoolSize,
	}
}

// Validate checks the settings that the host and the kernel must agree on.
// TileWidth must be a multiple of VectorWidth so that every padded N divides
// into whole vectors.
func (c Config) Validate() error {
	switch {
	case c.TileWidth <= 0:
		return NewInvalidArgError("Config", fmt.Sprintf("tile width must be positive, got %d", c.TileWidth))
	case c.VectorWidth <= 0:
		return NewInvalidArgError("Config", fmt.Sprintf("vector width must be positive, got %d", c.VectorWidth))
	case c.TileWidth%c.VectorWidth != 0:
		return NewContractError("Config",
			fmt.Sprintf("tile width %d is not a multiple of vector width %d", c.TileWidth, c.VectorWidth))
	case c.KernelSource == "":
		return NewInvalidArgError("Config", "kernel source path is empty")
	case c.KernelName == "":
		return NewInvalidArgError("Config", "kernel name is empty")
	case c.PoolSize < 1:
		return NewInvalidArgError("Config", fmt.Sprintf("pool size must be at least 1, got %d", c.PoolSize))
	}
	return nil
}

// Option adjusts a Config.
type Option func(*Config)

// WithRuntime selects the accel runtime by name.
func WithRuntime(name string) Option {
	return func(c *Config) { c.Runtime = name }
}

// WithDeviceType selects the device class.
func WithDeviceType(t accel.DeviceType) Option {
	return func(c *Config) { c.DeviceType = t }
}

// WithKernelSource sets the kernel source path.
func WithKernelSource(path string) Option {
	return func(c *Config) { c.KernelSource = path }
}

// WithKernelName sets the kernel entry point.
func WithKernelName(name string) Option {
	return func(c *Config) { c.KernelName = name }
}

// WithBuildOptions passes compiler options to the program build.
func WithBuildOptions(opts string) Option {
	return func(c *Config) { c.BuildOptions = opts }
}

// WithGeometry overrides tile and vector width. The kernel must be written
// for the same values.
func WithGeometry(tile, vector int) Option {
	return func(c *Config) {
		c.TileWidth = tile
		c.VectorWidth = vector
	}
}

// WithPoolSize sets how many buffer sets are kept.
func WithPoolSize(n int) Option {
	return func(c *Config) { c.PoolSize = n }
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}
