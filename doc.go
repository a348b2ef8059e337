// Copyright ©2024 The tilegemm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tilegemm multiplies single-precision matrices on an accelerator
// with a tiled kernel.
//
// An Engine is created once for a problem size. It discovers a device
// through a registered accel runtime, compiles the kernel source (kernel.cl
// by default), checks that the kernel accepts the launch geometry, and
// allocates device buffers. Multiply then moves A and B to the device,
// launches the kernel over a 2-D range and reads C back:
//
//	global = (M_padded, N_padded / VectorWidth)
//	local  = (TileWidth, TileWidth / VectorWidth)
//
// Dimensions that are not multiples of TileWidth are zero-padded on the
// host before transfer and the padding is stripped from C afterwards, so
// callers may pass any positive M, N and K.
//
// Two runtimes are provided. accel/host executes kernels on the CPU and is
// always available. accel/opencl binds a system OpenCL driver and is built
// with the opencl build tag; when present it is preferred.
//
// All failures are returned as *Error values carrying an ErrorType; driver
// failures also carry the accel.Status code and the call site.
package tilegemm
