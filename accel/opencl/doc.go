// Package opencl registers an accel runtime named "opencl" backed by the
// system OpenCL 1.2 driver.
//
// The binding uses cgo and is compiled only with the opencl build tag:
//
//	go build -tags opencl ./...
//
// Import the package for its side effect:
//
//	import _ "github.com/LynnColeArt/tilegemm/accel/opencl"
//
// Without the tag the package is empty and only the host runtime is
// available. Transfers must be blocking; a non-blocking transfer would let
// the driver hold a Go pointer past the call and is rejected with
// CL_INVALID_OPERATION.
package opencl
