// Package tilegemm structured error types
package tilegemm

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/LynnColeArt/tilegemm/accel"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Accelerator call returned a non-success status
	ErrTypeDevice ErrorType = iota
	// Kernel source could not be read
	ErrTypeSourceIO
	// Kernel source failed to compile
	ErrTypeBuild
	// Invalid argument errors
	ErrTypeInvalidArg
	// Engine used before construction or after Finalize
	ErrTypeState
	// Host launch geometry and kernel disagree
	ErrTypeContract
	// Host-side allocation errors
	ErrTypeMemory
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string       // Operation that failed
	Message string       // Human-readable message
	Status  accel.Status // Driver status for ErrTypeDevice
	Where   string       // file:line of the engine call that observed the failure
	Log     string       // Compiler output for ErrTypeBuild
	Err     error        // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("tilegemm %s error in %s: %s", e.Type, e.Op, e.Message)
	if e.Type == ErrTypeDevice {
		msg = fmt.Sprintf("[%s] tilegemm %s error %d (%s) in %s: %s",
			e.Where, e.Type, int32(e.Status), e.Status, e.Op, e.Message)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	if e.Log != "" {
		msg += "\ncompile log:\n" + e.Log
	}
	return msg
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeDevice:
		return "Device"
	case ErrTypeSourceIO:
		return "SourceIO"
	case ErrTypeBuild:
		return "Build"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeState:
		return "State"
	case ErrTypeContract:
		return "Contract"
	case ErrTypeMemory:
		return "Memory"
	default:
		return "Unknown"
	}
}

// Common error constructors

// checkDevice turns a failed accelerator call into an ErrTypeDevice error
// stamped with the caller's file and line. It returns nil for a nil err.
func checkDevice(op string, err error) error {
	if err == nil {
		return nil
	}
	where := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		where = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return &Error{
		Type:    ErrTypeDevice,
		Op:      op,
		Message: "accelerator call failed",
		Status:  accel.StatusOf(err),
		Where:   where,
		Err:     err,
	}
}

// NewSourceError reports an unreadable kernel source file
func NewSourceError(path string, err error) error {
	return &Error{
		Type:    ErrTypeSourceIO,
		Op:      "ReadKernelSource",
		Message: fmt.Sprintf("failed to open %s", path),
		Err:     err,
	}
}

// NewBuildError reports a failed program build with the compiler log
func NewBuildError(path, log string, err error) error {
	return &Error{
		Type:    ErrTypeBuild,
		Op:      "BuildProgram",
		Message: fmt.Sprintf("compile error in %s", path),
		Status:  accel.StatusOf(err),
		Log:     log,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewContractError reports a host/kernel geometry mismatch
func NewContractError(op string, message string) error {
	return &Error{
		Type:    ErrTypeContract,
		Op:      op,
		Message: message,
	}
}

// NewMemoryError reports an allocation the device could not satisfy. The
// driver status of err, if any, is kept.
func NewMemoryError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeMemory,
		Op:      op,
		Message: message,
		Status:  accel.StatusOf(err),
		Err:     err,
	}
}

// Common pre-defined errors

var (
	// ErrFinalized is returned by engine methods after Finalize
	ErrFinalized = &Error{Type: ErrTypeState, Op: "Engine", Message: "engine finalized"}
)

func isType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// IsDeviceError checks if an error is an accelerator error
func IsDeviceError(err error) bool { return isType(err, ErrTypeDevice) }

// IsSourceIOError checks if an error is a kernel source I/O error
func IsSourceIOError(err error) bool { return isType(err, ErrTypeSourceIO) }

// IsBuildError checks if an error is a kernel compilation error
func IsBuildError(err error) bool { return isType(err, ErrTypeBuild) }

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool { return isType(err, ErrTypeInvalidArg) }

// IsStateError checks if an error is a lifecycle error
func IsStateError(err error) bool { return isType(err, ErrTypeState) }

// IsContractError checks if an error is a host/kernel contract error
func IsContractError(err error) bool { return isType(err, ErrTypeContract) }

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool { return isType(err, ErrTypeMemory) }
