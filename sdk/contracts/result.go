package contracts

import "fmt"

// Code is the fixed, ordinal-stable outcome taxonomy every fallible
// operation in this module maps to. Zero value is never returned as an
// error; Success is represented by a nil error.
type Code int

const (
	// Error is an unspecified backend failure - the OS rejected the call.
	Error Code = iota + 1
	// InvalidArg means a caller-provided parameter violated a documented constraint.
	InvalidArg
	// NoBackend means the requested feature is not implemented on this platform.
	NoBackend
	// OutOfRange means an enumeration index fell outside the current snapshot's bounds.
	OutOfRange
	// AlreadyOpen means a device was opened a second time.
	AlreadyOpen
	// NotOpen means the operation requires the device to be open, started, or of a given direction.
	NotOpen
	// AllocFailed means a resource allocation failed.
	AllocFailed
)

func (c Code) String() string {
	switch c {
	case Error:
		return "Error"
	case InvalidArg:
		return "InvalidArg"
	case NoBackend:
		return "NoBackend"
	case OutOfRange:
		return "OutOfRange"
	case AlreadyOpen:
		return "AlreadyOpen"
	case NotOpen:
		return "NotOpen"
	case AllocFailed:
		return "AllocFailed"
	default:
		return "Unknown"
	}
}

// Result is the error type returned by fallible operations. Op names the
// operation that failed (e.g. "OpenInput"); Code is the fixed taxonomy
// entry; Err, if non-nil, wraps a lower-level cause (an OS/backend error).
type Result struct {
	Op   string
	Code Code
	Err  error
}

func (r *Result) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("midi: %s: %s: %v", r.Op, r.Code, r.Err)
	}
	return fmt.Sprintf("midi: %s: %s", r.Op, r.Code)
}

func (r *Result) Unwrap() error { return r.Err }

// NewResult builds a *Result for op/code, optionally wrapping a cause.
func NewResult(op string, code Code, cause error) error {
	return &Result{Op: op, Code: code, Err: cause}
}

// CodeOf extracts the Code from err, returning 0 for a nil err and Error if a
// non-nil err does not carry one.
func CodeOf(err error) Code {
	var r *Result
	if err == nil {
		return 0
	}
	if as(err, &r) {
		return r.Code
	}
	return Error
}

// as is a tiny errors.As shim kept local to avoid importing errors in every
// caller that just wants CodeOf.
func as(err error, target **Result) bool {
	for err != nil {
		if r, ok := err.(*Result); ok {
			*target = r
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
