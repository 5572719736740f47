// Package azresult implements the result/error taxonomy shared by every
// other package in this module: a 32-bit result packing a failure bit, a
// facility, and a code, generalized from the single-category
// StandardError the teacher toolchain uses for its own diagnostics.
package azresult

import (
	"fmt"
	"runtime"
)

// Facility identifies which subsystem produced a Result.
type Facility int32

const (
	FacilityCore Facility = iota + 1
	FacilityPlatform
	FacilityJSON
	FacilityHTTP
	FacilityMQTT
	FacilityIoT
)

func (f Facility) String() string {
	switch f {
	case FacilityCore:
		return "CORE"
	case FacilityPlatform:
		return "PLATFORM"
	case FacilityJSON:
		return "JSON"
	case FacilityHTTP:
		return "HTTP"
	case FacilityMQTT:
		return "MQTT"
	case FacilityIoT:
		return "IOT"
	default:
		return fmt.Sprintf("FACILITY(%d)", int32(f))
	}
}

const failFlag int32 = -1 << 31

// Result is a (failed, facility, code) value; Packed encodes it as one
// int32. Ok() is the canonical success value (FacilityCore, code 0). The
// empty Result{} also reports Failed() == false, but carries facility 0,
// so callers should always use the named constructors below.
type Result struct {
	facility Facility
	code     int32
	failed   bool
	message  string
	caller   string
}

// Ok is the single success value for a given facility/code pair (by
// convention code 0 on FacilityCore).
func Ok() Result {
	return Result{facility: FacilityCore, code: 0}
}

// New builds a failing Result for the given facility, code, and message,
// capturing the name of the function that raised it the same way the
// teacher's NewStandardError captures its Caller field.
func New(f Facility, code int32, message string) Result {
	return Result{facility: f, code: code, failed: true, message: message, caller: captureCaller()}
}

// skip 3: this frame (captureCaller), New, the facility-code closure
// (e.g. InvalidArg's func literal) — landing on the actual call site.
func captureCaller() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

// Caller reports the name of the function that called one of the
// facility-code constructors below to build this failing Result, "unknown"
// if that frame could not be resolved, or "" for a success Result from Ok().
func (r Result) Caller() string { return r.caller }

// Facility reports which subsystem raised the result.
func (r Result) Facility() Facility { return r.facility }

// Code reports the facility-scoped error code.
func (r Result) Code() int32 { return r.code }

// Failed reports whether the result represents an error.
func (r Result) Failed() bool { return r.failed }

// Succeeded is the logical negation of Failed.
func (r Result) Succeeded() bool { return !r.failed }

// Error implements the error interface so a Result can be returned and
// compared as a normal Go error.
func (r Result) Error() string {
	if !r.failed {
		return "ok"
	}
	return fmt.Sprintf("[%s:%d] %s (caller: %s)", r.facility, r.code, r.message, r.caller)
}

// Packed encodes the result into the bit layout described by the base
// protocol's result convention: bit 31 is the failure flag, bits 16..30
// are the facility, bits 0..15 are the code.
func (r Result) Packed() int32 {
	v := (int32(r.facility) << 16) | (r.code & 0xFFFF)
	if r.failed {
		v |= failFlag
	}
	return v
}

// Core facility codes.
var (
	Canceled             = func(msg string) Result { return New(FacilityCore, 0, msg) }
	InvalidArg           = func(msg string) Result { return New(FacilityCore, 1, msg) }
	InsufficientSpanSize = func(msg string) Result { return New(FacilityCore, 2, msg) }
	NotImplemented       = func(msg string) Result { return New(FacilityCore, 3, msg) }
	ItemNotFound         = func(msg string) Result { return New(FacilityCore, 4, msg) }
	UnexpectedChar       = func(msg string) Result { return New(FacilityCore, 5, msg) }
	Eof                  = func(msg string) Result { return New(FacilityCore, 6, msg) }
	NotSupported         = func(msg string) Result { return New(FacilityCore, 7, msg) }
)

// Platform facility codes.
var (
	OutOfMemory         = func(msg string) Result { return New(FacilityPlatform, 1, msg) }
	ResourceUnavailable = func(msg string) Result { return New(FacilityPlatform, 2, msg) }
	Permission          = func(msg string) Result { return New(FacilityPlatform, 3, msg) }
	MutexBusy           = func(msg string) Result { return New(FacilityPlatform, 4, msg) }
	Deadlock            = func(msg string) Result { return New(FacilityPlatform, 5, msg) }
	Reinitialization    = func(msg string) Result { return New(FacilityPlatform, 6, msg) }
)

// JSON facility codes.
var (
	InvalidState    = func(msg string) Result { return New(FacilityJSON, 1, msg) }
	NestingOverflow = func(msg string) Result { return New(FacilityJSON, 2, msg) }
	ReaderDone      = func(msg string) Result { return New(FacilityJSON, 3, msg) }
)

// HTTP/MQTT/IoT facility codes.
var (
	HTTPInvalidState      = func(msg string) Result { return New(FacilityHTTP, 1, msg) }
	PipelineInvalidPolicy = func(msg string) Result { return New(FacilityHTTP, 2, msg) }
	InvalidMethodVerb     = func(msg string) Result { return New(FacilityHTTP, 3, msg) }
	AuthenticationFailed  = func(msg string) Result { return New(FacilityHTTP, 4, msg) }
	CorruptResponseHeader = func(msg string) Result { return New(FacilityHTTP, 7, msg) }
	TopicNoMatch          = func(msg string) Result { return New(FacilityIoT, 1, msg) }
	EndOfProperties       = func(msg string) Result { return New(FacilityIoT, 2, msg) }
)

// Failed reports whether err is a Result representing failure. A non-nil
// err that is not a Result is treated as a failure.
func Failed(err error) bool {
	if err == nil {
		return false
	}
	if r, ok := err.(Result); ok {
		return r.Failed()
	}
	return true
}
