// Package profile implements the Propeller branch aggregator:
// it turns a raw profile source (legacy textual form, or a perf-data
// derived stream) into per-(from,to) branch and fallthrough counter maps.
package profile

import "errors"

// Error taxonomy. ProfileMalformed, MissingSymbol and
// InternalInvariant are fatal; the others degrade to a warning and
// continue.
var (
	// ErrProfileMalformed covers syntactic errors: invalid ordinals, size
	// fields, malformed names.
	ErrProfileMalformed = errors.New("profile: malformed")

	// ErrProfileMismatch signals that the profile's output-file directive
	// does not match the linker's output file; callers should silently
	// ignore the profile rather than treat this as fatal.
	ErrProfileMismatch = errors.New("profile: output file mismatch")

	// ErrMissingSymbol signals a profile record referencing a function
	// ordinal that was never defined.
	ErrMissingSymbol = errors.New("profile: missing symbol")

	// ErrBuildIDMismatch signals a perf mmap build-id with no matching
	// binary; the sample set is skipped with a warning.
	ErrBuildIDMismatch = errors.New("profile: build-id mismatch")

	// ErrNoProfileUsable signals that zero branch or fallthrough records
	// were applied.
	ErrNoProfileUsable = errors.New("profile: no usable records")

	// ErrInternalInvariant covers address-mapper / chain-builder invariant
	// violations surfaced through this package.
	ErrInternalInvariant = errors.New("profile: internal invariant violated")
)

// MalformedError wraps a malformed-record error with its source line
// number for diagnostics.
type MalformedError struct {
	Line int
	Msg  string
}

func (e *MalformedError) Error() string {
	return "profile: malformed at line " + itoa(e.Line) + ": " + e.Msg
}

func (e *MalformedError) Unwrap() error { return ErrProfileMalformed }

// MissingSymbolError reports a bb-symbol record whose owning function
// ordinal was never defined.
type MissingSymbolError struct {
	Ordinal     int
	FuncOrdinal int
}

func (e *MissingSymbolError) Error() string {
	return "profile: ordinal " + itoa(e.Ordinal) + " references undefined function ordinal " + itoa(e.FuncOrdinal)
}

func (e *MissingSymbolError) Unwrap() error { return ErrMissingSymbol }

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
