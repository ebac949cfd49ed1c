package stillcodec

import "github.com/pkg/errors"

// Status is the numeric outcome code named by the public API contract,
// kept alongside the Go error interface for callers that need it (for
// example a future C-ABI binding that cannot carry a Go error value).
type Status int

const (
	StatusOK Status = iota
	StatusInvalidInput
	StatusUnsupportedFeature
	StatusBufferTooSmall
	StatusCorruptStream
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidInput:
		return "InvalidInput"
	case StatusUnsupportedFeature:
		return "UnsupportedFeature"
	case StatusBufferTooSmall:
		return "BufferTooSmall"
	case StatusCorruptStream:
		return "CorruptStream"
	case StatusInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// CodecError is the error type returned by every exported stillcodec
// function that can fail. Code classifies the failure for callers that
// switch on it; Err carries the underlying cause (often already
// wrapped with byte-offset or marker context by the package that
// produced it).
type CodecError struct {
	Code Status
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err == nil {
		return "stillcodec: " + e.Code.String()
	}
	return "stillcodec: " + e.Code.String() + ": " + e.Err.Error()
}

func (e *CodecError) Unwrap() error { return e.Err }

// Is reports whether target is one of the sentinel Err* values for
// e's Code, so callers can use errors.Is(err, stillcodec.ErrCorruptStream)
// without type-asserting to *CodecError themselves.
func (e *CodecError) Is(target error) bool {
	sentinel, ok := sentinelFor(e.Code)
	return ok && target == sentinel
}

func sentinelFor(code Status) (error, bool) {
	switch code {
	case StatusInvalidInput:
		return ErrInvalidInput, true
	case StatusUnsupportedFeature:
		return ErrUnsupportedFeature, true
	case StatusBufferTooSmall:
		return ErrBufferTooSmall, true
	case StatusCorruptStream:
		return ErrCorruptStream, true
	case StatusInternal:
		return ErrInternal, true
	default:
		return nil, false
	}
}

// Sentinel errors for errors.Is-style matching against a *CodecError's
// classification, independent of the wrapped cause.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrBufferTooSmall     = errors.New("buffer too small")
	ErrCorruptStream      = errors.New("corrupt stream")
	ErrInternal           = errors.New("internal error")
)

// newCodecError wraps cause (which may already carry pkg/errors stack
// and Wrapf context from the originating codec package) in a
// classified *CodecError.
func newCodecError(code Status, cause error) *CodecError {
	return &CodecError{Code: code, Err: cause}
}
