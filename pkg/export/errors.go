// errors.go - Structured export errors.
package export

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the category of an export failure.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindLoad indicates an image could not be fetched.
	KindLoad
	// KindDecode indicates fetched bytes are not a supported image.
	KindDecode
	// KindEncode indicates the finished card could not be encoded.
	KindEncode
	// KindBusy indicates an export was already running.
	KindBusy
)

func (k ErrorKind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// ErrBusy is wrapped by the error returned when Export is called while
// another export is in flight.
var ErrBusy = errors.New("export already in progress")

// Error is a failed export.
type Error struct {
	// Op is the step that failed (e.g., "load background").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// URL is the image source involved, if any.
	URL string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s [%s] url=%s: %v", e.Op, e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
