// pkg/unarc/errors.go
package unarc

import (
	"errors"
	"fmt"
)

var (
	// ErrNilBuffer is returned when a nil or empty input buffer is given
	ErrNilBuffer = errors.New("input buffer is nil or empty")

	// ErrNilDecoder is returned when an unarchiver is constructed without a decoder
	ErrNilDecoder = errors.New("decoder is nil")
)

// InvalidStateError reports a Run call made outside the idle state.
// This is a programmer error and is returned synchronously; it never
// appears as an event.
type InvalidStateError struct {
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("run: invalid state %s (run may be called once, from idle)", e.State)
}

// UnknownFormatError reports that no registered format matched the
// input buffer's magic bytes.
type UnknownFormatError struct {
	// Magic holds the leading bytes that failed to match (up to 8)
	Magic []byte
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown archive format: % x", e.Magic)
}

// DecodeError wraps a decode fault together with the byte offset at
// which it occurred. Decoders return it when the offset is determinable;
// the boundary carries the offset into the ERROR event.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
