// Package terrors is a unified errors package for turf packing so that init,
// argument, encode and decode failures can be formatted and handled in a unified way.
package terrors

import (
	"errors"
	"fmt"
)

type (
	// ErrorKind is an enum to describe where the error originates from.
	ErrorKind int
	// Error captures all errors raised while initializing, packing or unpacking.
	// Init and argument errors format as their bare message so that the messages
	// callers match against stay stable.
	Error struct {
		Kind ErrorKind
		Op   string
		Err  error
	}
)

const (
	// InitErr is an error raised while initializing a module.
	InitErr ErrorKind = iota
	// ArgumentErr is an error raised while validating arguments.
	ArgumentErr
	// EncodeErr is an error raised while writing a packed buffer.
	EncodeErr
	// DecodeErr is an error raised while reading a packed buffer.
	DecodeErr
)

var (
	// ErrNotInitialized is returned when pack or unpack is called before init.
	ErrNotInitialized = errors.New("Not initialized")
	// ErrLoaderNotFunction is returned when init is not given a callable loader.
	ErrLoaderNotFunction = errors.New("Require is not a function")
	// ErrConcatNotFunction is returned when the loaded buffer module cannot concat.
	ErrConcatNotFunction = errors.New("Buffer.concat is not a function")
	// ErrPackArgCount is returned when pack does not receive exactly two arguments.
	ErrPackArgCount = errors.New("pack takes two arguments")
	// ErrShapesNotArray is returned when the first pack argument is not an array.
	ErrShapesNotArray = errors.New("pack takes 1st argument array of shapes")
	// ErrTurfsNotArray is returned when the second pack argument is not an array.
	ErrTurfsNotArray = errors.New("pack takes 2nd argument array of turfs")
	// ErrLengthMismatch is returned when shapes and turfs differ in length.
	ErrLengthMismatch = errors.New("Array lengths don't match")
	// ErrShapeNotArray is returned when a shape is not an array.
	ErrShapeNotArray = errors.New("pack takes 1st argument array of arrays")
	// ErrShapeNotFloats is returned when a coordinate is not a number.
	ErrShapeNotFloats = errors.New("pack takes 1st argument array of arrays of floats")
	// ErrUnpackArgCount is returned when unpack does not receive exactly one argument.
	ErrUnpackArgCount = errors.New("unpack takes one argument")
	// ErrUnpackNotBuffer is returned when the unpack argument is not a buffer.
	ErrUnpackNotBuffer = errors.New("unpack takes a buffer")
	// ErrStringify is returned when the turfs cannot be serialized.
	ErrStringify = errors.New("Error stringifying data")
	// ErrTurfBuffer is returned when a turf holds a buffer, which json cannot round trip.
	ErrTurfBuffer = errors.New("turfs cannot hold buffers")
)

func (k ErrorKind) String() string {
	switch k {
	case InitErr:
		return "init"
	case ArgumentErr:
		return "argument"
	case EncodeErr:
		return "encode"
	case DecodeErr:
		return "decode"
	default:
		return "unknown"
	}
}

func (err *Error) Error() string {
	switch err.Kind {
	case InitErr, ArgumentErr:
		return err.Err.Error()
	case EncodeErr:
		return fmt.Sprintf("Encode Error: %v: %v", err.Op, err.Err)
	case DecodeErr:
		return fmt.Sprintf("Decode Error: %v: %v", err.Op, err.Err)
	default:
		return err.Err.Error()
	}
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Init wraps err as an init error raised by op.
func Init(op string, err error) error {
	return &Error{Kind: InitErr, Op: op, Err: err}
}

// Argument wraps err as an argument error raised by op.
func Argument(op string, err error) error {
	return &Error{Kind: ArgumentErr, Op: op, Err: err}
}

// Encode wraps err as an encode error raised by op.
func Encode(op string, err error) error {
	return &Error{Kind: EncodeErr, Op: op, Err: err}
}

// Decode creates a decode error raised by op with a formatted message.
func Decode(op, format string, args ...any) error {
	return &Error{Kind: DecodeErr, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of a turf error and false if err is not one.
func KindOf(err error) (ErrorKind, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind, true
	}
	return 0, false
}
