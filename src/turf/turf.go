// Package turf is the typed packing handle. A Packer can only be created by
// Init with a loader that resolves the buffer module, so every Packer that
// exists is ready to pack.
//
// Turfs travel as json. Coordinates come back as float32 precision, integral
// turf numbers come back as int64 and other numbers as float64 regardless of
// the go type that was packed, and turfs holding a []byte are rejected.
package turf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tanema/turffile/src/conf"
	"github.com/tanema/turffile/src/pack"
	"github.com/tanema/turffile/src/terrors"
)

type (
	// Shape is an ordered run of coordinates.
	Shape = pack.Shape
	// Loader resolves a module by name, in the manner of require.
	Loader func(name string) (any, error)
	// Concatenator is what the buffer module must provide for packing.
	Concatenator interface {
		Concat(parts ...[]byte) ([]byte, error)
	}
	// ConcatFunc adapts a plain function into a Concatenator.
	ConcatFunc func(parts ...[]byte) ([]byte, error)
	// Option configures a Packer.
	Option func(*Packer)
	// Packer packs shapes and turfs into a single buffer.
	Packer struct {
		buffer Concatenator
		order  binary.ByteOrder
		logger *log.Logger
	}
)

// Concat calls fn.
func (fn ConcatFunc) Concat(parts ...[]byte) ([]byte, error) {
	return fn(parts...)
}

// DefaultLoader resolves the builtin buffer module.
func DefaultLoader(name string) (any, error) {
	if name == conf.BUFFERMODULE {
		return ConcatFunc(func(parts ...[]byte) ([]byte, error) { return bytes.Join(parts, nil), nil }), nil
	}
	return nil, fmt.Errorf("module '%v' not found", name)
}

// WithByteOrder sets the byte order used for the header and float section.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(p *Packer) { p.order = order }
}

// WithLogger sets a logger that receives debug output for every pack and unpack.
func WithLogger(logger *log.Logger) Option {
	return func(p *Packer) { p.logger = logger }
}

// Init creates a Packer with the buffer module resolved from loader.
func Init(loader Loader, opts ...Option) (*Packer, error) {
	if loader == nil {
		return nil, terrors.Init("init_", terrors.ErrLoaderNotFunction)
	}
	mod, err := loader(conf.BUFFERMODULE)
	if err != nil {
		return nil, terrors.Init("init_", fmt.Errorf("loading %v: %w", conf.BUFFERMODULE, err))
	}
	buffer, isConcat := mod.(Concatenator)
	if !isConcat {
		return nil, terrors.Init("init_", terrors.ErrConcatNotFunction)
	}
	p := &Packer{buffer: buffer, order: binary.LittleEndian}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Pack combines shapes and turfs into one buffer. Shapes and turfs are paired
// by position so they must be the same length.
func (p *Packer) Pack(shapes []Shape, turfs []any) ([]byte, error) {
	if len(shapes) != len(turfs) {
		return nil, terrors.Argument("pack", terrors.ErrLengthMismatch)
	}
	sections, err := pack.Sections(p.order, shapes, turfs)
	if err != nil {
		return nil, err
	}
	out, err := p.buffer.Concat(sections...)
	if err != nil {
		return nil, terrors.Encode("pack", err)
	}
	p.debug("packed", "shapes", len(shapes), "floats", pack.SectionLen(shapes), "bytes", len(out))
	return out, nil
}

// Unpack reads a buffer created by Pack back into shapes and turfs.
func (p *Packer) Unpack(data []byte) ([]Shape, []any, error) {
	shapes, turfs, err := pack.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	p.debug("unpacked", "shapes", len(shapes), "bytes", len(data))
	return shapes, turfs, nil
}

func (p *Packer) debug(msg string, keyvals ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, keyvals...)
	}
}
