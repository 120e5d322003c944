package turffile

import (
	"errors"
	"fmt"
	"os"

	"github.com/tanema/turffile/src/pack"
	"github.com/tanema/turffile/src/runtime"
	"github.com/tanema/turffile/src/turf"
)

type (
	// Shape is an ordered run of coordinates.
	Shape = turf.Shape
	// Document is the json layout of a file of shapes and turfs to pack.
	Document struct {
		Shapes []Shape `json:"shapes"`
		Turfs  []any   `json:"turfs"`
	}
)

// Pack will pack shapes and turfs with the builtin buffer module.
func Pack(shapes []Shape, turfs []any) ([]byte, error) {
	packer, err := turf.Init(turf.DefaultLoader)
	if err != nil {
		return nil, err
	}
	return packer.Pack(shapes, turfs)
}

// Unpack will read a packed buffer back into shapes and turfs.
func Unpack(data []byte) ([]Shape, []any, error) {
	packer, err := turf.Init(turf.DefaultLoader)
	if err != nil {
		return nil, nil, err
	}
	return packer.Unpack(data)
}

// ReadDocument parses a json document of shapes and turfs. The shapes and turfs
// are checked the same way as the arguments to pack.
func ReadDocument(data []byte) (Document, error) {
	val, err := pack.ParseJSON(data)
	if err != nil {
		return Document{}, err
	}
	obj, isObj := val.(map[string]any)
	if !isObj {
		return Document{}, errors.New("expected a json object with shapes and turfs")
	}
	shapes, turfs, err := runtime.PackArgs(obj["shapes"], obj["turfs"])
	if err != nil {
		return Document{}, err
	}
	return Document{Shapes: shapes, Turfs: turfs}, nil
}

// File will read a json document of shapes and turfs and pack it.
func File(path string, opts ...turf.Option) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ReadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("reading %v: %w", path, err)
	}
	packer, err := turf.Init(turf.DefaultLoader, opts...)
	if err != nil {
		return nil, err
	}
	return packer.Pack(doc.Shapes, doc.Turfs)
}
