package runtime

import (
	"errors"
	"fmt"

	"github.com/tanema/turffile/src/conf"
	"github.com/tanema/turffile/src/terrors"
	"github.com/tanema/turffile/src/turf"
)

var (
	// Require is the default loader handed to init_. It resolves modules from
	// the loaded package table.
	Require        = Fn("require", stdRequire)
	loadedPackages = map[string]any{
		conf.BUFFERMODULE: map[string]any{
			"Buffer": map[string]any{
				"concat": Fn("Buffer.concat", stdBufferConcat),
			},
		},
	}
)

func createExports() map[string]*GoFunc {
	return map[string]*GoFunc{
		"init_":  Fn("init_", stdInit),
		"pack":   Fn("pack", stdPack),
		"unpack": Fn("unpack", stdUnpack),
	}
}

func stdRequire(_ *Module, args []any) ([]any, error) {
	if len(args) < 1 {
		return nil, argumentErr("require", errors.New("string expected, got no value"))
	}
	name, isStr := args[0].(string)
	if !isStr {
		return nil, argumentErr("require", fmt.Errorf("string expected, got %v", typeName(args[0])))
	}
	lib, found := loadedPackages[name]
	if !found {
		return nil, fmt.Errorf("module '%v' not found", name)
	}
	return []any{lib}, nil
}

// Buffer.concat(list) joins an array of buffers.
func stdBufferConcat(_ *Module, args []any) ([]any, error) {
	if len(args) < 1 || !isArray(args[0]) {
		return nil, argumentErr("Buffer.concat", errors.New("list argument must be an array of buffers"))
	}
	list := args[0].([]any)
	size := 0
	for i, item := range list {
		buf, isBuf := item.([]byte)
		if !isBuf {
			return nil, argumentErr("Buffer.concat", fmt.Errorf("list[%v] must be a buffer, got %v", i, typeName(item)))
		}
		size += len(buf)
	}
	out := make([]byte, 0, size)
	for _, item := range list {
		out = append(out, item.([]byte)...)
	}
	return []any{out}, nil
}

func stdInit(m *Module, args []any) ([]any, error) {
	var require *GoFunc
	if len(args) > 0 {
		require, _ = args[0].(*GoFunc)
	}
	if require == nil {
		return nil, terrors.Init("init_", terrors.ErrLoaderNotFunction)
	}
	packer, err := turf.Init(m.loaderFrom(require), m.opts...)
	if err != nil {
		return nil, err
	}
	m.setPacker(packer)
	return []any{}, nil
}

// loaderFrom adapts a dynamic require function into a typed loader. The module
// it resolves must expose Buffer.concat as a function.
func (m *Module) loaderFrom(require *GoFunc) turf.Loader {
	return func(name string) (any, error) {
		res, err := require.val(m, []any{name})
		if err != nil {
			return nil, err
		} else if len(res) == 0 {
			return nil, nil
		}
		mod, _ := res[0].(map[string]any)
		buffer, _ := mod["Buffer"].(map[string]any)
		concat, isFn := buffer["concat"].(*GoFunc)
		if !isFn {
			return nil, nil
		}
		return turf.ConcatFunc(func(parts ...[]byte) ([]byte, error) {
			list := make([]any, len(parts))
			for i, part := range parts {
				list[i] = part
			}
			res, err := concat.val(m, []any{list})
			if err != nil {
				return nil, err
			} else if len(res) == 0 {
				return nil, errors.New("Buffer.concat returned no value")
			}
			out, isBuf := res[0].([]byte)
			if !isBuf {
				return nil, fmt.Errorf("Buffer.concat returned %v", typeName(res[0]))
			}
			return out, nil
		}), nil
	}
}

func stdPack(m *Module, args []any) ([]any, error) {
	packer, err := checkInitialized(m, "pack")
	if err != nil {
		return nil, err
	} else if len(args) != 2 {
		return nil, argumentErr("pack", terrors.ErrPackArgCount)
	}
	shapes, turfs, err := PackArgs(args[0], args[1])
	if err != nil {
		return nil, err
	}
	out, err := packer.Pack(shapes, turfs)
	if err != nil {
		return nil, err
	}
	return []any{out}, nil
}

// PackArgs checks untyped shapes and turfs the way pack does and converts them
// for the typed packer. Shapes must be an array of arrays of numbers, turfs an
// array of the same length. Functions inside turfs become null.
func PackArgs(shapesArg, turfsArg any) ([]turf.Shape, []any, error) {
	shapeVals, isArr := shapesArg.([]any)
	if !isArr {
		return nil, nil, argumentErr("pack", terrors.ErrShapesNotArray)
	}
	turfVals, isArr := turfsArg.([]any)
	if !isArr {
		return nil, nil, argumentErr("pack", terrors.ErrTurfsNotArray)
	} else if len(shapeVals) != len(turfVals) {
		return nil, nil, argumentErr("pack", terrors.ErrLengthMismatch)
	}

	shapes := make([]turf.Shape, len(shapeVals))
	for i, elem := range shapeVals {
		coords, isArr := elem.([]any)
		if !isArr {
			return nil, nil, argumentErr("pack", terrors.ErrShapeNotArray)
		}
		shape := make(turf.Shape, len(coords))
		for j, coord := range coords {
			if !isNumber(coord) {
				return nil, nil, argumentErr("pack", terrors.ErrShapeNotFloats)
			}
			shape[j] = toFloat(coord)
		}
		shapes[i] = shape
	}
	return shapes, toJSONValue(turfVals).([]any), nil
}

func stdUnpack(m *Module, args []any) ([]any, error) {
	packer, err := checkInitialized(m, "unpack")
	if err != nil {
		return nil, err
	} else if len(args) != 1 {
		return nil, argumentErr("unpack", terrors.ErrUnpackArgCount)
	}

	var data []byte
	switch targ := args[0].(type) {
	case []byte:
		data = targ
	case string:
		data = []byte(targ)
	default:
		return nil, argumentErr("unpack", terrors.ErrUnpackNotBuffer)
	}

	shapes, turfs, err := packer.Unpack(data)
	if err != nil {
		return nil, err
	}
	shapeVals := make([]any, len(shapes))
	for i, shape := range shapes {
		coords := make([]any, len(shape))
		for j, coord := range shape {
			coords[j] = coord
		}
		shapeVals[i] = coords
	}
	return []any{shapeVals, turfs}, nil
}
