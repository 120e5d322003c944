// Package pack reads and writes the packed turf buffer. A buffer is a header,
// a float section holding every shape coordinate as a float32 with a NaN after
// each shape, and a turf section holding the turfs as a json array.
package pack

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tanema/turffile/src/conf"
	"github.com/tanema/turffile/src/terrors"
)

// Shape is a single run of coordinates.
type Shape []float64

const (
	littleMark = '<'
	bigMark    = '>'
	floatSize  = 4
)

var terminator = float32(math.NaN())

// SectionLen is the amount of floats the float section will hold for shapes,
// one per coordinate and one terminator per shape.
func SectionLen(shapes []Shape) int {
	total := 0
	for _, shape := range shapes {
		total += len(shape) + 1
	}
	return total
}

// Sections encodes shapes and turfs into the header, float and turf sections
// of a buffer. Joining them in order produces a buffer Decode can read.
func Sections(order binary.ByteOrder, shapes []Shape, turfs []any) ([][]byte, error) {
	floats, err := FloatSection(order, shapes)
	if err != nil {
		return nil, err
	}
	data, err := TurfSection(turfs)
	if err != nil {
		return nil, err
	}
	header, err := Header(order, SectionLen(shapes), len(data))
	if err != nil {
		return nil, err
	}
	return [][]byte{header, floats, data}, nil
}

// Header writes the fixed size header that precedes the float section.
func Header(order binary.ByteOrder, floatCount, turfLen int) ([]byte, error) {
	if floatCount < 0 || int64(floatCount) > conf.MAXFLOATS {
		return nil, terrors.Encode("header", fmt.Errorf("float count %v out of range", floatCount))
	} else if turfLen < 0 || int64(turfLen) > math.MaxUint32 {
		return nil, terrors.Encode("header", fmt.Errorf("turf section length %v out of range", turfLen))
	}
	buf := make([]byte, 0, conf.HEADERSIZE)
	buf = append(buf, conf.SIGNATURE...)
	buf = append(buf, conf.FORMAT, orderMark(order))
	buf, err := binary.Append(buf, order, []uint32{uint32(floatCount), uint32(turfLen)})
	if err != nil {
		return nil, terrors.Encode("header", err)
	}
	return buf, nil
}

// FloatSection writes every coordinate as a float32 followed by a NaN terminator
// per shape. NaN coordinates are rejected since they would end the shape early.
func FloatSection(order binary.ByteOrder, shapes []Shape) ([]byte, error) {
	var err error
	buf := make([]byte, 0, SectionLen(shapes)*floatSize)
	for i, shape := range shapes {
		for j, coord := range shape {
			if math.IsNaN(coord) {
				return nil, terrors.Encode("pack", fmt.Errorf("shape %v coordinate %v is NaN", i, j))
			}
			if buf, err = binary.Append(buf, order, float32(coord)); err != nil {
				return nil, terrors.Encode("pack", err)
			}
		}
		if buf, err = binary.Append(buf, order, terminator); err != nil {
			return nil, terrors.Encode("pack", err)
		}
	}
	return buf, nil
}

// TurfSection serializes the turfs as a json array. Buffers anywhere inside a
// turf are rejected since they would come back as base64 strings.
func TurfSection(turfs []any) ([]byte, error) {
	if turfs == nil {
		turfs = []any{}
	}
	for i, t := range turfs {
		if holdsBuffer(t) {
			return nil, terrors.Encode("pack", fmt.Errorf("turf %v: %w", i, terrors.ErrTurfBuffer))
		}
	}
	data, err := json.Marshal(turfs)
	if err != nil {
		return nil, terrors.Encode("pack", fmt.Errorf("%w: %v", terrors.ErrStringify, err))
	}
	return data, nil
}

func holdsBuffer(val any) bool {
	switch tval := val.(type) {
	case []byte:
		return true
	case []any:
		for _, item := range tval {
			if holdsBuffer(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range tval {
			if holdsBuffer(item) {
				return true
			}
		}
	}
	return false
}

// Decode reads a buffer written from Sections back into shapes and turfs.
func Decode(data []byte) ([]Shape, []any, error) {
	if len(data) < conf.HEADERSIZE {
		return nil, nil, terrors.Decode("unpack", "truncated header, expected %v bytes but got %v", conf.HEADERSIZE, len(data))
	} else if !bytes.HasPrefix(data, []byte(conf.SIGNATURE)) {
		return nil, nil, terrors.Decode("unpack", "bad signature %q", data[:len(conf.SIGNATURE)])
	}
	offset := len(conf.SIGNATURE)
	if version := data[offset]; version != conf.FORMAT {
		return nil, nil, terrors.Decode("unpack", "unsupported format version %v", version)
	}

	var order binary.ByteOrder
	switch data[offset+1] {
	case littleMark:
		order = binary.LittleEndian
	case bigMark:
		order = binary.BigEndian
	default:
		return nil, nil, terrors.Decode("unpack", "unknown byte order %q", data[offset+1])
	}
	offset += 2

	floatCount := int(order.Uint32(data[offset:]))
	turfLen := int(order.Uint32(data[offset+4:]))
	offset += 8
	if expected := conf.HEADERSIZE + floatCount*floatSize + turfLen; expected != len(data) {
		return nil, nil, terrors.Decode("unpack", "buffer length mismatch, expected %v bytes but got %v", expected, len(data))
	}

	shapes := []Shape{}
	current := Shape{}
	for i := 0; i < floatCount; i++ {
		fval := math.Float32frombits(order.Uint32(data[offset+i*floatSize:]))
		if math.IsNaN(float64(fval)) {
			shapes = append(shapes, current)
			current = Shape{}
			continue
		}
		current = append(current, float64(fval))
	}
	if len(current) > 0 {
		return nil, nil, terrors.Decode("unpack", "unterminated shape %v", len(shapes))
	}
	offset += floatCount * floatSize

	val, err := ParseJSON(data[offset:])
	if err != nil {
		return nil, nil, terrors.Decode("unpack", "invalid turf section: %v", err)
	}
	turfs, isArray := val.([]any)
	if !isArray {
		return nil, nil, terrors.Decode("unpack", "turf section is not an array")
	} else if len(turfs) != len(shapes) {
		return nil, nil, terrors.Decode("unpack", "found %v shapes but %v turfs", len(shapes), len(turfs))
	}
	return shapes, turfs, nil
}

// ParseJSON decodes a single json value. Numbers that fit an integer are
// returned as int64 and all others as float64.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var val any
	if err := dec.Decode(&val); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after json value")
	}
	return normalizeNumbers(val), nil
}

func normalizeNumbers(val any) any {
	switch tval := val.(type) {
	case json.Number:
		if ival, err := tval.Int64(); err == nil {
			return ival
		}
		fval, _ := tval.Float64()
		return fval
	case []any:
		for i, item := range tval {
			tval[i] = normalizeNumbers(item)
		}
		return tval
	case map[string]any:
		for key, item := range tval {
			tval[key] = normalizeNumbers(item)
		}
		return tval
	default:
		return val
	}
}

func orderMark(order binary.ByteOrder) byte {
	if order.Uint16([]byte{0, 1}) == 1 {
		return bigMark
	}
	return littleMark
}
