package nbt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MaxDepth bounds the nesting of lists and compounds accepted by Decode.
const MaxDepth = 512

// minPayload is the smallest encoded size of a payload of each type, used to
// reject list and array lengths that cannot fit in the remaining input.
var minPayload = [...]int{
	TagEnd:       0,
	TagByte:      1,
	TagShort:     2,
	TagInt:       4,
	TagLong:      8,
	TagFloat:     4,
	TagDouble:    8,
	TagByteArray: 4,
	TagString:    2,
	TagList:      5,
	TagCompound:  1,
	TagIntArray:  4,
	TagLongArray: 4,
}

// Decode parses a single named tag from data and returns it with its name.
// Trailing bytes after the root tag are ignored.
func Decode(data []byte) (Tag, string, error) {
	d := &decoder{buf: data}
	tagType, err := d.readType()
	if err != nil {
		return nil, "", err
	}
	if tagType == TagEnd {
		return nil, "", fmt.Errorf("%w: root tag is %s", ErrFormat, TagEnd)
	}
	name, err := d.readString()
	if err != nil {
		return nil, "", err
	}
	tag, err := d.readPayload(tagType, 0)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", describe(name), err)
	}
	return tag, name, nil
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrFormat, n, d.off, d.remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) readType() (Type, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	t := Type(b[0])
	if !t.Valid() {
		return 0, fmt.Errorf("%w: unknown tag type %d at offset %d", ErrFormat, b[0], d.off-1)
	}
	return t, nil
}

func (d *decoder) readString() (string, error) {
	b, err := d.take(2)
	if err != nil {
		return "", err
	}
	s, err := d.take(int(binary.BigEndian.Uint16(b)))
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// readLength reads a signed element count and checks that count elements of at
// least elemSize bytes each fit in the rest of the buffer.
func (d *decoder) readLength(elemSize int) (int, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	n := int32(binary.BigEndian.Uint32(b))
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d at offset %d", ErrFormat, n, d.off-4)
	}
	if int64(n)*int64(elemSize) > int64(d.remaining()) {
		return 0, fmt.Errorf("%w: length %d at offset %d exceeds remaining %d bytes", ErrFormat, n, d.off-4, d.remaining())
	}
	return int(n), nil
}

func (d *decoder) readPayload(tagType Type, depth int) (Tag, error) {
	switch tagType {
	case TagByte:
		b, err := d.take(1)
		if err != nil {
			return nil, err
		}
		return Byte(int8(b[0])), nil

	case TagShort:
		b, err := d.take(2)
		if err != nil {
			return nil, err
		}
		return Short(int16(binary.BigEndian.Uint16(b))), nil

	case TagInt:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		return Int(int32(binary.BigEndian.Uint32(b))), nil

	case TagLong:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return Long(int64(binary.BigEndian.Uint64(b))), nil

	case TagFloat:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		return Float(math.Float32frombits(binary.BigEndian.Uint32(b))), nil

	case TagDouble:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(b))), nil

	case TagByteArray:
		n, err := d.readLength(1)
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}
		return ByteArray(append([]byte(nil), b...)), nil

	case TagString:
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return String(s), nil

	case TagIntArray:
		n, err := d.readLength(4)
		if err != nil {
			return nil, err
		}
		b, err := d.take(n * 4)
		if err != nil {
			return nil, err
		}
		out := make(IntArray, n)
		for i := range out {
			out[i] = int32(binary.BigEndian.Uint32(b[i*4:]))
		}
		return out, nil

	case TagLongArray:
		n, err := d.readLength(8)
		if err != nil {
			return nil, err
		}
		b, err := d.take(n * 8)
		if err != nil {
			return nil, err
		}
		out := make(LongArray, n)
		for i := range out {
			out[i] = int64(binary.BigEndian.Uint64(b[i*8:]))
		}
		return out, nil

	case TagList:
		return d.readList(depth + 1)

	case TagCompound:
		return d.readCompound(depth + 1)

	default:
		return nil, fmt.Errorf("%w: %s has no payload", ErrFormat, tagType)
	}
}

func (d *decoder) readList(depth int) (*List, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrFormat, MaxDepth)
	}
	elem, err := d.readType()
	if err != nil {
		return nil, err
	}
	n, err := d.readLength(minPayload[elem])
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, fmt.Errorf("%w: list of %s with %d items", ErrFormat, TagEnd, n)
	}
	l := &List{Elem: elem}
	if n > 0 {
		l.Items = make([]Tag, 0, n)
	}
	for i := 0; i < n; i++ {
		item, err := d.readPayload(elem, depth)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		l.Items = append(l.Items, item)
	}
	return l, nil
}

func (d *decoder) readCompound(depth int) (*Compound, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrFormat, MaxDepth)
	}
	c := NewCompound()
	for {
		if d.remaining() == 0 {
			return nil, fmt.Errorf("%w: compound not terminated by %s", ErrFormat, TagEnd)
		}
		tagType, err := d.readType()
		if err != nil {
			return nil, err
		}
		if tagType == TagEnd {
			return c, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		if c.Has(name) {
			return nil, fmt.Errorf("%w: duplicate compound key %q", ErrFormat, name)
		}
		tag, err := d.readPayload(tagType, depth)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", describe(name), err)
		}
		c.Set(name, tag)
	}
}

func describe(name string) string {
	if name == "" {
		return "<root>"
	}
	return fmt.Sprintf("%q", name)
}
