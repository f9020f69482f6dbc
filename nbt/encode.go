package nbt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
)

const maxStringLength = math.MaxUint16

// Marshal serializes root as a named tag and returns the bytes.
func Marshal(name string, root Tag) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(name, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes root as a single named tag. Writes are buffered and flushed
// before Encode returns.
func (e *Encoder) Encode(name string, root Tag) error {
	if root == nil || root.Type() == TagEnd {
		return fmt.Errorf("%w: root tag must not be %s", ErrFormat, TagEnd)
	}
	bw := bufio.NewWriter(e.w)
	enc := &Encoder{w: bw}
	if err := enc.writeTag(root.Type(), name); err != nil {
		return err
	}
	if err := enc.writePayload(root, name); err != nil {
		return err
	}
	return bw.Flush()
}

func (e *Encoder) writePayload(tag Tag, tagName string) error {
	switch v := tag.(type) {
	case End:
		return nil

	case Byte:
		_, err := e.w.Write([]byte{byte(v)})
		return err

	case Short:
		return e.writeInt16(int16(v))

	case Int:
		return e.writeInt32(int32(v))

	case Long:
		return e.writeInt64(int64(v))

	case Float:
		return e.writeInt32(int32(math.Float32bits(float32(v))))

	case Double:
		return e.writeInt64(int64(math.Float64bits(float64(v))))

	case ByteArray:
		if err := e.writeLength(len(v), tagName); err != nil {
			return err
		}
		_, err := e.w.Write(v)
		return err

	case String:
		return e.writeString(string(v))

	case IntArray:
		if err := e.writeLength(len(v), tagName); err != nil {
			return err
		}
		for _, n := range v {
			if err := e.writeInt32(n); err != nil {
				return err
			}
		}
		return nil

	case LongArray:
		if err := e.writeLength(len(v), tagName); err != nil {
			return err
		}
		for _, n := range v {
			if err := e.writeInt64(n); err != nil {
				return err
			}
		}
		return nil

	case *List:
		return e.writeList(v, tagName)

	case *Compound:
		for _, name := range v.names {
			child := v.tags[name]
			if child == nil || child.Type() == TagEnd {
				return fmt.Errorf("%w: compound child %q is %s", ErrFormat, name, TagEnd)
			}
			if err := e.writeTag(child.Type(), name); err != nil {
				return err
			}
			if err := e.writePayload(child, name); err != nil {
				return err
			}
		}
		_, err := e.w.Write([]byte{byte(TagEnd)})
		return err

	default:
		return fmt.Errorf("%w: unknown tag %T whilst serializing %s", ErrFormat, tag, tagName)
	}
}

func (e *Encoder) writeList(l *List, tagName string) error {
	elem := l.Elem
	if len(l.Items) > 0 && elem == TagEnd {
		return fmt.Errorf("%w: list %q declares %s but has items", ErrFormat, tagName, TagEnd)
	}
	if _, err := e.w.Write([]byte{byte(elem)}); err != nil {
		return err
	}
	if err := e.writeLength(len(l.Items), tagName); err != nil {
		return err
	}
	for i, item := range l.Items {
		if item == nil || item.Type() != elem {
			return fmt.Errorf("%w: list %q item %d is not %s", ErrFormat, tagName, i, elem)
		}
		if err := e.writePayload(item, tagName); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeTag(tagType Type, tagName string) error {
	if _, err := e.w.Write([]byte{byte(tagType)}); err != nil {
		return err
	}
	return e.writeString(tagName)
}

func (e *Encoder) writeString(s string) error {
	if len(s) > maxStringLength {
		return fmt.Errorf("%w: string of %d bytes exceeds %d", ErrFormat, len(s), maxStringLength)
	}
	if err := e.writeInt16(int16(uint16(len(s)))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) writeLength(n int, tagName string) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("%w: %q has %d elements", ErrFormat, tagName, n)
	}
	return e.writeInt32(int32(n))
}

func (e *Encoder) writeInt16(n int16) error {
	_, err := e.w.Write([]byte{byte(n >> 8), byte(n)})
	return err
}

func (e *Encoder) writeInt32(n int32) error {
	_, err := e.w.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	return err
}

func (e *Encoder) writeInt64(n int64) error {
	_, err := e.w.Write([]byte{
		byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	return err
}
