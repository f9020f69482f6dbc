// Package nbt implements the Named Binary Tag format used by Minecraft save
// files. A tree is a value of the Tag sum type; every NBT type has exactly one
// Go type implementing Tag.
package nbt

import (
	"errors"
	"fmt"
)

// Type is the one byte type tag written before every named tag.
type Type byte

const (
	TagEnd Type = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var typeNames = [...]string{
	TagEnd:       "TAG_End",
	TagByte:      "TAG_Byte",
	TagShort:     "TAG_Short",
	TagInt:       "TAG_Int",
	TagLong:      "TAG_Long",
	TagFloat:     "TAG_Float",
	TagDouble:    "TAG_Double",
	TagByteArray: "TAG_Byte_Array",
	TagString:    "TAG_String",
	TagList:      "TAG_List",
	TagCompound:  "TAG_Compound",
	TagIntArray:  "TAG_Int_Array",
	TagLongArray: "TAG_Long_Array",
}

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("TAG_Unknown(%d)", byte(t))
}

// Valid reports whether t is one of the thirteen known tag types.
func (t Type) Valid() bool {
	return t <= TagLongArray
}

// ErrFormat is returned for malformed or schema-violating tag trees.
var ErrFormat = errors.New("nbt: format error")

// Tag is a node of a tag tree.
type Tag interface {
	Type() Type
	isTag()
}

type (
	End       struct{}
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []byte
	String    string
	IntArray  []int32
	LongArray []int64
)

func (End) Type() Type       { return TagEnd }
func (Byte) Type() Type      { return TagByte }
func (Short) Type() Type     { return TagShort }
func (Int) Type() Type       { return TagInt }
func (Long) Type() Type      { return TagLong }
func (Float) Type() Type     { return TagFloat }
func (Double) Type() Type    { return TagDouble }
func (ByteArray) Type() Type { return TagByteArray }
func (String) Type() Type    { return TagString }
func (IntArray) Type() Type  { return TagIntArray }
func (LongArray) Type() Type { return TagLongArray }
func (*List) Type() Type     { return TagList }
func (*Compound) Type() Type { return TagCompound }

func (End) isTag()       {}
func (Byte) isTag()      {}
func (Short) isTag()     {}
func (Int) isTag()       {}
func (Long) isTag()      {}
func (Float) isTag()     {}
func (Double) isTag()    {}
func (ByteArray) isTag() {}
func (String) isTag()    {}
func (IntArray) isTag()  {}
func (LongArray) isTag() {}
func (*List) isTag()     {}
func (*Compound) isTag() {}

// List is a homogeneous sequence of unnamed tags. Elem is the declared element
// type; an empty list may declare TagEnd.
type List struct {
	Elem  Type
	Items []Tag
}

// NewList creates an empty list of the given element type.
func NewList(elem Type) *List {
	return &List{Elem: elem}
}

// Add appends items, rejecting any whose type differs from the declared element
// type. An empty TagEnd list adopts the type of its first item.
func (l *List) Add(items ...Tag) error {
	for _, item := range items {
		if l.Elem == TagEnd && len(l.Items) == 0 {
			l.Elem = item.Type()
		}
		if item.Type() != l.Elem {
			return fmt.Errorf("%w: cannot add %s to list of %s", ErrFormat, item.Type(), l.Elem)
		}
		l.Items = append(l.Items, item)
	}
	return nil
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// IntList builds a list of TAG_Int from plain integers.
func IntList(values ...int32) *List {
	l := &List{Elem: TagInt, Items: make([]Tag, len(values))}
	for i, v := range values {
		l.Items[i] = Int(v)
	}
	return l
}

// Ints returns the payloads of a TAG_Int list.
func (l *List) Ints() ([]int32, error) {
	if len(l.Items) == 0 {
		return nil, nil
	}
	if l.Elem != TagInt {
		return nil, fmt.Errorf("%w: expected list of %s, got %s", ErrFormat, TagInt, l.Elem)
	}
	out := make([]int32, len(l.Items))
	for i, item := range l.Items {
		v, ok := item.(Int)
		if !ok {
			return nil, fmt.Errorf("%w: list item %d is %s", ErrFormat, i, item.Type())
		}
		out[i] = int32(v)
	}
	return out, nil
}
