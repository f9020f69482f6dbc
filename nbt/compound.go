package nbt

import "fmt"

// Compound is a set of uniquely named tags. Iteration follows insertion order,
// which is also the order tags are written in.
type Compound struct {
	names []string
	tags  map[string]Tag
}

// NewCompound creates an empty compound.
func NewCompound() *Compound {
	return &Compound{tags: make(map[string]Tag)}
}

// Set stores tag under name. Replacing an existing name keeps its position.
func (c *Compound) Set(name string, tag Tag) {
	if c.tags == nil {
		c.tags = make(map[string]Tag)
	}
	if _, ok := c.tags[name]; !ok {
		c.names = append(c.names, name)
	}
	c.tags[name] = tag
}

// Get returns the tag stored under name.
func (c *Compound) Get(name string) (Tag, bool) {
	tag, ok := c.tags[name]
	return tag, ok
}

// Has reports whether name is present.
func (c *Compound) Has(name string) bool {
	_, ok := c.tags[name]
	return ok
}

// Len returns the number of children.
func (c *Compound) Len() int {
	return len(c.names)
}

// Names returns the child names in insertion order.
func (c *Compound) Names() []string {
	return append([]string(nil), c.names...)
}

// Each calls fn for every child in insertion order.
func (c *Compound) Each(fn func(name string, tag Tag)) {
	for _, name := range c.names {
		fn(name, c.tags[name])
	}
}

func (c *Compound) lookup(name string, want Type) (Tag, error) {
	tag, ok := c.tags[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrFormat, name)
	}
	if tag.Type() != want {
		return nil, fmt.Errorf("%w: %q is %s, expected %s", ErrFormat, name, tag.Type(), want)
	}
	return tag, nil
}

func (c *Compound) Byte(name string) (int8, error) {
	tag, err := c.lookup(name, TagByte)
	if err != nil {
		return 0, err
	}
	return int8(tag.(Byte)), nil
}

func (c *Compound) Short(name string) (int16, error) {
	tag, err := c.lookup(name, TagShort)
	if err != nil {
		return 0, err
	}
	return int16(tag.(Short)), nil
}

func (c *Compound) Int(name string) (int32, error) {
	tag, err := c.lookup(name, TagInt)
	if err != nil {
		return 0, err
	}
	return int32(tag.(Int)), nil
}

// Integer reads a Byte, Short, Int or Long field as an int64.
func (c *Compound) Integer(name string) (int64, error) {
	tag, ok := c.tags[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrFormat, name)
	}
	switch v := tag.(type) {
	case Byte:
		return int64(v), nil
	case Short:
		return int64(v), nil
	case Int:
		return int64(v), nil
	case Long:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: %q is %s, expected an integer", ErrFormat, name, tag.Type())
	}
}

func (c *Compound) String(name string) (string, error) {
	tag, err := c.lookup(name, TagString)
	if err != nil {
		return "", err
	}
	return string(tag.(String)), nil
}

func (c *Compound) ByteArray(name string) ([]byte, error) {
	tag, err := c.lookup(name, TagByteArray)
	if err != nil {
		return nil, err
	}
	return []byte(tag.(ByteArray)), nil
}

func (c *Compound) List(name string) (*List, error) {
	tag, err := c.lookup(name, TagList)
	if err != nil {
		return nil, err
	}
	return tag.(*List), nil
}

func (c *Compound) Compound(name string) (*Compound, error) {
	tag, err := c.lookup(name, TagCompound)
	if err != nil {
		return nil, err
	}
	return tag.(*Compound), nil
}
