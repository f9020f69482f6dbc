package volume

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const DefaultNamespace = "minecraft"

var ErrInvalidBlock = errors.New("volume: invalid block state")

// Block identifies a block type: a namespaced name, an optional legacy data
// value and optional state properties. Blocks are comparable; two blocks are
// the same type exactly when they are ==.
type Block struct {
	Name string
	// Data is the legacy metadata nibble (0-15) stored by the schematic format.
	Data uint8

	props string // canonical "k=v,k=v", keys sorted, keys and values escaped
}

// Air is the empty block. Unset cells read as Air.
var Air = Block{Name: DefaultNamespace + ":air"}

// NewBlock returns the block with the given name, adding the default namespace
// when none is present.
func NewBlock(name string) Block {
	if name != "" && !strings.Contains(name, ":") {
		name = DefaultNamespace + ":" + name
	}
	return Block{Name: name}
}

// ParseBlock parses a block state string such as "minecraft:oak_log[axis=y]".
// A backslash escapes any of `\[],=` in the name, keys or values, so every
// string State returns parses back to the same block.
func ParseBlock(s string) (Block, error) {
	open := indexUnescaped(s, '[')
	name, rest := s, ""
	if open >= 0 {
		if indexUnescaped(s, ']') != len(s)-1 {
			return Block{}, fmt.Errorf("%w: %q: unterminated properties", ErrInvalidBlock, s)
		}
		name, rest = s[:open], s[open+1:len(s)-1]
	}
	if indexUnescaped(name, ']') >= 0 || indexUnescaped(name, ',') >= 0 || indexUnescaped(name, '=') >= 0 {
		return Block{}, fmt.Errorf("%w: %q: bad name", ErrInvalidBlock, s)
	}
	name, ok := unescapeState(name)
	if !ok || name == "" {
		return Block{}, fmt.Errorf("%w: %q: bad name", ErrInvalidBlock, s)
	}
	b := NewBlock(name)
	if open < 0 || rest == "" {
		return b, nil
	}

	props := make(map[string]string)
	for _, pair := range splitUnescaped(rest, ',', -1) {
		kv := splitUnescaped(pair, '=', 2)
		if len(kv) != 2 || indexUnescaped(kv[1], '=') >= 0 {
			return Block{}, fmt.Errorf("%w: %q: bad property %q", ErrInvalidBlock, s, pair)
		}
		k, okKey := unescapeState(kv[0])
		v, okValue := unescapeState(kv[1])
		if !okKey || !okValue {
			return Block{}, fmt.Errorf("%w: %q: bad escape in %q", ErrInvalidBlock, s, pair)
		}
		if _, dup := props[k]; dup {
			return Block{}, fmt.Errorf("%w: %q: duplicate property %q", ErrInvalidBlock, s, k)
		}
		props[k] = v
	}
	return b.WithProperties(props), nil
}

// MustParseBlock is ParseBlock for literals; it panics on error.
func MustParseBlock(s string) Block {
	b, err := ParseBlock(s)
	if err != nil {
		panic(err)
	}
	return b
}

// WithProperties returns a copy of b carrying exactly props.
func (b Block) WithProperties(props map[string]string) Block {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeState(k))
		sb.WriteByte('=')
		sb.WriteString(escapeState(props[k]))
	}
	b.props = sb.String()
	return b
}

// WithData returns a copy of b with the legacy data nibble set.
func (b Block) WithData(data uint8) Block {
	b.Data = data & 0x0f
	return b
}

// HasProperties reports whether b carries state properties.
func (b Block) HasProperties() bool {
	return b.props != ""
}

// Properties returns the state properties of b, or nil when there are none.
func (b Block) Properties() map[string]string {
	if b.props == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range splitUnescaped(b.props, ',', -1) {
		kv := splitUnescaped(pair, '=', 2)
		k, _ := unescapeState(kv[0])
		v, _ := unescapeState(kv[1])
		out[k] = v
	}
	return out
}

// State renders the name and properties, e.g. "minecraft:oak_log[axis=y]".
// Special characters are escaped as ParseBlock expects. The legacy data value
// is not part of the state string.
func (b Block) State() string {
	if b.props == "" {
		return escapeState(b.Name)
	}
	return escapeState(b.Name) + "[" + b.props + "]"
}

func (b Block) String() string {
	if b.Data != 0 {
		return fmt.Sprintf("%s#%d", b.State(), b.Data)
	}
	return b.State()
}

func (b Block) IsAir() bool {
	return b.Name == "" || b.Name == Air.Name
}

// stateSpecials are the characters State escapes with a backslash.
const stateSpecials = `\[],=`

func escapeState(s string) string {
	if !strings.ContainsAny(s, stateSpecials) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(stateSpecials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// unescapeState reverses escapeState. ok is false for a dangling backslash.
func unescapeState(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			if i == len(s) {
				return "", false
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String(), true
}

// indexUnescaped returns the index of the first c in s not preceded by an
// escaping backslash, or -1.
func indexUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case c:
			return i
		}
	}
	return -1
}

// splitUnescaped splits s around unescaped seps into at most n parts (all of
// them when n < 0). The parts keep their escapes.
func splitUnescaped(s string, sep byte, n int) []string {
	var parts []string
	for n < 0 || len(parts) < n-1 {
		i := indexUnescaped(s, sep)
		if i < 0 {
			break
		}
		parts = append(parts, s[:i])
		s = s[i+1:]
	}
	return append(parts, s)
}
