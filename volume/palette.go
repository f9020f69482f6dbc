package volume

import (
	"errors"
	"fmt"
)

// ErrLookup is returned when a palette index was never interned.
var ErrLookup = errors.New("volume: palette lookup failed")

// Palette maps blocks to dense indices and back. Index 0 is always Air and is
// never allocated by Intern.
type Palette struct {
	blocks []Block
	index  map[Block]int
}

func NewPalette() *Palette {
	return &Palette{
		blocks: []Block{Air},
		index:  make(map[Block]int),
	}
}

// Intern returns the index of b, allocating the next unused index the first
// time b is seen. Any air block maps to 0.
func (p *Palette) Intern(b Block) int {
	if b.IsAir() {
		return 0
	}
	if i, ok := p.index[b]; ok {
		return i
	}
	i := len(p.blocks)
	p.blocks = append(p.blocks, b)
	p.index[b] = i
	return i
}

// Lookup returns the index of b without interning it.
func (p *Palette) Lookup(b Block) (int, bool) {
	if b.IsAir() {
		return 0, true
	}
	i, ok := p.index[b]
	return i, ok
}

// Resolve returns the block at index i.
func (p *Palette) Resolve(i int) (Block, error) {
	if i < 0 || i >= len(p.blocks) {
		return Block{}, fmt.Errorf("%w: index %d not in palette of %d", ErrLookup, i, len(p.blocks))
	}
	return p.blocks[i], nil
}

// Len returns the number of entries including Air.
func (p *Palette) Len() int {
	return len(p.blocks)
}

// Blocks returns the entries in index order, starting with Air.
func (p *Palette) Blocks() []Block {
	return append([]Block(nil), p.blocks...)
}
