// Package volume holds a dense 3D grid of Minecraft blocks.
//
// A Volume covers the box [Origin, Origin+Size) in world coordinates. Cells are
// stored y outermost, then z, then x, the same order the schematic format uses
// on disk. Writing outside the box grows it; existing cells are re-based into
// the new allocation and the box never shrinks. A fresh volume is anchored at
// (0,0,0), so the box always reaches back to the world origin unless a write
// went below it.
package volume

import (
	"errors"
	"fmt"
)

// ErrBounds is returned when a write would grow a volume past its Limits.
var ErrBounds = errors.New("volume: bounds exceed limit")

// maxCoord keeps coordinate arithmetic far away from integer overflow.
const maxCoord = 1 << 30

type Pos struct {
	X, Y, Z int
}

func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Pos) Sub(o Pos) Pos {
	return Pos{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

type Size struct {
	Width, Height, Length int
}

// Cells returns Width*Height*Length.
func (s Size) Cells() int64 {
	return int64(s.Width) * int64(s.Height) * int64(s.Length)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Length)
}

// Limits caps how large a volume may grow.
type Limits struct {
	// MaxExtent bounds each of width, height and length.
	MaxExtent int
	// MaxCells bounds width*height*length.
	MaxCells int64
}

// DefaultLimits allows the largest box a legacy schematic can describe along
// each axis, up to 128Mi cells in total.
var DefaultLimits = Limits{
	MaxExtent: 32767,
	MaxCells:  1 << 27,
}

func (l Limits) check(size Size) error {
	for _, n := range []int{size.Width, size.Height, size.Length} {
		if n < 0 || n > l.MaxExtent {
			return fmt.Errorf("%w: size %s exceeds extent %d", ErrBounds, size, l.MaxExtent)
		}
	}
	if size.Cells() > l.MaxCells {
		return fmt.Errorf("%w: size %s exceeds %d cells", ErrBounds, size, l.MaxCells)
	}
	return nil
}

type Option func(*Volume)

func WithLimits(limits Limits) Option {
	return func(v *Volume) {
		v.limits = limits
	}
}

// Volume is a dense grid of blocks. It is not safe for concurrent use.
type Volume struct {
	origin  Pos
	size    Size
	cells   []uint32
	palette *Palette
	limits  Limits
}

// New creates an empty volume anchored at the world origin.
func New(opts ...Option) *Volume {
	v := &Volume{palette: NewPalette(), limits: DefaultLimits}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewBox creates an all-air volume covering exactly [origin, origin+size).
func NewBox(origin Pos, size Size, opts ...Option) (*Volume, error) {
	v := New(opts...)
	if err := v.limits.check(size); err != nil {
		return nil, err
	}
	if err := checkCoord(origin); err != nil {
		return nil, err
	}
	v.origin = origin
	v.size = size
	v.cells = make([]uint32, size.Cells())
	return v, nil
}

func (v *Volume) Origin() Pos {
	return v.origin
}

func (v *Volume) Size() Size {
	return v.size
}

func (v *Volume) Limits() Limits {
	return v.limits
}

// Contains reports whether p lies inside the box.
func (v *Volume) Contains(p Pos) bool {
	l := p.Sub(v.origin)
	return l.X >= 0 && l.X < v.size.Width &&
		l.Y >= 0 && l.Y < v.size.Height &&
		l.Z >= 0 && l.Z < v.size.Length
}

// index returns the cell index of the box-relative position l.
func (v *Volume) index(l Pos) int {
	return (l.Y*v.size.Length+l.Z)*v.size.Width + l.X
}

// local returns the box-relative position of cell i.
func (v *Volume) local(i int) Pos {
	x := i % v.size.Width
	rest := i / v.size.Width
	return Pos{X: x, Y: rest / v.size.Length, Z: rest % v.size.Length}
}

// Block returns the block at world position p. Positions outside the box are air.
func (v *Volume) Block(p Pos) Block {
	if !v.Contains(p) {
		return Air
	}
	return v.palette.blocks[v.cells[v.index(p.Sub(v.origin))]]
}

// Set writes b at world position p, growing the box when b is not air. Writing
// air outside the box is a no-op.
func (v *Volume) Set(p Pos, b Block) error {
	if !v.Contains(p) {
		if b.IsAir() {
			return nil
		}
		if err := v.grow(p, p.Add(Pos{1, 1, 1})); err != nil {
			return err
		}
	}
	v.cells[v.index(p.Sub(v.origin))] = uint32(v.palette.Intern(b))
	return nil
}

func checkCoord(p Pos) error {
	for _, n := range []int{p.X, p.Y, p.Z} {
		if n <= -maxCoord || n >= maxCoord {
			return fmt.Errorf("%w: coordinate %s out of range", ErrBounds, p)
		}
	}
	return nil
}

// grow extends the box to also cover [lo, hi). On error the volume is unchanged.
func (v *Volume) grow(lo, hi Pos) error {
	if err := checkCoord(lo); err != nil {
		return err
	}
	if err := checkCoord(hi); err != nil {
		return err
	}
	end := v.origin.Add(Pos{v.size.Width, v.size.Height, v.size.Length})
	newOrigin := Pos{min(v.origin.X, lo.X), min(v.origin.Y, lo.Y), min(v.origin.Z, lo.Z)}
	newEnd := Pos{max(end.X, hi.X), max(end.Y, hi.Y), max(end.Z, hi.Z)}
	newSize := Size{
		Width:  newEnd.X - newOrigin.X,
		Height: newEnd.Y - newOrigin.Y,
		Length: newEnd.Z - newOrigin.Z,
	}
	if newOrigin == v.origin && newSize == v.size {
		return nil
	}
	if err := v.limits.check(newSize); err != nil {
		return err
	}

	grown := &Volume{origin: newOrigin, size: newSize, cells: make([]uint32, newSize.Cells())}
	shift := v.origin.Sub(newOrigin)
	for y := 0; y < v.size.Height; y++ {
		for z := 0; z < v.size.Length; z++ {
			src := v.index(Pos{0, y, z})
			dst := grown.index(Pos{shift.X, y + shift.Y, z + shift.Z})
			copy(grown.cells[dst:dst+v.size.Width], v.cells[src:src+v.size.Width])
		}
	}
	v.origin, v.size, v.cells = newOrigin, newSize, grown.cells
	return nil
}

// Each calls fn for every non-air cell in y, z, x order.
func (v *Volume) Each(fn func(p Pos, b Block)) {
	for i, c := range v.cells {
		if c != 0 {
			fn(v.local(i).Add(v.origin), v.palette.blocks[c])
		}
	}
}

// Count returns the number of non-air cells.
func (v *Volume) Count() int {
	n := 0
	for _, c := range v.cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// Extent returns the smallest box holding every non-air cell. ok is false when
// the volume holds only air.
func (v *Volume) Extent() (lo, hi Pos, ok bool) {
	v.Each(func(p Pos, _ Block) {
		if !ok {
			lo, hi, ok = p, p.Add(Pos{1, 1, 1}), true
			return
		}
		lo = Pos{min(lo.X, p.X), min(lo.Y, p.Y), min(lo.Z, p.Z)}
		hi = Pos{max(hi.X, p.X+1), max(hi.Y, p.Y+1), max(hi.Z, p.Z+1)}
	})
	return lo, hi, ok
}

// BlockCount is the number of cells holding one block type.
type BlockCount struct {
	Block Block
	Count int
}

// Histogram counts non-air cells per block in first-seen scan order.
func (v *Volume) Histogram() []BlockCount {
	slot := make(map[uint32]int)
	var out []BlockCount
	for _, c := range v.cells {
		if c == 0 {
			continue
		}
		i, ok := slot[c]
		if !ok {
			i = len(out)
			slot[c] = i
			out = append(out, BlockCount{Block: v.palette.blocks[c]})
		}
		out[i].Count++
	}
	return out
}

// Clone returns a deep copy of v.
func (v *Volume) Clone() *Volume {
	c := &Volume{
		origin:  v.origin,
		size:    v.size,
		cells:   append([]uint32(nil), v.cells...),
		palette: NewPalette(),
		limits:  v.limits,
	}
	c.palette.blocks = append(c.palette.blocks[:0], v.palette.blocks...)
	for b, i := range v.palette.index {
		c.palette.index[b] = i
	}
	return c
}

// Equal reports whether both volumes cover the same box with the same block in
// every cell. Palette numbering does not matter.
func (v *Volume) Equal(o *Volume) bool {
	if v.origin != o.origin || v.size != o.size {
		return false
	}
	for i, c := range v.cells {
		if v.palette.blocks[c] != o.palette.blocks[o.cells[i]] {
			return false
		}
	}
	return true
}
