package volume

import (
	"fmt"

	"github.com/willf/bitset"
)

// Layer is a 2D slice of integer labels, for example one decoded image of a
// stack. X runs along the width and Z along the length.
type Layer interface {
	Width() int
	Length() int
	Label(x, z int) int
}

// LabelFunc maps a layer label to the block written for it. Returning air
// clears the cell.
type LabelFunc func(label int) Block

// Legend is a LabelFunc backed by a map; labels without an entry are air.
type Legend map[int]Block

func (l Legend) Block(label int) Block {
	if b, ok := l[label]; ok {
		return b
	}
	return Air
}

// Fill maps every non-zero label to b.
func Fill(b Block) LabelFunc {
	return func(label int) Block {
		if label == 0 {
			return Air
		}
		return b
	}
}

// Labels is a slice-backed Layer.
type Labels struct {
	width, length int
	data          []int
}

func NewLabels(width, length int) *Labels {
	return &Labels{width: width, length: length, data: make([]int, width*length)}
}

// LabelsFromRows builds a layer from rows indexed [z][x]. Short rows are
// padded with label 0.
func LabelsFromRows(rows [][]int) *Labels {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	g := NewLabels(width, len(rows))
	for z, row := range rows {
		for x, label := range row {
			g.Set(x, z, label)
		}
	}
	return g
}

func (g *Labels) Width() int  { return g.width }
func (g *Labels) Length() int { return g.length }

func (g *Labels) Label(x, z int) int {
	return g.data[z*g.width+x]
}

func (g *Labels) Set(x, z, label int) {
	g.data[z*g.width+x] = label
}

// Mask is a boolean Layer; set cells have label 1.
type Mask struct {
	width, length int
	bits          *bitset.BitSet
}

func NewMask(width, length int) *Mask {
	return &Mask{width: width, length: length, bits: bitset.New(uint(width * length))}
}

// Threshold builds a mask of the cells of layer whose label equals value.
func Threshold(layer Layer, value int) *Mask {
	m := NewMask(layer.Width(), layer.Length())
	for z := 0; z < layer.Length(); z++ {
		for x := 0; x < layer.Width(); x++ {
			if layer.Label(x, z) == value {
				m.Set(x, z, true)
			}
		}
	}
	return m
}

func (m *Mask) Width() int  { return m.width }
func (m *Mask) Length() int { return m.length }

func (m *Mask) Label(x, z int) int {
	if m.Test(x, z) {
		return 1
	}
	return 0
}

func (m *Mask) Set(x, z int, on bool) {
	i := uint(z*m.width + x)
	if on {
		m.bits.Set(i)
	} else {
		m.bits.Clear(i)
	}
}

func (m *Mask) Test(x, z int) bool {
	return m.bits.Test(uint(z*m.width + x))
}

// Count returns the number of set cells.
func (m *Mask) Count() int {
	return int(m.bits.Count())
}

// AddLayer writes layer at height y: cell (x, z) of the layer goes to world
// position (x, y, z). Each label is resolved through labels; air results clear
// the cell. The box grows once to cover every non-air result.
func (v *Volume) AddLayer(layer Layer, y int, labels LabelFunc) error {
	width, length := layer.Width(), layer.Length()
	if width < 0 || length < 0 {
		return fmt.Errorf("volume: layer has negative size %dx%d", width, length)
	}

	resolved := make([]Block, width*length)
	lo, hi := Pos{X: width, Y: y, Z: length}, Pos{Y: y + 1}
	found := false
	for z := 0; z < length; z++ {
		for x := 0; x < width; x++ {
			b := labels(layer.Label(x, z))
			resolved[z*width+x] = b
			if !b.IsAir() {
				found = true
				lo.X, lo.Z = min(lo.X, x), min(lo.Z, z)
				hi.X, hi.Z = max(hi.X, x+1), max(hi.Z, z+1)
			}
		}
	}
	if found {
		if err := v.grow(lo, hi); err != nil {
			return fmt.Errorf("layer at y=%d: %w", y, err)
		}
	}

	for z := 0; z < length; z++ {
		for x := 0; x < width; x++ {
			p := Pos{X: x, Y: y, Z: z}
			if !v.Contains(p) {
				continue
			}
			v.cells[v.index(p.Sub(v.origin))] = uint32(v.palette.Intern(resolved[z*width+x]))
		}
	}
	return nil
}

// AddStack adds consecutive layers starting at height baseY, one per layer.
func (v *Volume) AddStack(layers []Layer, baseY int, labels LabelFunc) error {
	for i, layer := range layers {
		if err := v.AddLayer(layer, baseY+i, labels); err != nil {
			return err
		}
	}
	return nil
}
