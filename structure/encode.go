package structure

import (
	"fmt"
	"math"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

// Encode builds the structure root compound for the whole box of v. Palette
// entry 0 is always air; the other entries follow the first cell of each block
// in a y, z, x scan. Air cells get no block record.
//
// The format has no origin: positions are written relative to v.Origin() and
// Decode places the result at (0,0,0). Callers that need the original
// placement keep it themselves, as SaveTiles does with Tile.Offset.
func Encode(v *volume.Volume, opts ...Option) (*nbt.Compound, error) {
	return encodeRegion(v, v.Origin(), v.Size(), buildOptions(opts))
}

type encoder struct {
	v       *volume.Volume
	lo      volume.Pos
	size    volume.Size
	opts    options
	palette *volume.Palette
	root    *nbt.Compound
}

// encodeRegion encodes the cells of [lo, lo+size). Positions are written
// relative to lo.
func encodeRegion(v *volume.Volume, lo volume.Pos, size volume.Size, opts options) (*nbt.Compound, error) {
	e := &encoder{v: v, lo: lo, size: size, opts: opts, palette: volume.NewPalette(), root: nbt.NewCompound()}
	if err := e.encode(); err != nil {
		return nil, err
	}
	return e.root, nil
}

func (e *encoder) encode() (err error) {
	if err = e.writeHeader(); err != nil {
		return
	}
	blocks, err := e.collectBlocks()
	if err != nil {
		return
	}
	if err = e.writePalette(); err != nil {
		return
	}
	e.root.Set(tagBlocks, blocks)
	e.root.Set(tagEntities, nbt.NewList(nbt.TagCompound))
	return
}

func (e *encoder) writeHeader() error {
	for _, n := range []int{e.size.Width, e.size.Height, e.size.Length} {
		if n > math.MaxInt32 {
			return fmt.Errorf("%w: structure: dimension %d of %s exceeds %d", nbt.ErrFormat, n, e.size, math.MaxInt32)
		}
	}
	if e.opts.dataVersion != 0 {
		e.root.Set(tagDataVersion, nbt.Int(e.opts.dataVersion))
	}
	e.root.Set(tagSize, nbt.IntList(int32(e.size.Width), int32(e.size.Height), int32(e.size.Length)))
	return nil
}

func (e *encoder) collectBlocks() (*nbt.List, error) {
	blocks := nbt.NewList(nbt.TagCompound)
	for y := 0; y < e.size.Height; y++ {
		for z := 0; z < e.size.Length; z++ {
			for x := 0; x < e.size.Width; x++ {
				b := e.v.Block(e.lo.Add(volume.Pos{X: x, Y: y, Z: z}))
				if b.IsAir() {
					continue
				}
				record := nbt.NewCompound()
				record.Set(tagState, nbt.Int(e.palette.Intern(b)))
				record.Set(tagPos, nbt.IntList(int32(x), int32(y), int32(z)))
				if err := blocks.Add(record); err != nil {
					return nil, err
				}
			}
		}
	}
	return blocks, nil
}

func (e *encoder) writePalette() error {
	palette := nbt.NewList(nbt.TagCompound)
	for _, b := range e.palette.Blocks() {
		if err := palette.Add(paletteRecord(b)); err != nil {
			return err
		}
	}
	e.root.Set(tagPalette, palette)
	return nil
}

func paletteRecord(b volume.Block) *nbt.Compound {
	record := nbt.NewCompound()
	record.Set(tagName, nbt.String(b.Name))
	if b.HasProperties() {
		props := b.Properties()
		c := nbt.NewCompound()
		for _, k := range sortedKeys(props) {
			c.Set(k, nbt.String(props[k]))
		}
		record.Set(tagProperties, c)
	}
	if b.Data != 0 {
		record.Set(tagData, nbt.Byte(b.Data))
	}
	return record
}
