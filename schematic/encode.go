package schematic

import (
	"fmt"
	"math"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

// Encode builds the schematic root compound for v. Block ids are assigned by a
// palette private to this call, with air at 0; AddBlocks is only written when
// more than 256 ids are needed. The volume's origin is stored as
// WEOriginX/Y/Z.
func Encode(v *volume.Volume) (*nbt.Compound, error) {
	return encodeAt(v, v.Origin())
}

func encodeAt(v *volume.Volume, origin volume.Pos) (*nbt.Compound, error) {
	e := &encoder{v: v, origin: origin, palette: volume.NewPalette(), root: nbt.NewCompound()}
	if err := e.encode(); err != nil {
		return nil, err
	}
	return e.root, nil
}

type encoder struct {
	v       *volume.Volume
	origin  volume.Pos
	palette *volume.Palette
	root    *nbt.Compound
}

func (e *encoder) encode() (err error) {
	if err = e.writeHeader(); err != nil {
		return
	}
	if err = e.writeBlocks(); err != nil {
		return
	}
	e.writeMapping()
	e.writeEntities()
	return
}

func (e *encoder) writeHeader() error {
	size, origin := e.v.Size(), e.origin
	for _, n := range []int{size.Width, size.Height, size.Length} {
		if n > math.MaxInt16 {
			return fmt.Errorf("%w: schematic: dimension %d of %s exceeds %d", nbt.ErrFormat, n, size, math.MaxInt16)
		}
	}
	for _, n := range []int{origin.X, origin.Y, origin.Z} {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("%w: schematic: origin %s does not fit WEOrigin", nbt.ErrFormat, origin)
		}
	}

	tag, err := nbt.ValueOf(header{
		Width:     int16(size.Width),
		Height:    int16(size.Height),
		Length:    int16(size.Length),
		Materials: materialsAlpha,
		OriginX:   int32(origin.X),
		OriginY:   int32(origin.Y),
		OriginZ:   int32(origin.Z),
	})
	if err != nil {
		return err
	}
	tag.(*nbt.Compound).Each(e.root.Set)
	return nil
}

func (e *encoder) writeBlocks() error {
	size, origin := e.v.Size(), e.v.Origin()
	n := int(size.Cells())
	blocks := make([]byte, n)
	data := make([]byte, n)
	ids := make([]int, n)

	i := 0
	for y := 0; y < size.Height; y++ {
		for z := 0; z < size.Length; z++ {
			for x := 0; x < size.Width; x++ {
				b := e.v.Block(origin.Add(volume.Pos{X: x, Y: y, Z: z}))
				if !b.IsAir() {
					ids[i] = e.palette.Intern(b.WithData(0))
					data[i] = b.Data
				}
				i++
			}
		}
	}

	if e.palette.Len() > maxStates {
		return fmt.Errorf("%w: schematic: %d block states exceed the %d addressable ids", nbt.ErrFormat, e.palette.Len(), maxStates)
	}
	for i, id := range ids {
		blocks[i] = byte(id)
	}
	e.root.Set(tagBlocks, nbt.ByteArray(blocks))
	if e.palette.Len() > maxByteStates {
		e.root.Set(tagAddBlocks, nbt.ByteArray(packAddBlocks(ids)))
	}
	e.root.Set(tagData, nbt.ByteArray(data))
	return nil
}

// packAddBlocks stores bits 8-11 of every id as a nibble.
func packAddBlocks(ids []int) []byte {
	add := newNibbleArray(len(ids))
	for i, id := range ids {
		add.Set(i, byte(id>>8))
	}
	return add.Bytes()
}

func (e *encoder) writeMapping() {
	mapping := nbt.NewCompound()
	for id, b := range e.palette.Blocks() {
		mapping.Set(b.State(), nbt.Short(id))
	}
	e.root.Set(tagMapping, mapping)
}

func (e *encoder) writeEntities() {
	e.root.Set(tagEntities, nbt.NewList(nbt.TagCompound))
	e.root.Set(tagTileEntities, nbt.NewList(nbt.TagCompound))
}
