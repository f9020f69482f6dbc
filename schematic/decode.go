package schematic

import (
	"fmt"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

// Decode rebuilds a volume from a schematic root compound. The volume is placed
// at origin (0,0,0); WEOriginX/Y/Z is only type-checked here and is available
// through ReadOrigin or File.Origin. The block ids are resolved through
// SchematicaMapping; files without a mapping get legacy numeric names (see
// LegacyBlock). A nil volume is returned on any error.
func Decode(root *nbt.Compound, opts ...volume.Option) (*volume.Volume, error) {
	size, err := readSize(root)
	if err != nil {
		return nil, err
	}
	n := size.Cells()

	blocks, err := root.ByteArray(tagBlocks)
	if err != nil {
		return nil, err
	}
	if int64(len(blocks)) != n {
		return nil, fmt.Errorf("%w: %q has %d bytes, expected %s = %d", nbt.ErrFormat, tagBlocks, len(blocks), size, n)
	}

	var add *nibbleArray
	if root.Has(tagAddBlocks) {
		raw, err := root.ByteArray(tagAddBlocks)
		if err != nil {
			return nil, err
		}
		if int64(len(raw)) != int64(nibbleLen(int(n))) {
			return nil, fmt.Errorf("%w: %q has %d bytes, expected %d", nbt.ErrFormat, tagAddBlocks, len(raw), nibbleLen(int(n)))
		}
		add = wrapNibbleArray(raw)
	}

	var data []byte
	if root.Has(tagData) {
		if data, err = root.ByteArray(tagData); err != nil {
			return nil, err
		}
		if int64(len(data)) != n {
			return nil, fmt.Errorf("%w: %q has %d bytes, expected %d", nbt.ErrFormat, tagData, len(data), n)
		}
	}

	if _, err := ReadOrigin(root); err != nil {
		return nil, err
	}

	table, err := readMapping(root)
	if err != nil {
		return nil, err
	}

	v, err := volume.NewBox(volume.Pos{}, size, opts...)
	if err != nil {
		return nil, err
	}
	i := 0
	for y := 0; y < size.Height; y++ {
		for z := 0; z < size.Length; z++ {
			for x := 0; x < size.Width; x++ {
				id := int(blocks[i])
				if add != nil {
					id |= int(add.Get(i)) << 8
				}
				b, err := table.resolve(id)
				if err != nil {
					return nil, fmt.Errorf("block at (%d,%d,%d): %w", x, y, z, err)
				}
				if data != nil && !b.IsAir() {
					b = b.WithData(data[i])
				}
				if err := v.Set(volume.Pos{X: x, Y: y, Z: z}, b); err != nil {
					return nil, err
				}
				i++
			}
		}
	}
	return v, nil
}

func readSize(root *nbt.Compound) (volume.Size, error) {
	var dims [3]int
	for i, name := range []string{tagWidth, tagHeight, tagLength} {
		n, err := root.Integer(name)
		if err != nil {
			return volume.Size{}, err
		}
		if n < 0 {
			return volume.Size{}, fmt.Errorf("%w: %q is negative (%d)", nbt.ErrFormat, name, n)
		}
		if n > maxDecodeExtent {
			return volume.Size{}, fmt.Errorf("%w: %q is too large (%d)", nbt.ErrFormat, name, n)
		}
		dims[i] = int(n)
	}
	return volume.Size{Width: dims[0], Height: dims[1], Length: dims[2]}, nil
}

// ReadOrigin returns the WEOriginX/Y/Z position stored in a schematic root.
// Missing components are zero.
func ReadOrigin(root *nbt.Compound) (volume.Pos, error) {
	var coords [3]int
	for i, name := range []string{tagOriginX, tagOriginY, tagOriginZ} {
		if !root.Has(name) {
			continue
		}
		n, err := root.Integer(name)
		if err != nil {
			return volume.Pos{}, err
		}
		coords[i] = int(n)
	}
	return volume.Pos{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// maxDecodeExtent keeps Width*Height*Length well inside int64 for hostile
// Int-typed dimensions; the volume's own Limits are applied afterwards.
const maxDecodeExtent = 1 << 20

// idTable resolves schematic block ids. An id is air unless the mapping names
// it otherwise.
type idTable struct {
	blocks map[int]volume.Block
	legacy bool
}

func (t idTable) resolve(id int) (volume.Block, error) {
	if t.legacy {
		return LegacyBlock(id), nil
	}
	if b, ok := t.blocks[id]; ok {
		return b, nil
	}
	if id == 0 {
		return volume.Air, nil
	}
	return volume.Block{}, fmt.Errorf("%w: block id %d has no %s entry", volume.ErrLookup, id, tagMapping)
}

func readMapping(root *nbt.Compound) (idTable, error) {
	if !root.Has(tagMapping) {
		return idTable{legacy: true}, nil
	}
	mapping, err := root.Compound(tagMapping)
	if err != nil {
		return idTable{}, err
	}

	table := idTable{blocks: make(map[int]volume.Block, mapping.Len())}
	for _, state := range mapping.Names() {
		id, err := mapping.Integer(state)
		if err != nil {
			return idTable{}, fmt.Errorf("%s: %w", tagMapping, err)
		}
		if id < 0 || id >= maxStates {
			return idTable{}, fmt.Errorf("%w: %s: id %d of %q out of range", nbt.ErrFormat, tagMapping, id, state)
		}
		b, err := volume.ParseBlock(state)
		if err != nil {
			return idTable{}, fmt.Errorf("%w: %s: %v", nbt.ErrFormat, tagMapping, err)
		}
		if prev, dup := table.blocks[int(id)]; dup {
			return idTable{}, fmt.Errorf("%w: %s: id %d used by %q and %q", nbt.ErrFormat, tagMapping, id, prev.State(), state)
		}
		table.blocks[int(id)] = b
	}
	return table, nil
}

// LegacyBlock names a numeric id from a schematic without a block mapping.
// Id 0 is air.
func LegacyBlock(id int) volume.Block {
	if id == 0 {
		return volume.Air
	}
	return volume.NewBlock(fmt.Sprintf("legacy:%d", id))
}
