package structure

import (
	"fmt"
	"sort"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

// maxDecodeExtent bounds each size component before the volume limits apply.
const maxDecodeExtent = 1 << 20

// Decode rebuilds a volume from a structure root compound. The volume covers
// exactly the stored size at origin (0,0,0); cells without a block record are
// air. A nil volume is returned on any error.
func Decode(root *nbt.Compound, opts ...volume.Option) (*volume.Volume, error) {
	if root.Has(tagDataVersion) {
		if _, err := root.Integer(tagDataVersion); err != nil {
			return nil, err
		}
	}

	size, err := readSize(root)
	if err != nil {
		return nil, err
	}
	palette, err := readPalette(root)
	if err != nil {
		return nil, err
	}
	records, err := root.List(tagBlocks)
	if err != nil {
		return nil, err
	}

	v, err := volume.NewBox(volume.Pos{}, size, opts...)
	if err != nil {
		return nil, err
	}
	for i, item := range records.Items {
		record, ok := item.(*nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %s", nbt.ErrFormat, tagBlocks, i, item.Type())
		}
		b, p, err := readBlock(record, palette, size)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", tagBlocks, i, err)
		}
		if err := v.Set(p, b); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func readSize(root *nbt.Compound) (volume.Size, error) {
	list, err := root.List(tagSize)
	if err != nil {
		return volume.Size{}, err
	}
	dims, err := list.Ints()
	if err != nil || len(dims) != 3 {
		return volume.Size{}, fmt.Errorf("%w: %q must hold three ints", nbt.ErrFormat, tagSize)
	}
	for _, n := range dims {
		if n < 0 || n > maxDecodeExtent {
			return volume.Size{}, fmt.Errorf("%w: %q component %d out of range", nbt.ErrFormat, tagSize, n)
		}
	}
	return volume.Size{Width: int(dims[0]), Height: int(dims[1]), Length: int(dims[2])}, nil
}

// readPalette reads "palette", or the first of the "palettes" variants that
// multi-palette structures carry instead.
func readPalette(root *nbt.Compound) ([]volume.Block, error) {
	var list *nbt.List
	var err error
	switch {
	case root.Has(tagPalette):
		list, err = root.List(tagPalette)
	case root.Has(tagPalettes):
		var variants *nbt.List
		if variants, err = root.List(tagPalettes); err != nil {
			break
		}
		if variants.Len() == 0 {
			return nil, fmt.Errorf("%w: %q is empty", nbt.ErrFormat, tagPalettes)
		}
		var ok bool
		if list, ok = variants.Items[0].(*nbt.List); !ok {
			return nil, fmt.Errorf("%w: %q holds %s", nbt.ErrFormat, tagPalettes, variants.Elem)
		}
	default:
		return nil, fmt.Errorf("%w: missing %q", nbt.ErrFormat, tagPalette)
	}
	if err != nil {
		return nil, err
	}

	blocks := make([]volume.Block, 0, list.Len())
	for i, item := range list.Items {
		record, ok := item.(*nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %s", nbt.ErrFormat, tagPalette, i, item.Type())
		}
		b, err := readPaletteRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", tagPalette, i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func readPaletteRecord(record *nbt.Compound) (volume.Block, error) {
	name, err := record.String(tagName)
	if err != nil {
		return volume.Block{}, err
	}
	if name == "" {
		return volume.Block{}, fmt.Errorf("%w: empty %q", nbt.ErrFormat, tagName)
	}
	b := volume.NewBlock(name)

	if record.Has(tagProperties) {
		c, err := record.Compound(tagProperties)
		if err != nil {
			return volume.Block{}, err
		}
		props := make(map[string]string, c.Len())
		for _, k := range c.Names() {
			value, err := c.String(k)
			if err != nil {
				return volume.Block{}, fmt.Errorf("%s: %w", tagProperties, err)
			}
			props[k] = value
		}
		b = b.WithProperties(props)
	}

	if record.Has(tagData) {
		data, err := record.Byte(tagData)
		if err != nil {
			return volume.Block{}, err
		}
		b = b.WithData(uint8(data))
	}
	return b, nil
}

func readBlock(record *nbt.Compound, palette []volume.Block, size volume.Size) (volume.Block, volume.Pos, error) {
	state, err := record.Integer(tagState)
	if err != nil {
		return volume.Block{}, volume.Pos{}, err
	}
	if state < 0 || state >= int64(len(palette)) {
		return volume.Block{}, volume.Pos{}, fmt.Errorf("%w: state %d outside palette of %d", nbt.ErrFormat, state, len(palette))
	}

	list, err := record.List(tagPos)
	if err != nil {
		return volume.Block{}, volume.Pos{}, err
	}
	pos, err := list.Ints()
	if err != nil || len(pos) != 3 {
		return volume.Block{}, volume.Pos{}, fmt.Errorf("%w: %q must hold three ints", nbt.ErrFormat, tagPos)
	}
	p := volume.Pos{X: int(pos[0]), Y: int(pos[1]), Z: int(pos[2])}
	if p.X < 0 || p.X >= size.Width || p.Y < 0 || p.Y >= size.Height || p.Z < 0 || p.Z >= size.Length {
		return volume.Block{}, volume.Pos{}, fmt.Errorf("%w: pos %s outside size %s", nbt.ErrFormat, p, size)
	}
	return palette[state], p, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
