package structure

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	gonbt "github.com/Tnze/go-mc/nbt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

var (
	stone  = volume.NewBlock("stone")
	oakLog = volume.MustParseBlock("minecraft:oak_log[axis=x]")
	wool   = volume.NewBlock("wool").WithData(14)
)

// sampleVolume fills a 5x3x4 box anchored at the origin.
func sampleVolume(t *testing.T) *volume.Volume {
	t.Helper()
	v := volume.New()
	for _, c := range []struct {
		p volume.Pos
		b volume.Block
	}{
		{volume.Pos{X: 0, Y: 0, Z: 0}, stone},
		{volume.Pos{X: 1, Y: 0, Z: 0}, oakLog},
		{volume.Pos{X: 2, Y: 1, Z: 2}, wool},
		{volume.Pos{X: 3, Y: 1, Z: 1}, stone},
		{volume.Pos{X: 4, Y: 2, Z: 3}, oakLog},
	} {
		require.NoError(t, v.Set(c.p, c.b))
	}
	return v
}

func decodeBytes(t *testing.T, root *nbt.Compound) (*volume.Volume, error) {
	t.Helper()
	data, err := nbt.Marshal("", root)
	require.NoError(t, err)
	tag, _, err := nbt.Decode(data)
	require.NoError(t, err)
	return Decode(tag.(*nbt.Compound))
}

func TestRoundTrip(t *testing.T) {
	v := sampleVolume(t)
	root, err := Encode(v)
	require.NoError(t, err)

	got, err := decodeBytes(t, root)
	require.NoError(t, err)
	assert.Equal(t, volume.Size{Width: 5, Height: 3, Length: 4}, got.Size())
	assert.True(t, v.Equal(got))
	assert.Equal(t, v.Digest(), got.Digest())
	assert.Equal(t, wool, got.Block(volume.Pos{X: 2, Y: 1, Z: 2}))
}

func TestRoundTripDropsOrigin(t *testing.T) {
	v := volume.New()
	require.NoError(t, v.Set(volume.Pos{X: -2, Y: 1}, stone))
	require.Equal(t, volume.Pos{X: -2}, v.Origin())

	root, err := Encode(v)
	require.NoError(t, err)
	got, err := decodeBytes(t, root)
	require.NoError(t, err)
	assert.Equal(t, volume.Pos{}, got.Origin())
	assert.Equal(t, v.Size(), got.Size())
	assert.Equal(t, stone, got.Block(volume.Pos{Y: 1}))

	placed := volume.New()
	require.NoError(t, placed.Merge(got, v.Origin()))
	assert.True(t, v.Equal(placed))
}

func TestRoundTripEscapedStates(t *testing.T) {
	odd := []volume.Block{
		volume.NewBlock("mod:odd name"),
		volume.NewBlock("mod:we[ird]"),
		volume.NewBlock("minecraft:sign").WithProperties(map[string]string{"text": `{"text":"a,b=c"}`}),
	}
	v := volume.New()
	for i, b := range odd {
		require.NoError(t, v.Set(volume.Pos{X: i}, b))
	}
	root, err := Encode(v)
	require.NoError(t, err)

	palette, err := root.List(tagPalette)
	require.NoError(t, err)
	name, err := palette.Items[2].(*nbt.Compound).String(tagName)
	require.NoError(t, err)
	assert.Equal(t, "mod:we[ird]", name)

	got, err := decodeBytes(t, root)
	require.NoError(t, err)
	for i, b := range odd {
		assert.Equal(t, b, got.Block(volume.Pos{X: i}))
	}
	assert.Equal(t, map[string]string{"text": `{"text":"a,b=c"}`}, got.Block(volume.Pos{X: 2}).Properties())
}

func TestRoundTripAllAir(t *testing.T) {
	v, err := volume.NewBox(volume.Pos{}, volume.Size{Width: 2, Height: 2, Length: 2})
	require.NoError(t, err)
	root, err := Encode(v)
	require.NoError(t, err)

	blocks, err := root.List(tagBlocks)
	require.NoError(t, err)
	assert.Equal(t, 0, blocks.Len())

	got, err := decodeBytes(t, root)
	require.NoError(t, err)
	assert.True(t, v.Equal(got))
}

func TestEncodeLayout(t *testing.T) {
	v := sampleVolume(t)
	root, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"DataVersion", "size", "palette", "blocks", "entities"}, root.Names())

	version, err := root.Int(tagDataVersion)
	require.NoError(t, err)
	assert.EqualValues(t, DefaultDataVersion, version)

	sizeList, err := root.List(tagSize)
	require.NoError(t, err)
	dims, err := sizeList.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 3, 4}, dims)

	palette, err := root.List(tagPalette)
	require.NoError(t, err)
	want := []volume.Block{volume.Air, stone, oakLog, wool}
	require.Equal(t, len(want), palette.Len())
	for i, b := range want {
		record := palette.Items[i].(*nbt.Compound)
		name, err := record.String(tagName)
		require.NoError(t, err)
		assert.Equal(t, b.Name, name)
	}

	logRecord := palette.Items[2].(*nbt.Compound)
	props, err := logRecord.Compound(tagProperties)
	require.NoError(t, err)
	axis, err := props.String("axis")
	require.NoError(t, err)
	assert.Equal(t, "x", axis)

	woolRecord := palette.Items[3].(*nbt.Compound)
	data, err := woolRecord.Byte(tagData)
	require.NoError(t, err)
	assert.EqualValues(t, 14, data)
	assert.False(t, palette.Items[1].(*nbt.Compound).Has(tagData))

	blocks, err := root.List(tagBlocks)
	require.NoError(t, err)
	assert.Equal(t, v.Count(), blocks.Len())

	// the first record in scan order is the stone at the origin
	first := blocks.Items[0].(*nbt.Compound)
	want0 := nbt.NewCompound()
	want0.Set(tagState, nbt.Int(1))
	want0.Set(tagPos, nbt.IntList(0, 0, 0))
	if d := cmp.Diff(want0, first, cmp.AllowUnexported(nbt.Compound{})); d != "" {
		t.Fatalf("block record mismatch (-want +got):\n%s", d)
	}
}

func TestEncodeWithoutDataVersion(t *testing.T) {
	root, err := Encode(sampleVolume(t), WithDataVersion(0))
	require.NoError(t, err)
	assert.False(t, root.Has(tagDataVersion))

	_, err = Decode(root)
	require.NoError(t, err)
}

func TestDecodeErrors(t *testing.T) {
	record := func(state int32, x, y, z int32) *nbt.Compound {
		c := nbt.NewCompound()
		c.Set(tagState, nbt.Int(state))
		c.Set(tagPos, nbt.IntList(x, y, z))
		return c
	}
	appendRecord := func(c *nbt.Compound, rec nbt.Tag) {
		blocks, err := c.List(tagBlocks)
		require.NoError(t, err)
		blocks.Items = append(blocks.Items, rec)
	}
	tests := []struct {
		name   string
		mutate func(c *nbt.Compound)
	}{
		{"state beyond palette", func(c *nbt.Compound) { appendRecord(c, record(4, 0, 0, 0)) }},
		{"negative state", func(c *nbt.Compound) { appendRecord(c, record(-1, 0, 0, 0)) }},
		{"pos outside size", func(c *nbt.Compound) { appendRecord(c, record(1, 5, 0, 0)) }},
		{"negative pos", func(c *nbt.Compound) { appendRecord(c, record(1, 0, -1, 0)) }},
		{"short pos", func(c *nbt.Compound) {
			rec := record(1, 0, 0, 0)
			rec.Set(tagPos, nbt.IntList(0, 0))
			appendRecord(c, rec)
		}},
		{"missing state", func(c *nbt.Compound) {
			rec := nbt.NewCompound()
			rec.Set(tagPos, nbt.IntList(0, 0, 0))
			appendRecord(c, rec)
		}},
		{"size of two", func(c *nbt.Compound) { c.Set(tagSize, nbt.IntList(1, 2)) }},
		{"negative size", func(c *nbt.Compound) { c.Set(tagSize, nbt.IntList(5, -3, 4)) }},
		{"size of strings", func(c *nbt.Compound) {
			l := nbt.NewList(nbt.TagString)
			require.NoError(t, l.Add(nbt.String("5"), nbt.String("3"), nbt.String("4")))
			c.Set(tagSize, l)
		}},
		{"palette record without name", func(c *nbt.Compound) {
			palette, err := c.List(tagPalette)
			require.NoError(t, err)
			require.NoError(t, palette.Add(nbt.NewCompound()))
		}},
		{"empty palette name", func(c *nbt.Compound) {
			palette, err := c.List(tagPalette)
			require.NoError(t, err)
			rec := nbt.NewCompound()
			rec.Set(tagName, nbt.String(""))
			require.NoError(t, palette.Add(rec))
		}},
		{"non-string property", func(c *nbt.Compound) {
			palette, err := c.List(tagPalette)
			require.NoError(t, err)
			props := nbt.NewCompound()
			props.Set("axis", nbt.Int(1))
			palette.Items[2].(*nbt.Compound).Set(tagProperties, props)
		}},
		{"blocks of ints", func(c *nbt.Compound) { c.Set(tagBlocks, nbt.IntList(1)) }},
		{"data version is string", func(c *nbt.Compound) { c.Set(tagDataVersion, nbt.String("3955")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Encode(sampleVolume(t))
			require.NoError(t, err)
			tt.mutate(root)

			v, err := Decode(root)
			assert.ErrorIs(t, err, nbt.ErrFormat)
			assert.Nil(t, v)
		})
	}
}

func TestDecodeMissingPalette(t *testing.T) {
	root := nbt.NewCompound()
	root.Set(tagSize, nbt.IntList(1, 1, 1))
	root.Set(tagBlocks, nbt.NewList(nbt.TagCompound))

	_, err := Decode(root)
	assert.ErrorIs(t, err, nbt.ErrFormat)
}

func TestDecodePalettesVariant(t *testing.T) {
	v := sampleVolume(t)
	root, err := Encode(v)
	require.NoError(t, err)

	palette, err := root.List(tagPalette)
	require.NoError(t, err)
	variants := nbt.NewList(nbt.TagList)
	require.NoError(t, variants.Add(palette, nbt.NewList(nbt.TagCompound)))

	multi := nbt.NewCompound()
	root.Each(func(name string, tag nbt.Tag) {
		if name == tagPalette {
			multi.Set(tagPalettes, variants)
			return
		}
		multi.Set(name, tag)
	})

	got, err := Decode(multi)
	require.NoError(t, err)
	assert.True(t, v.Equal(got))
}

func TestDecodeLimits(t *testing.T) {
	root, err := Encode(sampleVolume(t))
	require.NoError(t, err)

	_, err = Decode(root, volume.WithLimits(volume.Limits{MaxExtent: 4, MaxCells: 1000}))
	assert.ErrorIs(t, err, volume.ErrBounds)
}

func TestReadWrite(t *testing.T) {
	v := sampleVolume(t)
	for _, c := range []nbt.Compression{nbt.CompressionNone, nbt.CompressionGzip, nbt.CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, v, WithCompression(c), WithRootName("tower"), WithDataVersion(3700)))
			assert.Equal(t, c, nbt.DetectCompression(buf.Bytes()))

			f, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, "tower", f.Name)
			assert.EqualValues(t, 3700, f.DataVersion)
			assert.Equal(t, c, f.Compression)
			assert.True(t, v.Equal(f.Volume))
		})
	}
}

func TestGoMCReadsStructure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleVolume(t), WithCompression(nbt.CompressionNone)))

	var got struct {
		DataVersion int32 `nbt:"DataVersion"`
		Palette     []struct {
			Name string `nbt:"Name"`
		} `nbt:"palette"`
	}
	require.NoError(t, gonbt.Unmarshal(buf.Bytes(), &got))
	assert.EqualValues(t, DefaultDataVersion, got.DataVersion)
	require.Len(t, got.Palette, 4)
	assert.Equal(t, "minecraft:air", got.Palette[0].Name)
	assert.Equal(t, "minecraft:oak_log", got.Palette[2].Name)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.nbt")
	v := sampleVolume(t)
	require.NoError(t, Save(path, v))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", f.Name)
	assert.Equal(t, nbt.CompressionGzip, f.Compression)
	assert.True(t, v.Equal(f.Volume))
}

func TestSaveTiles(t *testing.T) {
	dir := t.TempDir()
	v := sampleVolume(t)
	tiles, err := SaveTiles(dir, "house", v, WithTileSize(2))
	require.NoError(t, err)

	// 5x3x4 in tiles of 2 is 3x2x2 tiles
	require.Len(t, tiles, 12)
	assert.Equal(t, filepath.Join(dir, "house_0_0_0.nbt"), tiles[0].Path)
	assert.Equal(t, filepath.Join(dir, "house_0_0_1.nbt"), tiles[1].Path)
	assert.Equal(t, filepath.Join(dir, "house_2_1_1.nbt"), tiles[11].Path)
	assert.Equal(t, volume.Size{Width: 1, Height: 1, Length: 2}, tiles[11].Size)
	assert.Equal(t, volume.Pos{X: 4, Y: 2, Z: 2}, tiles[11].Offset)

	merged := volume.New()
	for _, tile := range tiles {
		_, err := os.Stat(tile.Path)
		require.NoError(t, err)

		f, err := Load(tile.Path)
		require.NoError(t, err)
		assert.Equal(t, tile.Size, f.Volume.Size())
		require.NoError(t, merged.Merge(f.Volume, tile.Offset))
	}
	assert.True(t, v.Equal(merged))
}

func TestSaveTilesOffsetOrigin(t *testing.T) {
	v := volume.New()
	require.NoError(t, v.Set(volume.Pos{X: -3, Y: 0, Z: 0}, stone))

	tiles, err := SaveTiles(t.TempDir(), "neg", v)
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, volume.Pos{X: -3}, tiles[0].Offset)
	assert.Equal(t, volume.Size{Width: 3, Height: 1, Length: 1}, tiles[0].Size)

	f, err := Load(tiles[0].Path)
	require.NoError(t, err)
	assert.Equal(t, stone, f.Volume.Block(volume.Pos{}))
}

func TestSaveTilesEdgeCases(t *testing.T) {
	tiles, err := SaveTiles(t.TempDir(), "empty", volume.New())
	require.NoError(t, err)
	assert.Empty(t, tiles)

	_, err = SaveTiles(t.TempDir(), "bad", sampleVolume(t), WithTileSize(0))
	assert.Error(t, err)
}
