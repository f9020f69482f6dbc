package nbt

import (
	"bytes"
	"errors"
	"testing"

	gonbt "github.com/Tnze/go-mc/nbt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Compound {
	t.Helper()
	root := NewCompound()
	root.Set("byte", Byte(-3))
	root.Set("short", Short(1234))
	root.Set("int", Int(-70000))
	root.Set("long", Long(1<<40))
	root.Set("float", Float(1.5))
	root.Set("double", Double(-2.25))
	root.Set("bytes", ByteArray{0, 1, 2, 0xff})
	root.Set("name", String("minecraft:stone"))
	root.Set("ints", IntArray{1, -2, 3})
	root.Set("longs", LongArray{1 << 50, -1})

	nested := NewCompound()
	nested.Set("Name", String("minecraft:oak_log"))
	records := NewList(TagCompound)
	require.NoError(t, records.Add(nested, NewCompound()))
	root.Set("records", records)
	root.Set("pos", IntList(1, 2, 3))
	root.Set("empty", NewList(TagEnd))
	return root
}

func diffTrees(a, b Tag) string {
	return cmp.Diff(a, b, cmp.AllowUnexported(Compound{}))
}

func TestRoundTrip(t *testing.T) {
	root := sampleTree(t)
	data, err := Marshal("Schematic", root)
	require.NoError(t, err)

	decoded, name, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Schematic", name)
	if d := diffTrees(root, decoded); d != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", d)
	}
}

func TestCompoundKeepsInsertionOrder(t *testing.T) {
	c := NewCompound()
	c.Set("b", Int(1))
	c.Set("a", Int(2))
	c.Set("b", Int(3))
	assert.Equal(t, []string{"b", "a"}, c.Names())

	v, err := c.Int("b")
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestCompoundTypedGetters(t *testing.T) {
	c := NewCompound()
	c.Set("Width", Short(4))

	_, err := c.Int("Width")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = c.Short("Height")
	assert.ErrorIs(t, err, ErrFormat)

	n, err := c.Integer("Width")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestListRejectsMixedTypes(t *testing.T) {
	l := NewList(TagEnd)
	require.NoError(t, l.Add(Int(1)))
	assert.Equal(t, TagInt, l.Elem)
	assert.ErrorIs(t, l.Add(String("x")), ErrFormat)
}

func TestEncodeLayout(t *testing.T) {
	root := NewCompound()
	root.Set("a", Short(0x0102))
	data, err := Marshal("hi", root)
	require.NoError(t, err)

	want := []byte{
		byte(TagCompound), 0, 2, 'h', 'i',
		byte(TagShort), 0, 1, 'a', 0x01, 0x02,
		byte(TagEnd),
	}
	assert.Equal(t, want, data)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown root type", []byte{42, 0, 0}},
		{"end root", []byte{0}},
		{"unknown child type", []byte{10, 0, 0, 99, 0, 0}},
		{"unterminated compound", []byte{10, 0, 0, 1, 0, 1, 'a', 5}},
		{"negative array length", []byte{7, 0, 0, 0xff, 0xff, 0xff, 0xfe}},
		{"oversized array length", []byte{7, 0, 0, 0, 0, 0, 9, 1, 2}},
		{"oversized list length", []byte{9, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 1}},
		{"end list with items", []byte{9, 0, 0, 0, 0, 0, 0, 1}},
		{"truncated name", []byte{10, 0, 5, 'a'}},
		{"truncated int", []byte{3, 0, 0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeRejectsDeepNesting(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{byte(TagList), 0, 0})
	for i := 0; i < MaxDepth+1; i++ {
		buf.Write([]byte{byte(TagList), 0, 0, 0, 1})
	}
	buf.Write([]byte{byte(TagEnd), 0, 0, 0, 0})

	_, _, err := Decode(buf.Bytes())
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeDuplicateKey(t *testing.T) {
	data := []byte{10, 0, 0, 1, 0, 1, 'a', 1, 1, 0, 1, 'a', 2, 0}
	_, _, err := Decode(data)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestEncodeRejectsBadList(t *testing.T) {
	root := NewCompound()
	root.Set("bad", &List{Elem: TagInt, Items: []Tag{String("x")}})
	_, err := Marshal("", root)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestValueOf(t *testing.T) {
	type record struct {
		Name    string            `nbt:"Name"`
		Props   map[string]string `nbt:"Properties,omitempty"`
		Skipped int               `nbt:"-"`
		hidden  int
	}
	tag, err := ValueOf(struct {
		Width   int16    `nbt:"Width"`
		Origin  []int32  `nbt:"Origin"`
		Blocks  []byte   `nbt:"Blocks"`
		Palette []record `nbt:"palette"`
		Extra   Tag      `nbt:"Extra"`
	}{
		Width:  3,
		Origin: []int32{1, 2, 3},
		Blocks: []byte{1, 2},
		Palette: []record{
			{Name: "minecraft:stone"},
			{Name: "minecraft:oak_log", Props: map[string]string{"axis": "y", "a": "b"}},
		},
		Extra: IntList(7),
	})
	require.NoError(t, err)

	root, ok := tag.(*Compound)
	require.True(t, ok)
	assert.Equal(t, []string{"Width", "Origin", "Blocks", "palette", "Extra"}, root.Names())

	w, err := root.Short("Width")
	require.NoError(t, err)
	assert.EqualValues(t, 3, w)

	origin, ok := root.Get("Origin")
	require.True(t, ok)
	assert.Equal(t, IntArray{1, 2, 3}, origin)

	palette, err := root.List("palette")
	require.NoError(t, err)
	require.Equal(t, 2, palette.Len())
	first := palette.Items[0].(*Compound)
	assert.False(t, first.Has("Properties"))
	second := palette.Items[1].(*Compound)
	props, err := second.Compound("Properties")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "axis"}, props.Names())
}

func TestValueOfRejectsMixedSlice(t *testing.T) {
	_, err := ValueOf([]interface{}{int32(1), "x"})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestGoMCDecodesOutput(t *testing.T) {
	records := NewList(TagCompound)
	for _, name := range []string{"minecraft:stone", "minecraft:dirt"} {
		c := NewCompound()
		c.Set("Name", String(name))
		require.NoError(t, records.Add(c))
	}
	root := NewCompound()
	root.Set("Width", Short(5))
	root.Set("Materials", String("Alpha"))
	root.Set("palette", records)

	data, err := Marshal("Schematic", root)
	require.NoError(t, err)

	var got struct {
		Width     int16  `nbt:"Width"`
		Materials string `nbt:"Materials"`
		Palette   []struct {
			Name string `nbt:"Name"`
		} `nbt:"palette"`
	}
	require.NoError(t, gonbt.Unmarshal(data, &got))
	assert.EqualValues(t, 5, got.Width)
	assert.Equal(t, "Alpha", got.Materials)
	require.Len(t, got.Palette, 2)
	assert.Equal(t, "minecraft:dirt", got.Palette[1].Name)
}

func TestCompressionRoundTrip(t *testing.T) {
	root := sampleTree(t)
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZlib, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, "root", root, c))
			assert.Equal(t, c, DetectCompression(buf.Bytes()))

			tag, name, detected, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, c, detected)
			assert.Equal(t, "root", name)
			if d := diffTrees(root, tag); d != "" {
				t.Fatalf("tree mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestDecompressCorrupt(t *testing.T) {
	data, err := Marshal("root", sampleTree(t))
	require.NoError(t, err)

	for _, c := range []Compression{CompressionGzip, CompressionZlib, CompressionZstd} {
		t.Run(c.String()+" truncated", func(t *testing.T) {
			framed, err := Compress(data, c)
			require.NoError(t, err)
			_, _, err = Decompress(framed[:len(framed)/2])
			assert.ErrorIs(t, err, ErrDecompression)
		})
	}

	t.Run("gzip checksum", func(t *testing.T) {
		framed, err := Compress(data, CompressionGzip)
		require.NoError(t, err)
		framed[len(framed)-8] ^= 0xff
		_, _, err = Decompress(framed)
		assert.ErrorIs(t, err, ErrDecompression)
	})

	t.Run("gzip header only", func(t *testing.T) {
		_, _, err := Decompress([]byte{0x1f, 0x8b})
		assert.ErrorIs(t, err, ErrDecompression)
	})
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZlib, CompressionZstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("lzma")
	assert.True(t, errors.Is(err, ErrUnknownCompression))
}
