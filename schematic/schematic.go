// Package schematic reads and writes the legacy MCEdit/Schematica
// ".schematic" format: a gzip-compressed NBT compound holding a flat byte
// array of block ids in y, z, x order.
package schematic

const (
	DefaultRootName = "Schematic"
	materialsAlpha  = "Alpha"

	// maxStates is the number of ids addressable by Blocks plus AddBlocks.
	maxStates = 1 << 12
	// maxByteStates is the number of ids addressable by Blocks alone.
	maxByteStates = 1 << 8
)

// Tag names of the schematic root compound.
const (
	tagWidth        = "Width"
	tagHeight       = "Height"
	tagLength       = "Length"
	tagMaterials    = "Materials"
	tagBlocks       = "Blocks"
	tagAddBlocks    = "AddBlocks"
	tagData         = "Data"
	tagMapping      = "SchematicaMapping"
	tagOriginX      = "WEOriginX"
	tagOriginY      = "WEOriginY"
	tagOriginZ      = "WEOriginZ"
	tagEntities     = "Entities"
	tagTileEntities = "TileEntities"
)

// header is the fixed part of the root compound.
type header struct {
	Width     int16  `nbt:"Width"`
	Height    int16  `nbt:"Height"`
	Length    int16  `nbt:"Length"`
	Materials string `nbt:"Materials"`
	OriginX   int32  `nbt:"WEOriginX"`
	OriginY   int32  `nbt:"WEOriginY"`
	OriginZ   int32  `nbt:"WEOriginZ"`
}
