// Package structure reads and writes the structure block ".nbt" format: a
// size triple, a palette of block state records and one sparse record per
// non-air cell.
package structure

import "github.com/astei/schemgen/nbt"

const (
	// DefaultDataVersion is the data version of Minecraft 1.21.1.
	DefaultDataVersion = 3955
	// DefaultTileSize is the largest region a structure block can load.
	DefaultTileSize = 48
)

const (
	tagDataVersion = "DataVersion"
	tagSize        = "size"
	tagPalette     = "palette"
	tagPalettes    = "palettes"
	tagBlocks      = "blocks"
	tagEntities    = "entities"

	tagName       = "Name"
	tagProperties = "Properties"
	tagData       = "Data"
	tagState      = "state"
	tagPos        = "pos"
)

type options struct {
	dataVersion int32
	tileSize    int
	compression nbt.Compression
	rootName    string
}

func defaultOptions() options {
	return options{
		dataVersion: DefaultDataVersion,
		tileSize:    DefaultTileSize,
		compression: nbt.CompressionGzip,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures how structures are written.
type Option func(*options)

// WithDataVersion sets the DataVersion tag. Zero omits the tag.
func WithDataVersion(version int32) Option {
	return func(o *options) {
		o.dataVersion = version
	}
}

// WithTileSize sets the edge length of the tiles written by SaveTiles.
func WithTileSize(size int) Option {
	return func(o *options) {
		o.tileSize = size
	}
}

func WithCompression(c nbt.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithRootName sets the name of the root tag. Game-written files use "".
func WithRootName(name string) Option {
	return func(o *options) {
		o.rootName = name
	}
}
