package structure

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/astei/schemgen/volume"
)

// Tile is one file written by SaveTiles.
type Tile struct {
	Path string
	// Offset is the world position of the tile's minimum corner.
	Offset volume.Pos
	Size   volume.Size
}

// SaveTiles cuts the box of v into cubes of the configured tile size and writes
// each as "<base>_<ix>_<iy>_<iz>.nbt" in dir. Tiles on the far edges are
// truncated to the box. An empty box writes nothing.
func SaveTiles(dir, base string, v *volume.Volume, opts ...Option) ([]Tile, error) {
	o := buildOptions(opts)
	if o.tileSize <= 0 {
		return nil, fmt.Errorf("structure: tile size must be positive, got %d", o.tileSize)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	size, origin := v.Size(), v.Origin()
	nx, ny, nz := tileCount(size.Width, o.tileSize), tileCount(size.Height, o.tileSize), tileCount(size.Length, o.tileSize)

	var tiles []Tile
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			for iz := 0; iz < nz; iz++ {
				lo := volume.Pos{X: ix * o.tileSize, Y: iy * o.tileSize, Z: iz * o.tileSize}
				tile := Tile{
					Path:   filepath.Join(dir, fmt.Sprintf("%s_%d_%d_%d.nbt", base, ix, iy, iz)),
					Offset: origin.Add(lo),
					Size: volume.Size{
						Width:  min(o.tileSize, size.Width-lo.X),
						Height: min(o.tileSize, size.Height-lo.Y),
						Length: min(o.tileSize, size.Length-lo.Z),
					},
				}
				root, err := encodeRegion(v, tile.Offset, tile.Size, o)
				if err != nil {
					return tiles, err
				}
				if err := saveRoot(tile.Path, root, o); err != nil {
					return tiles, err
				}
				tiles = append(tiles, tile)
			}
		}
	}
	return tiles, nil
}

func tileCount(extent, tileSize int) int {
	return (extent + tileSize - 1) / tileSize
}
