package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/schematic"
	"github.com/astei/schemgen/structure"
	"github.com/astei/schemgen/volume"
)

func structureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "tile",
			Usage: "edge length of the structure tiles",
			Value: structure.DefaultTileSize,
		},
		&cli.IntFlag{
			Name:  "data-version",
			Usage: "DataVersion written to structures, 0 to omit it",
			Value: structure.DefaultDataVersion,
		},
		&cli.StringFlag{
			Name:  "compression",
			Usage: "structure compression: gzip, zlib, zstd or none",
			Value: nbt.CompressionGzip.String(),
		},
	}
}

func structureOptions(c *cli.Context) ([]structure.Option, error) {
	compression, err := nbt.ParseCompression(c.String("compression"))
	if err != nil {
		return nil, err
	}
	return []structure.Option{
		structure.WithTileSize(c.Int("tile")),
		structure.WithDataVersion(int32(c.Int("data-version"))),
		structure.WithCompression(compression),
	}, nil
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "builds a volume from a YAML manifest",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "manifest to build", Required: true},
			&cli.StringFlag{Name: "schem", Usage: "write a schematic to this path"},
			&cli.StringFlag{Name: "nbt", Usage: "write structure tiles into this directory"},
			&cli.StringFlag{Name: "name", Usage: "base name of the structure tiles (default: manifest name)"},
		}, structureFlags()...),
		Action: func(c *cli.Context) error {
			if c.String("schem") == "" && c.String("nbt") == "" {
				return errors.New("nothing to write: pass --schem and/or --nbt")
			}
			m, err := LoadManifest(c.String("manifest"))
			if err != nil {
				return err
			}
			v, err := m.Build(volume.WithLimits(limits(c)))
			if err != nil {
				return err
			}
			log.Printf("Built %s with %s blocks", v.Size(), humanize.Comma(int64(v.Count())))

			if path := c.String("schem"); path != "" {
				if err := schematic.Save(path, v); err != nil {
					return err
				}
				logSaved(path, v.Size())
			}
			if dir := c.String("nbt"); dir != "" {
				name := c.String("name")
				if name == "" {
					name = m.Name
				}
				if name == "" {
					name = strings.TrimSuffix(filepath.Base(c.String("manifest")), filepath.Ext(c.String("manifest")))
				}
				return saveTiles(c, dir, name, v)
			}
			return nil
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "merges schematics or structures in order and writes structure tiles",
		ArgsUsage: "<input>...",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory", Required: true},
			&cli.StringFlag{Name: "name", Usage: "base name of the tiles", Required: true},
			&cli.StringFlag{Name: "schem", Usage: "also write the merged volume as a schematic"},
		}, structureFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("need at least one input file")
			}
			volumes, err := loadAll(c.Args().Slice(), limits(c))
			if err != nil {
				return err
			}
			v, err := mergeAll(volumes, limits(c))
			if err != nil {
				return err
			}
			log.Printf("Merged %d files into %s", len(volumes), v.Size())

			if path := c.String("schem"); path != "" {
				if err := schematic.Save(path, v); err != nil {
					return err
				}
				logSaved(path, v.Size())
			}
			return saveTiles(c, c.String("out"), c.String("name"), v)
		},
	}
}

func splitCommand() *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "writes one schematic and one structure per block type",
		ArgsUsage: "<input>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory", Required: true},
		}, structureFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("need exactly one input file")
			}
			in := c.Args().First()
			v, err := loadVolume(in, limits(c))
			if err != nil {
				return err
			}
			opts, err := structureOptions(c)
			if err != nil {
				return err
			}

			dir := c.String("out")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			for _, part := range v.Split() {
				name := base + "_" + fileSafe(part.Block)
				path := filepath.Join(dir, name+".schematic")
				if err := schematic.Save(path, part.Volume); err != nil {
					return err
				}
				logSaved(path, part.Volume.Size())

				path = filepath.Join(dir, name+".nbt")
				if err := structure.Save(path, part.Volume, opts...); err != nil {
					return err
				}
				logSaved(path, part.Volume.Size())
			}
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "prints the size, palette and digest of a schematic or structure",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("need exactly one input file")
			}
			path := c.Args().First()
			stat, err := os.Stat(path)
			if err != nil {
				return err
			}
			v, err := loadVolume(path, limits(c))
			if err != nil {
				return err
			}

			size := v.Size()
			fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(stat.Size())))
			fmt.Printf("  size:   %s at %s\n", size, v.Origin())
			fmt.Printf("  cells:  %s (%s non-air)\n", humanize.Comma(size.Cells()), humanize.Comma(int64(v.Count())))
			fmt.Printf("  digest: %016x\n", v.Digest())
			for _, bc := range v.Histogram() {
				fmt.Printf("  %8s  %s\n", humanize.Comma(int64(bc.Count)), bc.Block)
			}
			return nil
		},
	}
}

func saveTiles(c *cli.Context, dir, name string, v *volume.Volume) error {
	opts, err := structureOptions(c)
	if err != nil {
		return err
	}
	tiles, err := structure.SaveTiles(dir, name, v, opts...)
	for _, tile := range tiles {
		logSaved(tile.Path, tile.Size)
	}
	return err
}

func logSaved(path string, size volume.Size) {
	if stat, err := os.Stat(path); err == nil {
		log.Printf("Saved %s (%s, %s)", path, size, humanize.Bytes(uint64(stat.Size())))
		return
	}
	log.Printf("Saved %s (%s)", path, size)
}

// fileSafe renders a block state as a file name fragment.
func fileSafe(b volume.Block) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, b.String())
}
