package schematic

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

// File is a decoded schematic together with the name of its root tag. Origin
// is the WEOriginX/Y/Z position the file was saved at; the volume itself
// always starts at (0,0,0), so pass Origin to Merge to place it back.
type File struct {
	Name   string
	Origin volume.Pos
	Volume *volume.Volume
}

// Read decodes a schematic stream. Compression is detected from the stream, so
// uncompressed files are accepted too. A stream that is neither compressed
// nor starts with an NBT tag type fails with nbt.ErrDecompression.
func Read(r io.Reader, opts ...volume.Option) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if nbt.DetectCompression(raw) == nbt.CompressionNone {
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: empty schematic", nbt.ErrDecompression)
		}
		if t := nbt.Type(raw[0]); !t.Valid() || t == nbt.TagEnd {
			return nil, fmt.Errorf("%w: schematic is not gzip and starts with 0x%02x", nbt.ErrDecompression, raw[0])
		}
	}

	tag, name, _, err := nbt.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	root, ok := tag.(*nbt.Compound)
	if !ok {
		return nil, fmt.Errorf("%w: schematic root is %s", nbt.ErrFormat, tag.Type())
	}
	origin, err := ReadOrigin(root)
	if err != nil {
		return nil, err
	}
	v, err := Decode(root, opts...)
	if err != nil {
		return nil, err
	}
	return &File{Name: name, Origin: origin, Volume: v}, nil
}

// Write encodes f as a gzip-compressed schematic. The stored WEOrigin is
// f.Origin offset by the volume's own origin. An empty name is written as
// DefaultRootName.
func Write(w io.Writer, f *File) error {
	root, err := encodeAt(f.Volume, f.Origin.Add(f.Volume.Origin()))
	if err != nil {
		return err
	}
	name := f.Name
	if name == "" {
		name = DefaultRootName
	}
	return nbt.Write(w, name, root, nbt.CompressionGzip)
}

func Load(path string, opts ...volume.Option) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Read(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not read schematic %s: %w", path, err)
	}
	return f, nil
}

// Save writes v to path as a schematic, replacing any existing file.
func Save(path string, v *volume.Volume) error {
	return SaveFile(path, &File{Name: DefaultRootName, Volume: v})
}

func SaveFile(path string, f *File) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err = Write(file, f); err != nil {
		_ = file.Close()
		return fmt.Errorf("could not write schematic %s: %w", path, err)
	}
	return file.Close()
}

// MergeFile loads the schematic at path and merges its blocks into dst at the
// given offset. The stored WEOrigin is not applied; use Load and File.Origin
// for that.
func MergeFile(dst *volume.Volume, path string, at volume.Pos) error {
	f, err := Load(path, volume.WithLimits(dst.Limits()))
	if err != nil {
		return err
	}
	return dst.Merge(f.Volume, at)
}
