package structure

import (
	"fmt"
	"io"
	"os"

	"github.com/astei/schemgen/nbt"
	"github.com/astei/schemgen/volume"
)

// File is a decoded structure with the framing it was read from.
type File struct {
	Name        string
	DataVersion int32
	Compression nbt.Compression
	Volume      *volume.Volume
}

// Read decodes a structure stream, compressed or not.
func Read(r io.Reader, opts ...volume.Option) (*File, error) {
	tag, name, c, err := nbt.Read(r)
	if err != nil {
		return nil, err
	}
	root, ok := tag.(*nbt.Compound)
	if !ok {
		return nil, fmt.Errorf("%w: structure root is %s", nbt.ErrFormat, tag.Type())
	}
	v, err := Decode(root, opts...)
	if err != nil {
		return nil, err
	}
	f := &File{Name: name, Compression: c, Volume: v}
	if root.Has(tagDataVersion) {
		version, _ := root.Integer(tagDataVersion)
		f.DataVersion = int32(version)
	}
	return f, nil
}

// Write encodes the whole box of v as one structure.
func Write(w io.Writer, v *volume.Volume, opts ...Option) error {
	o := buildOptions(opts)
	root, err := encodeRegion(v, v.Origin(), v.Size(), o)
	if err != nil {
		return err
	}
	return nbt.Write(w, o.rootName, root, o.compression)
}

func Load(path string, opts ...volume.Option) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Read(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not read structure %s: %w", path, err)
	}
	return f, nil
}

// Save writes v to path as a single structure, replacing any existing file.
func Save(path string, v *volume.Volume, opts ...Option) error {
	o := buildOptions(opts)
	root, err := encodeRegion(v, v.Origin(), v.Size(), o)
	if err != nil {
		return err
	}
	return saveRoot(path, root, o)
}

func saveRoot(path string, root *nbt.Compound, o options) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err = nbt.Write(file, o.rootName, root, o.compression); err != nil {
		_ = file.Close()
		return fmt.Errorf("could not write structure %s: %w", path, err)
	}
	return file.Close()
}
