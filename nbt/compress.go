package nbt

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// ErrDecompression is returned when a compressed stream is corrupt or truncated.
var ErrDecompression = errors.New("nbt: decompression error")

var ErrUnknownCompression = errors.New("nbt: unknown compression")

// Compression identifies how a serialized tree is framed on disk.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZlib
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

// ParseCompression maps a name as printed by Compression.String back to its value.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zlib":
		return CompressionZlib, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// DetectCompression guesses the framing of data from its leading bytes. An
// uncompressed tree starts with a type byte, which never collides with the
// gzip, zlib or zstd magic.
func DetectCompression(data []byte) Compression {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return CompressionGzip
	case len(data) >= 2 && data[0] == 0x78 && (uint16(data[0])<<8|uint16(data[1]))%31 == 0:
		return CompressionZlib
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Compress frames data with the given compression.
func Compress(data []byte, c Compression) ([]byte, error) {
	var out bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		w = gzip.NewWriter(&out)
	case CompressionZlib:
		w = zlib.NewWriter(&out)
	case CompressionZstd:
		zw, err := zstd.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		w = zw
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decompress detects the framing of data and removes it.
func Decompress(data []byte) ([]byte, Compression, error) {
	c := DetectCompression(data)
	var stream io.Reader
	switch c {
	case CompressionNone:
		return data, c, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, fmt.Errorf("%w: gzip: %v", ErrDecompression, err)
		}
		defer r.Close()
		stream = r
	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, fmt.Errorf("%w: zlib: %v", ErrDecompression, err)
		}
		defer r.Close()
		stream = r
	case CompressionZstd:
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, fmt.Errorf("%w: zstd: %v", ErrDecompression, err)
		}
		defer r.Close()
		stream = r
	}

	out, err := io.ReadAll(stream)
	if err != nil {
		return nil, c, fmt.Errorf("%w: %s: %v", ErrDecompression, c, err)
	}
	return out, c, nil
}

// Read reads a whole tree from r, removing any compression framing.
func Read(r io.Reader) (Tag, string, Compression, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, "", CompressionNone, err
	}
	data, c, err := Decompress(raw)
	if err != nil {
		return nil, "", c, err
	}
	tag, name, err := Decode(data)
	return tag, name, c, err
}

// Write serializes root under name and writes it to w with the given framing.
func Write(w io.Writer, name string, root Tag, c Compression) error {
	data, err := Marshal(name, root)
	if err != nil {
		return err
	}
	if data, err = Compress(data, c); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
