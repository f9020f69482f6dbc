package volume

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes the box and the block in every cell. Volumes that are Equal
// have the same digest regardless of how their palettes are numbered.
func (v *Volume) Digest() uint64 {
	blockHashes := make([]uint64, v.palette.Len())
	for i, b := range v.palette.blocks {
		blockHashes[i] = xxhash.Sum64String(b.String())
	}

	h := xxhash.New()
	var buf [8]byte
	for _, n := range []int{v.origin.X, v.origin.Y, v.origin.Z, v.size.Width, v.size.Height, v.size.Length} {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(n)))
		_, _ = h.Write(buf[:])
	}
	for _, c := range v.cells {
		binary.BigEndian.PutUint64(buf[:], blockHashes[c])
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
