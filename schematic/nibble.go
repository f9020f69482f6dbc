package schematic

// nibbleArray packs one 4-bit value per cell, two cells per byte. Even cells
// use the high nibble, as Schematica's AddBlocks does.
type nibbleArray struct {
	set []byte
}

func newNibbleArray(cells int) *nibbleArray {
	return &nibbleArray{set: make([]byte, nibbleLen(cells))}
}

func wrapNibbleArray(b []byte) *nibbleArray {
	return &nibbleArray{set: b}
}

func nibbleLen(cells int) int {
	return (cells + 1) / 2
}

func (a *nibbleArray) Set(idx int, v byte) {
	mapIdx := idx >> 1
	if idx&1 == 0 {
		a.set[mapIdx] = a.set[mapIdx]&0x0f | (v&0x0f)<<4
	} else {
		a.set[mapIdx] = a.set[mapIdx]&0xf0 | v&0x0f
	}
}

func (a *nibbleArray) Get(idx int) byte {
	if idx&1 == 0 {
		return a.set[idx>>1] >> 4
	}
	return a.set[idx>>1] & 0x0f
}

func (a *nibbleArray) Bytes() []byte {
	return append([]byte(nil), a.set...)
}
