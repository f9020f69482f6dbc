package volume

// Part is the share of a volume holding one block type.
type Part struct {
	Block  Block
	Volume *Volume
}

// Split returns one volume per distinct non-air block, each covering the same
// box as v and holding only that block's cells. Parts are ordered by the first
// cell of each block in a y, z, x scan.
func (v *Volume) Split() []Part {
	slot := make(map[uint32]int)
	var parts []Part
	for i, c := range v.cells {
		if c == 0 {
			continue
		}
		n, ok := slot[c]
		if !ok {
			n = len(parts)
			slot[c] = n
			b := v.palette.blocks[c]
			part := &Volume{
				origin:  v.origin,
				size:    v.size,
				cells:   make([]uint32, len(v.cells)),
				palette: NewPalette(),
				limits:  v.limits,
			}
			part.palette.Intern(b)
			parts = append(parts, Part{Block: b, Volume: part})
		}
		parts[n].Volume.cells[i] = 1
	}
	return parts
}
