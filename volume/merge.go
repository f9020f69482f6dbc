package volume

import "fmt"

// Merge copies every non-air cell of other into v, translated by at. Cells are
// visited in other's y, z, x order and overwrite whatever v held, so the last
// write wins. v grows once to the union of both boxes; on error v is unchanged.
func (v *Volume) Merge(other *Volume, at Pos) error {
	if other == v {
		other = other.Clone()
	}
	lo, hi, ok := other.Extent()
	if !ok {
		return nil
	}
	if err := v.grow(lo.Add(at), hi.Add(at)); err != nil {
		return fmt.Errorf("merge at %s: %w", at, err)
	}

	// other's palette index -> v's palette index, interned on first use
	remap := make([]uint32, other.palette.Len())
	for i, c := range other.cells {
		if c == 0 {
			continue
		}
		if remap[c] == 0 {
			remap[c] = uint32(v.palette.Intern(other.palette.blocks[c]))
		}
		p := other.local(i).Add(other.origin).Add(at)
		v.cells[v.index(p.Sub(v.origin))] = remap[c]
	}
	return nil
}
