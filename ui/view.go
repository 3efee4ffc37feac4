package ui

// Flags are the per-cell bits repaint() computes before translating a
// cell to a color (spec §4.7).
type Flags uint8

const (
	HasNote Flags = 1 << iota
	Multiple
	Inaccurate
	Cont
	InScale
	ScaleMark
	IsSelected
	SeqEnd
)

// View is the 8x8 snapshot repaint builds and fill_matrix consumes.
type View [8][8]Flags

// Get returns the flags at (x,y), or 0 if out of range.
func (v *View) Get(x, y int) Flags {
	if x < 0 || x >= 8 || y < 0 || y >= 8 {
		return 0
	}
	return v[y][x]
}

// Set ORs extra into the flags at (x,y).
func (v *View) Set(x, y int, extra Flags) {
	if x < 0 || x >= 8 || y < 0 || y >= 8 {
		return
	}
	v[y][x] |= extra
}
