// Package launchpad implements the Novation Launchpad MK1 wire protocol:
// classifying incoming grid/side/top-row MIDI into KeyEvents, and encoding
// outgoing LED and matrix-fill commands. It knows nothing about MIDI
// transport; callers wire HandleRaw to a MIDI input callback and pass a
// send func for output.
package launchpad

// KeyType identifies which zone of the pad a KeyEvent came from.
type KeyType int

const (
	KeyGrid KeyType = iota
	KeySide
	KeyTop
)

// Top-row button codes, assigned 200..207 per the incoming CC range 104..111.
const (
	TopUp      = 200
	TopDown    = 201
	TopLeft    = 202
	TopRight   = 203
	TopSession = 204
	TopUser1   = 205
	TopUser2   = 206
	TopMixer   = 207
)

// KeyEvent is the classified form of one incoming pad message.
type KeyEvent struct {
	Type  KeyType
	Code  int // meaningful for Type == KeyTop; 200..207
	X, Y  int // meaningful for Type == KeyGrid / KeySide (X==8 for side)
	Press bool
}

// Classify turns one raw 3-byte MIDI message into a KeyEvent. status 0x90
// is press, 0x80 is release, 0xB0 with data0 in [104,111] is a top-row
// button. Grid/side buttons are distinguished by the low nibble of data0:
// the intended rule is (data0 & 0x0F) == 0x08, parenthesized — several
// real-world variants of this check omit the parens and silently disable
// side-button detection; this implementation does not repeat that bug.
func Classify(status, data0, data1 byte) (KeyEvent, bool) {
	switch status & 0xF0 {
	case 0x90, 0x80:
		press := status&0xF0 == 0x90
		if (data0 & 0x0F) == 0x08 {
			return KeyEvent{Type: KeySide, X: 8, Y: int(data0 >> 4), Press: press}, true
		}
		return KeyEvent{Type: KeyGrid, X: int(data0 & 0x0F), Y: int(data0 >> 4), Press: press}, true
	case 0xB0:
		if data0 >= 104 && data0 <= 111 {
			return KeyEvent{Type: KeyTop, Code: 200 + int(data0-104), Press: data1 > 0}, true
		}
	}
	return KeyEvent{}, false
}

// SetGrid encodes a single grid-LED update.
func SetGrid(x, y int, color byte) [3]byte {
	return [3]byte{0x90, byte(y<<4) | byte(x), color}
}

// SetSide encodes a single side-column-LED update.
func SetSide(y int, color byte) [3]byte {
	return [3]byte{0x90, byte(y<<4) | 0x08, color}
}

// SetTop encodes a single top-row-LED update. code is in the 200..207
// range; the wire CC number is code-96, landing back in 104..111.
func SetTop(code int, color byte) [3]byte {
	return [3]byte{0xB0, byte(code - 96), color}
}

// BuildFillMatrix encodes a full 8x8 repaint as the rapid-update command
// sequence: 32 "0x92 cL cR" messages, two cells per message, rows
// top-to-bottom (y=0..7) and columns left-to-right within a row, followed
// by the "0xB0 0x01 0x00" terminator cb is called once per cell.
func BuildFillMatrix(cb func(x, y int) byte) [][3]byte {
	msgs := make([][3]byte, 0, 33)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x += 2 {
			msgs = append(msgs, [3]byte{0x92, cb(x, y), cb(x+1, y)})
		}
	}
	return append(msgs, [3]byte{0xB0, 0x01, 0x00})
}

// Color builds a color byte: (min(g,3)<<4)|min(r,3), with copy/clear
// double-buffer flags folded in per the device's combined set-and-buffer
// command.
func Color(r, g int, copy, clear bool) byte {
	if r > 3 {
		r = 3
	}
	if g > 3 {
		g = 3
	}
	b := byte(g<<4) | byte(r)
	if copy {
		b |= 1 << 4
	}
	if clear {
		b |= 1 << 3
	}
	return b
}

// Preset colors, named after the controller's own CL_* constants.
var (
	ClBlack   = Color(0, 0, false, false)
	ClGreen   = Color(0, 3, false, false)
	ClGreenM  = Color(0, 2, false, false)
	ClGreenL  = Color(0, 1, false, false)
	ClRed     = Color(3, 0, false, false)
	ClRedM    = Color(2, 0, false, false)
	ClRedL    = Color(1, 0, false, false)
	ClAmber   = Color(3, 3, false, false)
	ClAmberM  = Color(2, 2, false, false)
	ClAmberL  = Color(1, 1, false, false)
	ClYellow  = Color(2, 3, false, false)
	ClYellowM = Color(1, 2, false, false)
)

// Reset encodes the device's reset command.
func Reset() [3]byte { return [3]byte{0xB0, 0x00, 0x00} }

// SelectGridLayout encodes the grid layout selection command.
func SelectGridLayout() [3]byte { return [3]byte{0xB0, 0x00, 0x01} }
