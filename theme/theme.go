package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme wraps a Palette with the few lipgloss colors the terminal
// visualizer actually styles with: header background/foreground, muted
// chrome, and the cursor overlay drawn on top of the mirrored pad grid.
type Theme struct {
	Palette *Palette
}

func New(palette *Palette) *Theme {
	return &Theme{Palette: palette}
}

// Role positions into the palette's normalized 0-1 gradient.
const (
	RoleBG     = 0.0 // deep purple, header background
	RoleMuted  = 0.2 // purple-magenta, chrome/help text
	RoleFG     = 0.4 // pink-purple, header text
	RoleCursor = 0.6 // rose pink, cursor overlay on the pad grid
)

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

// RGB returns the raw color for a role, for callers drawing into a
// [3]uint8 pad grid (widgets.RenderPadGrid) instead of styling text.
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
