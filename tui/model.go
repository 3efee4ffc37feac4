package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lseq/launchpad"
	"lseq/seqdata"
	"lseq/theme"
	"lseq/ui"
	"lseq/widgets"
)

// Model mirrors, in a terminal, exactly what the pad hardware would be
// showing, by decoding the same outgoing wire bytes through a
// launchpad.Mirror. It doubles as an input surface when no physical pad
// is attached: wasd moves a cursor over the grid, enter/space taps the
// cursor cell, 9 taps the side button on the cursor's row, the arrow
// keys tap the top-row scroll/zoom buttons, m holds the MIXER/shift
// button down, and 1/2/3 switch screens — all fed back into the pad
// driver through HandleRaw, the same entry point real hardware uses.
type Model struct {
	project *seqdata.Project
	machine *ui.Machine
	waker   *ui.Waker
	driver  *launchpad.Driver
	mirror  *launchpad.Mirror
	theme   *theme.Theme

	cx, cy      int
	shiftLocked bool
	quitting    bool
}

// UpdateMsg is sent whenever the mirrored pad state changes.
type UpdateMsg struct{}

func NewModel(project *seqdata.Project, machine *ui.Machine, waker *ui.Waker, driver *launchpad.Driver, mirror *launchpad.Mirror, th *theme.Theme) Model {
	return Model{project: project, machine: machine, waker: waker, driver: driver, mirror: mirror, theme: th}
}

// ListenForUpdates blocks on the mirror's notify channel and turns each
// signal into a tea.Msg, the same bridge pattern as the pad driver's own
// callback-to-channel handoff.
func ListenForUpdates(mirror *launchpad.Mirror) tea.Cmd {
	return func() tea.Msg {
		<-mirror.Notify()
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.mirror)
}

func gridRaw(x, y int, press bool) [3]byte {
	status := byte(0x80)
	vel := byte(0)
	if press {
		status, vel = 0x90, 0x7F
	}
	return [3]byte{status, byte(y<<4) | byte(x), vel}
}

func sideRaw(y int, press bool) [3]byte {
	status := byte(0x80)
	vel := byte(0)
	if press {
		status, vel = 0x90, 0x7F
	}
	return [3]byte{status, byte(y<<4) | 0x08, vel}
}

func topRaw(code int, press bool) [3]byte {
	vel := byte(0)
	if press {
		vel = 0x7F
	}
	return [3]byte{0xB0, byte(code - 96), vel}
}

func (m *Model) tap(raw [3]byte, releaseCode [3]byte) {
	m.driver.HandleRaw(raw[:])
	m.driver.HandleRaw(releaseCode[:])
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.waker.Exit()
			return m, tea.Quit

		case "w":
			if m.cy < 7 {
				m.cy++
			}
		case "s":
			if m.cy > 0 {
				m.cy--
			}
		case "a":
			if m.cx > 0 {
				m.cx--
			}
		case "d":
			if m.cx < 7 {
				m.cx++
			}

		case "enter", " ":
			on, off := gridRaw(m.cx, m.cy, true), gridRaw(m.cx, m.cy, false)
			m.tap(on, off)
		case "9":
			on, off := sideRaw(m.cy, true), sideRaw(m.cy, false)
			m.tap(on, off)

		case "up":
			on, off := topRaw(launchpad.TopUp, true), topRaw(launchpad.TopUp, false)
			m.tap(on, off)
		case "down":
			on, off := topRaw(launchpad.TopDown, true), topRaw(launchpad.TopDown, false)
			m.tap(on, off)
		case "left":
			on, off := topRaw(launchpad.TopLeft, true), topRaw(launchpad.TopLeft, false)
			m.tap(on, off)
		case "right":
			on, off := topRaw(launchpad.TopRight, true), topRaw(launchpad.TopRight, false)
			m.tap(on, off)

		case "m":
			m.shiftLocked = !m.shiftLocked
			m.driver.HandleRaw(topRawSlice(launchpad.TopMixer, m.shiftLocked))

		case "1":
			m.tap(topRaw(launchpad.TopSession, true), topRaw(launchpad.TopSession, false))
		case "2":
			m.tap(topRaw(launchpad.TopUser1, true), topRaw(launchpad.TopUser1, false))
		case "3":
			m.tap(topRaw(launchpad.TopUser2, true), topRaw(launchpad.TopUser2, false))
		}
		return m, nil

	case UpdateMsg:
		return m, ListenForUpdates(m.mirror)
	}
	return m, nil
}

func topRawSlice(code int, press bool) []byte {
	raw := topRaw(code, press)
	return raw[:]
}

func screenName(active int) string {
	switch active {
	case ui.ScreenTrack:
		return "track"
	case ui.ScreenSong:
		return "song"
	case ui.ScreenSequence:
		return "sequence"
	default:
		return "?"
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	cursorColor := [3]uint8(m.theme.RGB(theme.RoleCursor))

	header := lipgloss.NewStyle().
		Foreground(m.theme.FG()).
		Background(m.theme.BG()).
		Bold(true).
		Padding(0, 1).
		Render(fmt.Sprintf("lseq  bpm %.0f  screen %s  shift %v", m.project.BPM, screenName(m.machine.Active()), m.shiftLocked))

	cursorLabel := lipgloss.NewStyle().
		Foreground(m.theme.Cursor()).
		Render(fmt.Sprintf("cursor %d,%d", m.cx, m.cy))

	var topColors [8][3]uint8
	mt := m.mirror.Top()
	for i, v := range mt {
		topColors[i] = launchpad.ToRGB(v)
	}
	topRow := lipgloss.NewStyle().
		Foreground(m.theme.Muted()).
		Render(widgets.RenderPadRow(topColors[:]))

	var grid [8][8][3]uint8
	mg := m.mirror.Grid()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			grid[y][x] = launchpad.ToRGB(mg[y][x])
			if x == m.cx && y == m.cy {
				grid[y][x] = cursorColor
			}
		}
	}
	var side [8][3]uint8
	ms := m.mirror.Side()
	for y := 0; y < 8; y++ {
		side[y] = launchpad.ToRGB(ms[y])
	}

	pad := lipgloss.NewStyle().
		Foreground(m.theme.Muted()).
		Render(widgets.RenderPadGrid(grid, &side))

	legend := lipgloss.NewStyle().
		Foreground(m.theme.Muted()).
		Render(widgets.RenderLegendItem(cursorColor, "cursor", "keyboard focus on the mirrored grid"))

	help := lipgloss.NewStyle().
		Foreground(m.theme.Muted()).
		Render(widgets.RenderKeyHelp([]widgets.KeySection{{Keys: []widgets.KeyBinding{
			{Key: "wasd", Desc: "move"},
			{Key: "enter/space", Desc: "tap"},
			{Key: "9", Desc: "side"},
			{Key: "arrows", Desc: "top"},
			{Key: "m", Desc: "shift"},
			{Key: "1/2/3", Desc: "screen"},
			{Key: "q", Desc: "quit"},
		}}}))

	return lipgloss.JoinVertical(lipgloss.Left, header, cursorLabel, "", topRow, pad, "", legend, help)
}
