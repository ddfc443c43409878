package present

import (
	"github.com/gdamore/tcell/v2"

	"zonecaster/internal/render"
)

// upperHalf draws the top pixel in the foreground and the bottom pixel in the background.
const upperHalf = '▀'

// CellScreen is the part of tcell.Screen the sink writes to.
type CellScreen interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
	Show()
}

// TerminalSink presents a framebuffer as half-block cells, two pixel rows per
// terminal row.
type TerminalSink struct {
	screen CellScreen
}

// NewTerminalSink creates a sink drawing to screen.
func NewTerminalSink(screen CellScreen) *TerminalSink {
	return &TerminalSink{screen: screen}
}

// FrameSize returns the framebuffer size that maps one pixel to each half cell.
func (t *TerminalSink) FrameSize() (int, int) {
	cols, rows := t.screen.Size()
	return max(cols, 2), max(rows*2, 2)
}

// Present samples fb to the current terminal size and shows it.
func (t *TerminalSink) Present(fb *render.Framebuffer) {
	cols, rows := t.screen.Size()
	if cols <= 0 || rows <= 0 {
		return
	}
	fw, fh := fb.Width, fb.Height
	for cy := 0; cy < rows; cy++ {
		ty := (2 * cy) * fh / (2 * rows)
		by := (2*cy + 1) * fh / (2 * rows)
		for cx := 0; cx < cols; cx++ {
			x := cx * fw / cols
			top := fb.GetPixel(x, ty)
			bot := fb.GetPixel(x, by)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bot.R), int32(bot.G), int32(bot.B)))
			t.screen.SetContent(cx, cy, upperHalf, nil, style)
		}
	}
	t.screen.Show()
}

// KeyAction maps a terminal key event to a viewer action. Terminals report
// presses only, so each event counts as holding the action for one tick.
func KeyAction(ev *tcell.EventKey) (Action, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return MoveForward, true
	case tcell.KeyDown:
		return MoveBackward, true
	case tcell.KeyLeft:
		return TurnLeft, true
	case tcell.KeyRight:
		return TurnRight, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Quit, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			return MoveForward, true
		case 's', 'S':
			return MoveBackward, true
		case 'a', 'A':
			return TurnLeft, true
		case 'd', 'D':
			return TurnRight, true
		case 'q', 'Q':
			return StrafeLeft, true
		case 'e', 'E':
			return StrafeRight, true
		case '/':
			return ToggleStats, true
		case 'p', 'P':
			return Screenshot, true
		case 'x', 'X':
			return Quit, true
		}
	}
	return 0, false
}

// KeySet is an Input fed from discrete key events.
type KeySet [actionCount]bool

func (k *KeySet) Pressed(a Action) bool { return k[a] }

// Press marks an action as held until Clear.
func (k *KeySet) Press(a Action) { k[a] = true }

// Clear releases every action.
func (k *KeySet) Clear() { *k = KeySet{} }
