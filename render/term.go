package render

import (
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Term draws frames on a terminal screen
type Term struct {
	screen tcell.Screen
	canvas *Canvas
	opts   Options
	logger *slog.Logger
}

// NewTerm takes ownership of an initialized screen; Close finalizes it
func NewTerm(screen tcell.Screen, opts Options, logger *slog.Logger) *Term {
	if logger == nil {
		logger = slog.Default()
	}
	w, h := screen.Size()
	return &Term{screen: screen, canvas: NewCanvas(w, h), opts: opts, logger: logger}
}

// Screen returns the underlying screen, for event polling
func (t *Term) Screen() tcell.Screen {
	return t.screen
}

func (t *Term) Draw(frame Frame) error {
	w, h := t.screen.Size()
	t.canvas.Resize(w, h)
	t.canvas.Clear()
	t.canvas.Paint(frame, t.opts)

	t.screen.Clear()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := t.canvas.At(x, y)
			if cell.Rune == ' ' {
				continue
			}
			t.screen.SetContent(x, y, cell.Rune, nil, tcell.StyleDefault.Foreground(toColor(cell.Color)))
		}
	}
	t.screen.Show()
	return nil
}

func toColor(c mgl32.Vec3) tcell.Color {
	channel := func(v float32) int32 {
		return int32(min(max(v, 0), 1) * 255)
	}
	return tcell.NewRGBColor(channel(c.X()), channel(c.Y()), channel(c.Z()))
}

// Aspect corrects for cells being about twice as tall as wide
func (t *Term) Aspect() float32 {
	w, h := t.screen.Size()
	if h == 0 {
		return 1
	}
	return float32(w) / float32(2*h)
}

func (t *Term) Options() Options {
	return t.opts
}

func (t *Term) SetOptions(opts Options) {
	if opts != t.opts {
		t.logger.Debug("render options changed", "wireframe", opts.Wireframe, "normals", opts.Normals, "physicsDebug", opts.PhysicsDebug)
	}
	t.opts = opts
}

func (t *Term) Close() error {
	t.screen.Fini()
	return nil
}
