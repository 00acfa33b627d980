// Package term shows the page in a terminal, two pixels per cell using
// upper half blocks.
package term

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/echoflaresat/spacescroll/host"
	"github.com/echoflaresat/spacescroll/loop"
)

const halfBlock = '▀'

var errQuit = errors.New("quit")

// ViewportSize is the page size in pixels for a screen of cols×rows cells.
func ViewportSize(screen tcell.Screen) (width, height int) {
	cols, rows := screen.Size()
	return cols, rows * 2
}

// App runs a session on a tcell screen. The caller owns the screen.
type App struct {
	screen tcell.Screen
	s      *host.Session
	logger *slog.Logger
}

func New(screen tcell.Screen, s *host.Session, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	screen.EnableMouse()
	screen.HideCursor()
	return &App{screen: screen, s: s, logger: logger}
}

// Run draws one frame per tick, handling whatever input arrived since the
// last one, until ctx ends, the frame limit is hit or the user quits.
func (a *App) Run(ctx context.Context, t loop.Ticker, cfg loop.Config) error {
	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	err := loop.Run(ctx, t, cfg, func() error {
	drain:
		for {
			select {
			case ev := <-events:
				if err := a.HandleEvent(ev); err != nil {
					return err
				}
			default:
				break drain
			}
		}
		if err := a.s.Frame(); err != nil {
			return err
		}
		a.Draw()
		return nil
	})
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// HandleEvent applies one terminal event. It returns errQuit when the user
// asks to leave.
func (a *App) HandleEvent(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.key(ev)
	case *tcell.EventMouse:
		return a.mouse(ev)
	case *tcell.EventResize:
		a.screen.Sync()
		return a.s.Resize(ViewportSize(a.screen))
	}
	return nil
}

func (a *App) key(ev *tcell.EventKey) error {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return errQuit
	case tcell.KeyDown:
		return a.s.ScrollBy(host.KeyStep)
	case tcell.KeyUp:
		return a.s.ScrollBy(-host.KeyStep)
	case tcell.KeyPgDn:
		return a.s.PageDown()
	case tcell.KeyPgUp:
		return a.s.PageUp()
	case tcell.KeyHome:
		return a.s.ScrollTo(0)
	case tcell.KeyEnd:
		return a.s.ScrollTo(a.s.Page.MaxScroll())
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return errQuit
		case 'm':
			a.toggleMenu()
		case ' ':
			return a.s.PageDown()
		case 'j':
			return a.s.ScrollBy(host.KeyStep)
		case 'k':
			return a.s.ScrollBy(-host.KeyStep)
		}
	}
	return nil
}

func (a *App) mouse(ev *tcell.EventMouse) error {
	btn := ev.Buttons()
	switch {
	case btn&tcell.WheelDown != 0:
		return a.s.ScrollBy(host.WheelStep)
	case btn&tcell.WheelUp != 0:
		return a.s.ScrollBy(-host.WheelStep)
	case btn&tcell.Button1 != 0:
		if x, y := ev.Position(); a.onButton(x, y) {
			a.toggleMenu()
		}
	}
	return nil
}

func (a *App) toggleMenu() {
	open := a.s.ToggleMenu()
	a.logger.Debug("menu toggled", "open", open)
}

// The hamburger occupies the last three cells of the top row.
func (a *App) onButton(x, y int) bool {
	cols, _ := a.screen.Size()
	return y == 0 && x >= cols-3 && x < cols
}

var (
	buttonStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy).Bold(true)
	itemStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
)

// Draw paints the composed page and the menu.
func (a *App) Draw() {
	img := a.s.Composite()
	cols, rows := a.screen.Size()
	b := img.Bounds()

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if x >= b.Dx() || 2*y >= b.Dy() {
				continue
			}
			top := img.NRGBAAt(x, 2*y)
			bottom := top
			if 2*y+1 < b.Dy() {
				bottom = img.NRGBAAt(x, 2*y+1)
			}
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			a.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}

	if cols >= 3 {
		for i, r := range []rune(" ≡ ") {
			a.screen.SetContent(cols-3+i, 0, r, nil, buttonStyle)
		}
	}
	if a.s.Page.Nav.Open() {
		for i, item := range a.s.Page.Nav.Items {
			row := i + 1
			if row >= rows {
				break
			}
			label := " " + item + " "
			x0 := cols - len(label)
			if x0 < 0 {
				x0 = 0
			}
			for j, r := range []rune(label) {
				a.screen.SetContent(x0+j, row, r, nil, itemStyle)
			}
		}
	}
	a.screen.Show()
}
