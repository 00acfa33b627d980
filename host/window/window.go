//go:build cgo

// Package window shows the page in a desktop window.
package window

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/echoflaresat/spacescroll/host"
)

type Config struct {
	Title string
	// Frames closes the window after N frames (0 = until closed).
	Frames uint64
	TPS    int
}

// Run opens a window showing s and blocks until it closes.
func Run(s *host.Session, cfg Config, logger *slog.Logger) error {
	if cfg.TPS <= 0 {
		cfg.TPS = 60
	}
	if cfg.Title == "" {
		cfg.Title = "spacescroll"
	}

	g := &game{s: s, cfg: cfg, logger: logger}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(s.Page.Width, s.Page.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TPS)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	s      *host.Session
	cfg    Config
	logger *slog.Logger

	frameImg *ebiten.Image
	frames   uint64
}

func (g *game) Update() error {
	if err := g.input(); err != nil {
		return err
	}
	if err := g.s.Frame(); err != nil {
		return fmt.Errorf("frame %d: %w", g.frames, err)
	}
	g.frames++
	if g.cfg.Frames > 0 && g.frames >= g.cfg.Frames {
		return ebiten.Termination
	}
	return nil
}

func (g *game) input() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		if err := g.s.ScrollBy(-dy * host.WheelStep); err != nil {
			return err
		}
	}

	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		err = g.s.ScrollBy(host.KeyStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		err = g.s.ScrollBy(-host.KeyStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		err = g.s.PageDown()
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		err = g.s.PageUp()
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		err = g.s.ScrollTo(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		err = g.s.ScrollTo(g.s.Page.MaxScroll())
	}
	if err != nil {
		return err
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.toggleMenu()
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if x, y := ebiten.CursorPosition(); g.s.HitHamburger(x, y) {
			g.toggleMenu()
		}
	}
	return nil
}

func (g *game) toggleMenu() {
	open := g.s.ToggleMenu()
	g.logger.Debug("menu toggled", "open", open)
}

var (
	buttonColor = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0x30}
	barColor    = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xE0}
	panelColor  = color.NRGBA{R: 0x05, G: 0x08, B: 0x18, A: 0xC0}
)

func (g *game) Draw(screen *ebiten.Image) {
	img := g.s.Composite()
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return
	}
	if g.frameImg == nil || g.frameImg.Bounds().Dx() != w || g.frameImg.Bounds().Dy() != h {
		if g.frameImg != nil {
			g.frameImg.Deallocate()
		}
		g.frameImg = ebiten.NewImage(w, h)
	}
	// The composite is opaque, so straight and premultiplied alpha agree.
	g.frameImg.WritePixels(img.Pix)
	screen.DrawImage(g.frameImg, nil)

	g.drawMenu(screen)
}

func (g *game) drawMenu(screen *ebiten.Image) {
	r := host.HamburgerRect(g.s.Page.Width)
	x, y := float32(r.Min.X), float32(r.Min.Y)
	bw, bh := float32(r.Dx()), float32(r.Dy())

	vector.DrawFilledRect(screen, x, y, bw, bh, buttonColor, false)
	for i := 0; i < 3; i++ {
		vector.DrawFilledRect(screen, x+6, y+8+float32(i)*7, bw-12, 3, barColor, false)
	}

	if !g.s.Page.Nav.Open() {
		return
	}
	items := g.s.Page.Nav.Items
	px := float32(r.Min.X) - 96
	py := float32(r.Max.Y) + 6
	vector.DrawFilledRect(screen, px, py, 96+bw, float32(len(items))*18+10, panelColor, false)
	for i, item := range items {
		ebitenutil.DebugPrintAt(screen, item, int(px)+10, int(py)+6+i*18)
	}
}

// Layout keeps the game screen at the window's size in CSS pixels and
// forwards size changes to the page.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		if err := g.s.Resize(outsideWidth, outsideHeight); err != nil {
			g.logger.Error("resize failed", "err", err)
		}
	}
	return g.s.Page.Width, g.s.Page.Height
}
