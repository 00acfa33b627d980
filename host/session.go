// Package host turns a page's raw input (wheel, keys, window size) into
// choreographer events and composes what the page shows. The window and
// terminal front ends in the subpackages both drive a Session.
package host

import (
	"image"

	"github.com/echoflaresat/spacescroll/backdrop"
	"github.com/echoflaresat/spacescroll/choreo"
	"github.com/echoflaresat/spacescroll/page"
)

// Handlers receives the page's scroll, resize and animation-frame events.
// A journal recorder satisfies it; Direct adapts a bare choreographer.
type Handlers interface {
	Scroll(scrollY float64) error
	Resize(vp choreo.Viewport) error
	Frame() error
}

type direct struct {
	c *choreo.Choreographer
}

func Direct(c *choreo.Choreographer) Handlers { return direct{c: c} }

func (d direct) Scroll(scrollY float64) error { d.c.Scroll(scrollY); return nil }
func (d direct) Resize(vp choreo.Viewport) error { d.c.Resize(vp); return nil }
func (d direct) Frame() error { d.c.Frame(); return nil }

// Canvas is the drawing surface the scene renders into.
type Canvas interface {
	SetClientSize(width, height int)
	Frame() *image.NRGBA
}

// Scroll distances in CSS pixels.
const (
	WheelStep = 60.0
	KeyStep   = 40.0
)

// Session binds one page to its handlers and canvas.
// It is not safe for concurrent use.
type Session struct {
	Page     *page.Page
	Handlers Handlers
	Canvas   Canvas
	Theme    backdrop.Theme

	bg *image.NRGBA
}

func NewSession(p *page.Page, h Handlers, c Canvas) *Session {
	return &Session{Page: p, Handlers: h, Canvas: c, Theme: backdrop.DefaultTheme()}
}

// ScrollBy moves the page and fires a scroll event when the offset changed.
func (s *Session) ScrollBy(dy float64) error {
	if !s.Page.ScrollBy(dy) {
		return nil
	}
	return s.Handlers.Scroll(s.Page.ScrollY())
}

func (s *Session) ScrollTo(y float64) error {
	if !s.Page.ScrollTo(y) {
		return nil
	}
	return s.Handlers.Scroll(s.Page.ScrollY())
}

// PageDown scrolls by one viewport height, less a line of overlap.
func (s *Session) PageDown() error {
	return s.ScrollBy(float64(s.Page.Height) - KeyStep)
}

func (s *Session) PageUp() error {
	return s.ScrollBy(-(float64(s.Page.Height) - KeyStep))
}

// Resize applies a new viewport size. The canvas fills the viewport so its
// displayed size follows at once; its drawing buffer catches up on the next
// frame. A resize that shortens the document also fires a scroll event.
func (s *Session) Resize(width, height int) error {
	resized, scrolled := s.Page.Resize(width, height)
	if !resized {
		return nil
	}
	s.Canvas.SetClientSize(width, height)
	if err := s.Handlers.Resize(s.Page.Viewport()); err != nil {
		return err
	}
	if scrolled {
		return s.Handlers.Scroll(s.Page.ScrollY())
	}
	return nil
}

func (s *Session) Frame() error {
	return s.Handlers.Frame()
}

// ToggleMenu is the hamburger button.
func (s *Session) ToggleMenu() bool {
	return s.Page.Nav.Toggle()
}

// HitHamburger reports whether (x, y) falls on the hamburger button.
func (s *Session) HitHamburger(x, y int) bool {
	return image.Pt(x, y).In(HamburgerRect(s.Page.Width))
}

// HamburgerRect is the button's box in a viewport width pixels wide.
func HamburgerRect(width int) image.Rectangle {
	const size, margin = 32, 12
	r := image.Rect(width-margin-size, margin, width-margin, margin+size)
	if r.Min.X < 0 {
		r.Min.X = 0
	}
	return r
}

// Composite returns the backdrop with the last rendered frame drawn over
// it, at viewport size.
func (s *Session) Composite() *image.NRGBA {
	w, h := s.Page.Width, s.Page.Height
	if s.bg == nil || s.bg.Bounds().Dx() != w || s.bg.Bounds().Dy() != h {
		s.bg = backdrop.Render(w, h, s.Theme)
	}
	return backdrop.Compose(s.bg, s.Canvas.Frame())
}
