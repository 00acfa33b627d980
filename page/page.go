// Package page models the host document the scene sits in: the viewport,
// its scroll offset, the hero section and the navigation menu.
package page

import (
	"math"

	"github.com/echoflaresat/spacescroll/choreo"
)

// Page tracks the document geometry hosts need to produce scroll and
// resize events. All lengths are CSS pixels.
type Page struct {
	Width, Height    int
	DevicePixelRatio float64
	HeroHeight       float64
	ContentHeight    float64

	// HeroFraction, when positive, ties the hero height to the viewport
	// height (a 100vh hero is 1.0).
	HeroFraction float64

	scrollY float64
	Nav     Menu
}

// New returns a page with a viewport-tall hero section.
func New(width, height int, dpr, contentHeight float64) *Page {
	p := &Page{
		Width:            width,
		Height:           height,
		DevicePixelRatio: dpr,
		ContentHeight:    contentHeight,
		HeroFraction:     1.0,
		Nav:              NewMenu(),
	}
	p.HeroHeight = p.heroFor(height)
	return p
}

func (p *Page) heroFor(height int) float64 {
	if p.HeroFraction > 0 {
		return float64(height) * p.HeroFraction
	}
	return p.HeroHeight
}

func (p *Page) Viewport() choreo.Viewport {
	return choreo.Viewport{
		Width:            p.Width,
		Height:           p.Height,
		DevicePixelRatio: p.DevicePixelRatio,
		HeroHeight:       p.HeroHeight,
	}
}

func (p *Page) ScrollY() float64 {
	return p.scrollY
}

// MaxScroll is the largest offset the document can scroll to.
func (p *Page) MaxScroll() float64 {
	return math.Max(0, p.ContentHeight-float64(p.Height))
}

// ScrollTo moves to y, clamped to the scrollable range, and reports
// whether the offset changed (i.e. whether a scroll event fires).
func (p *Page) ScrollTo(y float64) bool {
	y = math.Max(0, math.Min(y, p.MaxScroll()))
	if y == p.scrollY {
		return false
	}
	p.scrollY = y
	return true
}

func (p *Page) ScrollBy(dy float64) bool {
	return p.ScrollTo(p.scrollY + dy)
}

// Resize applies a new viewport size, re-measures the hero section and
// re-clamps the scroll offset. It reports whether the size changed and
// whether the clamp moved the scroll offset.
func (p *Page) Resize(width, height int) (resized, scrolled bool) {
	if width == p.Width && height == p.Height {
		return false, false
	}
	p.Width, p.Height = width, height
	p.HeroHeight = p.heroFor(height)
	return true, p.ScrollTo(p.scrollY)
}
