// Package backdrop paints the page background that shows through the
// transparent scene canvas: a night-sky gradient with a noise star field.
package backdrop

import (
	"image"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	opensimplex "github.com/ojrac/opensimplex-go"
	xdraw "golang.org/x/image/draw"
)

type Theme struct {
	Top    colorful.Color
	Bottom colorful.Color
	Nebula colorful.Color

	// StarDensity is the fraction of pixels lit as stars, roughly.
	StarDensity float64
	Seed        int64
}

func DefaultTheme() Theme {
	top, _ := colorful.Hex("#02030a")
	bottom, _ := colorful.Hex("#0b1a3a")
	nebula, _ := colorful.Hex("#3a1f5c")
	return Theme{
		Top:         top,
		Bottom:      bottom,
		Nebula:      nebula,
		StarDensity: 0.004,
		Seed:        1969,
	}
}

// Render paints a width×height opaque background.
func Render(width, height int, theme Theme) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return img
	}

	stars := opensimplex.NewNormalized(theme.Seed)
	cloud := opensimplex.NewNormalized(theme.Seed + 1)
	threshold := 1 - theme.StarDensity

	for y := 0; y < height; y++ {
		t := 0.0
		if height > 1 {
			t = float64(y) / float64(height-1)
		}
		row := theme.Top.BlendLab(theme.Bottom, t)

		for x := 0; x < width; x++ {
			fx, fy := float64(x), float64(y)

			// Low-frequency haze, two octaves.
			haze := 0.65*cloud.Eval2(fx/180, fy/180) + 0.35*cloud.Eval2(fx/60, fy/60)
			c := row.BlendLab(theme.Nebula, 0.35*smooth(0.55, 0.9, haze))

			if n := stars.Eval2(fx*0.75, fy*0.75); n > threshold {
				glow := (n - threshold) / theme.StarDensity
				c = c.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, math.Min(1, 0.4+glow))
			}

			r, g, b := c.Clamped().RGB255()
			i := img.PixOffset(x, y)
			img.Pix[i+0] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

func smooth(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}

// Compose draws the scene frame over a copy of bg, scaling the frame to the
// background's size (the frame is usually at device resolution).
func Compose(bg, frame *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(bg.Bounds())
	draw.Draw(out, out.Bounds(), bg, bg.Bounds().Min, draw.Src)
	if frame == nil {
		return out
	}
	if frame.Bounds().Size() == out.Bounds().Size() {
		draw.Draw(out, out.Bounds(), frame, frame.Bounds().Min, draw.Over)
		return out
	}
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), frame, frame.Bounds(), xdraw.Over, nil)
	return out
}
