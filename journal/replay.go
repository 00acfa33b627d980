package journal

import (
	"fmt"

	"github.com/echoflaresat/spacescroll/choreo"
	"github.com/echoflaresat/spacescroll/render"
	"github.com/echoflaresat/spacescroll/scene"
	"github.com/echoflaresat/spacescroll/texture"
)

// Divergence is the first event whose replayed state differs from the
// recording.
type Divergence struct {
	Seq   int
	Kind  Kind
	Field string
	Want  any
	Got   any
}

func (d *Divergence) Error() string {
	return fmt.Sprintf("event %d (%s): %s = %v, recorded %v", d.Seq, d.Kind, d.Field, d.Got, d.Want)
}

// Replay re-drives a fresh choreographer with the recorded inputs and
// returns the first divergence, or nil when every event matches.
func Replay(s Session, events []Event) *Divergence {
	cfg := choreo.DefaultConfig()
	cfg.MoonGating = s.MoonGating
	vp := s.Viewport()
	c := choreo.New(cfg, vp, &surfaceOnly{}, noTextures{})

	for _, want := range events {
		switch want.Kind {
		case KindScroll:
			c.Scroll(want.Value)
		case KindResize:
			vp.Width, vp.Height, vp.HeroHeight = want.Width, want.Height, want.HeroHeight
			c.Resize(vp)
		case KindFrame:
			c.Frame()
		default:
			return &Divergence{Seq: want.Seq, Kind: want.Kind, Field: "kind", Want: want.Kind, Got: "unknown"}
		}

		var got Event
		snapshot(c, &got)
		if d := compare(want, got); d != nil {
			return d
		}
	}
	return nil
}

func compare(want, got Event) *Divergence {
	fields := []struct {
		name      string
		want, got float64
	}{
		{"earth.x", want.EarthX, got.EarthX},
		{"earth.y", want.EarthY, got.EarthY},
		{"earth.z", want.EarthZ, got.EarthZ},
		{"moon.x", want.MoonX, got.MoonX},
		{"moon.y", want.MoonY, got.MoonY},
		{"moon.z", want.MoonZ, got.MoonZ},
		{"mars.x", want.MarsX, got.MarsX},
		{"mars.z", want.MarsZ, got.MarsZ},
		{"moonAngle", want.MoonAngle, got.MoonAngle},
		{"earth.rotation.y", want.EarthSpin, got.EarthSpin},
	}
	for _, f := range fields {
		if f.want != f.got {
			return &Divergence{Seq: want.Seq, Kind: want.Kind, Field: f.name, Want: f.want, Got: f.got}
		}
	}
	if want.MoonActive != got.MoonActive {
		return &Divergence{Seq: want.Seq, Kind: want.Kind, Field: "moonActive", Want: want.MoonActive, Got: got.MoonActive}
	}
	return nil
}

// surfaceOnly tracks sizes like the real renderer but never draws.
type surfaceOnly struct {
	ratio   float64
	surface render.Surface
}

func (s *surfaceOnly) SetPixelRatio(ratio float64) { s.ratio = ratio }

func (s *surfaceOnly) SetSize(width, height int, updateStyle bool) {
	s.surface.BufferWidth = int(float64(width) * s.ratio)
	s.surface.BufferHeight = int(float64(height) * s.ratio)
	if updateStyle {
		s.surface.ClientWidth, s.surface.ClientHeight = width, height
	}
}

func (s *surfaceOnly) Surface() render.Surface { return s.surface }

func (s *surfaceOnly) Render(*scene.Scene, *scene.PerspectiveCamera) {}

type noTextures struct{}

func (noTextures) Load(string) *texture.Texture { return &texture.Texture{} }
