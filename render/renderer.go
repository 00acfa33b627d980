package render

import (
	"errors"
	"image"
	"image/png"
	"io"
	"math"
	"runtime"

	"github.com/echoflaresat/spacescroll/colors"
	"github.com/echoflaresat/spacescroll/scene"
	"github.com/echoflaresat/spacescroll/vectors"
	"golang.org/x/sync/errgroup"
)

var ErrEmptySurface = errors.New("render: nothing rendered yet")

// MaxPixelRatio caps the device pixel ratio to bound fill-rate cost on
// high-DPI displays.
const MaxPixelRatio = 2.0

type Options struct {
	Supersampling int
	Workers       int
	Ambient       colors.Color4
}

// Surface describes the drawing buffer (device pixels) and the size it is
// displayed at (CSS pixels).
type Surface struct {
	BufferWidth, BufferHeight int
	ClientWidth, ClientHeight int
}

// NeedsResize reports whether the backing buffer no longer matches the
// displayed size.
func (s Surface) NeedsResize() bool {
	return s.BufferWidth != s.ClientWidth || s.BufferHeight != s.ClientHeight
}

// Renderer ray casts a scene of spheres into an RGBA buffer with a
// transparent background.
type Renderer struct {
	opts       Options
	offsets    [][2]float64
	pixelRatio float64
	surface    Surface
	frame      *image.NRGBA
}

func New(opts Options) *Renderer {
	if opts.Supersampling <= 0 {
		opts.Supersampling = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Renderer{
		opts:       opts,
		offsets:    GenerateSupersamplingOffsets(opts.Supersampling),
		pixelRatio: 1,
	}
}

// SetPixelRatio sets the device pixel ratio used by later SetSize calls.
func (r *Renderer) SetPixelRatio(ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	r.pixelRatio = ratio
}

func (r *Renderer) PixelRatio() float64 {
	return r.pixelRatio
}

// SetSize resizes the drawing buffer to width×height CSS pixels times the
// pixel ratio. When updateStyle is set the displayed size follows too.
func (r *Renderer) SetSize(width, height int, updateStyle bool) {
	r.surface.BufferWidth = int(math.Floor(float64(width) * r.pixelRatio))
	r.surface.BufferHeight = int(math.Floor(float64(height) * r.pixelRatio))
	if updateStyle {
		r.surface.ClientWidth = width
		r.surface.ClientHeight = height
	}
}

// SetClientSize records a layout change of the displayed surface without
// touching the drawing buffer.
func (r *Renderer) SetClientSize(width, height int) {
	r.surface.ClientWidth = width
	r.surface.ClientHeight = height
}

func (r *Renderer) Surface() Surface {
	return r.surface
}

// Frame returns the last rendered buffer, or nil before the first Render.
func (r *Renderer) Frame() *image.NRGBA {
	return r.frame
}

// Encode writes the last rendered frame as PNG.
func (r *Renderer) Encode(w io.Writer) error {
	if r.frame == nil {
		return ErrEmptySurface
	}
	return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(w, r.frame)
}

// Render draws the scene through the camera into the drawing buffer.
func (r *Renderer) Render(s *scene.Scene, camera *scene.PerspectiveCamera) {
	W, H := r.surface.BufferWidth, r.surface.BufferHeight
	if W <= 0 || H <= 0 {
		return
	}
	if r.frame == nil || r.frame.Bounds().Dx() != W || r.frame.Bounds().Dy() != H {
		r.frame = image.NewNRGBA(image.Rect(0, 0, W, H))
	}
	RaytraceScenePixels(r.frame, s, camera, r.offsets, r.opts)
}

// GenerateSupersamplingOffsets returns n×n offsets in [-0.5, +0.5] for
// supersampling, as pairs (dx, dy) with pixel-center spacing.
func GenerateSupersamplingOffsets(n int) [][2]float64 {
	if n <= 0 {
		return nil
	}
	step := 1.0 / float64(n)
	out := make([][2]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dx := (float64(i)+0.5)*step - 0.5
			dy := (float64(j)+0.5)*step - 0.5
			out = append(out, [2]float64{dx, dy})
		}
	}
	return out
}

// RaytraceScenePixels fills img row by row, spreading rows over workers.
func RaytraceScenePixels(img *image.NRGBA, s *scene.Scene, camera *scene.PerspectiveCamera, offsets [][2]float64, opts Options) {
	W, H := img.Bounds().Dx(), img.Bounds().Dy()
	meshes := s.Meshes()
	lights := s.Lights()
	unproject := camera.Unprojector()
	forward := vectors.New(0, 0, -1).RotateY(camera.Rotation.Y)
	N := float64(len(offsets))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for y := 0; y < H; y++ {
		g.Go(func() error {
			ctx := RayContext{Forward: forward, Near: camera.Near, Far: camera.Far}
			for x := 0; x < W; x++ {
				accum := colors.Color4{}
				for _, off := range offsets {
					origin, dir := unproject.ComputeRay(float64(x)+off[0], float64(y)+off[1], W, H)
					ctx.Origin = origin
					ctx.RayDirection = dir
					accum = accum.Add(shadeRay(&ctx, meshes, lights, opts.Ambient))
				}
				c := accum.Scale(1.0 / N).Unpremultiply().SRGB()
				img.SetNRGBA(x, y, c.ToNRGBA())
			}
			return nil
		})
	}
	_ = g.Wait()
}

// shadeRay composites every surface the ray passes through, front to back,
// and returns a premultiplied linear color.
func shadeRay(ctx *RayContext, meshes []*scene.Mesh, lights []*scene.DirectionalLight, ambient colors.Color4) colors.Color4 {
	acc := colors.Transparent()
	for _, h := range ctx.Trace(meshes) {
		c := ShadeSurface(ctx, h, lights, ambient)
		acc = acc.Under(c)
		if acc.A >= 0.999 {
			break
		}
	}
	return acc
}

// ShadeSurface lights one hit with a Lambert diffuse term plus a
// Blinn-Phong highlight whose sharpness follows the material roughness.
// The returned color is linear with straight alpha.
func ShadeSurface(ctx *RayContext, h hit, lights []*scene.DirectionalLight, ambient colors.Color4) colors.Color4 {
	m := h.Mesh
	mat := m.Material

	p := ctx.HitPoint(h.T)
	normal := p.Sub(m.Position).Normalize()

	base := mat.Color.Linear()
	alpha := mat.Alpha()
	if texel, ok := mat.Map.SampleDir(normal.RotateY(-m.Rotation.Y)); ok {
		base = base.Mul(texel.Linear())
		alpha *= texel.A
	}

	diffuseColor := base.ScaleRGB(1 - mat.Metalness)
	specColor := colors.New(0.04, 0.04, 0.04, 1).Mix(base, mat.Metalness)
	shininess := Clip(2/math.Pow(math.Max(mat.Roughness, 0.05), 4)-2, 1, 2048)
	view := ctx.RayDirection.Scale(-1)

	out := diffuseColor.Mul(ambient)
	for _, l := range lights {
		if !l.Visible {
			continue
		}
		L := l.Direction()
		ndl := normal.Dot(L)
		if ndl <= 0 {
			continue
		}
		radiance := l.Color.Linear().ScaleRGB(l.Intensity * ndl)

		halfVec := view.Add(L).Normalize()
		specular := math.Pow(Clip(normal.Dot(halfVec), 0, 1), shininess) * (shininess + 8) / (8 * math.Pi)

		out = out.Add(diffuseColor.Mul(radiance))
		out = out.Add(specColor.ScaleRGB(specular).Mul(radiance))
	}

	out.A = alpha
	return out.Clamp01()
}

// Clip clamps x into the inclusive range [min, max].
func Clip(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
