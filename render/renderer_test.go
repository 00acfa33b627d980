package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/echoflaresat/spacescroll/colors"
	"github.com/echoflaresat/spacescroll/scene"
	"github.com/echoflaresat/spacescroll/texture"
	"github.com/echoflaresat/spacescroll/vectors"
)

func testScene(lightPos vectors.Vec3) (*scene.Scene, *scene.PerspectiveCamera, *scene.Mesh) {
	s := scene.New()
	ball := scene.NewMesh("ball", scene.NewSphereGeometry(10, 32, 32), scene.NewStandardMaterial())
	light := scene.NewDirectionalLight(colors.White(), 2)
	light.Position = lightPos
	s.Add(ball, light, light.Target)

	cam := scene.NewPerspectiveCamera(50, 1, 1, 10000)
	cam.Position = vectors.New(0, 0, 50)
	return s, cam, ball
}

func renderOnce(s *scene.Scene, cam *scene.PerspectiveCamera, size int) *image.NRGBA {
	r := New(Options{Supersampling: 1, Workers: 2})
	r.SetSize(size, size, true)
	r.Render(s, cam)
	return r.Frame()
}

func TestRenderCoverageAndTransparency(t *testing.T) {
	s, cam, _ := testScene(vectors.New(0, 0, 100))
	img := renderOnce(s, cam, 32)

	if a := img.NRGBAAt(16, 16).A; a != 255 {
		t.Errorf("center alpha = %d, want 255", a)
	}
	if a := img.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0 (transparent background)", a)
	}
}

func TestRenderLitSideFacesLight(t *testing.T) {
	s, cam, _ := testScene(vectors.New(100, 0, 0))
	img := renderOnce(s, cam, 32)

	lit := img.NRGBAAt(20, 16)
	dark := img.NRGBAAt(11, 16)
	if lit.R <= dark.R {
		t.Errorf("lit side R=%d should exceed dark side R=%d", lit.R, dark.R)
	}
	if dark.A != 255 {
		t.Errorf("unlit surface should still be opaque, alpha=%d", dark.A)
	}
}

func TestRenderHiddenMeshIsSkipped(t *testing.T) {
	s, cam, ball := testScene(vectors.New(0, 0, 100))
	ball.Visible = false
	img := renderOnce(s, cam, 16)
	if a := img.NRGBAAt(8, 8).A; a != 0 {
		t.Errorf("hidden mesh drawn, alpha=%d", a)
	}
}

func TestRenderTransparentShellBlendsOverSurface(t *testing.T) {
	s, cam, ball := testScene(vectors.New(0, 0, 100))

	red := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		red.SetNRGBA(i%2, i/2, color.NRGBA{R: 255, A: 255})
	}
	ball.Material.Map = texture.FromImage("red", red)

	shell := scene.NewMesh("shell", scene.NewSphereGeometry(10.1, 32, 32), scene.NewStandardMaterial())
	shell.Material.Transparent = true
	shell.Material.Opacity = 0.5
	s.Add(shell)

	c := renderOnce(s, cam, 16).NRGBAAt(8, 8)
	if c.A != 255 {
		t.Fatalf("alpha = %d, want 255", c.A)
	}
	if c.G == 0 || c.R <= c.G {
		t.Errorf("expected red surface washed by white shell, got %+v", c)
	}
}

func TestRenderNearPlaneClips(t *testing.T) {
	s, cam, _ := testScene(vectors.New(0, 0, 100))
	cam.Near = 100
	cam.UpdateProjectionMatrix()
	img := renderOnce(s, cam, 16)
	if a := img.NRGBAAt(8, 8).A; a != 0 {
		t.Errorf("sphere in front of the near plane drawn, alpha=%d", a)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	s, cam, _ := testScene(vectors.New(100, 50, 50))
	a := renderOnce(s, cam, 24)
	b := renderOnce(s, cam, 24)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("two renders of the same scene differ")
	}
}

func TestSetSizeHonoursPixelRatio(t *testing.T) {
	r := New(Options{})
	r.SetPixelRatio(2)
	r.SetSize(400, 300, true)
	got := r.Surface()
	want := Surface{BufferWidth: 800, BufferHeight: 600, ClientWidth: 400, ClientHeight: 300}
	if got != want {
		t.Fatalf("Surface() = %+v, want %+v", got, want)
	}
	if !got.NeedsResize() {
		t.Fatal("a 2x buffer never equals its CSS size")
	}

	r.SetPixelRatio(1)
	r.SetClientSize(640, 480)
	if !r.Surface().NeedsResize() {
		t.Fatal("client layout change should require a resize")
	}
	r.SetSize(640, 480, false)
	if r.Surface().NeedsResize() {
		t.Fatalf("surface still mismatched after resize: %+v", r.Surface())
	}
}

func TestEncodeBeforeRender(t *testing.T) {
	r := New(Options{})
	if err := r.Encode(&bytes.Buffer{}); err != ErrEmptySurface {
		t.Fatalf("Encode() = %v, want ErrEmptySurface", err)
	}
}

func TestGenerateSupersamplingOffsets(t *testing.T) {
	if got := GenerateSupersamplingOffsets(0); got != nil {
		t.Fatalf("n=0 should give nil, got %v", got)
	}
	got := GenerateSupersamplingOffsets(2)
	want := [][2]float64{{-0.25, -0.25}, {-0.25, 0.25}, {0.25, -0.25}, {0.25, 0.25}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestIntersectSphere(t *testing.T) {
	cases := []struct {
		name string
		o, d vectors.Vec3
		want float64
	}{
		{"hit front", vectors.New(0, 0, 50), vectors.New(0, 0, -1), 40},
		{"miss", vectors.New(0, 20, 50), vectors.New(0, 0, -1), -1},
		{"behind", vectors.New(0, 0, 50), vectors.New(0, 0, 1), -1},
		{"inside", vectors.New(0, 0, 0), vectors.New(0, 0, -1), 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := intersectSphere(c.o, c.d, 10); got != c.want {
				t.Errorf("intersectSphere = %v, want %v", got, c.want)
			}
		})
	}
}
