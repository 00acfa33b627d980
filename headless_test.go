package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/echoflaresat/spacescroll/choreo"
	"github.com/echoflaresat/spacescroll/host"
	"github.com/echoflaresat/spacescroll/page"
	"github.com/echoflaresat/spacescroll/render"
	"github.com/echoflaresat/spacescroll/texture"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSolid(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	if err := writePNG(path, img); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testAssets(t *testing.T) choreo.Assets {
	t.Helper()
	dir := t.TempDir()
	a := choreo.Assets{
		EarthSurface: filepath.Join(dir, "earth.png"),
		EarthClouds:  filepath.Join(dir, "clouds.png"),
		MoonSurface:  filepath.Join(dir, "moon.png"),
		MarsSurface:  filepath.Join(dir, "mars.png"),
	}
	writeSolid(t, a.EarthSurface, color.NRGBA{R: 0x20, G: 0x50, B: 0xC0, A: 0xFF})
	writeSolid(t, a.EarthClouds, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	writeSolid(t, a.MoonSurface, color.NRGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xFF})
	writeSolid(t, a.MarsSurface, color.NRGBA{R: 0xC0, G: 0x40, B: 0x20, A: 0xFF})
	return a
}

func renderFrames(t *testing.T, assets choreo.Assets, scrolls []float64) string {
	t.Helper()
	logger := quietLogger()

	p := page.New(96, 64, 1, 2000)
	loader, err := texture.NewLoader(8, logger)
	if err != nil {
		t.Fatal(err)
	}
	r := render.New(render.Options{Supersampling: 1, Workers: 2})
	cfg := choreo.DefaultConfig()
	cfg.Assets = assets
	c := choreo.New(cfg, p.Viewport(), r, loader)
	s := host.NewSession(p, host.Direct(c), r)

	out := t.TempDir()
	err = runHeadless(context.Background(), s, loader, headless{Frames: len(scrolls), Scrolls: scrolls, OutDir: out}, logger)
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	return out
}

func loadPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestHeadlessFramesAreDeterministic(t *testing.T) {
	assets := testAssets(t)
	scrolls := []float64{0, 400, 900}

	first := renderFrames(t, assets, scrolls)
	second := renderFrames(t, assets, scrolls)

	names := []string{"frame_0000.png", "frame_0001.png", "frame_0002.png"}
	for _, name := range names {
		a := loadPNG(t, filepath.Join(first, name))
		b := loadPNG(t, filepath.Join(second, name))
		if a.Bounds().Dx() != 96 || a.Bounds().Dy() != 64 {
			t.Fatalf("%s bounds = %v", name, a.Bounds())
		}
		if !imagesEqual(a, b) {
			t.Errorf("%s differs between identical runs", name)
		}
	}

	top := loadPNG(t, filepath.Join(first, names[0]))
	scrolled := loadPNG(t, filepath.Join(first, names[2]))
	if imagesEqual(top, scrolled) {
		t.Error("scrolling did not change the frame")
	}
}

func TestHeadlessRendersWithoutTextures(t *testing.T) {
	missing := choreo.Assets{
		EarthSurface: "does/not/exist.jpg",
		EarthClouds:  "does/not/exist.jpg",
		MoonSurface:  "does/not/exist.jpg",
		MarsSurface:  "does/not/exist.jpg",
	}
	out := renderFrames(t, missing, []float64{0})
	img := loadPNG(t, filepath.Join(out, "frame_0000.png"))
	if img.Bounds().Empty() {
		t.Fatal("empty frame")
	}
}

func TestHeadlessCancelled(t *testing.T) {
	p := page.New(16, 16, 1, 100)
	loader, err := texture.NewLoader(1, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	r := render.New(render.Options{})
	c := choreo.New(choreo.DefaultConfig(), p.Viewport(), r, loader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runHeadless(ctx, host.NewSession(p, host.Direct(c), r), loader, headless{Frames: 5}, quietLogger())
	if err == nil {
		t.Fatal("cancelled run returned nil")
	}
}

func TestParseScrolls(t *testing.T) {
	cases := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"0", []float64{0}, false},
		{"0, 250,1000.5", []float64{0, 250, 1000.5}, false},
		{"10,,20,", []float64{10, 20}, false},
		{"", nil, true},
		{"12,abc", nil, true},
	}
	for _, c := range cases {
		got, err := parseScrolls(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parseScrolls(%q) err = %v", c.in, err)
			continue
		}
		if len(got) != len(c.want) {
			t.Errorf("parseScrolls(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("parseScrolls(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func imagesEqual(a, b image.Image) bool {
	var bufA, bufB bytes.Buffer
	_ = png.Encode(&bufA, a)
	_ = png.Encode(&bufB, b)
	return bytes.Equal(bufA.Bytes(), bufB.Bytes())
}
