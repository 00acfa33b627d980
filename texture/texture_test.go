package texture

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	xtiff "golang.org/x/image/tiff"

	"github.com/echoflaresat/spacescroll/vectors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeQuadrants writes a 4x2 PNG: left half red, right half blue,
// bottom row darkened.
func writeQuadrants(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			if y == 1 {
				c.R /= 2
				c.B /= 2
			}
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "quad.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

// writeGrayTiff writes an uncompressed single-strip 8x4 grayscale TIFF
// whose texel (x, y) has value 10*x + 50*y.
func writeGrayTiff(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(10*x + 50*y)})
		}
	}
	path := filepath.Join(t.TempDir(), "gray.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := xtiff.Encode(f, img, &xtiff.Options{Compression: xtiff.Uncompressed}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func waitLoaded(t *testing.T, l *Loader) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.Wait(ctx)
}

func TestLoaderResolvesInBackground(t *testing.T) {
	path := writeQuadrants(t)
	l, err := NewLoader(4, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	tex := l.Load(path)
	if tex.Path() != path {
		t.Fatalf("Path() = %q, want %q", tex.Path(), path)
	}
	if err := waitLoaded(t, l); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !tex.Ready() {
		t.Fatal("texture not ready after Wait")
	}
	w, h, err := tex.Size()
	if err != nil || w != 4 || h != 2 {
		t.Fatalf("Size() = %d,%d,%v; want 4,2,nil", w, h, err)
	}

	c, ok := tex.SampleUV(0.1, 0)
	if !ok || c.R < 0.99 || c.B > 0.01 {
		t.Errorf("left texel = %+v, want red", c)
	}
	c, ok = tex.SampleUV(0.9, 0)
	if !ok || c.B < 0.99 || c.R > 0.01 {
		t.Errorf("right texel = %+v, want blue", c)
	}
	c, _ = tex.SampleUV(0.9, 1)
	if c.B > 0.51 {
		t.Errorf("bottom texel = %+v, want darkened blue", c)
	}
}

func TestLoaderSamplesStreamedTiff(t *testing.T) {
	path := writeGrayTiff(t)
	l, err := NewLoader(4, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	tex := l.Load(path)
	if err := waitLoaded(t, l); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	w, h, err := tex.Size()
	if err != nil || w != 8 || h != 4 {
		t.Fatalf("Size() = %d,%d,%v; want 8,4,nil", w, h, err)
	}

	// Texel (4, 2) holds 140; (7, 3) is the last column and row, 220.
	cases := []struct {
		u, v float64
		want uint8
	}{
		{0.5, 0.5, 140},
		{0.999, 0.999, 220},
		{0, 0, 0},
	}
	for _, c := range cases {
		got, ok := tex.SampleUV(c.u, c.v)
		if !ok {
			t.Fatalf("SampleUV(%v,%v) not ready", c.u, c.v)
		}
		if want := float64(c.want) / 255; math.Abs(got.R-want) > 1e-3 || math.Abs(got.B-want) > 1e-3 {
			t.Errorf("SampleUV(%v,%v) = %+v, want gray %d", c.u, c.v, got, c.want)
		}
	}

	// Sample again from many goroutines, the way the render workers do.
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for y := 0.0; y < 1; y += 0.1 {
				for x := 0.0; x < 1; x += 0.05 {
					tex.SampleUV(x, y)
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}

func TestDecodeTiffStaysReadable(t *testing.T) {
	img, err := Decode(writeGrayTiff(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
	r, _, _, _ := img.At(3, 1).RGBA()
	if got := uint8(r >> 8); got != 80 {
		t.Fatalf("At(3,1) = %d, want 80", got)
	}
}

func TestSampleUVReachesLastTexel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: 255, A: 255})
	}
	img.SetNRGBA(3, 0, color.NRGBA{B: 255, A: 255})
	tex := FromImage("seam", img)

	for _, u := range []float64{0.76, 0.9, 0.999} {
		c, ok := tex.SampleUV(u, 0.5)
		if !ok || c.B < 0.99 {
			t.Errorf("SampleUV(%v) = %+v, want the blue last column", u, c)
		}
	}
	for _, u := range []float64{0.1, 0.74} {
		if c, _ := tex.SampleUV(u, 0.5); c.B > 0.01 {
			t.Errorf("SampleUV(%v) = %+v, want red", u, c)
		}
	}
	if c, _ := tex.SampleUV(1.0, 0.5); c.R < 0.99 {
		t.Errorf("SampleUV(1) = %+v, want wrap to the first column", c)
	}
}

func TestLoaderCachesDecodedImages(t *testing.T) {
	path := writeQuadrants(t)
	l, err := NewLoader(4, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	l.Load(path)
	if err := waitLoaded(t, l); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	again := l.Load(path)
	if !again.Ready() {
		t.Fatal("second load of a cached path should be ready immediately")
	}
}

func TestLoaderFailureLeavesTextureEmpty(t *testing.T) {
	l, err := NewLoader(0, quietLogger())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	tex := l.Load(filepath.Join(t.TempDir(), "missing.jpg"))
	if err := waitLoaded(t, l); err == nil {
		t.Fatal("Wait should report the failed load")
	}
	if tex.Ready() {
		t.Fatal("failed texture must stay empty")
	}
	if _, _, err := tex.Size(); err != ErrNotLoaded {
		t.Fatalf("Size() err = %v, want ErrNotLoaded", err)
	}
	if _, ok := tex.SampleUV(0.5, 0.5); ok {
		t.Fatal("sampling an empty texture should report !ok")
	}
}

func TestNilTextureIsInert(t *testing.T) {
	var tex *Texture
	if tex.Ready() {
		t.Fatal("nil texture reported ready")
	}
	if _, ok := tex.SampleDir(vectors.New(0, 1, 0)); ok {
		t.Fatal("nil texture sampled")
	}
}

func TestSphereUV(t *testing.T) {
	cases := []struct {
		name string
		n    vectors.Vec3
		u, v float64
	}{
		{"north pole", vectors.New(0, 1, 0), 0.5, 0},
		{"south pole", vectors.New(0, -1, 0), 0.5, 1},
		{"seam", vectors.New(-1, 0, 0), 0, 0.5},
		{"quarter", vectors.New(0, 0, 1), 0.25, 0.5},
		{"half", vectors.New(1, 0, 0), 0.5, 0.5},
		{"three quarters", vectors.New(0, 0, -1), 0.75, 0.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u, v := SphereUV(c.n)
			if math.Abs(u-c.u) > 1e-9 || math.Abs(v-c.v) > 1e-9 {
				t.Errorf("SphereUV(%v) = (%v,%v), want (%v,%v)", c.n, u, v, c.u, c.v)
			}
		})
	}
}
