package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"sync/atomic"

	"github.com/echoflaresat/spacescroll/colors"
	"github.com/echoflaresat/spacescroll/vectors"
	"github.com/echoflaresat/tiff"
	"golang.org/x/exp/mmap"

	_ "image/jpeg" // register JPEG format with image.Decode
	_ "image/png"  // register PNG format with image.Decode
)

var ErrNotLoaded = errors.New("texture not loaded")

// Texture is an equirectangular image mapped onto a sphere. It starts empty
// and becomes sampleable once its asynchronous load has resolved.
type Texture struct {
	path string
	img  atomic.Pointer[decoded]
}

type decoded struct {
	img    image.Image
	width  int
	height int
	format string
	size   int64

	// src backs img for decoders that read pixels on demand. It stays
	// mapped for as long as img is reachable.
	src io.Closer
}

// FromImage wraps an already decoded image in a ready texture.
func FromImage(name string, img image.Image) *Texture {
	t := &Texture{path: name}
	t.img.Store(newDecoded(img, "memory", 0))
	return t
}

func newDecoded(img image.Image, format string, size int64) *decoded {
	b := img.Bounds()
	return &decoded{img: img, width: b.Dx(), height: b.Dy(), format: format, size: size}
}

func (t *Texture) Path() string {
	return t.path
}

// Ready reports whether the image has been decoded and bound.
func (t *Texture) Ready() bool {
	return t != nil && t.img.Load() != nil
}

// Size returns the texture dimensions, or ErrNotLoaded while pending.
func (t *Texture) Size() (int, int, error) {
	d := t.img.Load()
	if d == nil {
		return 0, 0, ErrNotLoaded
	}
	return d.width, d.height, nil
}

// SampleUV returns the texel at (u, v) with u in [0,1) wrapping around the
// sphere and v in [0,1] from the north pole down. No interpolation.
func (t *Texture) SampleUV(u, v float64) (colors.Color4, bool) {
	if t == nil {
		return colors.Color4{}, false
	}
	d := t.img.Load()
	if d == nil {
		return colors.Color4{}, false
	}

	u = u - math.Floor(u)
	x := int(u * float64(d.width))
	y := int(v * float64(d.height))

	if x < 0 {
		x = 0
	} else if x >= d.width {
		x = d.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= d.height {
		y = d.height - 1
	}

	b := d.img.Bounds()
	return colors.FromStandardColor(d.img.At(b.Min.X+x, b.Min.Y+y)), true
}

// SampleDir maps a unit direction in the body's local frame (Y up) to
// texture coordinates. The seam sits on -X like a UV sphere whose
// longitude runs from -X towards +Z.
func (t *Texture) SampleDir(n vectors.Vec3) (colors.Color4, bool) {
	u, v := SphereUV(n)
	return t.SampleUV(u, v)
}

// SphereUV returns the (u, v) texture coordinates of a local unit normal.
func SphereUV(n vectors.Vec3) (float64, float64) {
	y := n.Y
	if y > 1 {
		y = 1
	} else if y < -1 {
		y = -1
	}
	theta := math.Acos(y)
	phi := math.Atan2(n.Z, -n.X)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi / (2 * math.Pi), theta / math.Pi
}

// decodeFile reads path through a memory map, trying TIFF first and the
// registered stdlib codecs after that. The TIFF decoder streams pixels from
// the map, so a TIFF keeps it open; the stdlib codecs decode eagerly and
// release it at once.
func decodeFile(path string) (*decoded, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	size := int64(r.Len())
	section := io.NewSectionReader(r, 0, size)

	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		r.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	if isTiff(magic[:]) {
		img, err := tiff.Decode(section)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("decode tiff %s: %w", path, err)
		}
		d := newDecoded(img, "tiff", size)
		d.src = r
		return d, nil
	}

	defer r.Close()
	img, format, err := image.Decode(section)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return newDecoded(img, format, size), nil
}

func isTiff(magic []byte) bool {
	return bytes.Equal(magic, []byte("II*\x00")) || bytes.Equal(magic, []byte("MM\x00*"))
}

// Decode reads and decodes the image at path synchronously. A TIFF result
// reads from a memory map of path that stays open for the life of the
// process.
func Decode(path string) (image.Image, error) {
	d, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return d.img, nil
}
