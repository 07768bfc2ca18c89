// Package screen encodes the engine's visual output into transportable
// images. The PNG codec hashes the raw pixel data and caches the last
// encoding, so repeated captures of an unchanged screen return
// identical bytes without re-encoding.
package screen

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"sync"

	"github.com/cespare/xxhash"
	xdraw "golang.org/x/image/draw"
)

// Snapshot is an encoded still image of the screen. Immutable once
// produced; the codec retains no reference to the payload it returns.
type Snapshot struct {
	MimeType string
	Data     []byte
}

// Codec converts a raw visual buffer into a Snapshot.
type Codec interface {
	Encode(img image.Image) (Snapshot, error)
}

// PNGCodec encodes screens as PNG, optionally upscaled by an integer
// factor. Pixel-art output wants hard edges, so scaling uses nearest
// neighbour.
type PNGCodec struct {
	scale int

	mu       sync.Mutex
	lastHash uint64
	last     Snapshot
}

// NewPNG returns a PNG codec. A scale below 1 is treated as 1.
func NewPNG(scale int) *PNGCodec {
	if scale < 1 {
		scale = 1
	}
	return &PNGCodec{scale: scale}
}

func (c *PNGCodec) Encode(img image.Image) (Snapshot, error) {
	rgba := toRGBA(img)

	c.mu.Lock()
	defer c.mu.Unlock()

	hash := xxhash.Sum64(rgba.Pix)
	if hash == c.lastHash && c.last.Data != nil {
		return c.last, nil
	}

	out := image.Image(rgba)
	if c.scale > 1 {
		b := rgba.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*c.scale, b.Dy()*c.scale))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), rgba, b, xdraw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Snapshot{}, err
	}

	c.lastHash = hash
	c.last = Snapshot{MimeType: "image/png", Data: buf.Bytes()}
	return c.last, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

var _ Codec = (*PNGCodec)(nil)
