package render

import (
	"image"
	"image/color"
	"math"
)

// Shadow describes a drop shadow in absolute surface pixels. Blur follows
// canvas semantics: the Gaussian sigma is half the blur value.
type Shadow struct {
	Color   color.NRGBA
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// TextShadow is applied to every overlay string. It does not scale with the
// surface size.
var TextShadow = Shadow{
	Color:   color.NRGBA{A: 204}, // rgba(0,0,0,0.8)
	Blur:    8,
	OffsetX: 2,
	OffsetY: 2,
}

// Visible reports whether drawing the shadow would change any pixel.
func (s Shadow) Visible() bool { return s.Color.A > 0 }

// Sigma is the Gaussian standard deviation for Blur.
func (s Shadow) Sigma() float64 { return s.Blur / 2 }

// Offset rounds the shadow offset to whole pixels.
func (s Shadow) Offset() image.Point {
	return image.Pt(int(math.Round(s.OffsetX)), int(math.Round(s.OffsetY)))
}

// margin is how far the blurred shadow can reach beyond the glyph bounds.
func (s Shadow) margin() int {
	if !s.Visible() {
		return 0
	}
	off := s.Offset()
	return int(math.Ceil(3*s.Sigma())) + max(abs(off.X), abs(off.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Surface is a raster target owned by exactly one driver at a time. It
// carries the shadow style applied to text drawn on it.
type Surface struct {
	img    *image.NRGBA
	shadow Shadow
}

// NewSurface allocates a transparent w×h surface.
func NewSurface(w, h int) *Surface {
	return &Surface{img: image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))}
}

// Resize sets the surface dimensions. Like a canvas, resizing always leaves
// the surface cleared.
func (s *Surface) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	if s.img == nil || s.img.Rect.Dx() != w || s.img.Rect.Dy() != h {
		s.img = image.NewNRGBA(image.Rect(0, 0, w, h))
		return
	}
	s.Clear()
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	if s.img == nil {
		return
	}
	clear(s.img.Pix)
}

// Image exposes the pixels. The caller must not keep it across renders.
func (s *Surface) Image() *image.NRGBA { return s.img }

// Width and Height are zero for an unsized surface.
func (s *Surface) Width() int {
	if s.img == nil {
		return 0
	}
	return s.img.Rect.Dx()
}

func (s *Surface) Height() int {
	if s.img == nil {
		return 0
	}
	return s.img.Rect.Dy()
}

func (s *Surface) Shadow() Shadow      { return s.shadow }
func (s *Surface) SetShadow(sh Shadow) { s.shadow = sh }
func (s *Surface) ResetShadow()        { s.shadow = Shadow{} }

// Snapshot copies the current pixels.
func (s *Surface) Snapshot() *image.NRGBA {
	if s.img == nil {
		return image.NewNRGBA(image.Rectangle{})
	}
	out := image.NewNRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}
