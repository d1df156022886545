// Package cropper maps the user's crop frame onto source pixels and keeps the
// frame locked to 16:9 while it is dragged and resized.
package cropper

import (
	"math"

	"github.com/menta2k/thumbnailer/pkg/types"
)

// AspectRatio represents a frame shape
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Ratio returns Width/Height
func (a AspectRatio) Ratio() float64 { return float64(a.Width) / float64(a.Height) }

// Widescreen is the only frame shape thumbnails use
var Widescreen = AspectRatio{16, 9, "widescreen"}

const (
	// Coverage is the share of the limiting dimension an initial crop covers.
	Coverage = 0.9
	// Tolerance is the relative error allowed on a crop's aspect ratio.
	Tolerance = 1e-6
)

// Scale converts displayed-image coordinates to natural pixels
type Scale struct {
	X float64
	Y float64
}

// ScaleFor returns natural/displayed per axis. An unset displayed size means
// the image is shown at natural size.
func ScaleFor(natural, displayed types.Size) Scale {
	if displayed.Empty() || natural.Empty() {
		return Scale{X: 1, Y: 1}
	}
	return Scale{X: natural.W / displayed.W, Y: natural.H / displayed.H}
}

// ToSource maps a crop in displayed coordinates to source pixels. ok is false
// unless both sides are positive; there is nothing to render yet.
func ToSource(crop types.Rect, s Scale) (src types.Rect, ok bool) {
	if crop.Empty() {
		return types.Rect{}, false
	}
	return types.Rect{
		X:      crop.X * s.X,
		Y:      crop.Y * s.Y,
		Width:  crop.Width * s.X,
		Height: crop.Height * s.Y,
	}, true
}

// IsWidescreen reports whether r is 16:9 within Tolerance
func IsWidescreen(r types.Rect) bool {
	if r.Empty() {
		return false
	}
	want := Widescreen.Ratio()
	return math.Abs(r.Aspect()-want)/want <= Tolerance
}

// Initial returns the largest centred 16:9 crop that covers at most 90% of
// the image width and height.
func Initial(w, h float64) types.Rect {
	return InitialAt(w, h, 0.5, 0.5)
}

// InitialAt sizes a crop like Initial but centres it on the normalized point
// (cx, cy), shifted as needed to stay inside the image.
func InitialAt(w, h, cx, cy float64) types.Rect {
	if w <= 0 || h <= 0 {
		return types.Rect{}
	}
	r := Widescreen.Ratio()
	cw := w * Coverage
	ch := cw / r
	if ch > h*Coverage {
		ch = h * Coverage
		cw = ch * r
	}
	return types.Rect{
		X:      clamp(clamp(cx, 0, 1)*w-cw/2, 0, w-cw),
		Y:      clamp(clamp(cy, 0, 1)*h-ch/2, 0, h-ch),
		Width:  cw,
		Height: ch,
	}
}

// Constrain forces c to 16:9, keeping its width where possible, and fits it
// inside bounds.
func Constrain(c types.Rect, bounds types.Size) types.Rect {
	if c.Width <= 0 || bounds.Empty() {
		return types.Rect{X: clamp(c.X, 0, bounds.W), Y: clamp(c.Y, 0, bounds.H)}
	}
	r := Widescreen.Ratio()
	w := math.Min(c.Width, bounds.W)
	h := w / r
	if h > bounds.H {
		h = bounds.H
		w = h * r
	}
	return types.Rect{
		X:      clamp(c.X, 0, bounds.W-w),
		Y:      clamp(c.Y, 0, bounds.H-h),
		Width:  w,
		Height: h,
	}
}

// Move drags the crop by (dx, dy) without leaving bounds
func Move(c types.Rect, dx, dy float64, bounds types.Size) types.Rect {
	c.X = clamp(c.X+dx, 0, bounds.W-c.Width)
	c.Y = clamp(c.Y+dy, 0, bounds.H-c.Height)
	return c
}

// Resize changes the crop width with the top-left corner fixed. The width is
// limited so the frame stays inside bounds; height follows the ratio.
func Resize(c types.Rect, width float64, bounds types.Size) types.Rect {
	r := Widescreen.Ratio()
	limit := math.Min(bounds.W-c.X, (bounds.H-c.Y)*r)
	w := clamp(width, 0, math.Max(limit, 0))
	c.Width = w
	c.Height = w / r
	return c
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
