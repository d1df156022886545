// Package focus finds where the subject of a photo is so the initial crop can
// be centred on it instead of on the image centre.
package focus

import (
	"context"
	"image"
)

// Point is a focus position normalised to [0,1] on both axes.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center is the image centre, the answer when nothing stands out.
var Center = Point{X: 0.5, Y: 0.5}

// Clamp limits p to the unit square.
func (p Point) Clamp() Point {
	return Point{X: clamp01(p.X), Y: clamp01(p.Y)}
}

// Locator returns the focus point of img.
type Locator interface {
	Locate(ctx context.Context, img image.Image) (Point, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, img image.Image) (Point, error)

func (f LocatorFunc) Locate(ctx context.Context, img image.Image) (Point, error) { return f(ctx, img) }

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
