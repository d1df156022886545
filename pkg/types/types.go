package types

import (
	"image"
	"math"

	"github.com/menta2k/thumbnailer/pkg/fonts"
	"github.com/menta2k/thumbnailer/pkg/layout"
)

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Primary represents the primary subject detected in an image
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Cx         float64 `json:"cx"`
	Cy         float64 `json:"cy"`
}

// AnalysisResult is what a vision model reports about an image
type AnalysisResult struct {
	Primary     Primary  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Size is a width/height pair in pixels
type Size struct {
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Empty reports whether either side is zero or negative
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Rect is a rectangle in floating point pixels. A crop region is a Rect in
// displayed-image coordinates.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Empty reports a zero-area rectangle
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Aspect returns Width/Height, or 0 for an empty rectangle
func (r Rect) Aspect() float64 {
	if r.Height <= 0 {
		return 0
	}
	return r.Width / r.Height
}

// Pixels rounds the rectangle to integer pixel bounds
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
}

// SourceImage is a decoded photo with its natural dimensions
type SourceImage struct {
	Image  image.Image
	Width  int
	Height int
}

// NewSourceImage wraps a decoded image
func NewSourceImage(img image.Image) *SourceImage {
	b := img.Bounds()
	return &SourceImage{Image: img, Width: b.Dx(), Height: b.Dy()}
}

// Natural returns the natural size as floats
func (s *SourceImage) Natural() Size {
	return Size{W: float64(s.Width), H: float64(s.Height)}
}

// TextOverlay is one string drawn over the photo
type TextOverlay struct {
	Content string        `json:"content" yaml:"content"`
	Font    fonts.Family  `json:"font" yaml:"font"`
	Anchor  layout.Anchor `json:"anchor" yaml:"anchor"`
}

// ThumbnailState is everything a render needs. Title and Description share
// font and anchor; Location is positioned on its own.
type ThumbnailState struct {
	Source *SourceImage
	// Display is the on-screen size the crop was drawn against.
	Display     Size
	Crop        Rect
	Title       TextOverlay
	Description TextOverlay
	Location    TextOverlay
}

// NewThumbnailState returns a state with the default fonts and anchors and
// no image.
func NewThumbnailState() ThumbnailState {
	text := TextOverlay{Font: fonts.DefaultText, Anchor: layout.BottomLeft}
	return ThumbnailState{
		Title:       text,
		Description: text,
		Location:    TextOverlay{Font: fonts.DefaultLocation, Anchor: layout.TopCenter},
	}
}

// HasImage reports whether a source image is loaded
func (s ThumbnailState) HasImage() bool { return s.Source != nil && s.Source.Image != nil }
