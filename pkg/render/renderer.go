// Package render composites a cropped photo and its text overlays onto a
// Surface.
//
// Render is a pure projection of its inputs: the same state drawn on a cleared
// surface of the same size always produces the same pixels. Preview and
// export differ only in surface size and font sizes.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/menta2k/thumbnailer/pkg/fonts"
	"github.com/menta2k/thumbnailer/pkg/layout"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// Canonical export resolution.
const (
	ExportWidth  = 1280
	ExportHeight = 720
)

// Font size ratios relative to the surface width.
const (
	TitleSizeRatio = 0.0625
	DescSizeRatio  = 0.03125
)

// FontSizes are pixel sizes for the title and for the description and
// location lines.
type FontSizes struct {
	Title float64
	Desc  float64
}

// ExportFontSizes are the fixed sizes used at the export resolution. They
// equal FontSizesFor(ExportWidth).
var ExportFontSizes = FontSizes{Title: 80, Desc: 40}

// FontSizesFor scales the font sizes to a surface width.
func FontSizesFor(width int) FontSizes {
	w := float64(width)
	return FontSizes{Title: w * TitleSizeRatio, Desc: w * DescSizeRatio}
}

// Renderer draws thumbnails. It holds only immutable collaborators.
type Renderer struct {
	fonts   *fonts.Library
	painter Painter
	filter  imaging.ResampleFilter
	log     *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPainter replaces the text painter.
func WithPainter(p Painter) Option { return func(r *Renderer) { r.painter = p } }

// WithFilter sets the resampling filter used to scale the crop.
func WithFilter(f imaging.ResampleFilter) Option { return func(r *Renderer) { r.filter = f } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Renderer) { r.log = l } }

// New returns a renderer drawing white text from lib.
func New(lib *fonts.Library, opts ...Option) *Renderer {
	r := &Renderer{
		fonts:   lib,
		painter: ShadowPainter{Fill: color.White},
		filter:  imaging.Linear,
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.fonts == nil {
		r.fonts = fonts.NewLibrary(r.log)
	}
	return r
}

// Render draws src (source-image pixels) scaled to fill s, then the title,
// description and, when non-empty, location of st. The surface shadow is
// reset before returning. A state without an image or an empty src leaves the
// surface untouched.
func (r *Renderer) Render(s *Surface, st types.ThumbnailState, src types.Rect, sizes FontSizes) error {
	if !st.HasImage() || src.Empty() {
		return nil
	}
	w, h := s.Width(), s.Height()
	if w == 0 || h == 0 {
		return nil
	}
	dst := s.Image()

	if err := r.drawPhoto(dst, st.Source.Image, src); err != nil {
		return err
	}

	s.SetShadow(TextShadow)
	defer s.ResetShadow()

	fw, fh := float64(w), float64(h)

	titleFace, err := r.fonts.Face(st.Title.Font, sizes.Title, true)
	if err != nil {
		return fmt.Errorf("title font: %w", err)
	}
	descFace, err := r.fonts.Face(st.Description.Font, sizes.Desc, false)
	if err != nil {
		return fmt.Errorf("description font: %w", err)
	}
	pos := layout.Compute(st.Title.Anchor, fw, fh, sizes.Title, sizes.Desc, false)
	r.painter.DrawText(dst, titleFace, st.Title.Content, pos.X, pos.YTitle, pos.Align, s.Shadow())
	r.painter.DrawText(dst, descFace, st.Description.Content, pos.X, pos.YDesc, pos.Align, s.Shadow())

	if st.Location.Content == "" {
		return nil
	}
	locFace, err := r.fonts.Face(st.Location.Font, sizes.Desc, false)
	if err != nil {
		return fmt.Errorf("location font: %w", err)
	}
	loc := layout.Compute(st.Location.Anchor, fw, fh, sizes.Title, sizes.Desc, true)
	r.painter.DrawText(dst, locFace, st.Location.Content, loc.X, loc.YTitle, loc.Align, s.Shadow())
	return nil
}

func (r *Renderer) drawPhoto(dst *image.NRGBA, img image.Image, src types.Rect) error {
	b := img.Bounds()
	rect := src.Pixels().Add(b.Min).Intersect(b)
	if rect.Empty() {
		return fmt.Errorf("crop %v lies outside the %dx%d image", src, b.Dx(), b.Dy())
	}
	scaled := imaging.Resize(imaging.Crop(img, rect), dst.Rect.Dx(), dst.Rect.Dy(), r.filter)
	draw.Draw(dst, dst.Rect, scaled, image.Point{}, draw.Src)
	r.log.Debug("photo drawn",
		slog.String("component", "render"),
		slog.Any("src", rect),
		slog.Int("w", dst.Rect.Dx()),
		slog.Int("h", dst.Rect.Dy()))
	return nil
}
