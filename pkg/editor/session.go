// Package editor holds the thumbnail state and drives the preview and export
// renders from it.
//
// A Session is the single source of truth. Every mutation re-renders the
// preview synchronously; export renders on demand at 1280×720. A Session is
// not safe for concurrent use.
package editor

import (
	"context"
	"image"
	"log/slog"

	"github.com/menta2k/thumbnailer/pkg/cropper"
	"github.com/menta2k/thumbnailer/pkg/focus"
	"github.com/menta2k/thumbnailer/pkg/fonts"
	"github.com/menta2k/thumbnailer/pkg/layout"
	"github.com/menta2k/thumbnailer/pkg/render"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// PreviewHandler is called with the preview surface after each render. The
// image is reused by the next render; copy it to keep it.
type PreviewHandler func(img *image.NRGBA)

type Session struct {
	state     types.ThumbnailState
	preview   *Preview
	exporter  *Exporter
	onPreview PreviewHandler
	log       *slog.Logger

	containerWidth int
}

// Option configures a Session.
type Option func(*Session)

// WithContainerWidth sets the initial preview width.
func WithContainerWidth(w int) Option { return func(s *Session) { s.containerWidth = w } }

// WithPreviewHandler registers a callback for rendered previews.
func WithPreviewHandler(h PreviewHandler) Option { return func(s *Session) { s.onPreview = h } }

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.log = l } }

// NewSession returns an empty session with the default fonts and anchors.
func NewSession(r *render.Renderer, opts ...Option) *Session {
	s := &Session{
		state:          types.NewThumbnailState(),
		containerWidth: DefaultContainerWidth,
		log:            slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if r == nil {
		r = render.New(nil, render.WithLogger(s.log))
	}
	s.preview = NewPreview(r, s.containerWidth, s.log)
	s.exporter = NewExporter(r, s.log)
	return s
}

// State returns a copy of the current state.
func (s *Session) State() types.ThumbnailState { return s.state }

// Preview returns the live preview surface image.
func (s *Session) Preview() *image.NRGBA { return s.preview.Surface().Image() }

// PreviewSnapshot returns a copy of the preview that later edits won't touch.
func (s *Session) PreviewSnapshot() *image.NRGBA { return s.preview.Surface().Snapshot() }

// LoadImage replaces the photo, resets the display size to its natural size
// and centres a fresh 16:9 crop. Text is kept.
func (s *Session) LoadImage(img image.Image) {
	s.setImage(img)
	s.state.Crop = cropper.Initial(s.state.Display.W, s.state.Display.H)
	s.refresh("load")
}

// LoadImageFocused is LoadImage with the crop centred on the point loc
// returns. A nil loc behaves like LoadImage. If loc fails the crop is centred
// on the image and the error is returned; the session is usable either way.
func (s *Session) LoadImageFocused(ctx context.Context, img image.Image, loc focus.Locator) error {
	if loc == nil {
		s.LoadImage(img)
		return nil
	}
	s.setImage(img)
	p, err := loc.Locate(ctx, img)
	if err != nil {
		s.log.Warn("focus lookup failed, centring crop", slog.Any("error", err))
		p = focus.Center
	}
	d := s.state.Display
	s.state.Crop = cropper.InitialAt(d.W, d.H, p.X, p.Y)
	s.refresh("load")
	return err
}

func (s *Session) setImage(img image.Image) {
	s.state.Source = types.NewSourceImage(img)
	s.state.Display = s.state.Source.Natural()
	s.log.Info("image loaded",
		slog.Int("width", s.state.Source.Width),
		slog.Int("height", s.state.Source.Height))
}

// SetDisplaySize records the on-screen size of the photo. The crop is scaled
// with it so it keeps covering the same source pixels. A display of another
// shape stretches the crop, so it is forced back to 16:9 inside the new size.
func (s *Session) SetDisplaySize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	old := s.state.Display
	d := types.Size{W: w, H: h}
	if !old.Empty() {
		sx, sy := w/old.W, h/old.H
		c := s.state.Crop
		c = types.Rect{X: c.X * sx, Y: c.Y * sy, Width: c.Width * sx, Height: c.Height * sy}
		if !c.Empty() && s.state.HasImage() && !cropper.IsWidescreen(c) {
			c = cropper.Constrain(c, d)
		}
		s.state.Crop = c
	}
	s.state.Display = d
	s.refresh("display")
}

// SetCrop replaces the crop. It is forced to 16:9 and into the displayed
// image unless it has zero area, which is stored as is and disables rendering.
func (s *Session) SetCrop(c types.Rect) {
	if !c.Empty() && s.state.HasImage() {
		c = cropper.Constrain(c, s.state.Display)
	}
	s.state.Crop = c
	s.refresh("crop")
}

// MoveCrop drags the crop by (dx, dy) displayed pixels.
func (s *Session) MoveCrop(dx, dy float64) {
	if !s.state.HasImage() {
		return
	}
	s.state.Crop = cropper.Move(s.state.Crop, dx, dy, s.state.Display)
	s.refresh("crop")
}

// ResizeCrop sets the crop width, keeping its top-left corner and 16:9 ratio.
func (s *Session) ResizeCrop(width float64) {
	if !s.state.HasImage() {
		return
	}
	s.state.Crop = cropper.Resize(s.state.Crop, width, s.state.Display)
	s.refresh("crop")
}

func (s *Session) SetTitle(v string) {
	s.state.Title.Content = v
	s.refresh("title")
}

func (s *Session) SetDescription(v string) {
	s.state.Description.Content = v
	s.refresh("description")
}

func (s *Session) SetLocation(v string) {
	s.state.Location.Content = v
	s.refresh("location")
}

// SetTextFont sets the shared title and description font.
func (s *Session) SetTextFont(f fonts.Family) {
	s.state.Title.Font = f
	s.state.Description.Font = f
	s.refresh("text font")
}

// SetTextAnchor sets the shared title and description anchor.
func (s *Session) SetTextAnchor(a layout.Anchor) {
	s.state.Title.Anchor = a
	s.state.Description.Anchor = a
	s.refresh("text anchor")
}

func (s *Session) SetLocationFont(f fonts.Family) {
	s.state.Location.Font = f
	s.refresh("location font")
}

func (s *Session) SetLocationAnchor(a layout.Anchor) {
	s.state.Location.Anchor = a
	s.refresh("location anchor")
}

// SetContainerWidth resizes the preview to the host container.
func (s *Session) SetContainerWidth(w int) {
	if w <= 0 || w == s.containerWidth {
		return
	}
	s.containerWidth = w
	s.preview.SetWidth(w)
	s.refresh("container")
}

// Export renders the current state at 1280×720 and returns PNG bytes, or
// ErrNotReady.
func (s *Session) Export() ([]byte, error) { return s.exporter.Export(s.state) }

// ExportTo hands the PNG to saver as thumbnail.png. It does nothing when
// there is nothing to export.
func (s *Session) ExportTo(saver Saver) error { return s.exporter.ExportTo(s.state, saver) }

func (s *Session) refresh(cause string) {
	rendered, err := s.preview.Refresh(s.state)
	if err != nil {
		s.log.Error("preview render failed", slog.String("cause", cause), slog.Any("error", err))
		return
	}
	if rendered && s.onPreview != nil {
		s.onPreview(s.preview.Surface().Image())
	}
}
