package editor

import (
	"log/slog"
	"math"

	"github.com/menta2k/thumbnailer/pkg/cropper"
	"github.com/menta2k/thumbnailer/pkg/render"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// DefaultContainerWidth is used until the host reports its preview width.
const DefaultContainerWidth = 800

// PreviewHeight is the 16:9 height for a preview width.
func PreviewHeight(width int) int {
	return int(math.Round(float64(width) * 9 / 16))
}

// sourceRect maps the state's crop to source pixels. ok is false when there
// is nothing to draw yet.
func sourceRect(st types.ThumbnailState) (types.Rect, bool) {
	if !st.HasImage() {
		return types.Rect{}, false
	}
	return cropper.ToSource(st.Crop, cropper.ScaleFor(st.Source.Natural(), st.Display))
}

// Preview re-renders a variable width surface from the current state.
type Preview struct {
	renderer *render.Renderer
	surface  *render.Surface
	width    int
	log      *slog.Logger
}

// NewPreview returns a preview driver for a container width.
func NewPreview(r *render.Renderer, width int, logger *slog.Logger) *Preview {
	if width <= 0 {
		width = DefaultContainerWidth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Preview{
		renderer: r,
		surface:  render.NewSurface(width, PreviewHeight(width)),
		width:    width,
		log:      logger,
	}
}

// SetWidth changes the container width used by the next Refresh.
func (p *Preview) SetWidth(w int) {
	if w > 0 {
		p.width = w
	}
}

func (p *Preview) Width() int { return p.width }

// Surface returns the preview surface.
func (p *Preview) Surface() *render.Surface { return p.surface }

// Refresh clears and resizes the surface and renders st onto it. It reports
// whether a render happened; a state without an image or with a zero-area
// crop leaves the surface as it was.
func (p *Preview) Refresh(st types.ThumbnailState) (bool, error) {
	src, ok := sourceRect(st)
	if !ok {
		return false, nil
	}
	p.surface.Resize(p.width, PreviewHeight(p.width))
	if err := p.renderer.Render(p.surface, st, src, render.FontSizesFor(p.width)); err != nil {
		return false, err
	}
	p.log.Debug("preview rendered", slog.Int("width", p.width))
	return true, nil
}
