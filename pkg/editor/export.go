package editor

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/menta2k/thumbnailer/internal/utils"
	"github.com/menta2k/thumbnailer/pkg/processing"
	"github.com/menta2k/thumbnailer/pkg/render"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// DefaultFilename is the name exported thumbnails are saved under.
const DefaultFilename = "thumbnail.png"

// ErrNotReady means there is no image or the crop has zero area.
var ErrNotReady = errors.New("thumbnail not ready: no image or empty crop")

// Saver receives exported bytes. It is the host's download mechanism.
type Saver interface {
	Save(name string, data []byte) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(name string, data []byte) error

func (f SaverFunc) Save(name string, data []byte) error { return f(name, data) }

// FileSaver writes exports into Dir, creating it if needed.
type FileSaver struct {
	Dir string
}

// Save writes data to Dir/name.
func (s FileSaver) Save(name string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, utils.SanitizeFilename(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Exporter renders the canonical 1280×720 thumbnail.
type Exporter struct {
	renderer  *render.Renderer
	processor *processing.Processor
	log       *slog.Logger
}

// NewExporter returns an export driver.
func NewExporter(r *render.Renderer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{renderer: r, processor: processing.NewProcessor(), log: logger}
}

// Render draws st on a fresh surface at the export resolution with the fixed
// export font sizes.
func (e *Exporter) Render(st types.ThumbnailState) (image.Image, error) {
	src, ok := sourceRect(st)
	if !ok {
		return nil, ErrNotReady
	}
	s := render.NewSurface(render.ExportWidth, render.ExportHeight)
	if err := e.renderer.Render(s, st, src, render.ExportFontSizes); err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return s.Image(), nil
}

// Export renders st and encodes it as PNG.
func (e *Exporter) Export(st types.ThumbnailState) ([]byte, error) {
	img, err := e.Render(st)
	if err != nil {
		return nil, err
	}
	data, err := e.processor.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	e.log.Info("thumbnail exported", slog.String("size", utils.FormatFileSize(int64(len(data)))))
	return data, nil
}

// ExportTo exports st and hands the PNG to saver as DefaultFilename. When
// nothing is ready to export it does nothing and returns nil.
func (e *Exporter) ExportTo(st types.ThumbnailState, saver Saver) error {
	data, err := e.Export(st)
	if errors.Is(err, ErrNotReady) {
		e.log.Debug("export skipped", slog.String("reason", err.Error()))
		return nil
	}
	if err != nil {
		return err
	}
	if err := saver.Save(DefaultFilename, data); err != nil {
		return fmt.Errorf("save %s: %w", DefaultFilename, err)
	}
	return nil
}
