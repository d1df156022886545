// Package thumbnailer composes 16:9 video thumbnails: a cropped photo with a
// title, a description and an optional location line, exported as a
// 1280×720 PNG.
//
// Basic usage:
//
//	t := thumbnailer.New()
//	img, err := t.LoadImage(ctx, "photo.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//	ov := t.DefaultOverlay()
//	ov.Title = "Night Market"
//	ov.Description = "Street food tour"
//	ov.Location = "Taipei"
//	png, err := t.Compose(ctx, img, ov)
//
// Interactive hosts use a Session instead, which re-renders a preview on
// every edit:
//
//	s := t.NewSession(editor.WithPreviewHandler(show))
//	s.LoadImage(img)
//	s.SetTitle("Night Market")
//	err := s.ExportTo(editor.FileSaver{Dir: "out"})
//
// The package consists of these components:
//
//  1. Cropper (pkg/cropper): 16:9 crop rectangles and display to source mapping
//  2. Layout (pkg/layout): anchor positions for text blocks
//  3. Render (pkg/render): photo and drop-shadowed text on a surface
//  4. Editor (pkg/editor): session state, preview and export drivers
//  5. Focus (pkg/focus): optional subject-centred initial crop
package thumbnailer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/menta2k/thumbnailer/internal/config"
	"github.com/menta2k/thumbnailer/internal/version"
	"github.com/menta2k/thumbnailer/pkg/editor"
	"github.com/menta2k/thumbnailer/pkg/focus"
	"github.com/menta2k/thumbnailer/pkg/fonts"
	"github.com/menta2k/thumbnailer/pkg/layout"
	"github.com/menta2k/thumbnailer/pkg/llamacpp"
	"github.com/menta2k/thumbnailer/pkg/ollama"
	"github.com/menta2k/thumbnailer/pkg/processing"
	"github.com/menta2k/thumbnailer/pkg/render"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// Thumbnailer bundles the font library, renderer and image I/O configured
// from a Config.
type Thumbnailer struct {
	cfg       *config.Config
	fonts     *fonts.Library
	renderer  *render.Renderer
	processor *processing.Processor
	log       *slog.Logger
}

// New creates a Thumbnailer with the default configuration and the Go
// fallback fonts.
func New() *Thumbnailer {
	t, _ := NewWithConfig(config.Default(), nil)
	return t
}

// NewWithConfig creates a Thumbnailer from cfg, loading fonts from
// cfg.Fonts.Dir when set.
func NewWithConfig(cfg *config.Config, logger *slog.Logger) (*Thumbnailer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	lib := fonts.NewLibrary(logger)
	if cfg.Fonts.Dir != "" {
		n, err := lib.LoadDir(cfg.Fonts.Dir)
		if err != nil {
			return nil, fmt.Errorf("load fonts: %w", err)
		}
		logger.Info("fonts loaded", slog.String("dir", cfg.Fonts.Dir), slog.Int("files", n))
	}
	return &Thumbnailer{
		cfg:       cfg,
		fonts:     lib,
		renderer:  render.New(lib, render.WithLogger(logger)),
		processor: processing.NewProcessor(),
		log:       logger,
	}, nil
}

// Config returns the configuration in use.
func (t *Thumbnailer) Config() *config.Config { return t.cfg }

// Fonts returns the font library, e.g. to load more files.
func (t *Thumbnailer) Fonts() *fonts.Library { return t.fonts }

// LoadImage reads a photo from a path or an http(s) URL.
func (t *Thumbnailer) LoadImage(ctx context.Context, src string) (image.Image, error) {
	return t.processor.LoadImageSmart(ctx, src)
}

// NewSession returns an editing session using the configured defaults.
// opts are applied after the defaults.
func (t *Thumbnailer) NewSession(opts ...editor.Option) *editor.Session {
	base := []editor.Option{
		editor.WithContainerWidth(t.cfg.Preview.Width),
		editor.WithLogger(t.log),
	}
	s := editor.NewSession(t.renderer, append(base, opts...)...)
	s.SetTextFont(t.cfg.Fonts.Text)
	s.SetTextAnchor(t.cfg.Fonts.TextAnchor)
	s.SetLocationFont(t.cfg.Fonts.Location)
	s.SetLocationAnchor(t.cfg.Fonts.LocationAnchor)
	return s
}

// Overlay is everything Compose needs besides the photo.
type Overlay struct {
	Title          string
	Description    string
	Location       string
	TextFont       fonts.Family
	LocationFont   fonts.Family
	TextAnchor     layout.Anchor
	LocationAnchor layout.Anchor

	// Crop, when set, is used instead of the initial crop. It is in Display
	// coordinates, or source pixels when Display is empty.
	Crop    *types.Rect
	Display types.Size
}

// DefaultOverlay returns an empty overlay with the configured fonts and
// anchors.
func (t *Thumbnailer) DefaultOverlay() Overlay {
	return Overlay{
		TextFont:       t.cfg.Fonts.Text,
		LocationFont:   t.cfg.Fonts.Location,
		TextAnchor:     t.cfg.Fonts.TextAnchor,
		LocationAnchor: t.cfg.Fonts.LocationAnchor,
	}
}

// Locator returns the focus locator selected by the configuration, or nil
// for the "none" backend.
func (t *Thumbnailer) Locator() (focus.Locator, error) {
	fc := t.cfg.Focus
	mc := focus.ModelConfig{Model: fc.Model, MaxDim: fc.MaxDim, Quality: fc.Quality}
	switch fc.Backend {
	case "", config.FocusNone:
		return nil, nil
	case config.FocusSaliency:
		return focus.NewSaliencyLocator(), nil
	case config.FocusOllama:
		c, err := ollama.NewClient(fc.URL, nil, t.log)
		if err != nil {
			return nil, err
		}
		return focus.NewModelLocator(c, mc, t.log), nil
	case config.FocusLlamaCpp:
		return focus.NewModelLocator(llamacpp.NewClient(fc.URL, t.log), mc, t.log), nil
	}
	return nil, fmt.Errorf("unknown focus backend %q", fc.Backend)
}

// Open loads img into a new session laid out from ov. Without an explicit
// crop the configured focus locator places the initial crop; a failing
// locator is logged and the crop is centred.
func (t *Thumbnailer) Open(ctx context.Context, img image.Image, ov Overlay, opts ...editor.Option) (*editor.Session, error) {
	if img == nil {
		return nil, errors.New("no image")
	}
	s := t.NewSession(opts...)
	s.SetTextFont(ov.TextFont)
	s.SetTextAnchor(ov.TextAnchor)
	s.SetLocationFont(ov.LocationFont)
	s.SetLocationAnchor(ov.LocationAnchor)
	s.SetTitle(ov.Title)
	s.SetDescription(ov.Description)
	s.SetLocation(ov.Location)

	loc, err := t.Locator()
	if err != nil {
		return nil, err
	}
	switch {
	case ov.Crop != nil || loc == nil:
		s.LoadImage(img)
	default:
		if t.cfg.Focus.TimeoutSeconds > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(t.cfg.Focus.TimeoutSeconds)*time.Second)
			defer cancel()
		}
		if err := s.LoadImageFocused(ctx, img, loc); err != nil {
			t.log.Warn("focus lookup failed", slog.Any("error", err))
		}
	}
	if !ov.Display.Empty() {
		s.SetDisplaySize(ov.Display.W, ov.Display.H)
	}
	if ov.Crop != nil {
		s.SetCrop(*ov.Crop)
	}
	return s, nil
}

// Compose renders img with ov and returns the 1280×720 PNG.
func (t *Thumbnailer) Compose(ctx context.Context, img image.Image, ov Overlay) ([]byte, error) {
	s, err := t.Open(ctx, img, ov)
	if err != nil {
		return nil, err
	}
	return s.Export()
}

// Version returns the library version
func Version() string { return version.String() }
