package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/menta2k/thumbnailer"
	"github.com/menta2k/thumbnailer/internal/config"
	tlog "github.com/menta2k/thumbnailer/internal/log"
	"github.com/menta2k/thumbnailer/internal/utils"
	"github.com/menta2k/thumbnailer/pkg/cropper"
	"github.com/menta2k/thumbnailer/pkg/editor"
	"github.com/menta2k/thumbnailer/pkg/fonts"
	"github.com/menta2k/thumbnailer/pkg/layout"
	"github.com/menta2k/thumbnailer/pkg/processing"
	"github.com/menta2k/thumbnailer/pkg/types"
)

type options struct {
	in, outDir                 string
	title, desc, location      string
	font, locationFont         string
	position, locationPosition string
	crop, display              string
	preview                    int
	focus, model, url          string
	configPath                 string
	debug                      bool
}

func main() {
	var o options
	flag.StringVar(&o.in, "in", "", "input image path or URL (jpg/png/gif/bmp/tiff/webp)")
	flag.StringVar(&o.outDir, "out", "", "output directory (default from config, else .)")
	flag.StringVar(&o.title, "title", "", "title text")
	flag.StringVar(&o.desc, "desc", "", "description text")
	flag.StringVar(&o.location, "location", "", "location text (empty hides it)")
	flag.StringVar(&o.font, "font", "", "title/description font: "+familyList())
	flag.StringVar(&o.locationFont, "location-font", "", "location font")
	flag.StringVar(&o.position, "position", "", "title/description anchor, e.g. bottom-left")
	flag.StringVar(&o.locationPosition, "location-position", "", "location anchor, e.g. top-center")
	flag.StringVar(&o.crop, "crop", "", "crop x,y,w,h in display coordinates (forced to 16:9)")
	flag.StringVar(&o.display, "display", "", "display size WxH the crop refers to (default: natural size)")
	flag.IntVar(&o.preview, "preview", 0, "also write a preview this many pixels wide")
	flag.StringVar(&o.focus, "focus", "", "initial crop placement: none|saliency|ollama|llamacpp")
	flag.StringVar(&o.model, "model", "", "vision model for -focus ollama|llamacpp")
	flag.StringVar(&o.url, "url", "", "vision server URL")
	flag.StringVar(&o.configPath, "config", config.GetConfigPath(), "YAML config file")
	flag.BoolVar(&o.debug, "debug", false, "debug logging and a crop overlay image")
	flag.Parse()

	if o.in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in photo.jpg|URL -title T [-desc D] [-location L] [-position bottom-left] [-out dir]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := run(context.Background(), o); err != nil {
		slog.Error("thumbnail failed", slog.Any("error", err))
		_ = tlog.Close()
		os.Exit(1)
	}
	_ = tlog.Close()
}

func run(ctx context.Context, o options) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, o); err != nil {
		return err
	}
	logger := tlog.Init(cfg.LogOptions())

	if !utils.IsRemote(o.in) {
		if !utils.FileExists(o.in) {
			return fmt.Errorf("input %s: no such file", o.in)
		}
		if !utils.IsImageFile(o.in) {
			logger.Warn("input has no image extension, trying to decode anyway", slog.String("path", o.in))
		}
	}

	th, err := thumbnailer.NewWithConfig(cfg, logger)
	if err != nil {
		return err
	}
	img, err := th.LoadImage(ctx, o.in)
	if err != nil {
		return fmt.Errorf("load %s: %w", o.in, err)
	}

	ov := th.DefaultOverlay()
	ov.Title, ov.Description, ov.Location = o.title, o.desc, o.location
	if o.display != "" {
		if ov.Display, err = parseSize(o.display); err != nil {
			return err
		}
	}
	if o.crop != "" {
		c, err := parseRect(o.crop)
		if err != nil {
			return err
		}
		ov.Crop = &c
	}

	var opts []editor.Option
	if o.preview > 0 {
		opts = append(opts, editor.WithContainerWidth(o.preview))
	}
	s, err := th.Open(ctx, img, ov, opts...)
	if err != nil {
		return err
	}

	data, err := s.Export()
	if errors.Is(err, editor.ErrNotReady) {
		return fmt.Errorf("nothing to export: %w", err)
	}
	if err != nil {
		return err
	}
	out := editor.FileSaver{Dir: cfg.Export.Dir}
	if err := out.Save(cfg.Export.Filename, data); err != nil {
		return err
	}
	logger.Info("wrote thumbnail",
		slog.String("path", filepath.Join(cfg.Export.Dir, cfg.Export.Filename)),
		slog.String("size", utils.FormatFileSize(int64(len(data)))))

	proc := processing.NewProcessor()
	if o.preview > 0 {
		path := utils.SiblingPath(cfg.Export.Dir, cfg.Export.Filename, "_preview", cfg.Preview.Format)
		if err := proc.SaveImage(s.PreviewSnapshot(), path, cfg.Preview.Format, cfg.Preview.Quality, false); err != nil {
			logger.Warn("preview save failed", slog.String("path", path), slog.Any("error", err))
		} else {
			logger.Info("wrote preview", slog.String("path", path))
		}
	}
	if o.debug {
		st := s.State()
		src, _ := cropper.ToSource(st.Crop, cropper.ScaleFor(st.Source.Natural(), st.Display))
		fx := (src.X + src.Width/2) / float64(st.Source.Width)
		fy := (src.Y + src.Height/2) / float64(st.Source.Height)
		path := utils.SiblingPath(cfg.Export.Dir, cfg.Export.Filename, "_debug", "png")
		if err := proc.SaveImage(proc.CreateDebugOverlay(img, src, fx, fy), path, "png", 0, false); err != nil {
			logger.Warn("debug overlay save failed", slog.String("path", path), slog.Any("error", err))
		} else {
			logger.Info("wrote debug overlay", slog.String("path", path), slog.Any("crop", src))
		}
	}
	return nil
}

// applyFlags overrides cfg with the flags that were given and re-validates.
func applyFlags(cfg *config.Config, o options) error {
	if o.outDir != "" {
		cfg.Export.Dir = o.outDir
	}
	if o.font != "" {
		cfg.Fonts.Text = fonts.Family(o.font)
	}
	if o.locationFont != "" {
		cfg.Fonts.Location = fonts.Family(o.locationFont)
	}
	if o.position != "" {
		a, err := layout.ParseAnchor(o.position)
		if err != nil {
			return fmt.Errorf("-position: %w", err)
		}
		cfg.Fonts.TextAnchor = a
	}
	if o.locationPosition != "" {
		a, err := layout.ParseAnchor(o.locationPosition)
		if err != nil {
			return fmt.Errorf("-location-position: %w", err)
		}
		cfg.Fonts.LocationAnchor = a
	}
	if o.focus != "" {
		cfg.Focus.Backend = strings.ToLower(o.focus)
	}
	if o.model != "" {
		cfg.Focus.Model = o.model
	}
	if o.url != "" {
		cfg.Focus.URL = o.url
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg.Validate()
}

// parseRect reads "x,y,w,h".
func parseRect(s string) (types.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.Rect{}, fmt.Errorf("crop %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.Rect{}, fmt.Errorf("crop %q: %w", s, err)
		}
		v[i] = f
	}
	return types.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// parseSize reads "WxH".
func parseSize(s string) (types.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return types.Size{}, fmt.Errorf("display %q: want WxH", s)
	}
	fw, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return types.Size{}, fmt.Errorf("display %q: %w", s, err)
	}
	fh, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return types.Size{}, fmt.Errorf("display %q: %w", s, err)
	}
	size := types.Size{W: fw, H: fh}
	if size.Empty() {
		return types.Size{}, fmt.Errorf("display %q: sides must be positive", s)
	}
	return size, nil
}

func familyList() string {
	names := make([]string, 0, len(fonts.Families()))
	for _, f := range fonts.Families() {
		names = append(names, fmt.Sprintf("%q", string(f)))
	}
	return strings.Join(names, "|")
}
