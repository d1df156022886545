package focus

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/menta2k/thumbnailer/pkg/client"
	"github.com/menta2k/thumbnailer/pkg/processing"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// DefaultPrompt asks a vision model for the dominant subject.
const DefaultPrompt = `You are an image subject locator for video thumbnails.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "cx": 0.0,
    "cy": 0.0
  },
  "description": "short neutral sentence (max 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner of the box.
- cx,cy is the point a 16:9 thumbnail crop should be centred on.
- Prefer faces, people, animals and vehicles; else the most salient object.
- If no subject is found, return label "none" with cx 0.5 and cy 0.5.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ModelConfig selects the model and how the photo is sent to it.
type ModelConfig struct {
	Model   string
	Prompt  string
	MaxDim  int
	Quality int
}

// ModelLocator asks a vision model where the subject is.
type ModelLocator struct {
	client    client.VisionClient
	config    ModelConfig
	processor *processing.Processor
	log       *slog.Logger
}

// NewModelLocator returns a locator backed by c.
func NewModelLocator(c client.VisionClient, cfg ModelConfig, logger *slog.Logger) *ModelLocator {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.MaxDim <= 0 {
		cfg.MaxDim = 768
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 85
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelLocator{client: c, config: cfg, processor: processing.NewProcessor(), log: logger}
}

// Locate implements Locator. A model that finds no subject yields Center.
func (l *ModelLocator) Locate(ctx context.Context, img image.Image) (Point, error) {
	b64, err := l.processor.PrepareImageForModel(img, "jpg", l.config.MaxDim, l.config.Quality)
	if err != nil {
		return Center, fmt.Errorf("prepare image: %w", err)
	}
	res, err := l.client.AnalyzeImage(ctx, client.Request{
		Model:    l.config.Model,
		Prompt:   l.config.Prompt,
		ImageB64: b64,
	})
	if err != nil {
		return Center, fmt.Errorf("analyze image: %w", err)
	}
	if res == nil {
		res = client.Fallback("empty response")
	}
	p := PointFromAnalysis(res)
	l.log.Info("subject located",
		slog.String("component", "focus"),
		slog.String("label", res.Primary.Label),
		slog.Float64("confidence", res.Primary.Confidence),
		slog.Float64("x", p.X),
		slog.Float64("y", p.Y))
	return p, nil
}

var fallbackLabels = []string{"none", "unclear", "parse", "error", "fallback", "non-json"}

// PointFromAnalysis reduces a model answer to a focus point. The explicit
// centre wins; a box without a centre contributes its midpoint.
func PointFromAnalysis(res *types.AnalysisResult) Point {
	if res == nil {
		return Center
	}
	label := strings.ToLower(res.Primary.Label)
	for _, f := range fallbackLabels {
		if strings.Contains(label, f) {
			return Center
		}
	}
	pr := res.Primary
	if pr.Cx == 0 && pr.Cy == 0 {
		box := normalizeBox(pr.Box)
		if box.W == 0 || box.H == 0 {
			return Center
		}
		return Point{X: box.X + box.W/2, Y: box.Y + box.H/2}.Clamp()
	}
	return Point{X: pr.Cx, Y: pr.Cy}.Clamp()
}

func normalizeBox(b types.Box) types.Box {
	return types.Box{X: clamp01(b.X), Y: clamp01(b.Y), W: clamp01(b.W), H: clamp01(b.H)}
}
