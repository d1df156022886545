package focus

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/thumbnailer/pkg/cropper"
)

// SaliencyConfig weights the two cues of the saliency map.
type SaliencyConfig struct {
	// MaxDim is the longest side of the working copy.
	MaxDim int
	// EdgeWeight scales the mean colour difference to the 8 neighbours.
	EdgeWeight float64
	// BrightnessWeight scales the pixel luminance.
	BrightnessWeight float64
}

// DefaultSaliencyConfig favours edges over brightness.
var DefaultSaliencyConfig = SaliencyConfig{MaxDim: 160, EdgeWeight: 0.6, BrightnessWeight: 0.1}

// SaliencyLocator slides the initial crop window over an edge/brightness
// saliency map and returns the centre of the window with the most saliency.
// It needs no network and is deterministic.
type SaliencyLocator struct {
	config SaliencyConfig
}

// NewSaliencyLocator returns a locator using DefaultSaliencyConfig.
func NewSaliencyLocator() *SaliencyLocator {
	return &SaliencyLocator{config: DefaultSaliencyConfig}
}

// NewSaliencyLocatorWithConfig returns a locator with custom weights.
func NewSaliencyLocatorWithConfig(cfg SaliencyConfig) *SaliencyLocator {
	if cfg.MaxDim <= 0 {
		cfg.MaxDim = DefaultSaliencyConfig.MaxDim
	}
	return &SaliencyLocator{config: cfg}
}

// Locate implements Locator. It only honours ctx cancellation before starting.
func (l *SaliencyLocator) Locate(ctx context.Context, img image.Image) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Center, err
	}
	small := imaging.Fit(img, l.config.MaxDim, l.config.MaxDim, imaging.Box)
	w, h := small.Rect.Dx(), small.Rect.Dy()
	if w < 3 || h < 3 {
		return Center, nil
	}

	sum := integral(l.saliencyMap(small), w, h)

	win := cropper.Initial(float64(w), float64(h))
	ww := max(1, int(math.Round(win.Width)))
	wh := max(1, int(math.Round(win.Height)))

	cx0, cy0 := (w-ww)/2, (h-wh)/2
	best := windowSum(sum, w, cx0, cy0, ww, wh)
	point := Center
	for y := 0; y <= h-wh; y++ {
		for x := 0; x <= w-ww; x++ {
			s := windowSum(sum, w, x, y, ww, wh)
			if s > best+1e-9*math.Abs(best) {
				best = s
				point = Point{
					X: (float64(x) + float64(ww)/2) / float64(w),
					Y: (float64(y) + float64(wh)/2) / float64(h),
				}
			}
		}
	}
	return point, nil
}

// saliencyMap scores each interior pixel; border pixels stay zero.
func (l *SaliencyLocator) saliencyMap(img *image.NRGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	at := func(x, y int) (float64, float64, float64) {
		i := y*img.Stride + x*4
		a := float64(img.Pix[i+3]) / 255
		return float64(img.Pix[i]) * a, float64(img.Pix[i+1]) * a, float64(img.Pix[i+2]) * a
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			r1, g1, b1 := at(x, y)
			var edge float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					r2, g2, b2 := at(x+dx, y+dy)
					dr, dg, db := r1-r2, g1-g2, b1-b2
					edge += math.Sqrt(dr*dr + dg*dg + db*db)
				}
			}
			edge /= 8 * 255 * math.Sqrt(3)
			brightness := (r1 + g1 + b1) / (3 * 255)
			out[y*w+x] = l.config.EdgeWeight*edge + l.config.BrightnessWeight*brightness
		}
	}
	return out
}

// integral builds a (w+1)×(h+1) summed-area table.
func integral(m []float64, w, h int) []float64 {
	stride := w + 1
	sum := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += m[y*w+x]
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + row
		}
	}
	return sum
}

func windowSum(sum []float64, w, x, y, ww, wh int) float64 {
	stride := w + 1
	return sum[(y+wh)*stride+x+ww] - sum[y*stride+x+ww] - sum[(y+wh)*stride+x] + sum[y*stride+x]
}
