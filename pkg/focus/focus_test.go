package focus

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/menta2k/thumbnailer/pkg/client"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// createTestImage draws a white square on a dark background.
func createTestImage(width, height int, square image.Rectangle) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{20, 20, 30, 255}), image.Point{}, draw.Src)
	draw.Draw(img, square, image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestSaliencyFindsOffCentreSubject(t *testing.T) {
	img := createTestImage(1600, 400, image.Rect(1300, 150, 1400, 250))
	p, err := NewSaliencyLocator().Locate(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if p.X <= 0.6 {
		t.Fatalf("expected focus right of centre, got %+v", p)
	}
}

func TestSaliencyUniformImageIsCentred(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 400, 300))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{90, 120, 150, 255}), image.Point{}, draw.Src)
	p, err := NewSaliencyLocator().Locate(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if p != Center {
		t.Fatalf("got %+v, want centre", p)
	}
}

func TestSaliencyTinyImage(t *testing.T) {
	p, err := NewSaliencyLocatorWithConfig(SaliencyConfig{}).Locate(context.Background(), image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil || p != Center {
		t.Fatalf("got %+v, %v", p, err)
	}
}

func TestSaliencyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSaliencyLocator().Locate(ctx, image.NewNRGBA(image.Rect(0, 0, 10, 10))); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIntegralWindowSum(t *testing.T) {
	m := []float64{
		1, 2, 3,
		4, 5, 6,
	}
	sum := integral(m, 3, 2)
	if got := windowSum(sum, 3, 0, 0, 3, 2); got != 21 {
		t.Errorf("full sum = %v", got)
	}
	if got := windowSum(sum, 3, 1, 0, 2, 2); got != 16 {
		t.Errorf("right 2x2 = %v", got)
	}
	if got := windowSum(sum, 3, 2, 1, 1, 1); got != 6 {
		t.Errorf("single = %v", got)
	}
}

type fakeClient struct {
	result *types.AnalysisResult
	err    error
	req    client.Request
}

func (f *fakeClient) SimpleQuery(ctx context.Context, req client.Request) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeClient) AnalyzeImage(ctx context.Context, req client.Request) (*types.AnalysisResult, error) {
	f.req = req
	return f.result, f.err
}

func TestModelLocator(t *testing.T) {
	fc := &fakeClient{result: &types.AnalysisResult{Primary: types.Primary{Label: "dog", Confidence: 0.9, Cx: 0.2, Cy: 0.7}}}
	l := NewModelLocator(fc, ModelConfig{Model: "llava"}, nil)
	p, err := l.Locate(context.Background(), createTestImage(64, 48, image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatal(err)
	}
	if p != (Point{X: 0.2, Y: 0.7}) {
		t.Fatalf("got %+v", p)
	}
	if fc.req.Model != "llava" || fc.req.Prompt != DefaultPrompt || fc.req.ImageB64 == "" {
		t.Fatalf("unexpected request %+v", fc.req)
	}
}

func TestModelLocatorError(t *testing.T) {
	fc := &fakeClient{err: errors.New("offline")}
	p, err := NewModelLocator(fc, ModelConfig{}, nil).Locate(context.Background(), createTestImage(8, 8, image.Rect(0, 0, 1, 1)))
	if err == nil {
		t.Fatal("expected error")
	}
	if p != Center {
		t.Fatalf("expected centre on error, got %+v", p)
	}
}

func TestModelLocatorEmptyResult(t *testing.T) {
	p, err := NewModelLocator(&fakeClient{}, ModelConfig{}, nil).Locate(context.Background(), createTestImage(8, 8, image.Rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if p != Center {
		t.Fatalf("expected centre for an empty result, got %+v", p)
	}
}

func TestPointFromAnalysis(t *testing.T) {
	tests := []struct {
		name string
		in   *types.AnalysisResult
		want Point
	}{
		{"nil", nil, Center},
		{"none label", &types.AnalysisResult{Primary: types.Primary{Label: "none", Cx: 0.9, Cy: 0.9}}, Center},
		{"fallback", client.Fallback("x"), Center},
		{"centre", &types.AnalysisResult{Primary: types.Primary{Label: "car", Cx: 0.3, Cy: 0.4}}, Point{0.3, 0.4}},
		{"clamped", &types.AnalysisResult{Primary: types.Primary{Label: "car", Cx: 1.4, Cy: -0.2}}, Point{1, 0}},
		{"box only", &types.AnalysisResult{Primary: types.Primary{Label: "cat", Box: types.Box{X: 0.6, Y: 0.2, W: 0.2, H: 0.4}}}, Point{0.7, 0.4}},
		{"nothing", &types.AnalysisResult{Primary: types.Primary{Label: "cat"}}, Center},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointFromAnalysis(tt.in)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
