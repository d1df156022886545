package cropper

import (
	"math"
	"math/rand"
	"testing"

	"github.com/menta2k/thumbnailer/pkg/types"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func inside(r types.Rect, b types.Size) bool {
	const slack = 1e-9
	return r.X >= -slack && r.Y >= -slack &&
		r.X+r.Width <= b.W+slack && r.Y+r.Height <= b.H+slack
}

func TestWidescreenRatio(t *testing.T) {
	if !approx(Widescreen.Ratio(), 16.0/9.0) {
		t.Errorf("Expected 16/9, got %f", Widescreen.Ratio())
	}
}

func TestScaleFor(t *testing.T) {
	s := ScaleFor(types.Size{W: 4000, H: 3000}, types.Size{W: 800, H: 600})
	if !approx(s.X, 5) || !approx(s.Y, 5) {
		t.Errorf("Expected scale 5x5, got %+v", s)
	}
	s = ScaleFor(types.Size{W: 4000, H: 3000}, types.Size{})
	if s.X != 1 || s.Y != 1 {
		t.Errorf("Expected unit scale without a displayed size, got %+v", s)
	}
}

func TestToSource(t *testing.T) {
	crop := types.Rect{X: 10, Y: 20, Width: 160, Height: 90}
	src, ok := ToSource(crop, Scale{X: 2, Y: 3})
	if !ok {
		t.Fatal("expected ok for non-empty crop")
	}
	want := types.Rect{X: 20, Y: 60, Width: 320, Height: 270}
	if src != want {
		t.Errorf("Expected %+v, got %+v", want, src)
	}
}

func TestToSourceZeroArea(t *testing.T) {
	for _, c := range []types.Rect{
		{X: 5, Y: 5, Width: 160, Height: 0},
		{X: 5, Y: 5, Width: 0, Height: 90},
		{X: 5, Y: 5, Width: -16, Height: 9},
		{X: 5, Y: 5, Width: 16, Height: -9},
		{},
	} {
		if _, ok := ToSource(c, Scale{X: 1, Y: 1}); ok {
			t.Errorf("Expected not ready for %+v", c)
		}
	}
}

func TestInitial(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		want types.Rect
	}{
		{"square", 1000, 1000, types.Rect{X: 50, Y: 246.875, Width: 900, Height: 506.25}},
		{"panorama", 4000, 1000, types.Rect{X: 1200, Y: 50, Width: 1600, Height: 900}},
		{"exact 16:9", 1600, 900, types.Rect{X: 80, Y: 45, Width: 1440, Height: 810}},
	}
	for _, tt := range tests {
		got := Initial(tt.w, tt.h)
		if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) ||
			!approx(got.Width, tt.want.Width) || !approx(got.Height, tt.want.Height) {
			t.Errorf("%s: Initial(%v,%v) = %+v, want %+v", tt.name, tt.w, tt.h, got, tt.want)
		}
		if !IsWidescreen(got) {
			t.Errorf("%s: not 16:9: %f", tt.name, got.Aspect())
		}
	}
	if got := Initial(0, 100); !got.Empty() {
		t.Errorf("Expected empty crop for empty image, got %+v", got)
	}
}

func TestInitialAtClampsToImage(t *testing.T) {
	got := InitialAt(1000, 1000, 0.0, 1.0)
	if !approx(got.X, 0) || !approx(got.Y, 1000-506.25) {
		t.Errorf("Expected crop pushed into bottom-left corner, got %+v", got)
	}
	got = InitialAt(1000, 1000, 0.6, 0.5)
	if !approx(got.X, 100) {
		t.Errorf("Expected crop shifted right by 50, got %+v", got)
	}
}

func TestConstrain(t *testing.T) {
	b := types.Size{W: 800, H: 600}
	got := Constrain(types.Rect{X: 700, Y: 500, Width: 2000, Height: 10}, b)
	if !IsWidescreen(got) || !inside(got, b) {
		t.Errorf("Expected fitted 16:9 crop, got %+v", got)
	}
	if !approx(got.Width, 800) || !approx(got.Height, 450) {
		t.Errorf("Expected 800x450, got %vx%v", got.Width, got.Height)
	}
}

func TestMoveStaysInBounds(t *testing.T) {
	b := types.Size{W: 800, H: 600}
	c := Initial(b.W, b.H)
	got := Move(c, -10000, 10000, b)
	if !approx(got.X, 0) || !approx(got.Y, b.H-c.Height) {
		t.Errorf("Expected crop clamped to bottom-left, got %+v", got)
	}
	if got.Width != c.Width || got.Height != c.Height {
		t.Error("Move must not change the crop size")
	}
}

func TestResizeKeepsRatio(t *testing.T) {
	b := types.Size{W: 800, H: 600}
	c := types.Rect{X: 100, Y: 100, Width: 160, Height: 90}
	got := Resize(c, 10000, b)
	if !IsWidescreen(got) || !inside(got, b) {
		t.Errorf("Expected bounded 16:9 crop, got %+v", got)
	}
	if !approx(got.Width, 700) {
		t.Errorf("Expected width limited to 700, got %v", got.Width)
	}
	if got = Resize(c, -5, b); !got.Empty() {
		t.Errorf("Expected negative width to collapse the crop, got %+v", got)
	}
}

func TestRandomDragsPreserveAspect(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := types.Size{W: 1234, H: 777}
	c := Initial(b.W, b.H)
	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			c = Move(c, rng.Float64()*400-200, rng.Float64()*400-200, b)
		case 1:
			c = Resize(c, 20+rng.Float64()*1500, b)
		default:
			c.Width = 20 + rng.Float64()*1500
			c = Constrain(c, b)
		}
		if !IsWidescreen(c) {
			t.Fatalf("step %d: aspect drifted to %v", i, c.Aspect())
		}
		if !inside(c, b) {
			t.Fatalf("step %d: crop %+v left bounds %+v", i, c, b)
		}
	}
}

func BenchmarkToSource(b *testing.B) {
	c := Initial(1920, 1080)
	s := ScaleFor(types.Size{W: 3840, H: 2160}, types.Size{W: 1920, H: 1080})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ToSource(c, s)
	}
}
