package layout

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestAlignMatchesHorizontalToken(t *testing.T) {
	want := map[Anchor]Align{
		TopLeft: Left, MiddleLeft: Left, BottomLeft: Left,
		TopCenter: Center, MiddleCenter: Center, BottomCenter: Center,
		TopRight: Right, MiddleRight: Right, BottomRight: Right,
	}
	for _, a := range Anchors() {
		for _, loc := range []bool{false, true} {
			p := Compute(a, 1280, 720, 80, 40, loc)
			if p.Align != want[a] {
				t.Errorf("%s (location=%v): align %s, want %s", a, loc, p.Align, want[a])
			}
		}
	}
}

func TestDescriptionFollowsTitleForTopAndMiddle(t *testing.T) {
	sizes := [][4]float64{{1280, 720, 80, 40}, {800, 450, 50, 25}, {333, 187.3125, 20.8125, 10.40625}}
	for _, a := range Anchors() {
		if a.Row() == Bottom {
			continue
		}
		for _, s := range sizes {
			p := Compute(a, s[0], s[1], s[2], s[3], false)
			if !near(p.YDesc, p.YTitle+s[3]+LineGap) {
				t.Errorf("%s %v: yDesc=%v yTitle=%v", a, s, p.YDesc, p.YTitle)
			}
		}
	}
}

func TestTitlePrecedesDescriptionForBottom(t *testing.T) {
	for _, a := range []Anchor{BottomLeft, BottomCenter, BottomRight} {
		p := Compute(a, 1280, 720, 80, 40, false)
		padY := 720 * PaddingRatio
		if !near(p.YDesc, 720-padY) {
			t.Errorf("%s: yDesc=%v, want %v", a, p.YDesc, 720-padY)
		}
		if !near(p.YTitle, p.YDesc-40-LineGap) {
			t.Errorf("%s: yTitle=%v, want %v", a, p.YTitle, p.YDesc-40-LineGap)
		}
	}
}

func TestBottomLeftExport(t *testing.T) {
	p := Compute(BottomLeft, 1280, 720, 80, 40, false)
	if !near(p.YDesc, 684) || !near(p.YTitle, 634) || !near(p.X, 64) || p.Align != Left {
		t.Fatalf("got %+v, want x=64 yTitle=634 yDesc=684 align=left", p)
	}
}

func TestTopCenterLocation(t *testing.T) {
	p := Compute(TopCenter, 1280, 720, 80, 40, true)
	if !near(p.YTitle, 80) || !near(p.X, 640) || p.Align != Center {
		t.Fatalf("got %+v, want x=640 yTitle=80 align=center", p)
	}
}

func TestLocationHasNoInset(t *testing.T) {
	tests := []struct {
		a      Anchor
		x, y   float64
		isDesc bool
	}{
		{TopLeft, 0, 80, false},
		{TopRight, 1280, 80, false},
		{MiddleLeft, 0, 340, false},
		{BottomRight, 1280, 720, true},
	}
	for _, tt := range tests {
		p := Compute(tt.a, 1280, 720, 80, 40, true)
		y := p.YTitle
		if tt.isDesc {
			y = p.YDesc
		}
		if !near(p.X, tt.x) || !near(y, tt.y) {
			t.Errorf("%s: got x=%v y=%v, want %v,%v", tt.a, p.X, y, tt.x, tt.y)
		}
	}
}

func TestMiddleRowCentresOnDescriptionSize(t *testing.T) {
	p := Compute(MiddleRight, 1000, 562.5, 62.5, 31.25, false)
	if !near(p.YTitle, 562.5/2-31.25/2) {
		t.Fatalf("yTitle=%v", p.YTitle)
	}
	if !near(p.X, 1000-50) {
		t.Fatalf("x=%v", p.X)
	}
}

func TestInvalidAnchorFallsBackToBottomLeft(t *testing.T) {
	got := Compute(Anchor(42), 1280, 720, 80, 40, false)
	want := Compute(BottomLeft, 1280, 720, 80, 40, false)
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseAnchor(t *testing.T) {
	for _, a := range Anchors() {
		got, err := ParseAnchor(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAnchor(%q) = %v, %v", a.String(), got, err)
		}
	}
	if got, err := ParseAnchor("  Bottom-Right "); err != nil || got != BottomRight {
		t.Errorf("case/space insensitive parse failed: %v %v", got, err)
	}
	if _, err := ParseAnchor("center"); !errors.Is(err, ErrUnknownAnchor) {
		t.Errorf("expected ErrUnknownAnchor, got %v", err)
	}
}

func TestAnchorTextRoundTrip(t *testing.T) {
	var a Anchor
	if err := a.UnmarshalText([]byte("middle-center")); err != nil {
		t.Fatal(err)
	}
	b, err := a.MarshalText()
	if err != nil || string(b) != "middle-center" {
		t.Fatalf("MarshalText = %q, %v", b, err)
	}
	if _, err := Anchor(-1).MarshalText(); err == nil {
		t.Fatal("expected error for invalid anchor")
	}
}

func BenchmarkCompute(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Compute(Anchor(i%9), 1280, 720, 80, 40, i%2 == 0)
	}
}
