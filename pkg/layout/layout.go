// Package layout computes where overlay text goes on a thumbnail surface.
//
// The same calculation serves the paired title/description block and the
// single-line location overlay. Callers drawing a single line use X, YTitle
// and Align and ignore YDesc.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Anchor is one of the nine positions a text block can be pinned to.
type Anchor int

const (
	TopLeft Anchor = iota
	TopCenter
	TopRight
	MiddleLeft
	MiddleCenter
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

// Row is the vertical token of an anchor.
type Row int

const (
	Top Row = iota
	Middle
	Bottom
)

// Align is the horizontal text alignment around Position.X.
type Align int

const (
	Left Align = iota
	Center
	Right
)

const (
	// PaddingRatio is the inset applied to title/description blocks on both axes.
	PaddingRatio = 0.05
	// LineGap separates the title and description baselines, in surface pixels.
	LineGap = 10.0
)

// ErrUnknownAnchor is returned by ParseAnchor for names outside the nine positions.
var ErrUnknownAnchor = errors.New("unknown anchor")

var anchorNames = [...]string{
	"top-left", "top-center", "top-right",
	"middle-left", "middle-center", "middle-right",
	"bottom-left", "bottom-center", "bottom-right",
}

// Anchors returns all positions in menu order.
func Anchors() []Anchor {
	return []Anchor{
		TopLeft, TopCenter, TopRight,
		MiddleLeft, MiddleCenter, MiddleRight,
		BottomLeft, BottomCenter, BottomRight,
	}
}

// ParseAnchor accepts the hyphenated form, e.g. "bottom-left".
func ParseAnchor(s string) (Anchor, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range anchorNames {
		if n == name {
			return Anchor(i), nil
		}
	}
	return BottomLeft, fmt.Errorf("%w: %q", ErrUnknownAnchor, s)
}

func (a Anchor) valid() bool { return a >= TopLeft && a <= BottomRight }

func (a Anchor) String() string {
	if !a.valid() {
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// Row returns the vertical token. Invalid anchors report Bottom.
func (a Anchor) Row() Row {
	if !a.valid() {
		return Bottom
	}
	return Row(a / 3)
}

// Align returns the horizontal token. Invalid anchors report Left.
func (a Anchor) Align() Align {
	if !a.valid() {
		return Left
	}
	return Align(a % 3)
}

func (a Align) String() string {
	switch a {
	case Center:
		return "center"
	case Right:
		return "right"
	default:
		return "left"
	}
}

// MarshalText lets anchors round-trip through YAML and flags.
func (a Anchor) MarshalText() ([]byte, error) {
	if !a.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAnchor, int(a))
	}
	return []byte(a.String()), nil
}

func (a *Anchor) UnmarshalText(b []byte) error {
	v, err := ParseAnchor(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Position is the drawing origin for a text block. Y values are baselines.
type Position struct {
	X      float64
	YTitle float64
	YDesc  float64
	Align  Align
}

// Compute lays out a text block anchored at a on a w×h surface.
//
// Top and middle blocks grow downwards: the description baseline follows the
// title. Bottom blocks grow upwards from the edge: the description sits on the
// padded bottom edge and the title precedes it. Location blocks get no inset.
func Compute(a Anchor, w, h, titleSize, descSize float64, isLocation bool) Position {
	padX, padY := w*PaddingRatio, h*PaddingRatio
	if isLocation {
		padX, padY = 0, 0
	}

	p := Position{Align: a.Align()}
	switch p.Align {
	case Center:
		p.X = w / 2
	case Right:
		p.X = w - padX
	default:
		p.X = padX
	}

	switch a.Row() {
	case Top:
		p.YTitle = padY + titleSize
		p.YDesc = p.YTitle + descSize + LineGap
	case Middle:
		p.YTitle = h/2 - descSize/2
		p.YDesc = p.YTitle + descSize + LineGap
	default:
		p.YDesc = h - padY
		p.YTitle = p.YDesc - descSize - LineGap
	}
	return p
}
