package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/thumbnailer/pkg/layout"
)

// Painter draws one line of text with its baseline at y, aligned around x.
type Painter interface {
	DrawText(dst draw.Image, face font.Face, text string, x, y float64, align layout.Align, sh Shadow)
}

// ShadowPainter fills glyphs with a solid color over a blurred drop shadow.
type ShadowPainter struct {
	Fill color.Color
}

// DrawText implements Painter. Empty strings draw nothing.
func (p ShadowPainter) DrawText(dst draw.Image, face font.Face, text string, x, y float64, align layout.Align, sh Shadow) {
	if text == "" {
		return
	}
	adv := font.MeasureString(face, text)
	ox := x
	switch align {
	case layout.Center:
		ox -= fixedToFloat(adv) / 2
	case layout.Right:
		ox -= fixedToFloat(adv)
	}
	dot := fixed.Point26_6{X: floatToFixed(ox), Y: floatToFixed(y)}

	b, _ := font.BoundString(face, text)
	glyphs := image.Rect(
		(b.Min.X + dot.X).Floor(), (b.Min.Y + dot.Y).Floor(),
		(b.Max.X + dot.X).Ceil(), (b.Max.Y + dot.Y).Ceil(),
	)
	if glyphs.Empty() {
		return
	}
	area := glyphs.Inset(-sh.margin())

	mask := image.NewAlpha(area)
	d := font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: dot}
	d.DrawString(text)

	if sh.Visible() {
		layer := shadowLayer(mask, sh.Color)
		if sh.Sigma() > 0 {
			layer = imaging.Blur(layer, sh.Sigma())
		}
		draw.Draw(dst, area.Add(sh.Offset()), layer, image.Point{}, draw.Over)
	}

	fill := p.Fill
	if fill == nil {
		fill = color.White
	}
	draw.DrawMask(dst, area, image.NewUniform(fill), image.Point{}, mask, area.Min, draw.Over)
}

// shadowLayer tints the glyph coverage with c. The result is anchored at (0,0).
func shadowLayer(mask *image.Alpha, c color.NRGBA) *image.NRGBA {
	r := mask.Rect
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := mask.Pix[y*mask.Stride : y*mask.Stride+r.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+r.Dx()*4]
		for x, a := range src {
			i := x * 4
			dst[i+0] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = uint8(uint32(a) * uint32(c.A) / 255)
		}
	}
	return out
}

func floatToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
