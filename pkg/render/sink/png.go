package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/geometry"
)

// DefaultPNGWidth is the raster width used when none is given.
const DefaultPNGWidth = 1024

// maxPNGSide bounds either side of the raster.
const maxPNGSide = 8192

var (
	displayFill = color.NRGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff}
	layerFill   = color.NRGBA{R: 0x4a, G: 0x90, B: 0xd9, A: 0x40}
	contentFill = color.NRGBA{R: 0xf5, G: 0xa6, B: 0x23, A: 0x59}
	hiddenFill  = color.NRGBA{R: 0x4a, G: 0x90, B: 0xd9, A: 0x10}
	markFill    = color.NRGBA{R: 0xd0, G: 0x02, B: 0x1b, A: 0x80}
)

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	width     int
	highlight string
}

// WithPNGWidth sets the raster width in pixels.
func WithPNGWidth(px int) PNGOption { return func(r *pngRenderer) { r.width = px } }

// WithPNGHighlight tints the rectangle with the given ID.
func WithPNGHighlight(id string) PNGOption { return func(r *pngRenderer) { r.highlight = id } }

// RenderPNG rasterises rects back to front onto a white canvas scaled to the
// requested width.
func RenderPNG(rects []geometry.Rectangle, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{width: DefaultPNGWidth}
	for _, opt := range opts {
		opt(&r)
	}
	if r.width <= 0 || r.width > maxPNGSide {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png width %d out of range (1-%d)", r.width, maxPNGSide)
	}

	lo, hi, ok := geometry.Bounds(rects)
	if !ok || hi.X <= lo.X || hi.Y <= lo.Y {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nothing to rasterise")
	}
	scale := float64(r.width) / (hi.X - lo.X)
	height := int(math.Ceil((hi.Y - lo.Y) * scale))
	height = max(1, min(height, maxPNGSide))

	dst := image.NewRGBA(image.Rect(0, 0, r.width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	z := vector.NewRasterizer(r.width, height)
	toPixel := func(p vec.Vec2) (float32, float32) {
		return float32((p.X - lo.X) * scale), float32((p.Y - lo.Y) * scale)
	}

	for i := len(rects) - 1; i >= 0; i-- {
		rect := rects[i]
		z.Reset(r.width, height)
		corners := [4]vec.Vec2{
			rect.TopLeft,
			{X: rect.BottomRight.X, Y: rect.TopLeft.Y},
			rect.BottomRight,
			{X: rect.TopLeft.X, Y: rect.BottomRight.Y},
		}
		for j, c := range corners {
			x, y := toPixel(geometry.Apply(rect.Transform, c))
			if j == 0 {
				z.MoveTo(x, y)
			} else {
				z.LineTo(x, y)
			}
		}
		z.ClosePath()
		z.Draw(dst, dst.Bounds(), image.NewUniform(r.fill(rect)), image.Point{})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pngRenderer) fill(rect geometry.Rectangle) color.Color {
	switch {
	case r.highlight != "" && rect.ID == r.highlight:
		return markFill
	case rect.IsDisplay:
		return displayFill
	case !rect.IsVisible:
		return hiddenFill
	case rect.HasContent:
		return contentFill
	}
	return layerFill
}
