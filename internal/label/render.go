package label

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/smallbiznis/motopos/internal/barcode"
	"golang.org/x/image/font"
)

const (
	MinWidth  = 120
	MaxWidth  = 1200
	MinHeight = 60
	MaxHeight = 600
)

// ClampSize falls back to the defaults for non-positive values and keeps the
// result within the printable range.
func ClampSize(width, height, defaultWidth, defaultHeight int) (int, int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return clamp(width, MinWidth, MaxWidth), clamp(height, MinHeight, MaxHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Draw paints g onto a white canvas and encodes it as PNG.
func Draw(g barcode.Geometry, face font.Face) ([]byte, error) {
	dc := gg.NewContext(g.Width, g.Height)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(color.Black)
	for _, bar := range g.Bars {
		height := g.DataBarHeight
		if bar.Guard {
			height = g.GuardBarHeight
		}
		dc.DrawRectangle(float64(bar.X), 0, float64(bar.Width), float64(height))
	}
	dc.Fill()

	dc.SetFontFace(face)
	textY := float64(g.DataBarHeight) + float64(g.TextBand)/2
	for _, l := range g.Labels {
		dc.DrawStringAnchored(l.Digit, l.X, textY, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
