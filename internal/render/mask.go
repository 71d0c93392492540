package render

import (
	"image"
	"image/color"
	"math"
)

// Paint renders the background frame into a fresh RGBA image. Corner
// coverage is computed from the distance to the corner circle center, giving
// one pixel of anti-aliasing at the rim.
func Paint(p Params) *image.RGBA {
	w, h := p.Size.W, p.Size.H
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return img
	}

	radius := p.Radius
	if max := min(w, h) / 2; radius > max {
		radius = max
	}
	if radius < 0 {
		radius = 0
	}

	opacity := p.Opacity
	if opacity <= 0 {
		return img
	}
	if opacity > 1 {
		opacity = 1
	}

	fill := p.Color
	fill.A *= opacity
	border := p.BorderColor
	border.A *= opacity

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cov := coverage(x, y, w, h, radius, p.Corners)
			if cov <= 0 {
				continue
			}
			c := fill
			if p.BorderWidth > 0 && inBorder(x, y, w, h, p.BorderWidth) {
				c = border
			}
			img.SetRGBA(x, y, toRGBA(c, cov))
		}
	}
	return img
}

// coverage returns the [0,1] fraction of the pixel inside the rounded
// outline.
func coverage(x, y, w, h, radius int, corners Corners) float64 {
	if radius == 0 {
		return 1
	}

	var cx, cy int
	switch {
	case corners.TopLeft && x < radius && y < radius:
		cx, cy = radius, radius
	case corners.TopRight && x >= w-radius && y < radius:
		cx, cy = w-radius-1, radius
	case corners.BottomLeft && x < radius && y >= h-radius:
		cx, cy = radius, h-radius-1
	case corners.BottomRight && x >= w-radius && y >= h-radius:
		cx, cy = w-radius-1, h-radius-1
	default:
		return 1
	}

	dx := float64(x - cx)
	dy := float64(y - cy)
	d := math.Sqrt(dx*dx + dy*dy)
	// One pixel wide smooth rim.
	cov := float64(radius) - d + 0.5
	if cov >= 1 {
		return 1
	}
	if cov <= 0 {
		return 0
	}
	return cov
}

// inBorder reports whether the pixel lies within the inset border ring.
func inBorder(x, y, w, h, width int) bool {
	return x < width || y < width || x >= w-width || y >= h-width
}

func toRGBA(c Color, cov float64) color.RGBA {
	a := c.A * cov
	// Premultiplied, as image.RGBA expects for compositing.
	return color.RGBA{
		R: uint8(clamp01(c.R*a)*255 + 0.5),
		G: uint8(clamp01(c.G*a)*255 + 0.5),
		B: uint8(clamp01(c.B*a)*255 + 0.5),
		A: uint8(clamp01(a)*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
