// Package layout computes non-overlapping on-screen positions for
// word annotation cards. All functions are pure; callers accumulate
// the rectangles of already-placed cards between calls.
package layout

import "github.com/snapvocab/snapvocab/internal/models"

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// Rect is an axis-aligned rectangle in pixel coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CenteredRect returns the rectangle of the given size centered on p.
func CenteredRect(p models.Point, size Size) Rect {
	return Rect{
		X:      p.X - size.Width/2,
		Y:      p.Y - size.Height/2,
		Width:  size.Width,
		Height: size.Height,
	}
}

// safeMargin keeps cards clear of the image edges.
const safeMargin = 20.0

// maxOverlapRatio is the accepted fraction of a candidate card's own
// area that may be covered by any single existing card.
const maxOverlapRatio = 0.25

// searchDirections are the probe offsets tried when the target spot is
// taken: the four axis directions at 60px and the diagonals at 40px.
var searchDirections = [8]struct{ dx, dy float64 }{
	{0, -60},
	{60, 0},
	{0, 60},
	{-60, 0},
	{40, -40},
	{40, 40},
	{-40, 40},
	{-40, -40},
}

// PlaceCard converts the normalized target into pixel coordinates and
// finds a center point for a card of cardSize that keeps the card fully
// inside imageSize (inset by safeMargin) and overlaps no existing card
// by more than 25% of its own area. If the clamped target is free it is
// returned directly; otherwise the eight search directions are probed
// at 1x, 2x and 3x their offsets. When every probe collides the clamped
// target is returned anyway: overlapping placement beats no placement.
func PlaceCard(target models.Point, imageSize, cardSize Size, existing []Rect) models.Point {
	t := models.Point{
		X: target.X * imageSize.Width,
		Y: target.Y * imageSize.Height,
	}

	minX := cardSize.Width/2 + safeMargin
	maxX := imageSize.Width - cardSize.Width/2 - safeMargin
	minY := cardSize.Height/2 + safeMargin
	maxY := imageSize.Height - cardSize.Height/2 - safeMargin

	safeTarget := models.Point{
		X: clampRange(t.X, minX, maxX),
		Y: clampRange(t.Y, minY, maxY),
	}

	if !hasSignificantOverlap(CenteredRect(safeTarget, cardSize), existing) {
		return safeTarget
	}

	for multiplier := 1; multiplier <= 3; multiplier++ {
		for _, dir := range searchDirections {
			candidate := models.Point{
				X: clampRange(safeTarget.X+dir.dx*float64(multiplier), minX, maxX),
				Y: clampRange(safeTarget.Y+dir.dy*float64(multiplier), minY, maxY),
			}
			if !hasSignificantOverlap(CenteredRect(candidate, cardSize), existing) {
				return candidate
			}
		}
	}

	return safeTarget
}

func clampRange(v, lo, hi float64) float64 {
	if lo > hi {
		// Card larger than the safe area; collapse to its midpoint.
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasSignificantOverlap(r Rect, existing []Rect) bool {
	area := r.Width * r.Height
	if area <= 0 {
		return false
	}
	for _, e := range existing {
		if overlapArea(r, e)/area > maxOverlapRatio {
			return true
		}
	}
	return false
}

func overlapArea(a, b Rect) float64 {
	w := min(a.X+a.Width, b.X+b.Width) - max(a.X, b.X)
	h := min(a.Y+a.Height, b.Y+b.Height) - max(a.Y, b.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
