// Package snap computes center-snapped positions for elements dragged on a cover canvas.
package snap

import "math"

// Frame is the fixed canvas reference frame of one drag surface.
// Offsets shift the canvas inside the coordinate space the positions are expressed in.
type Frame struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	OffsetX   float64 `json:"offsetX"`
	OffsetY   float64 `json:"offsetY"`
	Threshold float64 `json:"threshold"`
}

// Size is the rendered bounding box of the dragged element.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Result is a possibly snapped position plus the guide lines to render.
type Result struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	GuideX bool    `json:"guideX"`
	GuideY bool    `json:"guideY"`
}

const (
	CanvasWidth  = 487
	CanvasHeight = 782
)

// TemplateFrame is the template editor surface.
func TemplateFrame() Frame {
	return Frame{Width: CanvasWidth, Height: CanvasHeight, Threshold: 10}
}

// BookFrame is the single-book editor surface, which pads the canvas.
func BookFrame() Frame {
	return Frame{Width: CanvasWidth, Height: CanvasHeight, OffsetX: 24, OffsetY: 24, Threshold: 15}
}

// Center returns the canvas midpoint in position coordinates.
func (f Frame) Center() (float64, float64) {
	return f.OffsetX + f.Width/2, f.OffsetY + f.Height/2
}

// Snap centers the element on an axis when its center lies strictly within
// Threshold of the canvas midline on that axis. Other axes pass through.
// NaN and negative inputs are not rejected.
func (f Frame) Snap(x, y float64, size Size) Result {
	cx, cy := f.Center()
	res := Result{X: x, Y: y}

	if math.Abs(x+size.W/2-cx) < f.Threshold {
		res.X = cx - size.W/2
		res.GuideX = true
	}
	if math.Abs(y+size.H/2-cy) < f.Threshold {
		res.Y = cy - size.H/2
		res.GuideY = true
	}
	return res
}

// Finite reports whether both coordinates are usable. Callers check this before
// committing so a NaN never turns into an invisible element.
func (r Result) Finite() bool {
	return !math.IsNaN(r.X) && !math.IsNaN(r.Y) && !math.IsInf(r.X, 0) && !math.IsInf(r.Y, 0)
}
