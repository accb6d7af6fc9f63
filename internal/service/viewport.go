package service

import "github.com/volcano-viz/server/internal/data/synth"

// Viewport is the visible coordinate rectangle the client is viewing.
type Viewport struct {
	XMin, XMax float64
	YMin, YMax float64
}

// defaultBufferRatio expands the viewport on each axis so points just
// outside the visible area survive a small pan without a refetch.
const defaultBufferRatio = 0.20

// filterViewport returns the subset of idx whose rows fall inside vp
// expanded by bufferRatio of the range width on each axis. A nil viewport
// means no spatial restriction. Allocation-light: indices only, row data is
// never copied.
func filterViewport(rows []synth.Row, idx []int, vp *Viewport, bufferRatio float64) []int {
	if vp == nil {
		return idx
	}

	bufX := (vp.XMax - vp.XMin) * bufferRatio
	bufY := (vp.YMax - vp.YMin) * bufferRatio
	xmin, xmax := vp.XMin-bufX, vp.XMax+bufX
	ymin, ymax := vp.YMin-bufY, vp.YMax+bufY

	out := make([]int, 0, len(idx))
	for _, i := range idx {
		r := &rows[i]
		if r.X < xmin || r.X > xmax || r.Y < ymin || r.Y > ymax {
			continue
		}
		out = append(out, i)
	}
	return out
}
