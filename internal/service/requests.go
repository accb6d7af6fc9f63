package service

import (
	"fmt"
	"strings"

	"github.com/volcano-viz/server/internal/config"
)

// VolcanoRequest is a validated volcano-plot request.
type VolcanoRequest struct {
	Size       int
	Seed       int64
	Thresholds Thresholds
	Search     string
	MaxPoints  int
	Zoom       float64
	Viewport   *Viewport
}

// Validate applies defaults and range-checks the request against the engine
// limits. It runs before any generation work.
func (r *VolcanoRequest) Validate(engine config.EngineConfig) error {
	if r.Size == 0 {
		r.Size = engine.DefaultSize
	}
	if r.Size < engine.MinDatasetSize || r.Size > engine.MaxDatasetSize {
		return rangeError("dataset_size", r.Size, engine.MinDatasetSize, engine.MaxDatasetSize)
	}

	if r.MaxPoints == 0 {
		r.MaxPoints = engine.DefaultMaxPoints
	}
	if r.MaxPoints < 1 || r.MaxPoints > engine.MaxPointsLimit {
		return rangeError("max_points", r.MaxPoints, 1, engine.MaxPointsLimit)
	}

	if r.Zoom == 0 {
		r.Zoom = 1.0
	}
	if r.Zoom < 1.0 {
		return &ValidationError{Field: "zoom_level", Message: fmt.Sprintf("%g below minimum 1.0", r.Zoom)}
	}

	if r.Thresholds.PValue < 0 || r.Thresholds.PValue > 1 {
		return rangeErrorFloat("significance_threshold", r.Thresholds.PValue, 0, 1)
	}
	if r.Thresholds.LogFCMin > r.Thresholds.LogFCMax {
		return &ValidationError{
			Field:   "magnitude_min",
			Message: fmt.Sprintf("lower bound %g above upper bound %g", r.Thresholds.LogFCMin, r.Thresholds.LogFCMax),
		}
	}

	return validateViewport(r.Viewport)
}

// canonical returns a stable string identifying the full request, used for
// the response cache key and the deterministic sampling seed. Call after
// Validate so defaults are already applied.
func (r *VolcanoRequest) canonical() string {
	var b strings.Builder
	fmt.Fprintf(&b, "volcano:size=%d:seed=%d:p=%g:fcmin=%g:fcmax=%g:max=%d:zoom=%g",
		r.Size, r.Seed, r.Thresholds.PValue, r.Thresholds.LogFCMin, r.Thresholds.LogFCMax,
		r.MaxPoints, r.Zoom)
	if r.Search != "" {
		fmt.Fprintf(&b, ":q=%s", strings.ToLower(r.Search))
	}
	appendViewport(&b, r.Viewport)
	return b.String()
}

// PCARequest is a validated principal-component plot request.
type PCARequest struct {
	Size      int
	Groups    int
	Features  int
	Seed      int64
	Search    string
	MaxPoints int
	Zoom      float64
	Viewport  *Viewport
}

// Validate applies defaults, range-checks the request, and runs the cost
// guard for the size x features combination.
func (r *PCARequest) Validate(engine config.EngineConfig) error {
	if r.Size == 0 {
		r.Size = engine.DefaultSize
	}
	if r.Size < engine.MinDatasetSize || r.Size > engine.MaxDatasetSize {
		return rangeError("dataset_size", r.Size, engine.MinDatasetSize, engine.MaxDatasetSize)
	}

	if r.Groups == 0 {
		r.Groups = 3
	}
	if r.Groups < 1 || r.Groups > engine.MaxGroups {
		return rangeError("groups", r.Groups, 1, engine.MaxGroups)
	}
	if r.Features < 0 || r.Features > engine.MaxFeatures {
		return rangeError("features", r.Features, 0, engine.MaxFeatures)
	}

	// Cost guard: reject unsafe size x feature combinations outright
	// rather than attempting them.
	features := r.Features
	if features < 1 {
		features = 1
	}
	if cost := int64(r.Size) * int64(features); engine.MaxCellCost > 0 && cost > engine.MaxCellCost {
		return &ResourceLimitError{
			Message: fmt.Sprintf("dataset_size %d x features %d exceeds the cost limit %d",
				r.Size, features, engine.MaxCellCost),
		}
	}

	if r.MaxPoints == 0 {
		r.MaxPoints = engine.DefaultMaxPoints
	}
	if r.MaxPoints < 1 || r.MaxPoints > engine.MaxPointsLimit {
		return rangeError("max_points", r.MaxPoints, 1, engine.MaxPointsLimit)
	}

	if r.Zoom == 0 {
		r.Zoom = 1.0
	}
	if r.Zoom < 1.0 {
		return &ValidationError{Field: "zoom_level", Message: fmt.Sprintf("%g below minimum 1.0", r.Zoom)}
	}

	return validateViewport(r.Viewport)
}

func (r *PCARequest) canonical() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pca:size=%d:seed=%d:groups=%d:features=%d:max=%d:zoom=%g",
		r.Size, r.Seed, r.Groups, r.Features, r.MaxPoints, r.Zoom)
	if r.Search != "" {
		fmt.Fprintf(&b, ":q=%s", strings.ToLower(r.Search))
	}
	appendViewport(&b, r.Viewport)
	return b.String()
}

func validateViewport(vp *Viewport) error {
	if vp == nil {
		return nil
	}
	if vp.XMin >= vp.XMax || vp.YMin >= vp.YMax {
		return &ValidationError{
			Field:   "viewport",
			Message: fmt.Sprintf("empty range [%g,%g]x[%g,%g]", vp.XMin, vp.XMax, vp.YMin, vp.YMax),
		}
	}
	return nil
}

func appendViewport(b *strings.Builder, vp *Viewport) {
	if vp == nil {
		return
	}
	fmt.Fprintf(b, ":vp=%g,%g,%g,%g", vp.XMin, vp.XMax, vp.YMin, vp.YMax)
}
