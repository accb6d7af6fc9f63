package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/volcano-viz/server/internal/service"
)

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

func int64Param(q url.Values, name string, def int64) (int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Message: "must be an integer"}
	}
	return v, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &service.ValidationError{Field: name, Message: "must be a finite number"}
	}
	return v, nil
}

// parseViewport reads the four viewport bounds. All four must be present
// together; a partial viewport is rejected rather than guessed at.
func parseViewport(q url.Values) (*service.Viewport, error) {
	names := []string{"xmin", "xmax", "ymin", "ymax"}
	present := 0
	for _, n := range names {
		if strings.TrimSpace(q.Get(n)) != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(names) {
		return nil, &service.ValidationError{Field: "viewport", Message: "requires all of xmin, xmax, ymin, ymax"}
	}

	var vals [4]float64
	for i, n := range names {
		v, err := floatParam(q, n, 0)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return &service.Viewport{XMin: vals[0], XMax: vals[1], YMin: vals[2], YMax: vals[3]}, nil
}

func parseVolcanoRequest(q url.Values) (service.VolcanoRequest, error) {
	var req service.VolcanoRequest
	var err error

	if req.Size, err = intParam(q, "dataset_size", 0); err != nil {
		return req, err
	}
	if req.Seed, err = int64Param(q, "seed", 0); err != nil {
		return req, err
	}

	def := service.DefaultThresholds()
	if req.Thresholds.PValue, err = floatParam(q, "significance_threshold", def.PValue); err != nil {
		return req, err
	}
	if req.Thresholds.LogFCMin, err = floatParam(q, "magnitude_min", def.LogFCMin); err != nil {
		return req, err
	}
	if req.Thresholds.LogFCMax, err = floatParam(q, "magnitude_max", def.LogFCMax); err != nil {
		return req, err
	}

	req.Search = strings.TrimSpace(q.Get("search_term"))
	if req.MaxPoints, err = intParam(q, "max_points", 0); err != nil {
		return req, err
	}
	if req.Zoom, err = floatParam(q, "zoom_level", 0); err != nil {
		return req, err
	}
	if req.Viewport, err = parseViewport(q); err != nil {
		return req, err
	}
	return req, nil
}

func parsePCARequest(q url.Values) (service.PCARequest, error) {
	var req service.PCARequest
	var err error

	if req.Size, err = intParam(q, "dataset_size", 0); err != nil {
		return req, err
	}
	if req.Groups, err = intParam(q, "groups", 0); err != nil {
		return req, err
	}
	if req.Features, err = intParam(q, "features", 0); err != nil {
		return req, err
	}
	if req.Seed, err = int64Param(q, "seed", 0); err != nil {
		return req, err
	}

	req.Search = strings.TrimSpace(q.Get("search_term"))
	if req.MaxPoints, err = intParam(q, "max_points", 0); err != nil {
		return req, err
	}
	if req.Zoom, err = floatParam(q, "zoom_level", 0); err != nil {
		return req, err
	}
	if req.Viewport, err = parseViewport(q); err != nil {
		return req, err
	}
	return req, nil
}

const maxWarmBodyBytes = 1 << 20 // 1 MiB

// parseWarmSizes reads the sizes to warm from a JSON array body, an object
// body {"sizes":[...]}, or a comma-separated ?sizes= query parameter.
func parseWarmSizes(r *http.Request) ([]int, error) {
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWarmBodyBytes+1))
		if err != nil {
			return nil, err
		}
		if len(body) > maxWarmBodyBytes {
			return nil, errors.New("warm request body too large")
		}

		raw := strings.TrimSpace(string(body))
		if raw != "" {
			if raw[0] == '[' {
				var sizes []int
				if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
					return nil, &service.ValidationError{Field: "sizes", Message: "must be a JSON array of integers"}
				}
				return sizes, nil
			}
			if raw[0] == '{' {
				var payload struct {
					Sizes []int `json:"sizes"`
				}
				if err := json.Unmarshal([]byte(raw), &payload); err != nil {
					return nil, &service.ValidationError{Field: "sizes", Message: "must be a JSON array of integers"}
				}
				return payload.Sizes, nil
			}
		}
	}

	raw := strings.TrimSpace(r.URL.Query().Get("sizes"))
	if raw == "" {
		return nil, &service.ValidationError{Field: "sizes", Message: "required"}
	}
	parts := strings.Split(raw, ",")
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, &service.ValidationError{Field: "sizes", Message: "must be a comma-separated list of integers"}
		}
		sizes = append(sizes, v)
	}
	return sizes, nil
}
