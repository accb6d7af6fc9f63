package api

import (
	"errors"
	"net/url"
	"testing"

	"github.com/volcano-viz/server/internal/service"
)

func TestParseViewport(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		vp, err := parseViewport(url.Values{})
		if err != nil || vp != nil {
			t.Fatalf("expected nil viewport, got %v, %v", vp, err)
		}
	})

	t.Run("complete", func(t *testing.T) {
		q := url.Values{"xmin": {"-1.5"}, "xmax": {"2"}, "ymin": {"0"}, "ymax": {"10"}}
		vp, err := parseViewport(q)
		if err != nil {
			t.Fatalf("parseViewport failed: %v", err)
		}
		if vp.XMin != -1.5 || vp.XMax != 2 || vp.YMin != 0 || vp.YMax != 10 {
			t.Fatalf("unexpected viewport %+v", vp)
		}
	})

	t.Run("partial", func(t *testing.T) {
		q := url.Values{"xmin": {"0"}, "ymax": {"10"}}
		_, err := parseViewport(q)
		var ve *service.ValidationError
		if !errors.As(err, &ve) || ve.Field != "viewport" {
			t.Fatalf("expected viewport validation error, got %v", err)
		}
	})

	t.Run("nonFinite", func(t *testing.T) {
		q := url.Values{"xmin": {"NaN"}, "xmax": {"1"}, "ymin": {"0"}, "ymax": {"1"}}
		_, err := parseViewport(q)
		var ve *service.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected validation error for NaN bound, got %v", err)
		}
	})
}

func TestParseVolcanoRequestDefaults(t *testing.T) {
	req, err := parseVolcanoRequest(url.Values{})
	if err != nil {
		t.Fatalf("parseVolcanoRequest failed: %v", err)
	}
	// Unset parameters stay zero so Validate can apply the configured
	// defaults; thresholds fall back to the standard cutoffs here.
	if req.Size != 0 || req.MaxPoints != 0 || req.Zoom != 0 {
		t.Fatalf("expected zero values for unset params, got %+v", req)
	}
	def := service.DefaultThresholds()
	if req.Thresholds != def {
		t.Fatalf("expected default thresholds %+v, got %+v", def, req.Thresholds)
	}
}

func TestParseVolcanoRequestValues(t *testing.T) {
	q := url.Values{
		"dataset_size":           {"5000"},
		"seed":                   {"42"},
		"significance_threshold": {"0.01"},
		"magnitude_min":          {"-1"},
		"magnitude_max":          {"1"},
		"search_term":            {"  gene_0001  "},
		"max_points":             {"250"},
		"zoom_level":             {"2.5"},
	}
	req, err := parseVolcanoRequest(q)
	if err != nil {
		t.Fatalf("parseVolcanoRequest failed: %v", err)
	}
	if req.Size != 5000 || req.Seed != 42 || req.MaxPoints != 250 || req.Zoom != 2.5 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Thresholds.PValue != 0.01 || req.Thresholds.LogFCMin != -1 || req.Thresholds.LogFCMax != 1 {
		t.Fatalf("unexpected thresholds %+v", req.Thresholds)
	}
	if req.Search != "gene_0001" {
		t.Fatalf("search term not trimmed: %q", req.Search)
	}
}

func TestParsePCARequestValues(t *testing.T) {
	q := url.Values{
		"dataset_size": {"3000"},
		"groups":       {"6"},
		"features":     {"50"},
		"seed":         {"7"},
	}
	req, err := parsePCARequest(q)
	if err != nil {
		t.Fatalf("parsePCARequest failed: %v", err)
	}
	if req.Size != 3000 || req.Groups != 6 || req.Features != 50 || req.Seed != 7 {
		t.Fatalf("unexpected request %+v", req)
	}
}
