// Package service implements the adaptive plot-data pipeline: cached
// generation, per-request classification, spatial filtering, level-of-detail
// sampling, and response assembly.
package service

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/volcano-viz/server/internal/cache"
	"github.com/volcano-viz/server/internal/config"
	"github.com/volcano-viz/server/internal/data/synth"
)

// PlotServiceConfig wires the service's collaborators.
type PlotServiceConfig struct {
	Datasets  *cache.DatasetCache
	Responses *cache.ResponseCache
	Engine    config.EngineConfig
}

// PlotService serves plot requests. All pipeline stages are pure CPU work;
// the dataset cache is the only cross-request shared state.
type PlotService struct {
	datasets  *cache.DatasetCache
	responses *cache.ResponseCache
	engine    config.EngineConfig
}

// NewPlotService creates a new plot service.
func NewPlotService(cfg PlotServiceConfig) *PlotService {
	return &PlotService{
		datasets:  cfg.Datasets,
		responses: cfg.Responses,
		engine:    cfg.Engine,
	}
}

// RowPayload is one returned point.
type RowPayload struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z,omitempty"`
	PValue   float64 `json:"p_value,omitempty"`
	Category string  `json:"category"`
}

// PlotResponse is the assembled payload for one plot request. Category
// counts cover the returned set; TotalRows reports the dataset size before
// any filtering or sampling so clients can show "N of M points".
type PlotResponse struct {
	Rows           []RowPayload   `json:"rows"`
	CategoryCounts map[string]int `json:"category_counts"`
	TotalRows      int            `json:"total_rows"`
	ReturnedRows   int            `json:"returned_rows"`
	WasDownsampled bool           `json:"was_downsampled"`
}

// Volcano serves a volcano-plot request.
func (s *PlotService) Volcano(req VolcanoRequest) (*PlotResponse, error) {
	if err := req.Validate(s.engine); err != nil {
		return nil, err
	}

	ds, err := s.dataset(synth.CacheKey{Kind: synth.KindVolcano, Size: req.Size, Seed: req.Seed})
	if err != nil {
		return nil, err
	}

	cls := classifyVolcano(ds, req.Thresholds)
	idx := allIndices(ds.Size())
	if req.Search != "" {
		idx = filterSearch(ds.Rows, idx, req.Search)
	}
	idx = filterViewport(ds.Rows, idx, req.Viewport, defaultBufferRatio)

	return s.assemble(ds, cls, idx, req.MaxPoints, req.Zoom, cache.RequestSeed(req.canonical())), nil
}

// VolcanoJSON serves a volcano request as serialized JSON, consulting the
// response cache first. Identical requests return byte-identical payloads.
func (s *PlotService) VolcanoJSON(req VolcanoRequest) ([]byte, error) {
	if err := req.Validate(s.engine); err != nil {
		return nil, err
	}

	key := cache.ResponseKey(req.canonical())
	if s.responses != nil {
		if data, ok := s.responses.Get(key); ok {
			return data, nil
		}
	}

	resp, err := s.Volcano(req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	if s.responses != nil {
		s.responses.Set(key, data)
	}
	return data, nil
}

// PCA serves a principal-component plot request.
func (s *PlotService) PCA(req PCARequest) (*PlotResponse, error) {
	if err := req.Validate(s.engine); err != nil {
		return nil, err
	}

	ds, err := s.dataset(synth.CacheKey{
		Kind:     synth.KindPCA,
		Size:     req.Size,
		Seed:     req.Seed,
		Groups:   req.Groups,
		Features: req.Features,
	})
	if err != nil {
		return nil, err
	}

	cls := classifyGroups(ds)
	idx := allIndices(ds.Size())
	if req.Search != "" {
		idx = filterSearch(ds.Rows, idx, req.Search)
	}
	// The viewport covers the PC1/PC2 plane.
	idx = filterViewport(ds.Rows, idx, req.Viewport, defaultBufferRatio)

	return s.assemble(ds, cls, idx, req.MaxPoints, req.Zoom, cache.RequestSeed(req.canonical())), nil
}

// PCAJSON serves a PCA request as serialized JSON via the response cache.
func (s *PlotService) PCAJSON(req PCARequest) ([]byte, error) {
	if err := req.Validate(s.engine); err != nil {
		return nil, err
	}

	key := cache.ResponseKey(req.canonical())
	if s.responses != nil {
		if data, ok := s.responses.Get(key); ok {
			return data, nil
		}
	}

	resp, err := s.PCA(req)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	if s.responses != nil {
		s.responses.Set(key, data)
	}
	return data, nil
}

// assemble runs budget, sampling, and response assembly over the candidate
// indices.
func (s *PlotService) assemble(ds *synth.Dataset, cls *classification, idx []int, maxPoints int, zoom float64, seed uint64) *PlotResponse {
	budget := adaptiveBudget(zoom, maxPoints, s.engine.MaxAdaptivePoints, s.engine.ZoomCapMultiplier)
	ratio := significantRatioForZoom(zoom)

	candidates := len(idx)
	picked := sampleIndices(ds.Rows, cls, idx, budget, ratio, seed)

	counts := make(map[string]int)
	rows := make([]RowPayload, len(picked))
	for i, ri := range picked {
		r := &ds.Rows[ri]
		c := string(cls.categories[ri])
		counts[c]++
		rows[i] = RowPayload{
			ID:       r.ID,
			X:        r.X,
			Y:        r.Y,
			Z:        r.Z,
			PValue:   r.P,
			Category: c,
		}
	}

	return &PlotResponse{
		Rows:           rows,
		CategoryCounts: counts,
		TotalRows:      ds.Size(),
		ReturnedRows:   len(rows),
		WasDownsampled: len(rows) < candidates,
	}
}

// dataset fetches or builds the dataset for key through the coalescing
// cache. Generation failures insert nothing; they surface to the caller as
// internal errors.
func (s *PlotService) dataset(key synth.CacheKey) (*synth.Dataset, error) {
	return s.datasets.GetOrCreate(key, func() (*synth.Dataset, error) {
		start := time.Now()

		var (
			ds  *synth.Dataset
			err error
		)
		switch key.Kind {
		case synth.KindPCA:
			ds, err = synth.PCA(key.Size, key.Groups, key.Features, key.Seed)
		default:
			ds, err = synth.Volcano(key.Size, key.Seed, synth.VolcanoParams{
				ExtremeFraction: s.engine.ExtremeFraction,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("dataset generation failed for %s: %w", key, err)
		}

		log.Printf("[engine] generated %s rows for %s in %s (%s)",
			humanize.Comma(int64(ds.Size())), key,
			time.Since(start).Round(time.Millisecond),
			humanize.Bytes(uint64(ds.BytesEstimate())))
		return ds, nil
	})
}

// WarmCache pre-generates volcano datasets for the given sizes so
// first-touch latency is paid before user traffic. Out-of-range sizes are
// skipped. Returns the sizes now cached, ascending.
func (s *PlotService) WarmCache(sizes []int) []int {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		warmed []int
	)

	conc := s.engine.WarmConcurrency
	if conc <= 0 {
		conc = 2
	}
	g.SetLimit(conc)

	for _, size := range sizes {
		if size < s.engine.MinDatasetSize || size > s.engine.MaxDatasetSize {
			log.Printf("[warm] skipping size %d: out of range [%d, %d]",
				size, s.engine.MinDatasetSize, s.engine.MaxDatasetSize)
			continue
		}
		size := size
		g.Go(func() error {
			if _, err := s.dataset(synth.CacheKey{Kind: synth.KindVolcano, Size: size}); err != nil {
				log.Printf("[warm] size %d failed: %v", size, err)
				return nil
			}
			mu.Lock()
			warmed = append(warmed, size)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	sort.Ints(warmed)
	return warmed
}

// ClearCache drops all cached datasets and serialized responses, returning
// the number of dataset entries removed.
func (s *PlotService) ClearCache() int {
	if s.responses != nil {
		s.responses.Reset()
	}
	return s.datasets.Clear()
}

// CacheStatus reports the dataset cache contents.
func (s *PlotService) CacheStatus() cache.Status {
	return s.datasets.Status()
}

// ResponseCacheLen reports the number of cached serialized responses.
func (s *PlotService) ResponseCacheLen() int {
	if s.responses == nil {
		return 0
	}
	return s.responses.Len()
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// filterSearch keeps rows whose ID contains term, case-insensitively.
// Applied after classification and before sampling.
func filterSearch(rows []synth.Row, idx []int, term string) []int {
	needle := strings.ToLower(term)
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if strings.Contains(strings.ToLower(rows[i].ID), needle) {
			out = append(out, i)
		}
	}
	return out
}
