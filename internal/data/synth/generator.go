package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// DefaultExtremeFraction is the share of volcano rows drawn from the
// strong-signal distributions when no override is configured.
const DefaultExtremeFraction = 0.10

// VolcanoParams shape the volcano distribution.
type VolcanoParams struct {
	// ExtremeFraction is the share of rows drawn from the strong-signal
	// distributions (large |log2FC|, small p). The remainder cluster near
	// the null. Values outside (0, 1) fall back to the default.
	ExtremeFraction float64
}

// Volcano generates a deterministic volcano-plot dataset of size rows.
// Identical (size, seed, params) always yield identical coordinates: all
// draws come from a single seeded stream consumed in row order. One pass,
// linear time and memory in size.
func Volcano(size int, seed int64, params VolcanoParams) (*Dataset, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid dataset size: %d", size)
	}

	frac := params.ExtremeFraction
	if frac <= 0 || frac >= 1 {
		frac = DefaultExtremeFraction
	}

	rng := rand.New(rand.NewSource(seed))
	rows := make([]Row, size)
	for i := range rows {
		var fc, p float64
		if rng.Float64() < frac {
			// Strong signal: large fold change, small p-value.
			fc = 1.0 + rng.ExpFloat64()*1.2
			if rng.Intn(2) == 0 {
				fc = -fc
			}
			p = math.Pow(10, -(2 + rng.ExpFloat64()*3))
		} else {
			// Null cluster.
			fc = rng.NormFloat64() * 0.4
			p = 0.05 + rng.Float64()*0.95
		}
		if p > 1 {
			p = 1
		}
		rows[i] = Row{
			ID: fmt.Sprintf("gene_%06d", i),
			X:  fc,
			Y:  -math.Log10(p),
			P:  p,
		}
	}

	return &Dataset{
		Key:         CacheKey{Kind: KindVolcano, Size: size, Seed: seed},
		Rows:        rows,
		GeneratedAt: time.Now(),
	}, nil
}

// PCA generates a deterministic dataset of principal-component scores with
// size rows spread round-robin over groups Gaussian clusters. The feature
// count does not change the emitted scores; it models the width of the
// upstream matrix and only enters the cache key and the request cost guard.
func PCA(size, groups, features int, seed int64) (*Dataset, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid dataset size: %d", size)
	}
	if groups <= 0 {
		groups = 3
	}

	rng := rand.New(rand.NewSource(seed))

	// Centroids are drawn before the rows so their placement depends only
	// on (seed, groups), not on size.
	cx := make([]float64, groups)
	cy := make([]float64, groups)
	cz := make([]float64, groups)
	for g := 0; g < groups; g++ {
		cx[g] = rng.NormFloat64() * 5
		cy[g] = rng.NormFloat64() * 5
		cz[g] = rng.NormFloat64() * 5
	}

	rows := make([]Row, size)
	for i := range rows {
		g := i % groups
		rows[i] = Row{
			ID:    fmt.Sprintf("sample_%06d", i),
			X:     cx[g] + rng.NormFloat64()*1.5,
			Y:     cy[g] + rng.NormFloat64()*1.5,
			Z:     cz[g] + rng.NormFloat64()*1.5,
			Group: fmt.Sprintf("group_%d", g+1),
		}
	}

	return &Dataset{
		Key:         CacheKey{Kind: KindPCA, Size: size, Seed: seed, Groups: groups, Features: features},
		Rows:        rows,
		GeneratedAt: time.Now(),
	}, nil
}
