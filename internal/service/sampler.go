package service

import (
	"math"
	"math/rand"
	"sort"

	"github.com/volcano-viz/server/internal/data/synth"
)

// sampleIndices reduces idx to at most target rows, reserving a sigRatio
// share of the budget for significant rows. When idx already fits it is
// returned unchanged: the sampler never upsamples, fabricates, or
// duplicates rows. Same inputs and seed always produce the same selection.
func sampleIndices(rows []synth.Row, cls *classification, idx []int, target int, sigRatio float64, seed uint64) []int {
	if target <= 0 {
		return nil
	}
	if len(idx) <= target {
		return idx
	}

	sig := make([]int, 0, len(idx))
	other := make([]int, 0, len(idx))
	for _, i := range idx {
		if cls.significant(i) {
			sig = append(sig, i)
		} else {
			other = append(other, i)
		}
	}

	quota := int(math.Round(float64(target) * sigRatio))
	if quota > target {
		quota = target
	}
	if quota > len(sig) {
		quota = len(sig)
	}

	out := make([]int, 0, target)
	if quota < len(sig) {
		// Keep the most extreme rows first; stable sort breaks magnitude
		// ties by input order so the selection is deterministic.
		ranked := make([]int, len(sig))
		copy(ranked, sig)
		sort.SliceStable(ranked, func(a, b int) bool {
			return math.Abs(rows[ranked[a]].X) > math.Abs(rows[ranked[b]].X)
		})
		out = append(out, ranked[:quota]...)
		sig = ranked[quota:]
	} else {
		out = append(out, sig...)
		sig = nil
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	out = append(out, pickUniform(other, target-len(out), rng)...)

	// Backfill from leftover significant rows if the other partition ran
	// dry, e.g. group-categorized datasets where every row is significant.
	if len(out) < target && len(sig) > 0 {
		out = append(out, pickUniform(sig, target-len(out), rng)...)
	}
	return out
}

// pickUniform draws up to k elements from pool without replacement using a
// partial Fisher-Yates shuffle. pool is left untouched.
func pickUniform(pool []int, k int, rng *rand.Rand) []int {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if k >= len(pool) {
		out := make([]int, len(pool))
		copy(out, pool)
		return out
	}

	scratch := make([]int, len(pool))
	copy(scratch, pool)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	return scratch[:k]
}
