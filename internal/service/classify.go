package service

import "github.com/volcano-viz/server/internal/data/synth"

// Category is a row's significance class.
type Category string

const (
	CategoryUp             Category = "up"
	CategoryDown           Category = "down"
	CategoryNonSignificant Category = "non_significant"
)

// Thresholds are the per-request classification cutoffs.
type Thresholds struct {
	PValue   float64 // significance threshold
	LogFCMin float64 // magnitude lower bound
	LogFCMax float64 // magnitude upper bound
}

// DefaultThresholds returns the standard volcano-plot cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{PValue: 0.05, LogFCMin: -0.5, LogFCMax: 0.5}
}

// classification is a per-request category view layered over an immutable
// cached dataset. Counts are computed once here and never incrementally
// updated, so they always sum to the row count.
type classification struct {
	categories []Category
	counts     map[Category]int
}

// classifyVolcano assigns every row exactly one category from the request
// thresholds. It reads the cached dataset and never mutates it.
func classifyVolcano(ds *synth.Dataset, th Thresholds) *classification {
	cats := make([]Category, len(ds.Rows))
	counts := map[Category]int{
		CategoryUp:             0,
		CategoryDown:           0,
		CategoryNonSignificant: 0,
	}
	for i := range ds.Rows {
		row := &ds.Rows[i]
		var c Category
		switch {
		case row.P > th.PValue:
			c = CategoryNonSignificant
		case row.X > th.LogFCMax:
			c = CategoryUp
		case row.X < th.LogFCMin:
			c = CategoryDown
		default:
			c = CategoryNonSignificant
		}
		cats[i] = c
		counts[c]++
	}
	return &classification{categories: cats, counts: counts}
}

// classifyGroups categorizes each row by its group label (PCA datasets).
func classifyGroups(ds *synth.Dataset) *classification {
	cats := make([]Category, len(ds.Rows))
	counts := make(map[Category]int)
	for i := range ds.Rows {
		c := Category(ds.Rows[i].Group)
		cats[i] = c
		counts[c]++
	}
	return &classification{categories: cats, counts: counts}
}

func (c *classification) significant(i int) bool {
	return c.categories[i] != CategoryNonSignificant
}
