// Package synth generates deterministic synthetic plot datasets. It stands
// in for a real ingestion pipeline: every dataset is a pure function of its
// cache key, so equal keys always reproduce identical coordinates.
package synth

import (
	"fmt"
	"time"
)

// Kind identifies the dataset family a CacheKey addresses.
type Kind string

const (
	KindVolcano Kind = "volcano"
	KindPCA     Kind = "pca"
)

// Row is one plotted point. Rows are immutable once generated; per-request
// derived state (category assignment) lives outside the dataset so cached
// rows are never touched.
type Row struct {
	ID    string
	X     float64 // log2 fold change, or PC1
	Y     float64 // -log10(p), or PC2
	Z     float64 // PC3 (PCA datasets only)
	P     float64 // raw p-value (volcano datasets only)
	Group string  // group label (PCA datasets only)
}

// CacheKey is the parameter tuple that uniquely determines a dataset's
// content. Groups and Features are zero for volcano datasets.
type CacheKey struct {
	Kind     Kind
	Size     int
	Seed     int64
	Groups   int
	Features int
}

func (k CacheKey) String() string {
	if k.Kind == KindPCA {
		return fmt.Sprintf("pca:size=%d:seed=%d:groups=%d:features=%d",
			k.Size, k.Seed, k.Groups, k.Features)
	}
	return fmt.Sprintf("volcano:size=%d:seed=%d", k.Size, k.Seed)
}

// Dataset is an immutable generated collection of rows plus metadata.
// Filtering and sampling always produce new index slices over Rows; the
// slice itself is never mutated after generation.
type Dataset struct {
	Key         CacheKey
	Rows        []Row
	GeneratedAt time.Time
}

// Size returns the row count.
func (d *Dataset) Size() int { return len(d.Rows) }

// BytesEstimate approximates the in-memory footprint of the dataset, for
// cache status reporting and logs.
func (d *Dataset) BytesEstimate() int {
	// Fixed fields plus two string headers per row.
	const rowFixed = 4*8 + 2*16
	total := 0
	for i := range d.Rows {
		total += rowFixed + len(d.Rows[i].ID) + len(d.Rows[i].Group)
	}
	return total
}
