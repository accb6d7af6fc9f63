package service

import (
	"fmt"
	"math"
	"testing"

	"github.com/volcano-viz/server/internal/data/synth"
)

// biasedRows builds a dataset where the first nSig rows are significant
// (large |X|, small p) and the rest are null.
func biasedRows(n, nSig int) ([]synth.Row, *classification) {
	rows := make([]synth.Row, n)
	cats := make([]Category, n)
	counts := map[Category]int{}
	for i := range rows {
		if i < nSig {
			rows[i] = synth.Row{ID: fmt.Sprintf("gene_%06d", i), X: 2.0 + float64(i)*0.001, P: 0.001}
			cats[i] = CategoryUp
		} else {
			rows[i] = synth.Row{ID: fmt.Sprintf("gene_%06d", i), X: 0.1, P: 0.5}
			cats[i] = CategoryNonSignificant
		}
		counts[cats[i]]++
	}
	return rows, &classification{categories: cats, counts: counts}
}

func TestSampleNoOpWhenUnderTarget(t *testing.T) {
	rows, cls := biasedRows(100, 10)
	idx := allIndices(100)

	out := sampleIndices(rows, cls, idx, 100, 0.6, 1)
	if len(out) != 100 {
		t.Fatalf("expected all 100 rows, got %d", len(out))
	}
	for i := range out {
		if out[i] != idx[i] {
			t.Fatalf("no-op sample must return rows unchanged at %d", i)
		}
	}

	out = sampleIndices(rows, cls, idx, 500, 0.6, 1)
	if len(out) != 100 {
		t.Fatalf("sampler must never upsample: got %d", len(out))
	}
}

func TestSampleSignificantBias(t *testing.T) {
	rows, cls := biasedRows(10000, 500)
	idx := allIndices(10000)

	out := sampleIndices(rows, cls, idx, 1000, 0.6, 42)
	if len(out) != 1000 {
		t.Fatalf("expected exactly 1000 rows, got %d", len(out))
	}

	sig := 0
	seen := make(map[int]bool, len(out))
	for _, i := range out {
		if seen[i] {
			t.Fatalf("row %d duplicated in sample", i)
		}
		seen[i] = true
		if cls.significant(i) {
			sig++
		}
	}
	// Quota is min(500, 1000*0.6); all 500 significant rows must survive.
	if sig != 500 {
		t.Fatalf("expected all 500 significant rows retained, got %d", sig)
	}
}

func TestSampleKeepsMostExtreme(t *testing.T) {
	// More significant rows than the quota: the largest |X| must win.
	rows, cls := biasedRows(2000, 1000)
	idx := allIndices(2000)

	out := sampleIndices(rows, cls, idx, 500, 0.6, 7)
	if len(out) != 500 {
		t.Fatalf("expected 500 rows, got %d", len(out))
	}

	// Quota = 300. biasedRows gives X increasing with index, so the top
	// 300 significant rows are indices 700..999.
	maxMag := 0.0
	sigPicked := 0
	for _, i := range out {
		if cls.significant(i) {
			sigPicked++
			if m := math.Abs(rows[i].X); m > maxMag {
				maxMag = m
			}
			if i < 700 {
				t.Fatalf("row %d picked ahead of more extreme significant rows", i)
			}
		}
	}
	if sigPicked != 300 {
		t.Fatalf("expected 300 significant rows, got %d", sigPicked)
	}
	if math.Abs(maxMag-(2.0+999*0.001)) > 1e-9 {
		t.Fatalf("most extreme row missing from sample (max |X| = %g)", maxMag)
	}
}

func TestSampleDeterministic(t *testing.T) {
	rows, cls := biasedRows(5000, 200)
	idx := allIndices(5000)

	a := sampleIndices(rows, cls, idx, 800, 0.5, 1234)
	b := sampleIndices(rows, cls, idx, 800, 0.5, 1234)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("samples differ at %d: %d != %d", i, a[i], b[i])
		}
	}

	c := sampleIndices(rows, cls, idx, 800, 0.5, 4321)
	same := 0
	for i := range a {
		if a[i] == c[i] {
			same++
		}
	}
	if same == len(a) {
		t.Fatalf("different seeds should produce different samples")
	}
}

func TestSampleAllSignificantBackfill(t *testing.T) {
	// Group-categorized datasets: every row is significant, the "other"
	// partition is empty, and the sampler must still hit the target.
	n := 3000
	rows := make([]synth.Row, n)
	cats := make([]Category, n)
	for i := range rows {
		rows[i] = synth.Row{ID: fmt.Sprintf("sample_%06d", i), X: float64(i % 7), Group: "group_1"}
		cats[i] = Category("group_1")
	}
	cls := &classification{categories: cats, counts: map[Category]int{"group_1": n}}

	out := sampleIndices(rows, cls, allIndices(n), 500, 0.3, 99)
	if len(out) != 500 {
		t.Fatalf("expected 500 rows, got %d", len(out))
	}
	seen := make(map[int]bool, len(out))
	for _, i := range out {
		if seen[i] {
			t.Fatalf("row %d duplicated", i)
		}
		seen[i] = true
	}
}

func TestSampleZeroTarget(t *testing.T) {
	rows, cls := biasedRows(100, 10)
	if out := sampleIndices(rows, cls, allIndices(100), 0, 0.6, 1); len(out) != 0 {
		t.Fatalf("expected empty sample for target 0, got %d", len(out))
	}
}

func BenchmarkSampleIndices(b *testing.B) {
	rows, cls := biasedRows(100000, 5000)
	idx := allIndices(100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sampleIndices(rows, cls, idx, 5000, 0.5, 42)
	}
}
