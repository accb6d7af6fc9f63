package synth

import (
	"math"
	"testing"
)

func TestVolcanoDeterminism(t *testing.T) {
	a, err := Volcano(5000, 42, VolcanoParams{})
	if err != nil {
		t.Fatalf("Volcano failed: %v", err)
	}
	b, err := Volcano(5000, 42, VolcanoParams{})
	if err != nil {
		t.Fatalf("Volcano failed: %v", err)
	}

	if a.Size() != b.Size() {
		t.Fatalf("sizes differ: %d != %d", a.Size(), b.Size())
	}
	for i := range a.Rows {
		ra, rb := a.Rows[i], b.Rows[i]
		if ra.ID != rb.ID || ra.X != rb.X || ra.Y != rb.Y || ra.P != rb.P {
			t.Fatalf("row %d differs: %+v != %+v", i, ra, rb)
		}
	}
}

func TestVolcanoDifferentSeeds(t *testing.T) {
	a, _ := Volcano(1000, 1, VolcanoParams{})
	b, _ := Volcano(1000, 2, VolcanoParams{})

	same := 0
	for i := range a.Rows {
		if a.Rows[i].X == b.Rows[i].X {
			same++
		}
	}
	if same == len(a.Rows) {
		t.Fatalf("different seeds produced identical coordinates")
	}
}

func TestVolcanoExtremeFraction(t *testing.T) {
	const size = 20000
	const frac = 0.10
	ds, err := Volcano(size, 7, VolcanoParams{ExtremeFraction: frac})
	if err != nil {
		t.Fatalf("Volcano failed: %v", err)
	}

	// Strong-signal rows always have p < 0.05; null rows never do.
	extreme := 0
	for i := range ds.Rows {
		if ds.Rows[i].P < 0.05 {
			extreme++
		}
	}
	got := float64(extreme) / float64(size)
	if math.Abs(got-frac) > 0.02 {
		t.Fatalf("extreme fraction %.3f outside tolerance of %.2f", got, frac)
	}
}

func TestVolcanoInvalidSize(t *testing.T) {
	if _, err := Volcano(0, 1, VolcanoParams{}); err == nil {
		t.Fatalf("expected error for size 0")
	}
	if _, err := Volcano(-5, 1, VolcanoParams{}); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestPCADeterminism(t *testing.T) {
	a, err := PCA(3000, 4, 50, 99)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}
	b, err := PCA(3000, 4, 50, 99)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}

	for i := range a.Rows {
		ra, rb := a.Rows[i], b.Rows[i]
		if ra.X != rb.X || ra.Y != rb.Y || ra.Z != rb.Z || ra.Group != rb.Group {
			t.Fatalf("row %d differs: %+v != %+v", i, ra, rb)
		}
	}
}

func TestPCAGroupAssignment(t *testing.T) {
	const groups = 5
	ds, err := PCA(1000, groups, 0, 3)
	if err != nil {
		t.Fatalf("PCA failed: %v", err)
	}

	counts := make(map[string]int)
	for i := range ds.Rows {
		if ds.Rows[i].Group == "" {
			t.Fatalf("row %d missing group label", i)
		}
		counts[ds.Rows[i].Group]++
	}
	if len(counts) != groups {
		t.Fatalf("expected %d groups, got %d", groups, len(counts))
	}
	// Round-robin assignment keeps groups balanced.
	for g, n := range counts {
		if n != 200 {
			t.Fatalf("group %s has %d rows, want 200", g, n)
		}
	}
}

func TestCacheKeyString(t *testing.T) {
	k := CacheKey{Kind: KindVolcano, Size: 1000, Seed: 7}
	if got, want := k.String(), "volcano:size=1000:seed=7"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	p := CacheKey{Kind: KindPCA, Size: 500, Seed: 1, Groups: 3, Features: 20}
	if got, want := p.String(), "pca:size=500:seed=1:groups=3:features=20"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
