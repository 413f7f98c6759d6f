package trapdoor

import (
	"testing"

	"github.com/sinitcin/rnscore/gaussian"
	"github.com/sinitcin/rnscore/sampling"
)

func TestPerturbProducesLengthKVector(t *testing.T) {
	const k = 9
	digits, err := RequiredDigits(257, 2, k)
	if err != nil {
		t.Fatalf("RequiredDigits: %v", err)
	}
	geo := BuildLatticeGeometry(2, k, digits)

	src := sampling.NewSeededSource([]byte("perturb-test"))
	dgg := gaussian.NewGenerator(src, 4.57/3, 6)

	p := Perturb(4.57/3, k, geo.L, geo.H, 2, dgg)
	if len(p) != k {
		t.Fatalf("expected length %d, got %d", k, len(p))
	}
}

func TestPerturbFloatProducesLengthKVector(t *testing.T) {
	const k = 9
	digits, err := RequiredDigits(257, 2, k)
	if err != nil {
		t.Fatalf("RequiredDigits: %v", err)
	}
	geo := BuildLatticeGeometry(2, k, digits)

	src := sampling.NewSeededSource([]byte("perturb-float-test"))
	dgg := gaussian.NewGenerator(src, 4.57/3, 6)

	p := PerturbFloat(4.57/3, k, geo.L, geo.H, dgg)
	if len(p) != k {
		t.Fatalf("expected length %d, got %d", k, len(p))
	}
}

func TestPerturbIsDeterministicForAFixedSeed(t *testing.T) {
	const k = 9
	digits, err := RequiredDigits(257, 2, k)
	if err != nil {
		t.Fatalf("RequiredDigits: %v", err)
	}
	geo := BuildLatticeGeometry(2, k, digits)

	run := func() []int64 {
		src := sampling.NewSeededSource([]byte("perturb-determinism"))
		dgg := gaussian.NewGenerator(src, 4.57/3, 6)
		return Perturb(4.57/3, k, geo.L, geo.H, 2, dgg)
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("length mismatch between runs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs between identically-seeded runs: %d != %d", i, a[i], b[i])
		}
	}
}
