package trapdoor

import (
	"math"
	"testing"
)

func TestBuildLatticeGeometryKnownValues(t *testing.T) {
	digits, err := RequiredDigits(257, 2, 9)
	if err != nil {
		t.Fatalf("RequiredDigits: %v", err)
	}
	geo := BuildLatticeGeometry(2, 9, digits)

	wantL0 := math.Sqrt(2*(1+1.0/9) + 1)
	if math.Abs(geo.L[0]-wantL0) > 1e-9 {
		t.Fatalf("l0 = %v, want %v", geo.L[0], wantL0)
	}
	if geo.H[0] != 0 {
		t.Fatalf("h0 = %v, want 0", geo.H[0])
	}
	wantC0 := float64(digits[0]) / 2
	if math.Abs(geo.C[0]-wantC0) > 1e-9 {
		t.Fatalf("c0 = %v, want %v", geo.C[0], wantC0)
	}
}

func TestBuildLatticeGeometryLengths(t *testing.T) {
	const k = 9
	digits, err := RequiredDigits(257, 2, k)
	if err != nil {
		t.Fatalf("RequiredDigits: %v", err)
	}
	geo := BuildLatticeGeometry(2, k, digits)
	if len(geo.L) != k || len(geo.H) != k || len(geo.C) != k {
		t.Fatalf("expected length-%d vectors, got L=%d H=%d C=%d", k, len(geo.L), len(geo.H), len(geo.C))
	}
}
