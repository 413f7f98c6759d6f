package ring

import (
	"math/big"
	"testing"

	"github.com/sinitcin/rnscore/sampling"
)

func TestModReducePreservesResidueModuloT(t *testing.T) {
	params, err := NewParameters(4, []uint64{193, 257, 769})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	truncated, err := NewParameters(4, []uint64{193, 257})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}

	const plaintextMod = uint64(17)
	pInvModQ := make([]uint64, len(truncated.Moduli))
	p := params.Moduli[len(params.Moduli)-1]
	for i, qi := range truncated.Moduli {
		inv, err := ModInverse(p%qi, qi)
		if err != nil {
			t.Fatalf("ModInverse: %v", err)
		}
		pInvModQ[i] = inv
	}

	src := sampling.NewSeededSource([]byte("mod-reduce-seed"))
	d, err := FromDiscreteUniform(params, Coefficient, src)
	if err != nil {
		t.Fatalf("FromDiscreteUniform: %v", err)
	}

	before, err := d.CRTInterpolate()
	if err != nil {
		t.Fatalf("CRTInterpolate: %v", err)
	}

	reduced, err := d.ModReduce(plaintextMod, truncated, pInvModQ)
	if err != nil {
		t.Fatalf("ModReduce: %v", err)
	}
	if len(reduced.Towers) != len(truncated.Moduli) {
		t.Fatalf("expected %d towers, got %d", len(truncated.Moduli), len(reduced.Towers))
	}

	after, err := reduced.CRTInterpolate()
	if err != nil {
		t.Fatalf("CRTInterpolate: %v", err)
	}

	pBig := new(big.Int).SetUint64(p)
	tMod := big.NewInt(int64(plaintextMod))
	for j := range before {
		lhs := new(big.Int).Mod(before[j], tMod)
		rhs := new(big.Int).Mul(after[j], pBig)
		rhs.Mod(rhs, tMod)
		if lhs.Cmp(rhs) != 0 {
			t.Fatalf("slot %d: c mod t = %v, want p*c' mod t = %v", j, lhs, rhs)
		}
	}
}

func TestModReduceRejectsEvaluationFormat(t *testing.T) {
	params, err := NewParameters(4, []uint64{193, 257})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	truncated, err := NewParameters(4, []uint64{193})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	d, err := FromZero(params, Evaluation)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	if _, err := d.ModReduce(17, truncated, []uint64{1}); err == nil {
		t.Fatalf("expected an error for Evaluation-format input")
	}
}

func TestModReduceRejectsSingleTower(t *testing.T) {
	params, err := NewParameters(4, []uint64{193})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	if _, err := d.ModReduce(17, params, nil); err == nil {
		t.Fatalf("expected an error for a single-tower polynomial")
	}
}
