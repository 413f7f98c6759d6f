package ring

import (
	"math/big"
	"testing"

	"github.com/sinitcin/rnscore/sampling"
)

func twoTowerParamsForExpand(t *testing.T) *Parameters {
	t.Helper()
	params, err := NewParameters(4, []uint64{17, 97})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	return params
}

func TestMultiplicativeInverseRoundTrips(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	src := sampling.NewSeededSource([]byte("mul-inverse-seed"))

	d, err := FromDiscreteUniform(params, Coefficient, src)
	if err != nil {
		t.Fatalf("FromDiscreteUniform: %v", err)
	}
	if err := d.SwitchFormat(nil); err != nil {
		t.Fatalf("SwitchFormat: %v", err)
	}
	// Avoid zero slots, which have no multiplicative inverse.
	for i, qi := range params.Moduli {
		for j, c := range d.Towers[i].Coeffs.Coeffs {
			if c == 0 {
				d.Towers[i].Coeffs.Coeffs[j] = 1 % qi
			}
		}
	}

	inv, err := d.MultiplicativeInverse()
	if err != nil {
		t.Fatalf("MultiplicativeInverse: %v", err)
	}

	prod, err := FromZero(params, Evaluation)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	if err := prod.Mul(d, inv, nil); err != nil {
		t.Fatalf("Mul: %v", err)
	}
	for i := range params.Moduli {
		for j, c := range prod.Towers[i].Coeffs.Coeffs {
			if c != 1 {
				t.Fatalf("tower %d slot %d: x*x^-1 = %d, want 1", i, j, c)
			}
		}
	}
}

func TestMultiplicativeInverseRejectsCoefficientFormat(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	if _, err := d.MultiplicativeInverse(); err == nil {
		t.Fatalf("expected an error for Coefficient-format input")
	}
}

func TestExpandCRTBasisAppendsTowersConsistentWithSwitchCRTBasis(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	auxModuli := []uint64{193, 257}
	aux, err := NewAuxiliaryBasis(params, auxModuli)
	if err != nil {
		t.Fatalf("NewAuxiliaryBasis: %v", err)
	}

	extParams, err := NewParameters(4, append(append([]uint64{}, params.Moduli...), auxModuli...))
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}

	src := sampling.NewSeededSource([]byte("expand-crt-basis-seed"))
	d, err := FromDiscreteUniform(params, Coefficient, src)
	if err != nil {
		t.Fatalf("FromDiscreteUniform: %v", err)
	}

	expanded, err := d.ExpandCRTBasis(extParams, aux)
	if err != nil {
		t.Fatalf("ExpandCRTBasis: %v", err)
	}
	if len(expanded.Towers) != len(params.Moduli)+len(auxModuli) {
		t.Fatalf("expected %d towers, got %d", len(params.Moduli)+len(auxModuli), len(expanded.Towers))
	}

	want, err := d.SwitchCRTBasis(aux)
	if err != nil {
		t.Fatalf("SwitchCRTBasis: %v", err)
	}
	// ExpandCRTBasis returns Evaluation towers; bring the reference along.
	if err := want.SwitchFormat(nil); err != nil {
		t.Fatalf("SwitchFormat: %v", err)
	}
	for k := range auxModuli {
		got := expanded.Towers[len(params.Moduli)+k]
		for j, c := range got.Coeffs.Coeffs {
			if c != want.Towers[k].Coeffs.Coeffs[j] {
				t.Fatalf("aux tower %d slot %d: got %d, want %d", k, j, c, want.Towers[k].Coeffs.Coeffs[j])
			}
		}
	}
}

func TestExpandCRTBasisReverseOrderPrependsAuxTowers(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	auxModuli := []uint64{193}
	aux, err := NewAuxiliaryBasis(params, auxModuli)
	if err != nil {
		t.Fatalf("NewAuxiliaryBasis: %v", err)
	}
	extParams, err := NewParameters(4, append(append([]uint64{}, auxModuli...), params.Moduli...))
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}

	src := sampling.NewSeededSource([]byte("expand-crt-basis-reverse-seed"))
	d, err := FromDiscreteUniform(params, Coefficient, src)
	if err != nil {
		t.Fatalf("FromDiscreteUniform: %v", err)
	}

	rev, err := d.ExpandCRTBasisReverseOrder(extParams, aux)
	if err != nil {
		t.Fatalf("ExpandCRTBasisReverseOrder: %v", err)
	}
	if len(rev.Towers) != len(params.Moduli)+len(auxModuli) {
		t.Fatalf("expected %d towers, got %d", len(params.Moduli)+len(auxModuli), len(rev.Towers))
	}
	if rev.Towers[0].Modulus() != auxModuli[0] {
		t.Fatalf("expected the aux tower first, got modulus %d", rev.Towers[0].Modulus())
	}
	for i, qi := range params.Moduli {
		if rev.Towers[len(auxModuli)+i].Modulus() != qi {
			t.Fatalf("Q tower %d out of place: modulus %d, want %d", i, rev.Towers[len(auxModuli)+i].Modulus(), qi)
		}
	}
}

func TestCRTDecomposeReconstructsOriginalValue(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	src := sampling.NewSeededSource([]byte("crt-decompose-seed"))
	d, err := FromDiscreteUniform(params, Coefficient, src)
	if err != nil {
		t.Fatalf("FromDiscreteUniform: %v", err)
	}

	const digitBits = 4
	digits, err := d.CRTDecompose(digitBits)
	if err != nil {
		t.Fatalf("CRTDecompose: %v", err)
	}

	want, err := d.CRTInterpolate()
	if err != nil {
		t.Fatalf("CRTInterpolate: %v", err)
	}

	n := d.N()
	got := make([]*big.Int, n)
	for j := range got {
		got[j] = new(big.Int)
	}
	for dgt, poly := range digits {
		shift := uint(dgt * digitBits)
		vals, err := poly.CRTInterpolate()
		if err != nil {
			t.Fatalf("digit %d CRTInterpolate: %v", dgt, err)
		}
		for j, v := range vals {
			got[j].Add(got[j], new(big.Int).Lsh(v, shift))
		}
	}

	mod := new(big.Int).Set(params.Q)
	for j := range got {
		got[j].Mod(got[j], mod)
		if got[j].Cmp(want[j]) != 0 {
			t.Fatalf("slot %d: reconstructed %v, want %v", j, got[j], want[j])
		}
	}
}

func TestCRTDecomposeRejectsNonPositiveDigitBits(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	if _, err := d.CRTDecompose(0); err == nil {
		t.Fatalf("expected an error for digitBits = 0")
	}
}

func TestScaleAndRoundPOverQMatchesAccumulateAndScaleShape(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	src := sampling.NewSeededSource([]byte("scale-round-p-over-q-seed"))
	d, err := FromDiscreteUniform(params, Coefficient, src)
	if err != nil {
		t.Fatalf("FromDiscreteUniform: %v", err)
	}

	target := uint64(193)
	table, err := NewFastConvTable([]uint64{target}, [][]uint64{{1}, {1}}, nil)
	if err != nil {
		t.Fatalf("NewFastConvTable: %v", err)
	}
	out, err := d.ScaleAndRoundPOverQ(table)
	if err != nil {
		t.Fatalf("ScaleAndRoundPOverQ: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single target tower, got %d", len(out))
	}
	if out[0].Modulus() != target {
		t.Fatalf("got modulus %d, want %d", out[0].Modulus(), target)
	}
}

func TestScaleAndRoundPOverQRejectsEvaluationFormat(t *testing.T) {
	params := twoTowerParamsForExpand(t)
	d, err := FromZero(params, Evaluation)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	table, err := NewFastConvTable([]uint64{193}, [][]uint64{{1}, {1}}, nil)
	if err != nil {
		t.Fatalf("NewFastConvTable: %v", err)
	}
	if _, err := d.ScaleAndRoundPOverQ(table); err == nil {
		t.Fatalf("expected an error for Evaluation-format input")
	}
}
