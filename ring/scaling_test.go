package ring

import (
	"testing"
)

// TestScaleAndRoundAgreesWithApproxBelowSplitThreshold checks that
// ScaleAndRound and ApproxScaleAndRound (no safeguard) return the same
// value on a modulus chain far below the split-safeguard's trigger
// threshold, where the two share one code path.
func TestScaleAndRoundAgreesWithApproxBelowSplitThreshold(t *testing.T) {
	params := threeTowerParamsForScaling(t)
	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	d.Towers[0].Coeffs.Coeffs[0] = 11
	d.Towers[1].Coeffs.Coeffs[0] = 40
	d.Towers[2].Coeffs.Coeffs[0] = 150

	const target = uint64(8)
	fractional := []float64{0.31, 0.7, 0.05}
	intMod := []uint64{3, 5, 2}

	out, err := d.ScaleAndRound(target, fractional, intMod)
	if err != nil {
		t.Fatalf("ScaleAndRound: %v", err)
	}
	approxOut, err := d.ApproxScaleAndRound(target, fractional, intMod)
	if err != nil {
		t.Fatalf("ApproxScaleAndRound: %v", err)
	}
	if out.Coeffs.Coeffs[0] != approxOut.Coeffs.Coeffs[0] {
		t.Fatalf("ScaleAndRound and ApproxScaleAndRound disagree below the split threshold: %d != %d",
			out.Coeffs.Coeffs[0], approxOut.Coeffs.Coeffs[0])
	}
}

// TestScaleAndRoundSplitSafeguardPreventsPrecisionLoss demonstrates
// spec.md §4.6.7's high/low mantissa split: across 16 towers near a
// 56-bit modulus, accumulating x_i*fractional_i directly in float64 (as
// ApproxScaleAndRound still does) loses enough precision to mis-round,
// while ScaleAndRound's split keeps every float64 product within its
// exact-integer range and reproduces the true floor(...) mod t value.
//
// xs/ks were found by exhaustively simulating this package's exact
// float64 accumulation order until the unsplit path's rounding error
// crossed the 128-mask boundary that the true sum, computed in exact
// rational arithmetic, does not.
func TestScaleAndRoundSplitSafeguardPreventsPrecisionLoss(t *testing.T) {
	const q = uint64(36028797018964073) // 56-bit prime, q = 1 (mod 8)
	const numTowers = 16
	const target = uint64(128) // power of two: isolates floatSum via intMod=0

	moduli := make([]uint64, numTowers)
	for i := range moduli {
		moduli[i] = q
	}
	params, err := NewParameters(4, moduli)
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}

	xs := []uint64{
		20461810051882326, 34219888911295881, 1003370715473441, 18091423720247444,
		16756858260002704, 607354406795161, 897577749059258, 25155786453183074,
		30201582416279129, 1671167348156605, 28527456796410830, 25125099692361891,
		4886952353478013, 16763750718711962, 6124356622741247, 2511222758471232,
	}
	ks := []uint64{
		32441066337162738, 9652150707302059, 19349690988357707, 20139989669628613,
		1418112586484141, 35650344644843854, 7184485022504865, 15498976029937111,
		19507617589689845, 17308094491092708, 5424739731099223, 22306611082717419,
		10390587366323471, 19963402057861401, 2029232313245126, 10882379719897025,
	}

	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	fractional := make([]float64, numTowers)
	intMod := make([]uint64, numTowers)
	for i := 0; i < numTowers; i++ {
		d.Towers[i].Coeffs.Coeffs[0] = xs[i]
		fractional[i] = float64(ks[i]) / float64(q)
	}

	const wantExact = uint64(0)
	const wantApprox = uint64(112)

	out, err := d.ScaleAndRound(target, fractional, intMod)
	if err != nil {
		t.Fatalf("ScaleAndRound: %v", err)
	}
	if got := out.Coeffs.Coeffs[0]; got != wantExact {
		t.Fatalf("ScaleAndRound (with split safeguard): got %d, want %d", got, wantExact)
	}

	approxOut, err := d.ApproxScaleAndRound(target, fractional, intMod)
	if err != nil {
		t.Fatalf("ApproxScaleAndRound: %v", err)
	}
	if got := approxOut.Coeffs.Coeffs[0]; got != wantApprox {
		t.Fatalf("ApproxScaleAndRound (no split safeguard): got %d, want %d", got, wantApprox)
	}
}

func threeTowerParamsForScaling(t *testing.T) *Parameters {
	t.Helper()
	params, err := NewParameters(4, []uint64{17, 97, 193})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	return params
}

// TestFastBaseConvqToBskMontgomeryExpandsIntoNewBasis exercises the Q ->
// B_sk ∪ {m_sk} conversion step of the BFV multiplication chain: every
// source tower contributes with weight 1, landing the residue (reduced
// into the target modulus) unchanged in every target tower.
func TestFastBaseConvqToBskMontgomeryExpandsIntoNewBasis(t *testing.T) {
	params := threeTowerParamsForScaling(t)
	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	d.Towers[0].Coeffs.Coeffs[0] = 5
	d.Towers[1].Coeffs.Coeffs[0] = 7
	d.Towers[2].Coeffs.Coeffs[0] = 9

	targets := []uint64{257, 769} // B_sk
	table, err := NewFastConvTable(targets, [][]uint64{{1, 1}, {1, 1}, {1, 1}}, nil)
	if err != nil {
		t.Fatalf("NewFastConvTable: %v", err)
	}
	out, err := d.FastBaseConvqToBskMontgomery(table)
	if err != nil {
		t.Fatalf("FastBaseConvqToBskMontgomery: %v", err)
	}
	if len(out) != len(targets) {
		t.Fatalf("expected %d target towers, got %d", len(targets), len(out))
	}
	want := uint64(5 + 7 + 9)
	for k, tp := range out {
		if tp.Modulus() != targets[k] {
			t.Fatalf("target %d: modulus = %d, want %d", k, tp.Modulus(), targets[k])
		}
		if got := tp.Coeffs.Coeffs[0]; got != want%targets[k] {
			t.Fatalf("target %d: got %d, want %d", k, got, want%targets[k])
		}
	}
}

// TestFastRNSFloorqDividesByAccumulatedWeight checks FastRNSFloorq against
// FastBaseConvqToBskMontgomery using the same source data: the floor step
// is the same accumulate-and-reduce skeleton but with a FinalScalar that
// divides the accumulated value by q (folded in as a multiplicative
// constant), distinguishing it from a plain weight-1 basis conversion.
func TestFastRNSFloorqDividesByAccumulatedWeight(t *testing.T) {
	params := threeTowerParamsForScaling(t)
	d, err := FromZero(params, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	d.Towers[0].Coeffs.Coeffs[0] = 12
	d.Towers[1].Coeffs.Coeffs[0] = 0
	d.Towers[2].Coeffs.Coeffs[0] = 0

	target := uint64(257)
	qInvMod, err := ModInverse(4%target, target) // pretend q=4 for a clean floor-by-4
	if err != nil {
		t.Fatalf("ModInverse: %v", err)
	}
	table, err := NewFastConvTable(
		[]uint64{target},
		[][]uint64{{1}, {0}, {0}},
		[]uint64{qInvMod},
	)
	if err != nil {
		t.Fatalf("NewFastConvTable: %v", err)
	}
	out, err := d.FastRNSFloorq(table)
	if err != nil {
		t.Fatalf("FastRNSFloorq: %v", err)
	}
	want := BRed(12, qInvMod, target, ComputeBarrettConstant(target))
	if got := out[0].Coeffs.Coeffs[0]; got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

// TestFastBaseConvSKRejectsMismatchedMultiplierShape checks the table's
// shape validation: each multiplier row needs one weight per target,
// FinalScalar one entry per target, and applying the table needs one
// multiplier row per source tower.
func TestFastBaseConvSKRejectsMismatchedMultiplierShape(t *testing.T) {
	if _, err := NewFastConvTable([]uint64{193}, [][]uint64{{1}}, nil); err != nil {
		t.Fatalf("NewFastConvTable with matching shape: %v", err)
	}
	if _, err := NewFastConvTable([]uint64{193, 257}, [][]uint64{{1}}, nil); err == nil {
		t.Fatalf("expected an error for a multiplier row shorter than len(Targets)")
	}
	if _, err := NewFastConvTable([]uint64{193}, [][]uint64{{1}}, []uint64{1, 2}); err == nil {
		t.Fatalf("expected an error for a FinalScalar longer than len(Targets)")
	}

	bskParams, err := NewParameters(4, []uint64{257, 769})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	d, err := FromZero(bskParams, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	oneRow, err := NewFastConvTable([]uint64{193}, [][]uint64{{1}}, nil)
	if err != nil {
		t.Fatalf("NewFastConvTable: %v", err)
	}
	if _, err := d.FastBaseConvSK(oneRow); err == nil {
		t.Fatalf("expected an error for a table with fewer multiplier rows than source towers")
	}
}

// TestFastBaseConvSKConvertsBskBackToQ exercises the final step of the BFV
// multiplication chain: converting a two-tower B_sk ∪ {m_sk} result back
// down into a single Q-basis tower.
func TestFastBaseConvSKConvertsBskBackToQ(t *testing.T) {
	bskParams, err := NewParameters(4, []uint64{257, 769})
	if err != nil {
		t.Fatalf("NewParameters: %v", err)
	}
	d, err := FromZero(bskParams, Coefficient)
	if err != nil {
		t.Fatalf("FromZero: %v", err)
	}
	d.Towers[0].Coeffs.Coeffs[0] = 3
	d.Towers[1].Coeffs.Coeffs[0] = 11

	target := uint64(193)
	table, err := NewFastConvTable([]uint64{target}, [][]uint64{{1}, {1}}, nil)
	if err != nil {
		t.Fatalf("NewFastConvTable: %v", err)
	}
	out, err := d.FastBaseConvSK(table)
	if err != nil {
		t.Fatalf("FastBaseConvSK: %v", err)
	}
	if got, want := out[0].Coeffs.Coeffs[0], uint64(3+11)%target; got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}
