package ring

import (
	"fmt"
	"math/big"
)

// MultiplicativeInverse returns the pointwise multiplicative inverse of d
// in Evaluation format, per spec.md §6's polynomial-algebra list. In
// Evaluation format multiplication is coefficient-wise modulo each tower's
// qi, so the polynomial inverse is exactly the per-slot, per-tower modular
// inverse -- the same pointwise structure field2n.Inverse uses for the
// matrix sampler's Evaluation-format Field2n elements, generalized here
// from one complex slot per entry to one uint64 slot per (tower, index)
// pair. Fails with ErrNoInverse (via ModInverse) if any slot is not a unit
// mod its tower's modulus.
func (d *DoubleCRTPoly) MultiplicativeInverse() (*DoubleCRTPoly, error) {
	if d.Format != Evaluation {
		return nil, fmt.Errorf("%w: MultiplicativeInverse requires Evaluation format", ErrWrongFormat)
	}
	out := d.Clone()
	for i, tower := range out.Towers {
		qi := tower.Modulus()
		for j, c := range tower.Coeffs.Coeffs {
			inv, err := ModInverse(c, qi)
			if err != nil {
				return nil, fmt.Errorf("tower %d slot %d: %w", i, j, ErrNoInverse)
			}
			tower.Coeffs.Coeffs[j] = inv
		}
	}
	return out, nil
}

// ExpandCRTBasis is the exact counterpart of ApproxModUp, per spec.md
// §6's RNS-manipulation list: it extends d from basis Q to basis Q∪P the
// same way, but builds the new P towers via the exact SwitchCRTBasis (the
// α-corrected conversion of spec.md §4.6.5) instead of the approximate
// ApproxSwitchCRTBasis, so the extension is exact rather than correct up
// to a multiple of Q.
func (d *DoubleCRTPoly) ExpandCRTBasis(extParams *Parameters, aux *AuxiliaryBasis) (*DoubleCRTPoly, error) {
	coeffSrc := d
	qTowers := d.Towers
	if d.Format == Evaluation {
		coeffSrc = d.Clone()
		if err := coeffSrc.SwitchFormat(nil); err != nil {
			return nil, err
		}
	} else {
		evalQ := d.Clone()
		if err := evalQ.SwitchFormat(nil); err != nil {
			return nil, err
		}
		qTowers = evalQ.Towers
	}

	pExt, err := coeffSrc.SwitchCRTBasis(aux)
	if err != nil {
		return nil, err
	}
	for _, t := range pExt.Towers {
		if err := t.SwitchFormat(); err != nil {
			return nil, err
		}
	}

	towers := make([]*SingleCRTPoly, 0, len(d.Towers)+len(pExt.Towers))
	towers = append(towers, qTowers...)
	towers = append(towers, pExt.Towers...)
	return &DoubleCRTPoly{Params: extParams, Format: Evaluation, Towers: towers}, nil
}

// ExpandCRTBasisReverseOrder is ExpandCRTBasis with the new P towers
// prepended rather than appended, for the gadget-decomposition call sites
// that expect the extension basis first (spec.md §6 lists it alongside
// ExpandCRTBasis as a distinct entry point rather than a flag, so it gets
// its own function here too).
func (d *DoubleCRTPoly) ExpandCRTBasisReverseOrder(extParams *Parameters, aux *AuxiliaryBasis) (*DoubleCRTPoly, error) {
	expanded, err := d.ExpandCRTBasis(extParams, aux)
	if err != nil {
		return nil, err
	}
	numP := len(aux.P)
	numQ := len(d.Towers)
	towers := make([]*SingleCRTPoly, 0, numQ+numP)
	towers = append(towers, expanded.Towers[numQ:]...)
	towers = append(towers, expanded.Towers[:numQ]...)
	return &DoubleCRTPoly{Params: extParams, Format: Evaluation, Towers: towers}, nil
}

// ApproxScaleAndRound is ScaleAndRound's approximate sibling, per spec.md
// §6: it shares ScaleAndRound's accumulate-and-round structure exactly,
// but skips §4.6.7's high/low split safeguard for when log q + log
// size_Q would overflow a float64 mantissa. Every other "Approx"-prefixed
// operation in this package trades one correctness-preserving correction
// term for speed (ApproxSwitchCRTBasis omits the α-correction term that
// SwitchCRTBasis adds); this is that same trade applied to ScaleAndRound,
// appropriate when the caller's modulus chain is known to stay within the
// safe range.
func (d *DoubleCRTPoly) ApproxScaleAndRound(t uint64, fractional []float64, intMod []uint64) (*SingleCRTPoly, error) {
	return d.scaleAndRound(t, fractional, intMod, false)
}

// ScaleAndRoundPOverQ implements the BFV round(P/Q · x) step, per spec.md
// §6: unlike ScaleAndRound (which collapses every Q-tower into a single
// target modulus t), this produces a full multi-tower result over a new
// basis, scaling by P/Q instead of t/Q. It shares the same "accumulate a
// per-slot sum of products, Barrett-reduce into the target modulus, apply
// a final per-tower scalar" skeleton spec.md §4.6.8 describes for the
// BFV fast-base-conversion family, so it is built directly on
// accumulateAndScale with the caller-supplied table encoding the P/Q
// scaling weights.
func (d *DoubleCRTPoly) ScaleAndRoundPOverQ(table FastConvTable) ([]*SingleCRTPoly, error) {
	if d.Format != Coefficient {
		return nil, fmt.Errorf("%w: ScaleAndRoundPOverQ requires Coefficient format", ErrWrongFormat)
	}
	return accumulateAndScale(d.Towers, table)
}

// CRTDecompose implements the gadget decomposition of spec.md §6's
// `CRTDecompose(digit_bits)`: interpolate d's coefficients into Z via
// CRTInterpolate, then split each coefficient into digit-bits-wide
// windows of the composite modulus Q, broadcasting each window back into
// every tower of a fresh DoubleCRTPoly sharing d's Params. The number of
// digit polynomials returned is ceil(bitlen(Q) / digitBits).
//
// Grounded on ring/ring_ops.go's DecomposeUnsigned (extracting one
// pw2-width digit window per coefficient), generalized from "one tower's
// native integer" to the full CRT-interpolated big integer.
func (d *DoubleCRTPoly) CRTDecompose(digitBits int) ([]*DoubleCRTPoly, error) {
	if digitBits <= 0 {
		return nil, fmt.Errorf("ring: CRTDecompose requires digitBits > 0, got %d", digitBits)
	}
	full, err := d.CRTInterpolate()
	if err != nil {
		return nil, err
	}

	numDigits := (d.Params.Q.BitLen() + digitBits - 1) / digitBits
	if numDigits < 1 {
		numDigits = 1
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(digitBits))
	mask.Sub(mask, big.NewInt(1))

	out := make([]*DoubleCRTPoly, numDigits)
	for dgt := 0; dgt < numDigits; dgt++ {
		shift := uint(dgt * digitBits)
		coeffs := make([]*big.Int, len(full))
		for j, x := range full {
			window := new(big.Int).Rsh(x, shift)
			window.And(window, mask)
			coeffs[j] = window
		}
		poly, err := FromCRTInterpolation(d.Params, coeffs)
		if err != nil {
			return nil, err
		}
		out[dgt] = poly
	}
	return out, nil
}
