package ring

import (
	"fmt"
	"math/big"
)

// ModReduce implements BGV-style plaintext-preserving modulus switching,
// per spec.md §6's RNS-manipulation list. Unlike DropLastElementAndScale
// (CKKS's rescale, which simply removes the last tower and divides the
// remainder by it with no preserved residue), ModReduce drops the last
// tower p = q_last while keeping every remaining coefficient congruent to
// its original value modulo the plaintext modulus t: it subtracts a
// correction delta with delta ≡ c (mod p) and delta ≡ 0 (mod t) before
// dividing by p, so (c - delta)/p reduces to the same plaintext under t.
//
// Grounded on DropLastElementAndScale's "center the tail tower, combine it
// with each remaining tower, scale by the modular inverse of the dropped
// modulus" skeleton (there the tail is added; here delta is subtracted)
// (ring/doublecrt.go), generalized with the CRT correction term the BGV
// modulus-switching step requires that CKKS rescale does not.
func (d *DoubleCRTPoly) ModReduce(t uint64, truncatedParams *Parameters, pInvModQ []uint64) (*DoubleCRTPoly, error) {
	if len(d.Towers) <= 1 {
		return nil, ErrEmptyTower
	}
	if d.Format != Coefficient {
		return nil, fmt.Errorf("%w: ModReduce requires Coefficient format", ErrWrongFormat)
	}
	if len(pInvModQ) != len(d.Towers)-1 {
		return nil, fmt.Errorf("%w: expected %d per-tower inverse entries", ErrShapeMismatch, len(d.Towers)-1)
	}

	level := len(d.Towers) - 1
	p := d.Params.Moduli[level]

	tModP := t % p
	tInvModP, err := ModInverse(tModP, p)
	if err != nil {
		return nil, fmt.Errorf("ModReduce: plaintext modulus %d has no inverse mod %d: %w", t, p, err)
	}

	pBig := new(big.Int).SetUint64(p)
	tBig := new(big.Int).SetUint64(t)
	tp := new(big.Int).Mul(tBig, pBig)
	halfTp := new(big.Int).Rsh(tp, 1)

	n := d.N()
	deltas := make([]*big.Int, n)
	for j, cp := range d.Towers[level].Coeffs.Coeffs {
		deltaModP := BRed(cp, tInvModP, p, ComputeBarrettConstant(p))
		delta := new(big.Int).Mul(tBig, new(big.Int).SetUint64(deltaModP))
		if delta.Cmp(halfTp) > 0 {
			delta.Sub(delta, tp)
		}
		deltas[j] = delta
	}

	out := &DoubleCRTPoly{Params: truncatedParams, Format: Coefficient, Towers: make([]*SingleCRTPoly, level)}
	for i := 0; i < level; i++ {
		qi := d.Params.Moduli[i]
		qiBig := new(big.Int).SetUint64(qi)
		u := ComputeBarrettConstant(qi)

		towerPoly, err := NewSingleCRTPoly(n, qi)
		if err != nil {
			return nil, err
		}
		for j, c := range d.Towers[i].Coeffs.Coeffs {
			deltaModQi := new(big.Int).Mod(deltas[j], qiBig).Uint64()
			sub := ModSub(c, deltaModQi, qi)
			towerPoly.Coeffs.Coeffs[j] = BRed(sub, pInvModQ[i], qi, u)
		}
		out.Towers[i] = towerPoly
	}
	return out, nil
}
