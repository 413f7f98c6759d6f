package ring

import (
	"fmt"
	"math/big"
)

// DoubleCRTPoly is a polynomial over R_Q represented as a tower of
// SingleCRTPoly, one per modulus of a shared, immutable Parameters
// reference. Every tower shares one Format tag and ring degree N.
//
// Grounded on ring/rns_poly.go's RNSPoly ([]Poly sharing one backing
// parameter set) and ring/structs.go's Point/Vector aggregation pattern,
// re-centered on spec.md §3's explicit DoubleCRTPoly invariants.
type DoubleCRTPoly struct {
	Params *Parameters
	Format Format
	Towers []*SingleCRTPoly
}

// FromZero builds the zero polynomial over the full modulus chain of
// params, per spec.md §6's from_zero factory operation.
func FromZero(params *Parameters, format Format) (*DoubleCRTPoly, error) {
	towers := make([]*SingleCRTPoly, len(params.Moduli))
	for i, qi := range params.Moduli {
		p, err := NewSingleCRTPoly(params.N, qi)
		if err != nil {
			return nil, err
		}
		p.Format = format
		towers[i] = p
	}
	return &DoubleCRTPoly{Params: params, Format: format, Towers: towers}, nil
}

// FromTowers builds a DoubleCRTPoly directly from a caller-supplied tower
// list; every tower must have equal N, per spec.md §6's from_towers.
func FromTowers(params *Parameters, format Format, towers []*SingleCRTPoly) (*DoubleCRTPoly, error) {
	if len(towers) == 0 {
		return nil, fmt.Errorf("%w: no towers supplied", ErrShapeMismatch)
	}
	n := towers[0].N()
	for _, t := range towers {
		if t.N() != n {
			return nil, fmt.Errorf("%w: tower ring degree mismatch", ErrShapeMismatch)
		}
	}
	return &DoubleCRTPoly{Params: params, Format: format, Towers: towers}, nil
}

// Level returns the index of the last live tower.
func (d *DoubleCRTPoly) Level() int { return len(d.Towers) - 1 }

// N returns the shared ring degree.
func (d *DoubleCRTPoly) N() int { return d.Towers[0].N() }

// Clone deep-copies the polynomial, including its towers (not its
// Parameters reference, which is shared, not owned).
func (d *DoubleCRTPoly) Clone() *DoubleCRTPoly {
	towers := make([]*SingleCRTPoly, len(d.Towers))
	for i, t := range d.Towers {
		towers[i] = t.Clone()
	}
	return &DoubleCRTPoly{Params: d.Params, Format: d.Format, Towers: towers}
}

func (d *DoubleCRTPoly) checkCompat(o *DoubleCRTPoly) error {
	if d.Params != o.Params {
		return ErrModulusMismatch
	}
	if d.Format != o.Format {
		return fmt.Errorf("%w: %s != %s", ErrWrongFormat, d.Format, o.Format)
	}
	if len(d.Towers) != len(o.Towers) {
		return fmt.Errorf("%w: tower count %d != %d", ErrShapeMismatch, len(d.Towers), len(o.Towers))
	}
	return nil
}

// runTowerwise dispatches f(i) across every live tower, optionally
// fanning out to a thread pool via policy. Per spec.md §4.6.10: tower-wise
// operations are embarrassingly parallel and the implementation exposes
// the thread count through an injected ThreadLimitPolicy.
func runTowerwise(policy ThreadLimitPolicy, numTowers int, f func(i int) error) error {
	limit := 1
	if policy != nil {
		limit = policy.ThreadLimit(numTowers)
	}
	if limit <= 1 {
		for i := 0; i < numTowers; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}
	return RunParallel(numTowers, limit, f)
}

// Add computes d = a+b tower-wise. Requires identical Parameters
// reference, Format, and tower count; fails with ErrModulusMismatch /
// ErrShapeMismatch otherwise, per spec.md §4.6.1.
func (d *DoubleCRTPoly) Add(a, b *DoubleCRTPoly, policy ThreadLimitPolicy) error {
	if err := a.checkCompat(b); err != nil {
		return err
	}
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].Coeffs.Add(a.Towers[i].Coeffs, b.Towers[i].Coeffs)
	})
}

// Sub computes d = a-b tower-wise.
func (d *DoubleCRTPoly) Sub(a, b *DoubleCRTPoly, policy ThreadLimitPolicy) error {
	if err := a.checkCompat(b); err != nil {
		return err
	}
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].Coeffs.Sub(a.Towers[i].Coeffs, b.Towers[i].Coeffs)
	})
}

// Neg computes d = -a tower-wise.
func (d *DoubleCRTPoly) Neg(a *DoubleCRTPoly, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].Coeffs.Neg(a.Towers[i].Coeffs)
	})
}

// AddScalar computes d = a + scalar tower-wise, broadcasting the single
// NativeInteger scalar as-is into every tower (each tower reduces it
// modulo its own q_i internally via NativeVector.AddScalar), per spec.md
// §6's NativeInteger scalar-broadcast operation.
//
// Grounded on ring/rns_ring_ops.go's RNSRing.AddScalar.
func (d *DoubleCRTPoly) AddScalar(a *DoubleCRTPoly, scalar uint64, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].Coeffs.AddScalar(a.Towers[i].Coeffs, scalar)
	})
}

// SubScalar computes d = a - scalar tower-wise, per spec.md §6.
//
// Grounded on ring/rns_ring_ops.go's RNSRing.SubScalar.
func (d *DoubleCRTPoly) SubScalar(a *DoubleCRTPoly, scalar uint64, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		qi := d.Towers[i].Modulus()
		return d.Towers[i].Coeffs.AddScalar(a.Towers[i].Coeffs, (qi-scalar%qi)%qi)
	})
}

// MulScalar computes d = a * scalar tower-wise, per spec.md §6.
//
// Grounded on ring/rns_ring_ops.go's RNSRing.MulScalar.
func (d *DoubleCRTPoly) MulScalar(a *DoubleCRTPoly, scalar uint64, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].Coeffs.MulScalar(a.Towers[i].Coeffs, scalar)
	})
}

// AddScalarBigint is AddScalar's BigInteger-broadcast sibling of spec.md
// §6: the scalar is reduced modulo each tower's q_i before being applied,
// so a caller can broadcast one arbitrarily large integer across the
// whole modulus chain without precomputing its residues by hand.
//
// Grounded on ring/rns_ring_ops.go's RNSRing.AddScalarBigint.
func (d *DoubleCRTPoly) AddScalarBigint(a *DoubleCRTPoly, scalar *big.Int, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	tmp := new(big.Int)
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		qi := d.Towers[i].Modulus()
		residue := tmp.Mod(scalar, new(big.Int).SetUint64(qi)).Uint64()
		return d.Towers[i].Coeffs.AddScalar(a.Towers[i].Coeffs, residue)
	})
}

// SubScalarBigint is SubScalar's BigInteger-broadcast sibling, per
// spec.md §6.
//
// Grounded on ring/rns_ring_ops.go's RNSRing.SubScalarBigint.
func (d *DoubleCRTPoly) SubScalarBigint(a *DoubleCRTPoly, scalar *big.Int, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	tmp := new(big.Int)
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		qi := d.Towers[i].Modulus()
		residue := tmp.Mod(scalar, new(big.Int).SetUint64(qi)).Uint64()
		return d.Towers[i].Coeffs.AddScalar(a.Towers[i].Coeffs, (qi-residue)%qi)
	})
}

// MulScalarBigint is MulScalar's BigInteger-broadcast sibling, per
// spec.md §6.
//
// Grounded on ring/rns_ring_ops.go's RNSRing.MulScalarBigint.
func (d *DoubleCRTPoly) MulScalarBigint(a *DoubleCRTPoly, scalar *big.Int, policy ThreadLimitPolicy) error {
	if err := d.checkCompat(a); err != nil {
		return err
	}
	tmp := new(big.Int)
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		qi := d.Towers[i].Modulus()
		residue := tmp.Mod(scalar, new(big.Int).SetUint64(qi)).Uint64()
		return d.Towers[i].Coeffs.MulScalar(a.Towers[i].Coeffs, residue)
	})
}

// Mul computes d = a*b tower-wise. Requires Evaluation format (pointwise
// product in the NTT domain implements the negacyclic convolution), per
// spec.md §4.6.1.
func (d *DoubleCRTPoly) Mul(a, b *DoubleCRTPoly, policy ThreadLimitPolicy) error {
	if a.Format != Evaluation {
		return fmt.Errorf("%w: Mul requires Evaluation format", ErrWrongFormat)
	}
	if err := a.checkCompat(b); err != nil {
		return err
	}
	if err := d.checkCompat(a); err != nil {
		return err
	}
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].Coeffs.Mul(a.Towers[i].Coeffs, b.Towers[i].Coeffs)
	})
}

// SwitchFormat toggles every tower's representation, embarrassingly
// parallel across towers per spec.md §4.6.2.
func (d *DoubleCRTPoly) SwitchFormat(policy ThreadLimitPolicy) error {
	err := runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].SwitchFormat()
	})
	if err != nil {
		return err
	}
	if d.Format == Coefficient {
		d.Format = Evaluation
	} else {
		d.Format = Coefficient
	}
	return nil
}

// AutomorphismTransform applies X -> X^k to every tower.
func (d *DoubleCRTPoly) AutomorphismTransform(k int, policy ThreadLimitPolicy) error {
	return runTowerwise(policy, len(d.Towers), func(i int) error {
		return d.Towers[i].AutomorphismTransform(k)
	})
}

// Transpose is AutomorphismTransform(2N-1) in Evaluation format, per
// spec.md §6.
func (d *DoubleCRTPoly) Transpose(policy ThreadLimitPolicy) error {
	return d.AutomorphismTransform(2*d.N()-1, policy)
}

// Equal reports whether two polynomials hold identical towers (same
// Parameters reference, Format, and coefficients).
func (d *DoubleCRTPoly) Equal(o *DoubleCRTPoly) bool {
	if d.checkCompat(o) != nil {
		return false
	}
	for i := range d.Towers {
		if d.Towers[i].Format != o.Towers[i].Format || !d.Towers[i].Coeffs.Equal(o.Towers[i].Coeffs) {
			return false
		}
	}
	return true
}

// CRTInterpolate reconstructs the big-modulus polynomial r in [0, Q)
// from a Coefficient-format DoubleCRTPoly, per spec.md §4.6.3:
//
//	r_j = ( Σ_i (x_i[j] · q̂_i^-1 mod q_i) · (Q/q_i) ) mod Q
//
// If d is in Evaluation format, a Coefficient-format clone is produced
// first (CRT interpolation requires Coefficient).
//
// Grounded on ring/utils.go's PolyToBigintCentered, simplified to the
// unsigned-representative form spec.md §4.6.3 asks for (centering is the
// caller's responsibility at the scheme layer, out of this core's scope).
func (d *DoubleCRTPoly) CRTInterpolate() ([]*big.Int, error) {
	src := d
	if d.Format == Evaluation {
		src = d.Clone()
		if err := src.SwitchFormat(nil); err != nil {
			return nil, err
		}
	}

	n := src.N()
	out := make([]*big.Int, n)
	Q := src.Params.Q

	for j := 0; j < n; j++ {
		sum := new(big.Int)
		for i, qi := range src.Params.Moduli {
			xij := src.Towers[i].Coeffs.Coeffs[j]
			term := MRedFree(xij, src.Params.QHatInv[i], qi)
			qHat := new(big.Int).Quo(Q, new(big.Int).SetUint64(qi))
			t := new(big.Int).Mul(new(big.Int).SetUint64(term), qHat)
			sum.Add(sum, t)
		}
		sum.Mod(sum, Q)
		out[j] = sum
	}
	return out, nil
}

// MRedFree computes a*b mod q without requiring a precomputed Barrett
// constant from the caller, used by CRTInterpolate's per-slot recombination
// where q varies per tower and a fresh constant would be wasteful to thread
// through every call site.
func MRedFree(a, b, q uint64) uint64 {
	return BRed(a, b, q, ComputeBarrettConstant(q))
}

// FromCRTInterpolation builds a DoubleCRTPoly by reducing a big-modulus
// polynomial modulo each q_i, the inverse of CRTInterpolate, per spec.md
// §6's from_crt_interpolation.
func FromCRTInterpolation(params *Parameters, coeffs []*big.Int) (*DoubleCRTPoly, error) {
	if len(coeffs) != params.N {
		return nil, fmt.Errorf("%w: expected %d coefficients, got %d", ErrShapeMismatch, params.N, len(coeffs))
	}
	d, err := FromZero(params, Coefficient)
	if err != nil {
		return nil, err
	}
	for i, qi := range params.Moduli {
		qBig := new(big.Int).SetUint64(qi)
		for j, c := range coeffs {
			d.Towers[i].Coeffs.Coeffs[j] = new(big.Int).Mod(c, qBig).Uint64()
		}
	}
	return d, nil
}

// ApproxSwitchCRTBasis computes, for every slot j and every p_k in aux, per
// spec.md §4.6.4:
//
//	y_k[j] = ( Σ_i (x_i[j] · q̂_i^-1 mod q_i) · (q̂_i mod p_k) ) mod p_k
//
// using 128-bit accumulators (via big.Int here, the reference path of
// spec.md §9's platform-availability note -- the fallback and reference
// paths are definitionally identical in this rewrite since Go always
// provides exact big.Int arithmetic). Requires Coefficient format; output
// is produced in Coefficient format (caller SwitchFormats if needed).
//
// Grounded on ring/rns_basis_extension.go's ApproxSwitchCRTBasis /
// reconstructRNS accumulation loop.
func (d *DoubleCRTPoly) ApproxSwitchCRTBasis(aux *AuxiliaryBasis) (*DoubleCRTPoly, error) {
	if d.Format != Coefficient {
		return nil, fmt.Errorf("%w: ApproxSwitchCRTBasis requires Coefficient format", ErrWrongFormat)
	}
	towers, err := basisConvert(d.Towers, d.Params.Moduli, d.Params.QHatInv, aux.P, aux.QModP)
	if err != nil {
		return nil, err
	}
	return &DoubleCRTPoly{Params: d.Params, Format: Coefficient, Towers: towers}, nil
}

// basisConvert is the shared accumulation kernel behind ApproxSwitchCRTBasis
// in both directions (Q->P and, inside ApproxModDown, P->Q): for every
// target modulus dst[k] it computes
//
//	y_k[j] = ( Σ_i (x_i[j] · srcQHatInv[i] mod src[i]) · crossTable[i][k] ) mod dst[k]
func basisConvert(srcTowers []*SingleCRTPoly, src []uint64, srcQHatInv []uint64, dst []uint64, crossTable [][]uint64) ([]*SingleCRTPoly, error) {
	n := srcTowers[0].N()
	out := make([]*SingleCRTPoly, len(dst))
	for k, pk := range dst {
		tp, err := NewSingleCRTPoly(n, pk)
		if err != nil {
			return nil, err
		}
		u := ComputeBarrettConstant(pk)
		for j := 0; j < n; j++ {
			var acc big.Int
			for i, qi := range src {
				xij := srcTowers[i].Coeffs.Coeffs[j]
				term := MRedFree(xij, srcQHatInv[i], qi)
				acc.Add(&acc, new(big.Int).Mul(new(big.Int).SetUint64(term), new(big.Int).SetUint64(crossTable[i][k])))
			}
			acc.Mod(&acc, new(big.Int).SetUint64(pk))
			tp.Coeffs.Coeffs[j] = BRedAdd(acc.Uint64(), pk, u)
		}
		out[k] = tp
	}
	return out, nil
}

// SwitchCRTBasis is the exact base switch of spec.md §4.6.5: it adds the α
// correction term so the representative stays in [0, Q) under the target
// basis rather than [0, Q·L).
func (d *DoubleCRTPoly) SwitchCRTBasis(aux *AuxiliaryBasis) (*DoubleCRTPoly, error) {
	if d.Format != Coefficient {
		return nil, fmt.Errorf("%w: SwitchCRTBasis requires Coefficient format", ErrWrongFormat)
	}
	approx, err := d.ApproxSwitchCRTBasis(aux)
	if err != nil {
		return nil, err
	}

	n := d.N()
	for j := 0; j < n; j++ {
		nu := 0.5
		for i, qi := range d.Params.Moduli {
			xij := d.Towers[i].Coeffs.Coeffs[j]
			term := MRedFree(xij, d.Params.QHatInv[i], qi)
			nu += float64(term) * d.Params.QiInvDbl[i]
		}
		alpha := uint64(nu)
		if alpha == 0 {
			continue
		}
		for k, pk := range aux.P {
			qModPk := new(big.Int).Mod(d.Params.Q, new(big.Int).SetUint64(pk)).Uint64()
			correction := BRed(alpha%pk, qModPk, pk, ComputeBarrettConstant(pk))
			approx.Towers[k].Coeffs.Coeffs[j] = ModSub(approx.Towers[k].Coeffs.Coeffs[j], correction, pk)
		}
	}
	return approx, nil
}

// ApproxModUp extends d from basis Q to basis Q∪P: the extension modulo P
// is computed via ApproxSwitchCRTBasis and appended to the existing Q
// towers. If the input arrived in Evaluation, the original Q towers are
// left untouched and only the new P towers are switched to Evaluation, per
// spec.md §4.6.6; a Coefficient input has its Q towers switched to
// Evaluation as well. Output is Evaluation over Q∪P.
func (d *DoubleCRTPoly) ApproxModUp(extParams *Parameters, aux *AuxiliaryBasis) (*DoubleCRTPoly, error) {
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

	pExt, err := coeffSrc.ApproxSwitchCRTBasis(aux)
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

// ApproxModDown is the inverse of ApproxModUp, per spec.md §4.6.6: the P
// towers are pulled out, converted to Coefficient, multiplied by t^-1 mod
// p_k per tower (t>0), base-converted back to Q, switched to Evaluation,
// subtracted from the Q towers, then the result is multiplied elementwise
// by P^-1 mod q_i per tower. Output is Evaluation over Q.
func (d *DoubleCRTPoly) ApproxModDown(qParams *Parameters, aux *AuxiliaryBasis, t uint64, pInvModQ []uint64) (*DoubleCRTPoly, error) {
	if d.Format != Evaluation {
		return nil, fmt.Errorf("%w: ApproxModDown requires Evaluation format", ErrWrongFormat)
	}
	numQ := len(qParams.Moduli)
	if len(d.Towers) != numQ+len(aux.P) {
		return nil, fmt.Errorf("%w: input does not carry the expected P towers", ErrShapeMismatch)
	}

	pTowers := make([]*SingleCRTPoly, len(aux.P))
	for k, t0 := range d.Towers[numQ:] {
		cpy := t0.Clone()
		if err := cpy.SwitchFormat(); err != nil {
			return nil, err
		}
		if t > 0 {
			pk := aux.P[k]
			tInv, err := ModInverse(t%pk, pk)
			if err != nil {
				return nil, err
			}
			if err := cpy.Coeffs.MulScalar(cpy.Coeffs, tInv); err != nil {
				return nil, err
			}
		}
		pTowers[k] = cpy
	}
	// Base-convert the P towers back to Q: this needs P's own q-hat-inverse
	// table (P playing the role of the source basis), built the same way
	// NewParameters builds it for Q, plus the (P/p_i mod q_k) cross table.
	P := productOf(aux.P)
	pHatInv := make([]uint64, len(aux.P))
	crossToQ := make([][]uint64, len(aux.P))
	for i, pi := range aux.P {
		pHat := new(big.Int).Quo(P, new(big.Int).SetUint64(pi))
		pHatModPi := new(big.Int).Mod(pHat, new(big.Int).SetUint64(pi)).Uint64()
		inv, err := ModInverse(pHatModPi, pi)
		if err != nil {
			return nil, err
		}
		pHatInv[i] = inv

		row := make([]uint64, numQ)
		for k, qk := range qParams.Moduli {
			row[k] = new(big.Int).Mod(pHat, new(big.Int).SetUint64(qk)).Uint64()
		}
		crossToQ[i] = row
	}

	backTowers, err := basisConvert(pTowers, aux.P, pHatInv, qParams.Moduli, crossToQ)
	if err != nil {
		return nil, err
	}
	for _, tw := range backTowers {
		if err := tw.SwitchFormat(); err != nil {
			return nil, err
		}
	}
	back := &DoubleCRTPoly{Towers: backTowers}

	out := &DoubleCRTPoly{Params: qParams, Format: Evaluation, Towers: make([]*SingleCRTPoly, numQ)}
	for i := 0; i < numQ; i++ {
		qi := qParams.Moduli[i]
		sub, err := NewSingleCRTPoly(qParams.N, qi)
		if err != nil {
			return nil, err
		}
		if err := sub.Coeffs.Sub(d.Towers[i].Coeffs, back.Towers[i].Coeffs); err != nil {
			return nil, err
		}
		sub.Format = Evaluation
		if err := sub.Coeffs.MulScalar(sub.Coeffs, pInvModQ[i]); err != nil {
			return nil, err
		}
		out.Towers[i] = sub
	}
	return out, nil
}

func productOf(moduli []uint64) *big.Int {
	p := big.NewInt(1)
	for _, m := range moduli {
		p.Mul(p, new(big.Int).SetUint64(m))
	}
	return p
}

// DropLastElement truncates the tail tower, rebinding the parameter set
// reference to the shorter prefix. Fails with ErrEmptyTower if only one
// tower remains, per spec.md §4.6.9.
//
// Grounded on ring/rns_ring.go's AtLevel/DropLastElement pattern (a view
// over a shorter prefix of the moduli chain).
func (d *DoubleCRTPoly) DropLastElement(truncatedParams *Parameters) (*DoubleCRTPoly, error) {
	if len(d.Towers) <= 1 {
		return nil, ErrEmptyTower
	}
	towers := make([]*SingleCRTPoly, len(d.Towers)-1)
	copy(towers, d.Towers[:len(d.Towers)-1])
	return &DoubleCRTPoly{Params: truncatedParams, Format: d.Format, Towers: towers}, nil
}

// DropLastElementAndScale implements the CKKS/RNS rescale step of
// spec.md §4.6.9: the tail tower is converted to Coefficient, multiplied
// by qlInvModQ[i] into each remaining tower (after per-tower modulus
// switching), added back, then dropped.
//
// Grounded on ring/rns_scaling.go's DivRoundByLastModulus family (the
// "center, switch, subtract/add, scale" skeleton), specialized to the
// add-back variant spec.md names.
func (d *DoubleCRTPoly) DropLastElementAndScale(truncatedParams *Parameters, qlInvModQ []uint64) (*DoubleCRTPoly, error) {
	if len(d.Towers) <= 1 {
		return nil, ErrEmptyTower
	}
	if d.Format != Evaluation {
		return nil, fmt.Errorf("%w: DropLastElementAndScale requires Evaluation format", ErrWrongFormat)
	}

	level := len(d.Towers) - 1
	tail := d.Towers[level].Clone()
	if err := tail.SwitchFormat(); err != nil {
		return nil, err
	}

	out := &DoubleCRTPoly{Params: truncatedParams, Format: Evaluation, Towers: make([]*SingleCRTPoly, level)}
	for i := 0; i < level; i++ {
		qi := d.Params.Moduli[i]
		tailCopy := tail.Clone()
		if err := tailCopy.SwitchModulus(qi); err != nil {
			return nil, err
		}
		if err := tailCopy.SwitchFormat(); err != nil {
			return nil, err
		}
		summed, err := NewSingleCRTPoly(d.N(), qi)
		if err != nil {
			return nil, err
		}
		if err := summed.Coeffs.Add(d.Towers[i].Coeffs, tailCopy.Coeffs); err != nil {
			return nil, err
		}
		summed.Format = Evaluation
		if err := summed.Coeffs.MulScalar(summed.Coeffs, qlInvModQ[i]); err != nil {
			return nil, err
		}
		out.Towers[i] = summed
	}
	return out, nil
}
