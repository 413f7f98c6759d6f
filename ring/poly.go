package ring

import (
	"fmt"
	"math/bits"
)

// Format tags a polynomial's representation: the standard monomial basis
// (Coefficient) or the bit-reversed negacyclic NTT evaluations
// (Evaluation). The NTT engine is the only allowed transition between the
// two formats, per spec.md §3.
type Format uint8

const (
	Coefficient Format = iota
	Evaluation
)

func (f Format) String() string {
	if f == Coefficient {
		return "Coefficient"
	}
	return "Evaluation"
}

// SingleCRTPoly is a polynomial in R_{q_i} = Z_{q_i}[X]/(X^N+1), a single
// tower of a DoubleCRTPoly: a NativeVector paired with a format tag and a
// reference to the NTT table for (q_i, N).
//
// Grounded on ring/structs.go's per-tower Poly wrapper and on
// ring/rns_ring_ops.go's tower-wise dispatch (NTT/INTT/AutomorphismNTT),
// generalized to spec.md §4.4's explicit format-tagged contract.
type SingleCRTPoly struct {
	Format Format
	Coeffs *NativeVector
	table  *NTTTable
}

// NewSingleCRTPoly allocates a zero SingleCRTPoly of degree N modulo q in
// Coefficient format, building (or reusing the cached) NTT table for (q, N).
func NewSingleCRTPoly(n int, q uint64) (*SingleCRTPoly, error) {
	t, err := GetNTTTable(q, n)
	if err != nil {
		return nil, err
	}
	return &SingleCRTPoly{
		Format: Coefficient,
		Coeffs: NewNativeVector(n, q),
		table:  t,
	}, nil
}

// N returns the ring degree.
func (p *SingleCRTPoly) N() int { return p.Coeffs.Len() }

// Modulus returns q_i.
func (p *SingleCRTPoly) Modulus() uint64 { return p.Coeffs.Modulus }

// Clone returns a deep copy.
func (p *SingleCRTPoly) Clone() *SingleCRTPoly {
	return &SingleCRTPoly{Format: p.Format, Coeffs: p.Coeffs.Clone(), table: p.table}
}

// SwitchFormat toggles the representation via the forward/inverse NTT:
// Coefficient -> Evaluation calls Forward; Evaluation -> Coefficient calls
// Backward. It mutates p in place, per spec.md §4.4.
func (p *SingleCRTPoly) SwitchFormat() error {
	switch p.Format {
	case Coefficient:
		if err := p.table.Forward(p.Coeffs.Coeffs); err != nil {
			return err
		}
		p.Format = Evaluation
	case Evaluation:
		if err := p.table.Backward(p.Coeffs.Coeffs); err != nil {
			return err
		}
		p.Format = Coefficient
	}
	return nil
}

// SwitchModulus maps every coefficient of the Coefficient-form polynomial
// to the signed-balanced representative of [-q/2, q/2) and reduces it
// modulo q'; NTT tables for q' are built (or fetched from cache) if
// absent. Fails with ErrWrongFormat if p is in Evaluation form.
//
// Grounded on spec.md §4.4's SwitchModulus contract; the balanced-residue
// recentring mirrors ring/utils.go's PolyToBigintCentered idiom of
// centering around q/2 before any cross-modulus operation.
func (p *SingleCRTPoly) SwitchModulus(qNew uint64) error {
	if p.Format != Coefficient {
		return fmt.Errorf("%w: SwitchModulus requires Coefficient format, got %s", ErrWrongFormat, p.Format)
	}
	n := p.N()
	qOld := p.Modulus()
	half := qOld >> 1

	tNew, err := GetNTTTable(qNew, n)
	if err != nil {
		return err
	}

	out := NewNativeVector(n, qNew)
	for i, c := range p.Coeffs.Coeffs {
		if c > half {
			// signed-balanced representative: c - qOld, then reduced mod qNew.
			diff := qOld - c
			out.Coeffs[i] = ModSub(0, diff%qNew, qNew)
		} else {
			out.Coeffs[i] = c % qNew
		}
	}
	p.Coeffs = out
	p.table = tNew
	return nil
}

// AutomorphismTransform applies the substitution X -> X^k to an
// Evaluation-format polynomial (k odd, N a power of two). Evaluation-slot
// j holds P(Psi^(2*bitrev(j)+1)) (see ring/ntt.go's RootsForward layout),
// and P(X^k) at a point equals P at k times that point, so the
// substitution is the point relabeling
//
//	out[j] = in[ bitrev( ((k*(2*bitrev(j)+1) mod 2N) - 1) / 2 ) ]
//
// with no sign flip: distinct evaluation points never collide, unlike
// Coefficient-domain monomial indices where X^N = -1 forces one. Fails
// with ErrWrongFormat if p is in Coefficient form.
//
// Grounded on ring/rns_ring_ops.go's AutomorphismNTT tower dispatch: its
// Evaluation branch permutes bit-reversed NTT slots rather than reapplying
// the Coefficient-domain index-with-sign formula (that formula, ported
// verbatim here in an earlier revision, was being run against genuine
// NTT-evaluation data and scrambled it -- see DESIGN.md Open Question
// resolution).
func (p *SingleCRTPoly) AutomorphismTransform(k int) error {
	if p.Format != Evaluation {
		return fmt.Errorf("%w: AutomorphismTransform requires Evaluation format", ErrWrongFormat)
	}
	n := p.N()
	if n&(n-1) != 0 {
		return fmt.Errorf("ring: automorphism requires power-of-two N, got %d", n)
	}
	if k%2 == 0 {
		return fmt.Errorf("ring: automorphism exponent k=%d must be odd", k)
	}
	logN := bits.Len(uint(n)) - 1
	order := 2 * n
	kMod := ((k % order) + order) % order

	out := NewNativeVector(n, p.Modulus())
	for j := range out.Coeffs {
		ej := 2*bitReverse(j, logN) + 1
		v := (kMod * ej) % order
		iPrime := (v - 1) / 2
		jPrime := bitReverse(iPrime, logN)
		out.Coeffs[j] = p.Coeffs.Coeffs[jPrime]
	}
	p.Coeffs = out
	return nil
}

// BaseDecompose splits each coefficient into base-2^w digits, producing
// ceil(log2(q)/w) new SingleCRTPoly values whose coefficients are all
// < 2^w. Digit i of coefficient c is (c >> (i*w)) & (2^w - 1), computed on
// the Coefficient-form representative in [0, q).
//
// Grounded on spec.md §4.4's BaseDecompose and on the gadget-digit
// decomposition idiom in rlwe/digit_decomposition.go (the generic "split
// an integer into w-bit digits" loop).
func (p *SingleCRTPoly) BaseDecompose(w int) ([]*SingleCRTPoly, error) {
	if p.Format != Coefficient {
		return nil, fmt.Errorf("%w: BaseDecompose requires Coefficient format", ErrWrongFormat)
	}
	q := p.Modulus()
	n := p.N()
	numDigits := (bitsLen(q) + w - 1) / w
	mask := uint64(1)<<uint(w) - 1

	digits := make([]*SingleCRTPoly, numDigits)
	for d := 0; d < numDigits; d++ {
		dp, err := NewSingleCRTPoly(n, q)
		if err != nil {
			return nil, err
		}
		shift := uint(d * w)
		for i, c := range p.Coeffs.Coeffs {
			dp.Coeffs.Coeffs[i] = (c >> shift) & mask
		}
		digits[d] = dp
	}
	return digits, nil
}

func bitsLen(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	if n == 0 {
		return 1
	}
	return n
}
