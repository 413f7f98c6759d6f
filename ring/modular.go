package ring

import (
	"math/big"
	"math/bits"
)

// NativeInteger is a single machine-word unsigned integer taken modulo a
// word-sized modulus q (q ≤ 61 bits, so that 128-bit intermediate products
// of two reduced operands never overflow two uint64 limbs).
type NativeInteger = uint64

// BarrettConstant is the precomputed Barrett reduction constant for a
// given modulus, split into the high and low 64-bit limbs of
// floor(2^128 / q), the 128-bit-exact analogue of tuneinsight-lattigo's
// BRedParams/u table.
type BarrettConstant [2]uint64

// ComputeBarrettConstant returns ((2^128)/q)/(2^64) and (2^128)/q mod 2^64,
// the two-limb constant consumed by BRed/BRedAdd.
//
// Grounded on tuneinsight-lattigo/ring/modular_reduction.go's BRedParams.
func ComputeBarrettConstant(q uint64) BarrettConstant {
	bigR := new(big.Int).Lsh(big.NewInt(1), 128)
	bigR.Quo(bigR, new(big.Int).SetUint64(q))

	hi := new(big.Int).Rsh(bigR, 64).Uint64()
	lo := bigR.Uint64()

	return BarrettConstant{hi, lo}
}

// ModAdd returns (a+b) mod q for arbitrary a, b (not required to be < q,
// but required to fit in 63 bits so that a+b does not overflow).
func ModAdd(a, b, q uint64) uint64 {
	return ModAddFast(a%q, b%q, q)
}

// ModAddFast returns (a+b) mod q, under the precondition a, b < q.
func ModAddFast(a, b, q uint64) uint64 {
	c := a + b
	if c >= q {
		c -= q
	}
	return c
}

// ModSub returns (a-b) mod q.
func ModSub(a, b, q uint64) uint64 {
	if a >= b {
		return a - b
	}
	return q - b + a
}

// ModMul returns a*b mod q using full Barrett reduction (BRed).
func ModMul(a, b, q uint64, u BarrettConstant) uint64 {
	return BRed(a, b, q, u)
}

// ShoupConstant is the Shoup (a.k.a. "fast constant") preconditioning of a
// fixed right-hand operand b for repeated multiplication modulo q:
// BPrecond = floor(b * 2^64 / q). It lets mod_mul_fast_const compute
// q_est = (a*BPrecond) >> 64 without a division at use time.
//
// Grounded on the precomputed-multiplier idiom seen elsewhere in this
// package (ComputeBarrettConstant / ComputeMRedConstants precompute a fixed
// constant once and fold it into every later multiply); the exact Shoup formula itself
// is taken directly from spec.md §4.1 —
// see DESIGN.md.
type ShoupConstant uint64

// PrecomputeShoup returns the Shoup preconditioning of b modulo q.
func PrecomputeShoup(b, q uint64) ShoupConstant {
	// floor(b * 2^64 / q) computed via 128-bit division through big.Int to
	// stay exact for the full 61-bit modulus range.
	num := new(big.Int).Lsh(new(big.Int).SetUint64(b), 64)
	return ShoupConstant(new(big.Int).Quo(num, new(big.Int).SetUint64(q)).Uint64())
}

// ModMulShoup computes a*b mod q given the Shoup preconditioning of b,
// i.e. mod_mul_fast_const from spec.md §4.1.
func ModMulShoup(a, b uint64, q uint64, bPrecond ShoupConstant) uint64 {
	qEst, _ := bits.Mul64(a, uint64(bPrecond))
	r := a*b - qEst*q
	if r >= q {
		r -= q
	}
	return r
}

// ModExp returns x^e mod q via square-and-multiply, using Barrett
// reduction at every step.
//
// Grounded on ring/utils.go's ModExp, which dispatches between a
// power-of-two and a generic-modulus path; this rewrite always takes the
// generic Barrett path since q is a prime in every RNS tower.
func ModExp(x, e, q uint64) uint64 {
	u := ComputeBarrettConstant(q)
	result := uint64(1) % q
	base := x % q
	for e > 0 {
		if e&1 == 1 {
			result = BRed(result, base, q, u)
		}
		base = BRed(base, base, q, u)
		e >>= 1
	}
	return result
}

// ModInverse returns x^-1 mod q via the extended Euclidean algorithm.
// Fails with ErrNoInverse when gcd(x, q) != 1.
func ModInverse(x, q uint64) (uint64, error) {
	if x == 0 {
		return 0, ErrNoInverse
	}
	g, inv, _ := extendedGCD(int64(x%q), int64(q))
	if g != 1 {
		return 0, ErrNoInverse
	}
	inv %= int64(q)
	if inv < 0 {
		inv += int64(q)
	}
	return uint64(inv), nil
}

func extendedGCD(a, b int64) (g, x, y int64) {
	if b == 0 {
		return a, 1, 0
	}
	g, x1, y1 := extendedGCD(b, a%b)
	return g, y1, x1 - (a/b)*y1
}

// --- Montgomery-domain primitives, used internally by the RNS basis
// extension and scaling routines (sections 4.6.4-4.6.9), which need a
// fixed-point "multiply by a precomputed constant" shape for the
// per-tower accumulation loops. ---

// MRedConstants holds the pair (q, qInv) where qInv = q^-1 mod 2^64,
// required by MRed/IMForm.
type MRedConstants struct {
	Q    uint64
	QInv uint64
}

// ComputeMRedConstants returns the Montgomery constant qInv = q^-1 mod 2^64
// for modulus q (MRed subtracts the resulting multiple of q).
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's
// MRedParams.
func ComputeMRedConstants(q uint64) MRedConstants {
	var x, qInv uint64
	qInv = 1
	x = q
	for i := 0; i < 63; i++ {
		qInv *= x
		x *= x
	}
	return MRedConstants{Q: q, QInv: qInv}
}

// MForm switches a to the Montgomery domain: a*2^64 mod q.
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's MForm.
func MForm(a, q uint64, u BarrettConstant) uint64 {
	mhi, _ := bits.Mul64(a, u[1])
	r := -(a*u[0] + mhi) * q
	if r >= q {
		r -= q
	}
	return r
}

// IMForm switches a out of the Montgomery domain: a*2^-64 mod q.
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's InvMForm.
func IMForm(a, q, qInv uint64) uint64 {
	r, _ := bits.Mul64(a*qInv, q)
	r = q - r
	if r >= q {
		r -= q
	}
	return r
}

// MRed computes x*y*2^-64 mod q.
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's MRed.
func MRed(x, y, q, qInv uint64) uint64 {
	ahi, alo := bits.Mul64(x, y)
	R := alo * qInv
	H, _ := bits.Mul64(R, q)
	r := ahi - H + q
	if r >= q {
		r -= q
	}
	return r
}

// MRedConstant computes x*y*2^-64 mod q in the lazy range [0, 2q).
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's MRedConstant.
func MRedConstant(x, y, q, qInv uint64) uint64 {
	ahi, alo := bits.Mul64(x, y)
	R := alo * qInv
	H, _ := bits.Mul64(R, q)
	return ahi - H + q
}

// BRedAdd reduces x modulo q using the precomputed Barrett constant.
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's BRedAdd.
func BRedAdd(x, q uint64, u BarrettConstant) uint64 {
	s0, _ := bits.Mul64(x, u[0])
	r := x - s0*q
	if r >= q {
		r -= q
	}
	return r
}

// BRed computes x*y mod q via full 128-bit Barrett reduction.
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's BRed.
func BRed(x, y, q uint64, u BarrettConstant) uint64 {
	var lhi, mhi, mlo, s0, s1, carry uint64

	ahi, alo := bits.Mul64(x, y)

	lhi, _ = bits.Mul64(alo, u[1])

	mhi, mlo = bits.Mul64(alo, u[0])
	s0, carry = bits.Add64(mlo, lhi, 0)
	s1 = mhi + carry

	mhi, mlo = bits.Mul64(ahi, u[1])
	_, carry = bits.Add64(mlo, s0, 0)
	lhi = mhi + carry

	s0 = ahi*u[0] + s1 + lhi

	r := alo - s0*q
	if r >= q {
		r -= q
	}
	return r
}

// CRed conditionally subtracts q once: returns a mod q given a in [0, 2q).
//
// Grounded verbatim on tuneinsight-lattigo/ring/modular_reduction.go's CRed.
func CRed(a, q uint64) uint64 {
	if a >= q {
		return a - q
	}
	return a
}

