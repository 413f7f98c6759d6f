package trapdoor

import (
	"fmt"

	"github.com/sinitcin/rnscore/field2n"
	"github.com/sinitcin/rnscore/gaussian"
)

// ZSampleSigma2x2 implements spec.md §4.10: given a 2x2 covariance block
// Σ = [[a, b], [b^T, d]] (a, b, d in Evaluation format) and a center
// column (c0, c1) (in Coefficient format), samples the length-2n integer
// vector q = [q1; q2] such that q ~ D_{Z^{2n}, Σ^{1/2}}(c0, c1).
//
// Grounded on the z_sample_sigma2x2 algorithm of spec.md §4.10's trapdoor
// sampler, with one deliberate deviation: all Field2n-to-Field2n format
// conversions here
// go through SwitchFormatExact rather than SwitchFormat, since centers
// and covariances are genuinely real-valued intermediate quantities —
// rounding them to integers at every conversion, the way SwitchFormat
// does for polynomial-ring coefficients, would corrupt the sampler.
func ZSampleSigma2x2(a, b, d, c0, c1 *field2n.Field2n, dgg *gaussian.Generator) (q1, q2 []int64, err error) {
	if a.Format != field2n.Evaluation || b.Format != field2n.Evaluation || d.Format != field2n.Evaluation {
		return nil, nil, fmt.Errorf("%w: ZSampleSigma2x2 requires a, b, d in Evaluation format", ErrWrongFormat)
	}

	dCoeff := d.SwitchFormatExact()
	q2, err = ZSampleF(dCoeff, c1, dgg)
	if err != nil {
		return nil, nil, err
	}

	q2Field := field2n.FromReal(int64sToFloat64s(q2))
	diff, err := field2n.Sub(q2Field, c1)
	if err != nil {
		return nil, nil, err
	}
	diffEval := diff.SwitchFormatExact()

	dInv, err := field2n.Inverse(d)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSingularField, err)
	}

	lift, err := field2n.Mul(b, dInv)
	if err != nil {
		return nil, nil, err
	}
	lift, err = field2n.Mul(lift, diffEval)
	if err != nil {
		return nil, nil, err
	}
	liftCoeff := lift.SwitchFormatExact()

	c1Lifted, err := field2n.Add(c0, liftCoeff)
	if err != nil {
		return nil, nil, err
	}

	bDInv, err := field2n.Mul(b, dInv)
	if err != nil {
		return nil, nil, err
	}
	bDInvBt, err := field2n.Mul(bDInv, b.Transpose())
	if err != nil {
		return nil, nil, err
	}
	f, err := field2n.Sub(a, bDInvBt)
	if err != nil {
		return nil, nil, err
	}

	q1, err = ZSampleF(f, c1Lifted, dgg)
	if err != nil {
		return nil, nil, err
	}
	return q1, q2, nil
}

// ZSampleF implements spec.md §4.10's recursive base-field sampler:
// n = 1 draws one integer directly; n > 1 splits f and c by parity and
// recurses through ZSampleSigma2x2 on the resulting 2x2 system, then
// restores standard index order.
//
// f is converted to Evaluation format internally before any splitting,
// regardless of the format it arrives in: spec.md's own step 1 explicitly
// hands this function the *coefficient* representation of d, so the
// function must tolerate either format at its boundary rather than
// relying on caller discipline.
func ZSampleF(f, c *field2n.Field2n, dgg *gaussian.Generator) ([]int64, error) {
	n := f.N()
	if n == 1 {
		mean := real(c.Coeffs[0])
		variance := real(f.Coeffs[0])
		sigma, err := field2n.Sqrt(variance)
		if err != nil {
			return nil, err
		}
		return []int64{dgg.SampleAt(mean, sigma)}, nil
	}

	fEval := f
	if f.Format != field2n.Evaluation {
		fEval = f.SwitchFormatExact()
	}
	f0 := fEval.ExtractEven()
	f1 := fEval.ExtractOdd()
	c0 := c.ExtractEven()
	c1 := c.ExtractOdd()

	q1, q2, err := ZSampleSigma2x2(f0, f1, f0, c0, c1, dgg)
	if err != nil {
		return nil, err
	}
	return inversePermute(append(q1, q2...)), nil
}

// inversePermute undoes the even/odd interleaving ZSampleF's split
// introduces, restoring standard coefficient order: entry i of the
// result comes from the even half if i is even, the odd half otherwise.
//
// Grounded on the inverse_permute algorithm of spec.md §4.10's trapdoor
// sampler.
func inversePermute(v []int64) []int64 {
	out := make([]int64, len(v))
	evenPtr, oddPtr := 0, len(v)/2
	for i := range out {
		if i%2 == 0 {
			out[i] = v[evenPtr]
			evenPtr++
		} else {
			out[i] = v[oddPtr]
			oddPtr++
		}
	}
	return out
}

func int64sToFloat64s(v []int64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// SampleMat implements spec.md §4.10's recursive 2xk block sampler over
// covariance blocks A (dimA x dimA), B (dimA x dimD), D (dimD x dimD),
// and center vector C (dimA+dimD blocks). Naming follows spec.md's
// explicit redesign note: an earlier revision conflated the dimension
// count with the matrix D itself, so this implementation keeps dimA,
// dimD as plain parameters distinct from the A, B, D matrices.
//
// Grounded on the sample_mat algorithm of spec.md §4.10's trapdoor
// sampler, with the dimD > 2 case rebuilt on the general matInverse/matMul
// block-matrix helpers instead of a single-entry CofactorMatrix reuse
// (see matInverse's doc comment).
func SampleMat(A, B, D FieldMat, C FieldVec, dgg *gaussian.Generator) ([]int64, error) {
	dimA, _ := matDims(A)
	dimD, _ := matDims(D)

	if dimA == 1 && dimD == 1 {
		q1, q2, err := ZSampleSigma2x2(A[0][0], B[0][0], D[0][0], C[0], C[1], dgg)
		if err != nil {
			return nil, err
		}
		return append(q1, q2...), nil
	}
	if len(C) != dimA+dimD {
		return nil, fmt.Errorf("%w: SampleMat center vector has %d blocks, want %d", ErrShapeMismatch, len(C), dimA+dimD)
	}

	n := fieldN(A, B)
	C0 := C[:dimA]
	C1 := C[dimA:]

	var q1 []int64
	var err error
	if dimD == 1 {
		q1, err = ZSampleF(D[0][0], C1[0], dgg)
	} else {
		newDimA := (dimD + 1) / 2
		newDimD := dimD / 2
		Ap := subMat(D, 0, newDimA, 0, newDimA)
		Bp := subMat(D, 0, newDimA, newDimA, dimD)
		Dp := subMat(D, newDimA, dimD, newDimA, dimD)
		q1, err = SampleMat(Ap, Bp, Dp, C1, dgg)
	}
	if err != nil {
		return nil, err
	}

	dInv, err := matInverse(D)
	if err != nil {
		return nil, err
	}

	q1Field := intsToFieldVec(q1, n, dimD)
	diff, err := vecSub(q1Field, C1)
	if err != nil {
		return nil, err
	}
	diffEval := vecSwitchFormat(diff, field2n.Evaluation)

	bdInv, err := matMul(B, dInv)
	if err != nil {
		return nil, err
	}
	lift, err := matVecMul(bdInv, diffEval)
	if err != nil {
		return nil, err
	}
	liftCoeff := vecSwitchFormat(lift, field2n.Coefficient)

	cNew, err := vecAdd(C0, liftCoeff)
	if err != nil {
		return nil, err
	}

	bt := matTranspose(B)
	bdInvBt, err := matMul(bdInv, bt)
	if err != nil {
		return nil, err
	}
	sigma, err := matSub(A, bdInvBt)
	if err != nil {
		return nil, err
	}

	var q0 []int64
	if dimA == 1 {
		q0, err = ZSampleF(sigma[0][0], cNew[0], dgg)
	} else {
		newDimA := (dimA + 1) / 2
		newDimD := dimA / 2
		Ap := subMat(sigma, 0, newDimA, 0, newDimA)
		Bp := subMat(sigma, 0, newDimA, newDimA, dimA)
		Dp := subMat(sigma, newDimA, dimA, newDimA, dimA)
		q0, err = SampleMat(Ap, Bp, Dp, cNew, dgg)
	}
	if err != nil {
		return nil, err
	}

	return append(q0, q1...), nil
}
