package trapdoor

import (
	"fmt"

	"github.com/sinitcin/rnscore/field2n"
)

// FieldMat is a k_rows x k_cols block matrix of Field2n entries, kept in
// Evaluation format throughout so Add/Sub/Mul/Inverse act as genuine
// pointwise field arithmetic, per spec.md §4.10's covariance blocks
// A, B, D.
type FieldMat [][]*field2n.Field2n

// FieldVec is a k-block column vector of Field2n entries, kept in
// Coefficient format: it holds sampler centers, which are real
// coefficient-domain values rather than field elements to invert.
type FieldVec []*field2n.Field2n

func matDims(m FieldMat) (rows, cols int) {
	rows = len(m)
	if rows == 0 {
		return 0, 0
	}
	return rows, len(m[0])
}

func subMat(m FieldMat, r0, r1, c0, c1 int) FieldMat {
	out := make(FieldMat, r1-r0)
	for i := r0; i < r1; i++ {
		out[i-r0] = make([]*field2n.Field2n, c1-c0)
		copy(out[i-r0], m[i][c0:c1])
	}
	return out
}

func matAdd(a, b FieldMat) (FieldMat, error) {
	ra, ca := matDims(a)
	rb, cb := matDims(b)
	if ra != rb || ca != cb {
		return nil, fmt.Errorf("%w: matAdd %dx%d + %dx%d", ErrShapeMismatch, ra, ca, rb, cb)
	}
	out := make(FieldMat, ra)
	for i := 0; i < ra; i++ {
		out[i] = make([]*field2n.Field2n, ca)
		for j := 0; j < ca; j++ {
			v, err := field2n.Add(a[i][j], b[i][j])
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func matSub(a, b FieldMat) (FieldMat, error) {
	ra, ca := matDims(a)
	rb, cb := matDims(b)
	if ra != rb || ca != cb {
		return nil, fmt.Errorf("%w: matSub %dx%d - %dx%d", ErrShapeMismatch, ra, ca, rb, cb)
	}
	out := make(FieldMat, ra)
	for i := 0; i < ra; i++ {
		out[i] = make([]*field2n.Field2n, ca)
		for j := 0; j < ca; j++ {
			v, err := field2n.Sub(a[i][j], b[i][j])
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}

// matMul multiplies two block matrices: each output entry is the sum,
// over the shared inner dimension, of pointwise Field2n products —
// ordinary block matrix multiplication with Field2n standing in for a
// scalar ring element.
func matMul(a, b FieldMat) (FieldMat, error) {
	ra, inner := matDims(a)
	rb, cb := matDims(b)
	if inner != rb {
		return nil, fmt.Errorf("%w: matMul inner dimension %d != %d", ErrShapeMismatch, inner, rb)
	}
	n := fieldN(a, b)
	out := make(FieldMat, ra)
	for i := 0; i < ra; i++ {
		out[i] = make([]*field2n.Field2n, cb)
		for j := 0; j < cb; j++ {
			acc := field2n.New(n, field2n.Evaluation)
			for t := 0; t < inner; t++ {
				term, err := field2n.Mul(a[i][t], b[t][j])
				if err != nil {
					return nil, err
				}
				acc, err = field2n.Add(acc, term)
				if err != nil {
					return nil, err
				}
			}
			out[i][j] = acc
		}
	}
	return out, nil
}

// matScale multiplies every block entry by the real scalar s.
func matScale(s float64, a FieldMat) FieldMat {
	ra, ca := matDims(a)
	out := make(FieldMat, ra)
	for i := 0; i < ra; i++ {
		out[i] = make([]*field2n.Field2n, ca)
		for j := 0; j < ca; j++ {
			scaled := a[i][j].Clone()
			for k, c := range scaled.Coeffs {
				scaled.Coeffs[k] = c * complex(s, 0)
			}
			out[i][j] = scaled
		}
	}
	return out
}

// matTranspose swaps block positions and applies each entry's own
// Transpose (the conjugation-based automorphism), matching the B^T of
// spec.md's Schur complement definition: transposing a block matrix of
// ring elements transposes both the block grid and each entry itself.
func matTranspose(a FieldMat) FieldMat {
	ra, ca := matDims(a)
	out := make(FieldMat, ca)
	for j := 0; j < ca; j++ {
		out[j] = make([]*field2n.Field2n, ra)
		for i := 0; i < ra; i++ {
			out[j][i] = a[i][j].Transpose()
		}
	}
	return out
}

// matInverse computes the block inverse of a square FieldMat via the
// recursive Schur-complement formula, generalizing spec.md's 2x2
// ZSampleSigma2x2 inverse to arbitrary block size. An earlier revision's
// dim_d > 2 handling reused a single Field2n entry's CofactorMatrix/
// Determinant as if it were the inverse of the whole D block — correct
// only for the dim_d <= 2 cases it was actually exercised with; the
// recursive Schur-complement inverse below is exact at every block size.
func matInverse(a FieldMat) (FieldMat, error) {
	k, cols := matDims(a)
	if k != cols {
		return nil, fmt.Errorf("%w: matInverse requires a square matrix, got %dx%d", ErrShapeMismatch, k, cols)
	}
	if k == 1 {
		inv, err := field2n.Inverse(a[0][0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSingularField, err)
		}
		return FieldMat{{inv}}, nil
	}

	dimP := (k + 1) / 2
	dimS := k / 2
	p := subMat(a, 0, dimP, 0, dimP)
	q := subMat(a, 0, dimP, dimP, k)
	r := subMat(a, dimP, k, 0, dimP)
	s := subMat(a, dimP, k, dimP, k)

	sInv, err := matInverse(s)
	if err != nil {
		return nil, err
	}
	qsInv, err := matMul(q, sInv)
	if err != nil {
		return nil, err
	}
	qsInvR, err := matMul(qsInv, r)
	if err != nil {
		return nil, err
	}
	schur, err := matSub(p, qsInvR)
	if err != nil {
		return nil, err
	}
	schurInv, err := matInverse(schur)
	if err != nil {
		return nil, err
	}

	sInvR, err := matMul(sInv, r)
	if err != nil {
		return nil, err
	}
	topRight, err := matMul(schurInv, qsInv)
	if err != nil {
		return nil, err
	}
	topRight = matScale(-1, topRight)

	botLeft, err := matMul(sInvR, schurInv)
	if err != nil {
		return nil, err
	}
	botLeft = matScale(-1, botLeft)

	botRightTerm, err := matMul(sInvR, topRight)
	if err != nil {
		return nil, err
	}
	botRightTerm = matScale(-1, botRightTerm)
	botRight, err := matAdd(sInv, botRightTerm)
	if err != nil {
		return nil, err
	}

	out := make(FieldMat, k)
	for i := 0; i < k; i++ {
		out[i] = make([]*field2n.Field2n, k)
	}
	for i := 0; i < dimP; i++ {
		copy(out[i][0:dimP], schurInv[i])
		copy(out[i][dimP:k], topRight[i])
	}
	for i := 0; i < dimS; i++ {
		copy(out[dimP+i][0:dimP], botLeft[i])
		copy(out[dimP+i][dimP:k], botRight[i])
	}
	return out, nil
}

// matVecMul multiplies a block matrix by a block vector, both assumed in
// Evaluation format.
func matVecMul(a FieldMat, v FieldVec) (FieldVec, error) {
	rows, cols := matDims(a)
	if cols != len(v) {
		return nil, fmt.Errorf("%w: matVecMul %d cols != %d-vector", ErrShapeMismatch, cols, len(v))
	}
	n := v[0].N()
	out := make(FieldVec, rows)
	for i := 0; i < rows; i++ {
		acc := field2n.New(n, field2n.Evaluation)
		for j := 0; j < cols; j++ {
			term, err := field2n.Mul(a[i][j], v[j])
			if err != nil {
				return nil, err
			}
			acc, err = field2n.Add(acc, term)
			if err != nil {
				return nil, err
			}
		}
		out[i] = acc
	}
	return out, nil
}

func vecAdd(a, b FieldVec) (FieldVec, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: vecAdd length %d != %d", ErrShapeMismatch, len(a), len(b))
	}
	out := make(FieldVec, len(a))
	for i := range a {
		v, err := field2n.Add(a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func vecSub(a, b FieldVec) (FieldVec, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: vecSub length %d != %d", ErrShapeMismatch, len(a), len(b))
	}
	out := make(FieldVec, len(a))
	for i := range a {
		v, err := field2n.Sub(a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// vecSwitchFormat converts every block of v to the target format via the
// non-rounding SwitchFormatExact, used for centers and covariance data
// rather than final polynomial coefficients.
func vecSwitchFormat(v FieldVec, target field2n.Format) FieldVec {
	out := make(FieldVec, len(v))
	for i, f := range v {
		if f.Format == target {
			out[i] = f.Clone()
			continue
		}
		out[i] = f.SwitchFormatExact()
	}
	return out
}

// intsToFieldVec splits a flat, concatenated integer sample vector into
// numBlocks Coefficient-format Field2n blocks of length n each.
func intsToFieldVec(vals []int64, n, numBlocks int) FieldVec {
	out := make(FieldVec, numBlocks)
	for b := 0; b < numBlocks; b++ {
		coeffs := make([]float64, n)
		for i := 0; i < n; i++ {
			coeffs[i] = float64(vals[b*n+i])
		}
		out[b] = field2n.FromReal(coeffs)
	}
	return out
}

// fieldN returns the cyclotomic degree shared by a and b's entries,
// reading it off whichever matrix is non-empty.
func fieldN(a, b FieldMat) int {
	if len(a) > 0 && len(a[0]) > 0 {
		return a[0][0].N()
	}
	if len(b) > 0 && len(b[0]) > 0 {
		return b[0][0].N()
	}
	return 0
}
