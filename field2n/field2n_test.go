package field2n

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestSwitchFormatRoundTrip(t *testing.T) {
	f := FromReal([]float64{1, 2, 3, 4})
	ev := f.SwitchFormat()
	if ev.Format != Evaluation {
		t.Fatalf("expected Evaluation format")
	}
	back := ev.SwitchFormat()
	if back.Format != Coefficient {
		t.Fatalf("expected Coefficient format")
	}
	for i, c := range back.Coeffs {
		want := f.Coeffs[i]
		if cmplx.Abs(c-want) > 1e-6 {
			t.Fatalf("slot %d: got %v, want %v", i, c, want)
		}
	}
}

func TestExtractEvenOdd(t *testing.T) {
	f := FromReal([]float64{0, 1, 2, 3, 4, 5, 6, 7})
	even := f.ExtractEven()
	odd := f.ExtractOdd()
	if len(even.Coeffs) != 4 || len(odd.Coeffs) != 4 {
		t.Fatalf("expected length 4 sub-vectors")
	}
	for i := 0; i < 4; i++ {
		if real(even.Coeffs[i]) != float64(2*i) {
			t.Fatalf("even[%d] = %v, want %v", i, even.Coeffs[i], 2*i)
		}
		if real(odd.Coeffs[i]) != float64(2*i+1) {
			t.Fatalf("odd[%d] = %v, want %v", i, odd.Coeffs[i], 2*i+1)
		}
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	a := FromReal([]float64{1, 2, 3, 4})
	b := FromReal([]float64{5, 6, 7, 8})
	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	diff, err := Sub(sum, b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	for i := range a.Coeffs {
		if cmplx.Abs(diff.Coeffs[i]-a.Coeffs[i]) > 1e-9 {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, diff.Coeffs[i], a.Coeffs[i])
		}
	}
}

func TestInverseRequiresEvaluation(t *testing.T) {
	a := FromReal([]float64{1, 2, 3, 4})
	if _, err := Inverse(a); err == nil {
		t.Fatalf("expected ErrWrongFormat on Coefficient-format Inverse")
	}
}

func TestInverseElementwise(t *testing.T) {
	a := &Field2n{Format: Evaluation, Coeffs: []complex128{2, 4, 0.5, 1}}
	inv, err := Inverse(a)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	for i, c := range a.Coeffs {
		if cmplx.Abs(c*inv.Coeffs[i]-1) > 1e-9 {
			t.Fatalf("slot %d: %v * %v != 1", i, c, inv.Coeffs[i])
		}
	}
}

func TestDeterminantAndCofactor(t *testing.T) {
	a := &Field2n{Format: Evaluation, Coeffs: []complex128{2, 3, 5}}
	det := a.Determinant()
	if cmplx.Abs(det-30) > 1e-6 {
		t.Fatalf("Determinant = %v, want 30", det)
	}
	cof := a.CofactorMatrix()
	want := []complex128{15, 10, 6}
	for i, c := range cof.Coeffs {
		if cmplx.Abs(c-want[i]) > 1e-6 {
			t.Fatalf("cofactor[%d] = %v, want %v", i, c, want[i])
		}
	}
}

func TestCofactorMatrixWithZeroEntry(t *testing.T) {
	a := &Field2n{Format: Evaluation, Coeffs: []complex128{0, 3, 5}}
	cof := a.CofactorMatrix()
	want := []complex128{15, 0, 0}
	for i, c := range cof.Coeffs {
		if cmplx.Abs(c-want[i]) > 1e-6 {
			t.Fatalf("cofactor[%d] = %v, want %v", i, c, want[i])
		}
	}
}

func TestTransposeConjugates(t *testing.T) {
	a := &Field2n{Format: Evaluation, Coeffs: []complex128{complex(1, 2), complex(3, -4)}}
	tr := a.Transpose()
	for i, c := range tr.Coeffs {
		if c != cmplx.Conj(a.Coeffs[i]) {
			t.Fatalf("slot %d not conjugated", i)
		}
	}
}

func TestSqrtMatchesMathSqrt(t *testing.T) {
	v, err := Sqrt(16)
	if err != nil {
		t.Fatalf("Sqrt: %v", err)
	}
	if math.Abs(v-4) > 1e-9 {
		t.Fatalf("Sqrt(16) = %v, want 4", v)
	}
}

func TestSqrtRejectsNegative(t *testing.T) {
	if _, err := Sqrt(-1); err == nil {
		t.Fatalf("expected error for negative input")
	}
}
