package trapdoor

import "github.com/sinitcin/rnscore/gaussian"

// Perturb draws z_0, ..., z_{k-1} recursively — z_i ~ D_Z(d/l_i, σ/l_i)
// with d updated to -z_i·h_i after each step — and folds them into the
// length-k perturbation vector p, per spec.md §4.9 step 3:
//
//	p_0 = (2b+1)z_0 + b·z_1
//	p_i = b(z_{i-1} + 2z_i + z_{i+1})         for 0 < i < k-1
//	p_{k-1} = b(z_{k-2} + 2z_{k-1})
//
// Grounded on the perturb algorithm of spec.md §4.9's trapdoor sampler.
func Perturb(sigma float64, k int, l, h []float64, base int64, dgg *gaussian.Generator) []int64 {
	z := make([]int64, k)
	d := 0.0
	for i := 0; i < k; i++ {
		z[i] = dgg.SampleAt(d/l[i], sigma/l[i])
		d = -float64(z[i]) * h[i]
	}

	p := make([]int64, k)
	p[0] = int64(2*base+1)*z[0] + base*z[1]
	for i := 1; i < k-1; i++ {
		p[i] = base * (z[i-1] + 2*z[i] + z[i+1])
	}
	p[k-1] = base * (z[k-2] + 2*z[k-1])
	return p
}

// PerturbFloat is the arbitrary-base variant of Perturb, per spec.md
// §4.9's "gauss_samp_gq_arb_base ... differs only in computing perturb in
// floating-point": the same recursive z_i ~ D_Z(d/l_i, σ/l_i) draw, folded
// through l and h rather than base, so the result need not land on
// integers — required once base is not a power of two and the p_i folding
// formula above (which assumes an integer base factor) no longer applies.
func PerturbFloat(sigma float64, k int, l, h []float64, dgg *gaussian.Generator) []float64 {
	z := make([]float64, k)
	d := 0.0
	for i := 0; i < k; i++ {
		zi := dgg.SampleAt(d/l[i], sigma/l[i])
		z[i] = float64(zi)
		d = -z[i] * h[i]
	}

	p := make([]float64, k)
	for i := 0; i < k-1; i++ {
		p[i] = l[i]*z[i] + h[i+1]*z[i+1]
	}
	p[k-1] = h[k-1] * z[k-1]
	return p
}
