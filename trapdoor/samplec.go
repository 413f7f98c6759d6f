package trapdoor

import "github.com/sinitcin/rnscore/gaussian"

// SampleC implements spec.md §4.9 step 4's sample_c: sample z_{k-1} ~
// D_Z(-a_{k-1}/c_{k-1}, σ/c_{k-1}); update a_{k-1} += z_{k-1}·c_{k-1};
// then for 0 <= i < k-1, z_i ~ D_Z(-a_i, σ). Returns the length-k integer
// vector z.
//
// Grounded on the sample_c algorithm of spec.md §4.9's trapdoor sampler.
func SampleC(c []float64, k int, sigma float64, dgg *gaussian.Generator, a []float64) []int64 {
	z := make([]int64, k)
	aLast := a[k-1]
	cLast := c[k-1]

	z[k-1] = dgg.SampleAt(-aLast/cLast, sigma/cLast)
	aLast += float64(z[k-1]) * cLast

	for i := 0; i < k-1; i++ {
		z[i] = dgg.SampleAt(-a[i], sigma)
	}
	return z
}
