package trapdoor

import "github.com/sinitcin/rnscore/gaussian"

// GaussSampGq implements spec.md §4.9's G-lattice preimage sampler for a
// power-of-two (or, here, any integer) sampling base: given a syndrome u
// (one coefficient per slot, already reduced mod q — the CRT
// interpolation spec.md names is the caller's job, upstream of this
// package) and target stddev, produces the k×len(u) integer matrix Z with
// G·z_j ≡ u_j (mod q) for every column z_j, where G = (1, b, ..., b^{k-1}).
//
// Grounded on the gauss_samp_gq algorithm of spec.md §4.9's trapdoor
// sampler.
func GaussSampGq(syndrome []uint64, stddev float64, k int, q uint64, base int64, dgg *gaussian.Generator) ([][]int64, error) {
	digits, err := RequiredDigits(q, base, k)
	if err != nil {
		return nil, err
	}
	geo := BuildLatticeGeometry(base, k, digits)
	sigma := stddev / (float64(base) + 1)
	b := float64(base)

	n := len(syndrome)
	z := make([][]int64, k)
	for t := range z {
		z[t] = make([]int64, n)
	}

	for j, v := range syndrome {
		p := Perturb(sigma, k, geo.L, geo.H, base, dgg)
		vDigits, err := RequiredDigits(v, base, k)
		if err != nil {
			return nil, err
		}

		a := make([]float64, k)
		a[0] = float64(vDigits[0]-p[0]) / b
		for t := 1; t < k; t++ {
			a[t] = (a[t-1] + float64(vDigits[t]-p[t])) / b
		}

		zj := SampleC(geo.C, k, sigma, dgg, a)

		z[0][j] = base*zj[0] + digits[0]*zj[k-1] + vDigits[0]
		for t := 1; t < k-1; t++ {
			z[t][j] = base*zj[t] - zj[t-1] + digits[t]*zj[k-1] + vDigits[t]
		}
		z[k-1][j] = digits[k-1]*zj[k-1] - zj[k-2] + vDigits[k-1]
	}
	return z, nil
}

// GaussSampGqArbBase is the arbitrary-base variant of GaussSampGq, per
// spec.md §4.9: identical except perturb is computed in floating point
// (PerturbFloat) rather than folded through the integer base factor.
func GaussSampGqArbBase(syndrome []uint64, stddev float64, k int, q uint64, base int64, dgg *gaussian.Generator) ([][]int64, error) {
	digits, err := RequiredDigits(q, base, k)
	if err != nil {
		return nil, err
	}
	geo := BuildLatticeGeometry(base, k, digits)
	sigma := stddev / (float64(base) + 1)
	b := float64(base)

	n := len(syndrome)
	z := make([][]int64, k)
	for t := range z {
		z[t] = make([]int64, n)
	}

	for j, v := range syndrome {
		vDigits, err := RequiredDigits(v, base, k)
		if err != nil {
			return nil, err
		}
		p := PerturbFloat(sigma, k, geo.L, geo.H, dgg)

		a := make([]float64, k)
		a[0] = (float64(vDigits[0]) - p[0]) / b
		for t := 1; t < k; t++ {
			a[t] = (a[t-1] + float64(vDigits[t]) - p[t]) / b
		}

		zj := SampleC(geo.C, k, sigma, dgg, a)

		z[0][j] = base*zj[0] + digits[0]*zj[k-1] + vDigits[0]
		for t := 1; t < k-1; t++ {
			z[t][j] = base*zj[t] - zj[t-1] + digits[t]*zj[k-1] + vDigits[t]
		}
		z[k-1][j] = digits[k-1]*zj[k-1] - zj[k-2] + vDigits[k-1]
	}
	return z, nil
}
