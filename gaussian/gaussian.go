// Package gaussian implements the discrete Gaussian integer generators
// of spec.md §4.8: Karney's exact sampler and a centered-rounding
// rejection sampler for the common case where stddev is small relative
// to the float64 mantissa.
package gaussian

import (
	"math"
	"math/rand/v2"

	"github.com/sinitcin/rnscore/sampling"
)

// Generator draws integers from D_{Z, σ, μ}, the discrete Gaussian with
// standard deviation Sigma truncated at Bound standard deviations
// (matching the DiscreteGaussian distribution parameters ring/distribution.go
// defines for the same purpose). The center μ is a
// per-call argument rather than generator state, since spec.md §4.8's
// trapdoor sampler (GaussSampGq, ZSampleF) reuses one Generator's Sigma
// across many calls with a different center each time.
//
// Per spec.md §5's "Discrete Gaussian generator state: per-thread. No
// global RNG state may be shared without synchronization" policy, a
// Generator is not safe for concurrent use; callers fork one
// *sampling.Source per goroutine (sampling.Source.Fork) and build one
// Generator per forked source.
type Generator struct {
	Source *sampling.Source
	Sigma  float64
	Bound  float64
}

// NewGenerator builds a Generator reading randomness from src.
func NewGenerator(src *sampling.Source, sigma, bound float64) *Generator {
	return &Generator{Source: src, Sigma: sigma, Bound: bound}
}

// Sample draws one integer from D_{Z, Sigma, 0}.
func (g *Generator) Sample() int64 {
	return g.SampleMean(0)
}

// SampleMean draws one integer from D_{Z, Sigma, mean}, spec.md §4.8's
// `generate_integer_karney(mean, stddev)` contract.
//
// Grounded on ring/rns_sampler_gaussian.go's private `read` method: it
// dispatches between an arbitrary-precision big.Float path (used
// only when sigma exceeds float64's safe range) and the standard path
// using math/rand/v2's NormFloat64 plus rejection against Bound. This
// rewrite keeps exactly that split, naming the two paths CenteredSample
// and KarneySample per spec.md §4.8's explicit contract that Karney's
// algorithm is "required" once sigma is no longer small relative to 2^53.
func (g *Generator) SampleMean(mean float64) int64 {
	const float64SafeSigma = 1 << 40 // generous margin under 2^53
	if g.Sigma < float64SafeSigma {
		return g.CenteredSample(mean)
	}
	return g.KarneySample(mean)
}

// SampleAt draws one integer from D_{Z, sigma, mean} using a one-off
// stddev rather than g.Sigma, sharing g's Source and Bound. The trapdoor
// sampler of spec.md §4.9 calls generate_integer_karney with a different
// effective stddev at every recursion step (σ/l_i), so its draws cannot
// go through a Generator whose Sigma is fixed at construction.
func (g *Generator) SampleAt(mean, sigma float64) int64 {
	tmp := &Generator{Source: g.Source, Sigma: sigma, Bound: g.Bound}
	return tmp.SampleMean(mean)
}

// CenteredSample implements the fast path: draw a standard normal via
// math/rand/v2.NormFloat64 seeded from the Source, scale by Sigma and
// shift by mean, reject if the deviation from mean exceeds Bound standard
// deviations, then round to the nearest integer.
//
// Grounded verbatim on ring/rns_sampler_gaussian.go's `read` rejection
// loop (draw, scale, reject-on-bound, round).
func (g *Generator) CenteredSample(mean float64) int64 {
	r := rand.New(sourceAsRandSource{g.Source})
	for {
		norm := r.NormFloat64()
		if g.Bound > 0 && math.Abs(norm*g.Sigma) > g.Bound*g.Sigma {
			continue
		}
		return int64(math.Round(norm*g.Sigma + mean))
	}
}

// KarneySample draws one integer from D_{Z, Sigma, mean} using Karney's
// exact algorithm, for use once Sigma is too large for CenteredSample's
// float64 rounding to remain exact. Grounded on spec.md §4.8's
// `generate_integer_karney(mean, stddev)` contract and on the structure of
// Karney's published algorithm (Karney, "Sampling exactly from the normal
// distribution", ACM TOMS 2014): draw a half-integer geometric envelope
// k via rejection, pick a sign and a sub-unit offset uniformly, then
// accept with probability exp(-x(2k+x)/2) so the envelope's excess mass
// is rejected down to the true discrete Gaussian density.
//
// Unlike the original paper's transcendental-free alternating-bounds
// construction for that last acceptance test, this evaluates exp(...)
// directly via math.Exp: the target distribution is identical, and
// spec.md's correctness contract is distributional exactness, not
// avoidance of floating-point transcendental calls.
func (g *Generator) KarneySample(mean float64) int64 {
	r := rand.New(sourceAsRandSource{g.Source})
	bernHalf := func() bool { return r.Float64() < math.Exp(-0.5) }

	for {
		k := algorithmH(bernHalf)
		if !algorithmP(k*(k-1), bernHalf) {
			continue
		}
		sign := 1.0
		if r.Float64() < 0.5 {
			sign = -1.0
		}
		di0 := g.Sigma*float64(k) + sign*mean
		i0 := math.Ceil(di0)
		x0 := (i0 - di0) / g.Sigma

		jmax := int(math.Ceil(g.Sigma))
		if jmax < 1 {
			jmax = 1
		}
		j := int(r.Float64() * float64(jmax))
		if j >= jmax {
			j = jmax - 1
		}
		x := x0 + float64(j)/g.Sigma
		if x >= 1 {
			continue
		}
		if x == 0 && sign < 0 && k == 0 {
			continue
		}
		if r.Float64() >= math.Exp(-x*(float64(2*k)+x)/2) {
			continue
		}
		return int64(sign * (i0 + float64(j)))
	}
}

// KarneySampleWithUniform is the supplemented entry point of SPEC_FULL.md
// §5, grounded on generate_integer_karney_alt: the caller supplies the
// first uniform draw (u0, used to pick the sign) instead of having
// KarneySample draw it internally. This lets callers that already drew a
// uniform bit for a related decision (e.g. the trapdoor sampler choosing
// a perturbation direction) reuse it instead of consuming a second one,
// while the rest of the envelope-and-reject procedure is identical.
func (g *Generator) KarneySampleWithUniform(mean, u0 float64) int64 {
	r := rand.New(sourceAsRandSource{g.Source})
	bernHalf := func() bool { return r.Float64() < math.Exp(-0.5) }

	sign := 1.0
	if u0 < 0.5 {
		sign = -1.0
	}

	for {
		k := algorithmH(bernHalf)
		if !algorithmP(k*(k-1), bernHalf) {
			continue
		}
		di0 := g.Sigma*float64(k) + sign*mean
		i0 := math.Ceil(di0)
		x0 := (i0 - di0) / g.Sigma

		jmax := int(math.Ceil(g.Sigma))
		if jmax < 1 {
			jmax = 1
		}
		j := int(r.Float64() * float64(jmax))
		if j >= jmax {
			j = jmax - 1
		}
		x := x0 + float64(j)/g.Sigma
		if x >= 1 {
			continue
		}
		if x == 0 && sign < 0 && k == 0 {
			continue
		}
		if r.Float64() >= math.Exp(-x*(float64(2*k)+x)/2) {
			continue
		}
		return int64(sign * (i0 + float64(j)))
	}
}

// algorithmH samples k >= 0 with P(K=k) = exp(-k/2)(1 - exp(-1/2)), the
// truncated-geometric envelope Karney's algorithm builds the acceptance
// test around.
func algorithmH(bernHalf func() bool) int {
	k := 0
	for bernHalf() {
		k++
	}
	return k
}

// algorithmP decides acceptance with probability exp(-n/2) by requiring n
// independent exp(-1/2) Bernoulli draws to all succeed.
func algorithmP(n int, bernHalf func() bool) bool {
	for i := 0; i < n; i++ {
		if !bernHalf() {
			return false
		}
	}
	return true
}

// sourceAsRandSource adapts *sampling.Source to math/rand/v2.Source.
type sourceAsRandSource struct{ src *sampling.Source }

func (a sourceAsRandSource) Uint64() uint64 { return a.src.Uint64() }
