package ring

import (
	"fmt"
	"math/big"
	"math/bits"
	"sync"
)

// NTTTable holds the forward/inverse negacyclic NTT precomputation for one
// modulus q and ring degree N, keyed process-wide by (q, N).
//
// Grounded on ring/ring.go's GenNTTTable (root-of-unity search via
// factorization of q-1, bit-reversed root tables) and on spec.md §4.3's
// Shoup-preconditioned-table design; ring/ntt_standard.go implements the
// same loop shape with Montgomery form instead. This is a deliberate
// deviation from that concrete reduction strategy while keeping the
// bit-reversed Cooley-Tukey/Gentleman-Sande loop shape; see DESIGN.md.
type NTTTable struct {
	N   int
	Q   uint64
	u   BarrettConstant
	Psi uint64 // primitive 2N-th root of unity mod q

	RootsForward     []uint64 // bit-reversed: index bitrev(i) holds Psi^i
	RootsForwardPre  []ShoupConstant
	RootsBackward    []uint64 // bit-reversed: index bitrev(i) holds Psi^-i
	RootsBackwardPre []ShoupConstant

	NInv    uint64
	NInvPre ShoupConstant
}

type nttCacheKey struct {
	q uint64
	n int
}

type nttCacheEntry struct {
	once  sync.Once
	table *NTTTable
	err   error
}

// nttCache is the process-wide, insert-once table cache described in
// spec.md §4.3/§5: concurrent readers of an already-warm modulus proceed
// lock-free (sync.Map.LoadOrStore on an existing key), while the first request for a cold modulus
// serializes other requesters for that same modulus via sync.Once.
//
// Grounded on spec.md §9's "Global NTT table caches" design note and on
// the shared insert-once idiom of utils/concurrency/ressources_manager.go
// (channel-gated shared resource), adapted here to a map-keyed cache.
var nttCache sync.Map // nttCacheKey -> *nttCacheEntry

// GetNTTTable returns the cached forward/inverse NTT tables for (q, N),
// building them on first use. N must be a power of two and q must be an
// odd prime with q ≡ 1 (mod 2N).
func GetNTTTable(q uint64, n int) (*NTTTable, error) {
	key := nttCacheKey{q: q, n: n}
	entryIface, _ := nttCache.LoadOrStore(key, &nttCacheEntry{})
	entry := entryIface.(*nttCacheEntry)
	entry.once.Do(func() {
		entry.table, entry.err = buildNTTTable(q, n)
	})
	if entry.err != nil {
		return nil, entry.err
	}
	if entry.table.N != n || entry.table.Q != q {
		// ErrPrecomputationCorrupted condition: rebuild the table and
		// replace the cache entry instead of failing.
		fresh := &nttCacheEntry{}
		fresh.once.Do(func() {
			fresh.table, fresh.err = buildNTTTable(q, n)
		})
		if fresh.err != nil {
			return nil, fresh.err
		}
		nttCache.Store(key, fresh)
		return fresh.table, nil
	}
	return entry.table, nil
}

func buildNTTTable(q uint64, n int) (*NTTTable, error) {
	if n&(n-1) != 0 || n <= 0 {
		return nil, fmt.Errorf("ring: N=%d is not a power of two", n)
	}
	order := uint64(2 * n)
	if (q-1)%order != 0 {
		return nil, fmt.Errorf("ring: q=%d is not congruent to 1 mod %d", q, order)
	}

	u := ComputeBarrettConstant(q)

	psi, err := findPrimitiveNthRoot(q, order)
	if err != nil {
		return nil, err
	}
	psiInv, err := ModInverse(psi, q)
	if err != nil {
		return nil, err
	}

	logN := bits.Len(uint(n)) - 1

	rootsFwd := make([]uint64, n)
	rootsBwd := make([]uint64, n)

	pow := uint64(1)
	powInv := uint64(1)
	for i := 0; i < n; i++ {
		j := bitReverse(i, logN)
		rootsFwd[j] = pow
		rootsBwd[j] = powInv
		pow = BRed(pow, psi, q, u)
		powInv = BRed(powInv, psiInv, q, u)
	}

	fwdPre := make([]ShoupConstant, n)
	bwdPre := make([]ShoupConstant, n)
	for i := 0; i < n; i++ {
		fwdPre[i] = PrecomputeShoup(rootsFwd[i], q)
		bwdPre[i] = PrecomputeShoup(rootsBwd[i], q)
	}

	nInv, err := ModInverse(uint64(n)%q, q)
	if err != nil {
		return nil, err
	}

	return &NTTTable{
		N:                n,
		Q:                q,
		u:                u,
		Psi:              psi,
		RootsForward:     rootsFwd,
		RootsForwardPre:  fwdPre,
		RootsBackward:    rootsBwd,
		RootsBackwardPre: bwdPre,
		NInv:             nInv,
		NInvPre:          PrecomputeShoup(nInv, q),
	}, nil
}

func bitReverse(x, logN int) int {
	r := 0
	for i := 0; i < logN; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

// findPrimitiveNthRoot returns a primitive order-th root of unity mod q,
// via a generator of Z_q^* raised to the (q-1)/order power.
//
// Grounded on ring/ring.go's PrimitiveRoot search (trial candidates,
// reject any that is a perfect power for a prime factor of q-1).
func findPrimitiveNthRoot(q, order uint64) (uint64, error) {
	qm1 := q - 1
	factors := primeFactors(qm1)

	isGenerator := func(g uint64) bool {
		for _, p := range factors {
			if ModExp(g, qm1/p, q) == 1 {
				return false
			}
		}
		return true
	}

	var g uint64
	for cand := uint64(2); cand < q; cand++ {
		if isGenerator(cand) {
			g = cand
			break
		}
	}
	if g == 0 {
		return 0, fmt.Errorf("ring: no generator found for modulus %d", q)
	}

	root := ModExp(g, qm1/order, q)
	if root == 1 || ModExp(root, order, q) != 1 {
		return 0, fmt.Errorf("ring: failed to construct a primitive %d-th root mod %d", order, q)
	}
	return root, nil
}

// primeFactors returns the distinct prime factors of x via trial division.
// Adequate for the word-sized moduli (≤ 61 bits) this package targets and
// for the small test moduli used throughout the test suite; production
// parameter generation is expected to run once at startup, not per call.
func primeFactors(x uint64) []uint64 {
	var factors []uint64
	n := new(big.Int).SetUint64(x)
	d := big.NewInt(2)
	one := big.NewInt(1)
	for new(big.Int).Mul(d, d).Cmp(n) <= 0 {
		for new(big.Int).Mod(n, d).Sign() == 0 {
			factors = append(factors, d.Uint64())
			n.Div(n, d)
		}
		d.Add(d, one)
	}
	if n.Cmp(one) > 0 {
		factors = append(factors, n.Uint64())
	}
	return dedupUint64(factors)
}

func dedupUint64(xs []uint64) []uint64 {
	seen := make(map[uint64]bool, len(xs))
	out := xs[:0]
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// Forward computes the in-place negacyclic forward NTT of coeffs (a
// Coefficient-format vector of length t.N, values in [0, q)), producing
// the bit-reversed Evaluation-format vector, per spec.md §4.3.
//
// Grounded on the Cooley-Tukey loop shape of ring/ntt_standard.go and
// tuneinsight-lattigo/ring/ntt.go's NTT, using mod_mul_fast_const (Shoup)
// in place of their Montgomery butterfly per spec.md §4.3's pseudocode.
func (t *NTTTable) Forward(coeffs []uint64) error {
	if len(coeffs) != t.N {
		return fmt.Errorf("%w: expected length %d, got %d", ErrShapeMismatch, t.N, len(coeffs))
	}
	q := t.Q
	n := t.N

	tt := n >> 1
	for m := 1; m < n; m <<= 1 {
		j1 := 0
		for i := 0; i < m; i++ {
			omega := t.RootsForward[m+i]
			omegaPre := t.RootsForwardPre[m+i]
			j2 := j1 + tt
			for j := j1; j < j2; j++ {
				lo := coeffs[j]
				if lo >= 2*q {
					lo -= 2 * q
				}
				hi := ModMulShoup(coeffs[j+tt], omega, q, omegaPre)
				coeffs[j] = lo + hi
				coeffs[j+tt] = lo + 2*q - hi
			}
			j1 += tt << 1
		}
		tt >>= 1
	}

	u := t.u
	for i := range coeffs {
		coeffs[i] = BRedAdd(coeffs[i], q, u)
	}
	return nil
}

// Backward computes the in-place negacyclic inverse NTT of a bit-reversed
// Evaluation-format vector, producing the Coefficient-format vector.
//
// Grounded on the Gentleman-Sande loop shape of
// tuneinsight-lattigo/ring/ntt.go's InvNTT.
func (t *NTTTable) Backward(coeffs []uint64) error {
	if len(coeffs) != t.N {
		return fmt.Errorf("%w: expected length %d, got %d", ErrShapeMismatch, t.N, len(coeffs))
	}
	q := t.Q
	n := t.N

	tt := 1
	for m := n >> 1; m >= 1; m >>= 1 {
		j1 := 0
		for i := 0; i < m; i++ {
			omega := t.RootsBackward[m+i]
			omegaPre := t.RootsBackwardPre[m+i]
			j2 := j1 + tt
			for j := j1; j < j2; j++ {
				u0 := coeffs[j]
				v0 := coeffs[j+tt]
				x := u0 + v0
				if x >= 2*q {
					x -= 2 * q
				}
				y := ModMulShoup(u0+2*q-v0, omega, q, omegaPre)
				coeffs[j] = x
				coeffs[j+tt] = y
			}
			j1 += tt << 1
		}
		tt <<= 1
	}

	u := t.u
	nInvPre := t.NInvPre
	for i := range coeffs {
		coeffs[i] = BRedAdd(ModMulShoup(coeffs[i], t.NInv, q, nInvPre), q, u)
	}
	return nil
}
