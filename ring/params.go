package ring

import (
	"fmt"
	"math/big"
)

// Parameters is an immutable RNS parameter set: an ordered list of prime
// moduli q_0, ..., q_{L-1}, each ≡ 1 mod 2N (guaranteeing an NTT of order
// 2N exists), plus the precomputed CRT and base-conversion constants
// shared by every DoubleCRTPoly built against it.
//
// Grounded on ring/rns_ring.go's RNSRing (ordered []*Ring plus the
// moduli-chain-wide precomputations) and ring/rns_ring.go's
// ModUpConstants-style tables, reshaped around spec.md §4.5's explicit
// constant list. Immutable after construction and shared by reference, per
// spec.md §5's "RNS parameter set: shared, immutable after construction,
// reference-counted" resource policy (Go's GC plays the role of the
// reference count).
type Parameters struct {
	N      int
	Moduli []uint64
	Tables []*NTTTable

	Q *big.Int // Π q_i

	QModQi    [][]uint64 // (Q/q_i) mod q_j for every i, j
	QHatInv   []uint64   // (Q/q_i)^-1 mod q_i
	QiInvDbl  []float64  // 1/q_i as float64, used by SwitchCRTBasis

	BarrettQ [2]uint64 // not populated by NewParameters (left zero); reduction modulo the composite Q uses big.Int directly
}

// NewParameters builds an RNS parameter set from an ordered moduli chain.
// Every modulus must be an odd prime congruent to 1 mod 2N; NTT tables are
// built (or fetched from the process-wide cache) for each.
func NewParameters(n int, moduli []uint64) (*Parameters, error) {
	if len(moduli) == 0 {
		return nil, fmt.Errorf("ring: empty moduli chain")
	}

	tables := make([]*NTTTable, len(moduli))
	for i, qi := range moduli {
		t, err := GetNTTTable(qi, n)
		if err != nil {
			return nil, fmt.Errorf("ring: building NTT table for modulus %d: %w", qi, err)
		}
		tables[i] = t
	}

	Q := big.NewInt(1)
	for _, qi := range moduli {
		Q.Mul(Q, new(big.Int).SetUint64(qi))
	}

	L := len(moduli)
	qHatInv := make([]uint64, L)
	qModQi := make([][]uint64, L)
	qiInvDbl := make([]float64, L)

	for i, qi := range moduli {
		qHat := new(big.Int).Quo(Q, new(big.Int).SetUint64(qi))
		qHatModQi := new(big.Int).Mod(qHat, new(big.Int).SetUint64(qi)).Uint64()
		inv, err := ModInverse(qHatModQi, qi)
		if err != nil {
			return nil, fmt.Errorf("ring: modulus %d: %w", qi, err)
		}
		qHatInv[i] = inv

		row := make([]uint64, L)
		for j, qj := range moduli {
			row[j] = new(big.Int).Mod(qHat, new(big.Int).SetUint64(qj)).Uint64()
		}
		qModQi[i] = row

		qiInvDbl[i] = 1.0 / float64(qi)
	}

	return &Parameters{
		N:        n,
		Moduli:   moduli,
		Tables:   tables,
		Q:        Q,
		QModQi:   qModQi,
		QHatInv:  qHatInv,
		QiInvDbl: qiInvDbl,
	}, nil
}

// Level returns the index of the last tower (L-1).
func (p *Parameters) Level() int { return len(p.Moduli) - 1 }

// NumModuli returns L, the number of towers.
func (p *Parameters) NumModuli() int { return len(p.Moduli) }

// AuxiliaryBasis precomputes the base-extension constants needed to move a
// polynomial from this parameter set's basis Q to an auxiliary basis P,
// per spec.md §4.5's "analogous constants between Q and P".
//
// Grounded on ring/rns_basis_extension.go's ModUpConstants (qoverqiinvqi,
// qoverqimodp, vtimesqmodp tables), restricted here to the two tables
// ApproxSwitchCRTBasis/SwitchCRTBasis actually consume.
type AuxiliaryBasis struct {
	P          []uint64
	QModP      [][]uint64 // (Q/q_i mod p_k) for every i, k
	PTables    []*NTTTable
}

// NewAuxiliaryBasis builds the cross-basis constants between p (basis Q)
// and the given auxiliary moduli P.
func NewAuxiliaryBasis(p *Parameters, auxModuli []uint64) (*AuxiliaryBasis, error) {
	pTables := make([]*NTTTable, len(auxModuli))
	for k, pk := range auxModuli {
		t, err := GetNTTTable(pk, p.N)
		if err != nil {
			return nil, err
		}
		pTables[k] = t
	}

	qModP := make([][]uint64, len(p.Moduli))
	for i, qi := range p.Moduli {
		qHat := new(big.Int).Quo(p.Q, new(big.Int).SetUint64(qi))
		row := make([]uint64, len(auxModuli))
		for k, pk := range auxModuli {
			row[k] = new(big.Int).Mod(qHat, new(big.Int).SetUint64(pk)).Uint64()
		}
		qModP[i] = row
	}

	return &AuxiliaryBasis{P: auxModuli, QModP: qModP, PTables: pTables}, nil
}
