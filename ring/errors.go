package ring

import "errors"

// Sentinel errors surfaced at the ring/RNS API boundary. Wrap with
// fmt.Errorf("...: %w", ErrX) at call sites that need extra context;
// callers compare with errors.Is.
var (
	// ErrShapeMismatch is returned when operands disagree on tower count,
	// ring degree N, or matrix dimensions.
	ErrShapeMismatch = errors.New("ring: shape mismatch")

	// ErrModulusMismatch is returned when two polynomials built against
	// different parameter sets are combined.
	ErrModulusMismatch = errors.New("ring: modulus mismatch")

	// ErrWrongFormat is returned when an operation requires Coefficient
	// or Evaluation format and the operand carries the other one.
	ErrWrongFormat = errors.New("ring: wrong format")

	// ErrEmptyTower is returned by DropLastElement when a single-tower
	// polynomial has no tail left to drop.
	ErrEmptyTower = errors.New("ring: cannot drop last tower of a single-tower polynomial")

	// ErrNoInverse is returned when a modular or field inverse is
	// requested for a non-unit.
	ErrNoInverse = errors.New("ring: no modular inverse exists")

	// ErrNonTerminating is returned when a base-b digit expansion of q
	// does not terminate within the requested number of digits.
	ErrNonTerminating = errors.New("ring: base expansion does not terminate within the given digit budget")

	// ErrPrecomputationCorrupted names the condition where a cached NTT
	// table's length disagrees with the cyclotomic order it is keyed under.
	// GetNTTTable does not return it: it rebuilds the table and continues.
	ErrPrecomputationCorrupted = errors.New("ring: precomputed table corrupted, recomputing")
)
