package ring

import "github.com/klauspost/cpuid/v2"

// Has128BitCarryChain reports whether the host CPU exposes the carry-chain
// instructions (ADX/BMI2) that make math/bits.Mul64/Add64-based 128-bit
// accumulation run at full speed. Per spec.md §9's note that
// "ApproxSwitchCRTBasis paths conditionally take one of two code paths
// depending on availability of 128-bit integer arithmetic on the
// platform. The 128-bit path is the reference; the fallback path must
// produce bit-identical results" -- this package only ever implements the
// 128-bit/big.Int reference path (Go provides no platform-conditional
// arithmetic primitive), so this probe is informational only: callers may
// use it to decide whether to route large base-extension batches through
// a larger ThreadLimitPolicy, never to change numerical behavior.
func Has128BitCarryChain() bool {
	return cpuid.CPU.Supports(cpuid.ADX, cpuid.BMI2)
}
