// Package prime computes Mersenne primes (2^p − 1 with both p and the
// result prime). It is the numeric collaborator behind the gossip node's
// value-advancement timer: pure, deterministic, no state.
package prime

import "math/big"

// MaxInt64Mersenne is the largest Mersenne prime representable in an
// int64 (2^61 − 1). NextMersenne saturates here.
const MaxInt64Mersenne = int64(1)<<61 - 1

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// NextMersenne returns the smallest Mersenne prime strictly greater than
// current, or current itself once MaxInt64Mersenne is reached.
func NextMersenne(current int64) int64 {
	if current >= MaxInt64Mersenne {
		return current
	}
	cur := big.NewInt(current)
	for p := int64(2); p <= 61; p++ {
		if !big.NewInt(p).ProbablyPrime(0) {
			continue
		}
		// m = 2^p − 1
		m := new(big.Int).Exp(two, big.NewInt(p), nil)
		m.Sub(m, one)
		if m.Cmp(cur) <= 0 {
			continue
		}
		if m.ProbablyPrime(0) {
			return m.Int64()
		}
	}
	return current
}
