package reward

import "math/bits"

// mulDiv64 computes floor(a*b/c) using a 128-bit intermediate product,
// built by hand from two 64-bit halves via math/bits.Mul64/Div64. This is
// the idiomatic Go substitute for the reference implementation's
// __uint128_t-based mul_div helper; Go has no native 128-bit integer
// type. Panics on divide-by-zero or overflow of the final quotient past
// 64 bits, matching the reference's defined (no silent wrap) semantics.
func mulDiv64(a, b, c uint64) uint64 {
	if c == 0 {
		panic("reward: mulDiv64: division by zero")
	}

	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		panic("reward: mulDiv64: quotient overflow")
	}

	quo, _ := bits.Div64(hi, lo, c)
	return quo
}
