package mathx

import "golang.org/x/exp/constraints"

// CeilDiv is a/b rounded up. Zero b yields zero. a+b must not overflow T.
func CeilDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// RoundDiv is a/b rounded to nearest, halves up. Zero b yields zero.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
