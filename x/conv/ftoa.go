package conv

import (
	"math"

	"avrhal-go/x/mathx"
)

// MaxPrec bounds the fractional digits Ftoa will emit.
const MaxPrec = 9

// Ftoa writes f with exactly prec fractional digits into buf and returns the
// used slice. The value is rounded half away from zero at the last digit.
// The integer part is produced by Utoa (least significant digit first, from
// the end of the buffer), the fraction by repeated multiply-by-ten and floor.
// NaN and infinities are written as "NaN", "+Inf" and "-Inf"; magnitudes that
// do not fit a uint64 are written as infinities. buf should be length >= 32.
func Ftoa(buf []byte, f float64, prec int) []byte {
	prec = mathx.Clamp(prec, 0, MaxPrec)
	switch {
	case math.IsNaN(f):
		return append(buf[:0], "NaN"...)
	case math.IsInf(f, 1):
		return append(buf[:0], "+Inf"...)
	case math.IsInf(f, -1):
		return append(buf[:0], "-Inf"...)
	}
	neg := math.Signbit(f)
	if neg {
		f = -f
	}
	f += 0.5 * math.Pow10(-prec)
	if f >= 1<<64 {
		if neg {
			return append(buf[:0], "-Inf"...)
		}
		return append(buf[:0], "+Inf"...)
	}
	ip := uint64(f)
	frac := f - float64(ip)

	var tmp [20]byte
	digits := Utoa(tmp[:], ip)

	out := buf[:0]
	if neg && (ip != 0 || hasNonZeroDigit(frac, prec)) {
		out = append(out, '-')
	}
	out = append(out, digits...)
	if prec == 0 {
		return out
	}
	out = append(out, '.')
	for i := 0; i < prec; i++ {
		frac *= 10
		d := math.Floor(frac)
		if d > 9 {
			d = 9
		}
		out = append(out, byte('0'+int(d)))
		frac -= d
	}
	return out
}

func hasNonZeroDigit(frac float64, prec int) bool {
	for i := 0; i < prec; i++ {
		frac *= 10
		if math.Floor(frac) != 0 {
			return true
		}
	}
	return false
}
