package conv

// MaxDecimal is the widest Itoa result: a sign and 19 digits, or the 20
// digits of MaxUint64 from Utoa.
const MaxDecimal = 20

// Utoa writes n in base 10 at the end of buf and returns the used tail.
// Digits that do not fit are dropped from the most significant end.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	for i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return buf[i:]
}

// Itoa is Utoa with a leading '-' for negative n. MinInt64 is handled.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	// Two's complement negation; correct for MinInt64 too.
	s := Utoa(buf, ^uint64(n)+1)
	i := len(buf) - len(s)
	if i == 0 {
		return s
	}
	buf[i-1] = '-'
	return buf[i-1:]
}
