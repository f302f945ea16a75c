package conv

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUtoa_RoundTrip(t *testing.T) {
	var buf [20]byte
	vals := []uint64{0, 1, 9, 10, 99, 100, 4096, 65535, math.MaxUint32, math.MaxUint64}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		vals = append(vals, uint64(r.Uint32()))
	}
	for _, v := range vals {
		s := string(Utoa(buf[:], v))
		got, err := strconv.ParseUint(s, 10, 64)
		require.NoError(t, err, s)
		require.Equal(t, v, got)
	}
}

func TestItoa_Negative(t *testing.T) {
	var buf [20]byte
	require.Equal(t, "-42", string(Itoa(buf[:], -42)))
	require.Equal(t, "0", string(Itoa(buf[:], 0)))
	require.Equal(t, "123456", string(Itoa(buf[:], 123456)))
	require.Equal(t, "-9223372036854775808", string(Itoa(buf[:], math.MinInt64)))
	require.Equal(t, "9223372036854775807", string(Itoa(buf[:], math.MaxInt64)))
	require.Len(t, Utoa(buf[:MaxDecimal], math.MaxUint64), MaxDecimal)

	// A short buffer keeps the low digits.
	require.Equal(t, "56", string(Utoa(buf[:2], 3456)))
	require.Empty(t, Utoa(nil, 7))
}

func TestFtoa_DigitOrder(t *testing.T) {
	var buf [32]byte
	cases := []struct {
		f    float64
		prec int
		want string
	}{
		{3.14, 2, "3.14"},
		{12.5, 1, "12.5"},
		{0.29, 2, "0.29"},
		{123.0, 0, "123"},
		{-3.14159, 3, "-3.142"},
		{0.999, 2, "1.00"},
		{-0.001, 2, "0.00"},
		{1000.0625, 4, "1000.0625"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, string(Ftoa(buf[:], c.f, c.prec)), "%v prec %d", c.f, c.prec)
	}
}

func TestFtoa_Specials(t *testing.T) {
	var buf [32]byte
	require.Equal(t, "NaN", string(Ftoa(buf[:], math.NaN(), 2)))
	require.Equal(t, "+Inf", string(Ftoa(buf[:], math.Inf(1), 2)))
	require.Equal(t, "-Inf", string(Ftoa(buf[:], math.Inf(-1), 2)))
	require.Equal(t, "+Inf", string(Ftoa(buf[:], 1e30, 2)))
}

func TestFtoa_ParsesBackWithinPrecision(t *testing.T) {
	var buf [32]byte
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		x := (r.Float64()*2 - 1) * 1e6
		prec := r.Intn(7)
		s := string(Ftoa(buf[:], x, prec))
		got, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err, s)
		require.True(t, math.Abs(got-x) <= math.Pow10(-prec), "x=%v prec=%d s=%s", x, prec, s)
	}
}

func TestHex(t *testing.T) {
	var buf [8]byte
	require.Equal(t, "00", string(U8Hex(buf[:], 0)))
	require.Equal(t, "E1", string(U8Hex(buf[:], 0xE1)))
	require.Equal(t, "0000BEEF", string(U32Hex(buf[:], 0xBEEF)))
	require.Empty(t, U8Hex(buf[:1], 0xFF))
}
