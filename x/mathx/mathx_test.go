package mathx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDivision(t *testing.T) {
	require.Equal(t, uint32(73), CeilDiv(uint32(14_400_001), 200_000))
	require.Equal(t, uint32(72), CeilDiv(uint32(14_400_000), 200_000))
	require.Equal(t, uint64(104), RoundDiv(uint64(16_000_000), 16*9600))
	require.Equal(t, uint8(3), RoundDiv(uint8(5), 2))
	require.Zero(t, CeilDiv(uint16(7), 0))
	require.Zero(t, RoundDiv(uint16(7), 0))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0, Clamp(-3, 0, 9))
	require.Equal(t, 9, Clamp(12, 0, 9))
	require.Equal(t, 4, Clamp(4, 9, 0))
	require.Equal(t, "m", Clamp("z", "a", "m"))
}
