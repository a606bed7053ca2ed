package lpm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitAt(t *testing.T) {
	// 128.0.0.2 in the first four bytes.
	addr := make([]byte, LevelMax)
	addr[0] = 128
	addr[3] = 2

	require.Equal(t, 1, bitAt(addr, 0))
	require.Equal(t, 0, bitAt(addr, 1))
	require.Equal(t, 1, bitAt(addr, 30))
	require.Equal(t, 0, bitAt(addr, 31))
}

func TestSetClearBit(t *testing.T) {
	addr := make([]byte, LevelMax)

	for _, pos := range []int{0, 7, 8, 15, 42, 127} {
		setBit(addr, pos)
		require.Equal(t, 1, bitAt(addr, pos), "pos %d", pos)
		clearBit(addr, pos)
		require.Equal(t, 0, bitAt(addr, pos), "pos %d", pos)
	}

	// Neighbours stay untouched.
	setBit(addr, 9)
	require.Equal(t, 0, bitAt(addr, 8))
	require.Equal(t, 0, bitAt(addr, 10))
}

func TestBoundary(t *testing.T) {
	for pos := 0; pos < MasklenMax; pos++ {
		require.Equal(t, pos%8 == 7, isBoundary(pos), "pos %d", pos)
	}
}

func TestPatternWrite(t *testing.T) {
	tests := []struct {
		name   string
		idx    uint8
		bitpos int
		lo, hi int
	}{
		{name: "boundary writes single entry", idx: 10, bitpos: 7, lo: 10, hi: 10},
		{name: "one significant bit", idx: 0x80, bitpos: 0, lo: 0x80, hi: 0xFF},
		{name: "one significant zero bit", idx: 0x00, bitpos: 0, lo: 0x00, hi: 0x7F},
		{name: "three significant bits", idx: 0xA0, bitpos: 2, lo: 0xA0, hi: 0xBF},
		{name: "seven significant bits", idx: 0xFE, bitpos: 6, lo: 0xFE, hi: 0xFF},
		{name: "boundary of deeper level", idx: 0x42, bitpos: 15, lo: 0x42, hi: 0x42},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			block := &mtrieBlock[string]{}
			v := "x"
			patternWrite(block, tc.idx, tc.bitpos, &v)

			for i := range block {
				if i >= tc.lo && i <= tc.hi {
					require.NotNil(t, block[i].data, "entry %d should be written", i)
				} else {
					require.Nil(t, block[i].data, "entry %d should stay empty", i)
				}
			}

			// A nil payload erases the same range.
			patternWrite(block, tc.idx, tc.bitpos, (*string)(nil))
			for i := range block {
				require.Nil(t, block[i].data, "entry %d should be erased", i)
			}
		})
	}
}
