package ppogatt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeqNext(t *testing.T) {
	for s := Seq(0); s < 31; s++ {
		require.True(t, s.IsValid())
		require.Equal(t, s+1, s.Next())
	}
	require.Equal(t, Seq(0), Seq(31).Next())
	require.False(t, Seq(32).IsValid())
}

func TestSeqDiff(t *testing.T) {
	testCases := []struct {
		a, b Seq
		diff int
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, -1},
		{0, 31, 1},
		{31, 0, -1},
		{3, 30, 5},
		{30, 3, -5},
		{15, 0, 15},
		{16, 0, -16},
	}
	for _, tc := range testCases {
		require.Equalf(t, tc.diff, tc.a.Diff(tc.b), "%d - %d", tc.a, tc.b)
	}
}

func TestSeqCovers(t *testing.T) {
	require.True(t, Seq(5).Covers(5))
	require.True(t, Seq(5).Covers(4))
	require.False(t, Seq(4).Covers(5))
	require.True(t, Seq(1).Covers(30))
	require.False(t, Seq(30).Covers(1))
}
