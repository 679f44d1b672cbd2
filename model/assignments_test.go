package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssignmentIndex(t *testing.T) {
	// Positions:      0  1  2  3  4  5  6
	indices := []int{0, 1, 0, -1, 1, 1, 0}
	idx := NewAssignmentIndex(indices)

	require.Equal(t, []int{0, 1}, idx.Metaclusters())
	require.Equal(t, 3, idx.Count(0))
	require.Equal(t, 3, idx.Count(1))
	require.Equal(t, 0, idx.Count(9))

	require.Equal(t, []int{0, 2, 6}, idx.Positions(0))
	require.Equal(t, []int{1, 4, 5}, idx.Positions(1))
	require.Nil(t, idx.Positions(9))

	require.True(t, idx.Contains(0, 2))
	require.False(t, idx.Contains(0, 1))
	require.False(t, idx.Contains(0, 3))
	require.False(t, idx.Contains(9, 0))
}

func TestAssignmentIndexSelect(t *testing.T) {
	seqlets := make([]Seqlet, 5)
	for i := range seqlets {
		seqlets[i] = Seqlet{Example: i, Start: i * 10, End: i*10 + 5, Strand: Forward}
	}

	idx := NewAssignmentIndex([]int{1, 0, 1, 0, 1})
	got := idx.Select(seqlets, 1)
	require.Len(t, got, 3)
	require.Equal(t, []Seqlet{seqlets[0], seqlets[2], seqlets[4]}, got)

	require.Nil(t, idx.Select(seqlets, 2))
}
