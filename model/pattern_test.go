package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// rampPattern builds a pattern with distinct values at every cell so axis
// mix-ups show up in comparisons.
func rampPattern(length int) *Pattern {
	track := func(base float64) [][]float64 {
		m := make([][]float64, length)
		for i := range m {
			m[i] = make([]float64, NumChannels)
			for j := range m[i] {
				m[i][j] = base + float64(i*NumChannels+j)
			}
		}
		return m
	}
	return &Pattern{
		Sequence:             track(0),
		ContribScores:        track(1000),
		HypotheticalContribs: track(2000),
		Seqlets: []Seqlet{
			{Example: 0, Start: 10, End: 10 + length, Strand: Forward},
			{Example: 3, Start: 50, End: 50 + length, Strand: Reverse},
		},
	}
}

func TestReverseComplementMatrix(t *testing.T) {
	m := [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
	}
	rc := ReverseComplementMatrix(m)
	require.Equal(t, [][]float64{
		{8, 7, 6, 5},
		{4, 3, 2, 1},
	}, rc)

	// Input untouched.
	require.Equal(t, [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}}, m)

	// Involution.
	require.Equal(t, m, ReverseComplementMatrix(rc))

	require.Nil(t, ReverseComplementMatrix(nil))
}

func TestPatternReverseComplement(t *testing.T) {
	p := rampPattern(5)
	rc := p.ReverseComplement()

	require.False(t, p.Equal(rc))
	require.True(t, p.Equal(rc.ReverseComplement()))

	// Seqlets ride along unchanged.
	require.True(t, SeqletsEqual(p.Seqlets, rc.Seqlets))

	// Corner check: position 0 channel 0 of the reverse is the last cell of
	// the forward.
	require.Equal(t, p.Sequence[4][3], rc.Sequence[0][0])
}

func TestPatternValidate(t *testing.T) {
	p := rampPattern(4)
	require.NoError(t, p.Validate())

	t.Run("track length mismatch", func(t *testing.T) {
		bad := rampPattern(4)
		bad.ContribScores = bad.ContribScores[:3]
		require.Error(t, bad.Validate())
	})

	t.Run("channel count mismatch", func(t *testing.T) {
		bad := rampPattern(4)
		bad.HypotheticalContribs[2] = []float64{1, 2, 3}
		require.Error(t, bad.Validate())
	})

	t.Run("invalid subcluster", func(t *testing.T) {
		bad := rampPattern(4)
		sub := rampPattern(3)
		sub.Sequence = sub.Sequence[:2]
		bad.Subclusters = map[int]*Pattern{0: sub}
		require.Error(t, bad.Validate())
	})
}

func TestPatternEqual(t *testing.T) {
	a := rampPattern(4)
	b := rampPattern(4)
	require.True(t, a.Equal(b))

	t.Run("track value", func(t *testing.T) {
		c := rampPattern(4)
		c.Sequence[1][2]++
		require.False(t, a.Equal(c))
	})

	t.Run("nil vs empty subclusters", func(t *testing.T) {
		c := rampPattern(4)
		c.Subclusters = map[int]*Pattern{}
		require.False(t, a.Equal(c))
	})

	t.Run("nil alignments equal zeros", func(t *testing.T) {
		c := rampPattern(4)
		c.Alignments = make([]float64, len(c.Seqlets))
		require.True(t, a.Equal(c))

		c.Alignments[0] = 1
		require.False(t, a.Equal(c))
	})

	t.Run("subcluster content", func(t *testing.T) {
		c := rampPattern(4)
		d := rampPattern(4)
		c.Subclusters = map[int]*Pattern{0: rampPattern(2)}
		d.Subclusters = map[int]*Pattern{0: rampPattern(2)}
		require.True(t, c.Equal(d))

		d.Subclusters[0].ContribScores[0][0]++
		require.False(t, c.Equal(d))
	})
}

func TestSubclusterIDs(t *testing.T) {
	p := rampPattern(3)
	require.Nil(t, p.SubclusterIDs())

	p.Subclusters = map[int]*Pattern{
		2: rampPattern(2),
		0: rampPattern(2),
		5: rampPattern(2),
	}
	require.Equal(t, []int{0, 2, 5}, p.SubclusterIDs())
}
