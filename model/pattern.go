package model

import (
	"fmt"
	"sort"
)

// NumChannels is the fixed channel count of every track, one per base under
// the A/C/G/T convention. Reversing the channel axis complements the base.
const NumChannels = 4

// Pattern is an aggregated motif: representative tracks plus the seqlets that
// support it. Tracks are stored forward-strand only; use ReverseComplement for
// the opposite orientation.
type Pattern struct {
	Sequence             [][]float64
	ContribScores        [][]float64
	HypotheticalContribs [][]float64

	Seqlets []Seqlet

	// Alignments holds one alignment offset per seqlet. Every known producer
	// writes zeros; the value is carried for storage compatibility and is not
	// interpreted. nil is persisted as all-neutral.
	Alignments []float64

	// Subclusters maps sub-cluster ids to nested patterns. nil means the
	// pattern was never sub-clustered; the distinction is preserved on disk.
	Subclusters map[int]*Pattern
}

// Len returns the pattern length (the shared length axis of all tracks).
func (p *Pattern) Len() int { return len(p.Sequence) }

// Validate checks that all three tracks share one length and carry
// NumChannels channels per position.
func (p *Pattern) Validate() error {
	n := len(p.Sequence)
	if len(p.ContribScores) != n || len(p.HypotheticalContribs) != n {
		return fmt.Errorf("track lengths disagree: sequence=%d contrib_scores=%d hypothetical_contribs=%d",
			n, len(p.ContribScores), len(p.HypotheticalContribs))
	}
	for _, track := range [][][]float64{p.Sequence, p.ContribScores, p.HypotheticalContribs} {
		for i := range track {
			if len(track[i]) != NumChannels {
				return fmt.Errorf("position %d has %d channels, want %d", i, len(track[i]), NumChannels)
			}
		}
	}
	for id, sub := range p.Subclusters {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("subcluster %d: %w", id, err)
		}
	}
	return nil
}

// ReverseComplement returns the pattern's tracks in the opposite orientation:
// the length axis is reversed and the channel axis is reversed, which
// complements each base under the fixed channel convention. Seqlets and
// subclusters are carried over unchanged.
func (p *Pattern) ReverseComplement() *Pattern {
	return &Pattern{
		Sequence:             ReverseComplementMatrix(p.Sequence),
		ContribScores:        ReverseComplementMatrix(p.ContribScores),
		HypotheticalContribs: ReverseComplementMatrix(p.HypotheticalContribs),
		Seqlets:              p.Seqlets,
		Alignments:           p.Alignments,
		Subclusters:          p.Subclusters,
	}
}

// Equal compares two patterns: tracks numerically, seqlets in order, and
// subcluster maps including presence vs. absence.
func (p *Pattern) Equal(o *Pattern) bool {
	if p == nil || o == nil {
		return p == o
	}
	if !MatrixEqual(p.Sequence, o.Sequence) ||
		!MatrixEqual(p.ContribScores, o.ContribScores) ||
		!MatrixEqual(p.HypotheticalContribs, o.HypotheticalContribs) ||
		!SeqletsEqual(p.Seqlets, o.Seqlets) {
		return false
	}
	if !alignmentsEqual(p.Alignments, o.Alignments, len(p.Seqlets)) {
		return false
	}
	if (p.Subclusters == nil) != (o.Subclusters == nil) || len(p.Subclusters) != len(o.Subclusters) {
		return false
	}
	for id, sub := range p.Subclusters {
		other, ok := o.Subclusters[id]
		if !ok || !sub.Equal(other) {
			return false
		}
	}
	return true
}

// SubclusterIDs returns the sub-cluster keys in ascending order.
func (p *Pattern) SubclusterIDs() []int {
	if p.Subclusters == nil {
		return nil
	}
	ids := make([]int, 0, len(p.Subclusters))
	for id := range p.Subclusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// alignmentsEqual treats nil as all-neutral (zero) alignments of length n.
func alignmentsEqual(a, b []float64, n int) bool {
	get := func(v []float64, i int) float64 {
		if v == nil {
			return 0
		}
		return v[i]
	}
	if a != nil && len(a) != n || b != nil && len(b) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if get(a, i) != get(b, i) {
			return false
		}
	}
	return true
}

// PatternsEqual compares two pattern lists element-wise, in order.
func PatternsEqual(a, b []*Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ReverseComplementMatrix reverses both axes of a length x channel matrix.
// The input is not mutated.
func ReverseComplementMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		row := m[len(m)-1-i]
		rev := make([]float64, len(row))
		for j := range row {
			rev[j] = row[len(row)-1-j]
		}
		out[i] = rev
	}
	return out
}
