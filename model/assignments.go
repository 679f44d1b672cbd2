package model

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// AssignmentIndex is an inverted view of the metacluster assignment vector:
// for each metacluster id, the set of seqlet positions assigned to it.
// It is derived on demand and never persisted.
type AssignmentIndex struct {
	sets map[int]*roaring.Bitmap
}

// NewAssignmentIndex builds the index from a per-seqlet assignment vector.
// Negative indices mark unassigned seqlets and are skipped.
func NewAssignmentIndex(indices []int) *AssignmentIndex {
	idx := &AssignmentIndex{sets: make(map[int]*roaring.Bitmap)}
	for pos, mc := range indices {
		if mc < 0 {
			continue
		}
		set, ok := idx.sets[mc]
		if !ok {
			set = roaring.New()
			idx.sets[mc] = set
		}
		set.Add(uint32(pos))
	}
	return idx
}

// Metaclusters returns the metacluster ids present, ascending.
func (idx *AssignmentIndex) Metaclusters() []int {
	ids := make([]int, 0, len(idx.sets))
	for id := range idx.sets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Contains reports whether seqlet position pos is assigned to metacluster mc.
func (idx *AssignmentIndex) Contains(mc, pos int) bool {
	set, ok := idx.sets[mc]
	return ok && set.Contains(uint32(pos))
}

// Count returns the number of seqlets assigned to metacluster mc.
func (idx *AssignmentIndex) Count(mc int) int {
	set, ok := idx.sets[mc]
	if !ok {
		return 0
	}
	return int(set.GetCardinality())
}

// Positions returns the seqlet positions assigned to metacluster mc,
// ascending.
func (idx *AssignmentIndex) Positions(mc int) []int {
	set, ok := idx.sets[mc]
	if !ok {
		return nil
	}
	out := make([]int, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Select returns the seqlets from the given list that are assigned to
// metacluster mc, preserving list order.
func (idx *AssignmentIndex) Select(seqlets []Seqlet, mc int) []Seqlet {
	set, ok := idx.sets[mc]
	if !ok {
		return nil
	}
	out := make([]Seqlet, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		pos := int(it.Next())
		if pos < len(seqlets) {
			out = append(out, seqlets[pos])
		}
	}
	return out
}
