package model

import (
	"fmt"
	"sort"
)

// Strand marks which strand of the input example a seqlet was taken from.
type Strand byte

const (
	// Forward is the forward (+) strand.
	Forward Strand = '+'
	// Reverse is the reverse-complement (-) strand.
	Reverse Strand = '-'
)

// Valid reports whether s is one of the two known strands.
func (s Strand) Valid() bool { return s == Forward || s == Reverse }

func (s Strand) String() string { return string(s) }

// Seqlet is an immutable evidence reference: a short span within one input
// example, with strand and an optional score.
//
// Equality is defined by the canonical text form (see the coord package);
// Equal compares the same fields the token captures.
type Seqlet struct {
	Example int
	Start   int
	End     int
	Strand  Strand

	// Score is optional; nil means the producer did not score this seqlet.
	Score *float64
}

// Equal reports whether two seqlets are identical, including score presence.
func (s Seqlet) Equal(o Seqlet) bool {
	if s.Example != o.Example || s.Start != o.Start || s.End != o.End || s.Strand != o.Strand {
		return false
	}
	if (s.Score == nil) != (o.Score == nil) {
		return false
	}
	return s.Score == nil || *s.Score == *o.Score
}

// Len returns the span length of the seqlet.
func (s Seqlet) Len() int { return s.End - s.Start }

// SeqletsEqual compares two seqlet lists element-wise, in order.
// A nil list and an empty list compare equal.
func SeqletsEqual(a, b []Seqlet) bool {
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

// MergeHierarchyNode is one node of the merge forest. A node that resulted from
// merging two or more prior nodes carries IndicesMerged and the similarity and
// contamination matrices observed at merge time; an initial cluster is a
// childless leaf without any of them.
type MergeHierarchyNode struct {
	Pattern *Pattern

	// IndicesMerged is nil for nodes that were never merged.
	IndicesMerged      []int
	CrossContamination [][]float64
	AlignerSimilarity  [][]float64

	Children []*MergeHierarchyNode
}

// IsLeaf reports whether the node has no children.
func (n *MergeHierarchyNode) IsLeaf() bool { return len(n.Children) == 0 }

// Equal compares two nodes structurally: pattern content, merge bookkeeping
// (including presence vs. absence) and the full child subtrees, in order.
func (n *MergeHierarchyNode) Equal(o *MergeHierarchyNode) bool {
	if n == nil || o == nil {
		return n == o
	}
	if !n.Pattern.Equal(o.Pattern) {
		return false
	}
	if (n.IndicesMerged == nil) != (o.IndicesMerged == nil) || !intsEqual(n.IndicesMerged, o.IndicesMerged) {
		return false
	}
	if (n.CrossContamination == nil) != (o.CrossContamination == nil) || !MatrixEqual(n.CrossContamination, o.CrossContamination) {
		return false
	}
	if (n.AlignerSimilarity == nil) != (o.AlignerSimilarity == nil) || !MatrixEqual(n.AlignerSimilarity, o.AlignerSimilarity) {
		return false
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Hierarchy is the merge forest. Multiple independent merge lineages may
// coexist, so this is a list of roots rather than a single tree.
type Hierarchy struct {
	Roots []*MergeHierarchyNode
}

// Equal compares two hierarchies: root count, order, and full subtrees.
func (h Hierarchy) Equal(o Hierarchy) bool {
	if len(h.Roots) != len(o.Roots) {
		return false
	}
	for i := range h.Roots {
		if !h.Roots[i].Equal(o.Roots[i]) {
			return false
		}
	}
	return true
}

// SubmetaclusterResult is the pattern-discovery outcome for one metacluster.
// When Success is false only OtherConfig is meaningful; every other field must
// be left zero.
type SubmetaclusterResult struct {
	Success     bool
	OtherConfig Config

	// EachRoundInitclusterMotifs is nil when the producer recorded no rounds at
	// all; a non-nil empty slice means "rounds were recorded, there were zero".
	// The distinction survives a save/load round-trip.
	EachRoundInitclusterMotifs [][]*Pattern

	Patterns              []*Pattern
	RemainingPatterns     []*Pattern
	ClusterIndices        []int
	PatternMergeHierarchy Hierarchy
}

// Equal compares two submetacluster results field-for-field.
func (r SubmetaclusterResult) Equal(o SubmetaclusterResult) bool {
	if r.Success != o.Success || !r.OtherConfig.Equal(o.OtherConfig) {
		return false
	}
	if !r.Success {
		return true
	}
	if (r.EachRoundInitclusterMotifs == nil) != (o.EachRoundInitclusterMotifs == nil) {
		return false
	}
	if len(r.EachRoundInitclusterMotifs) != len(o.EachRoundInitclusterMotifs) {
		return false
	}
	for i := range r.EachRoundInitclusterMotifs {
		if !PatternsEqual(r.EachRoundInitclusterMotifs[i], o.EachRoundInitclusterMotifs[i]) {
			return false
		}
	}
	return PatternsEqual(r.Patterns, o.Patterns) &&
		PatternsEqual(r.RemainingPatterns, o.RemainingPatterns) &&
		intsEqual(r.ClusterIndices, o.ClusterIndices) &&
		r.PatternMergeHierarchy.Equal(o.PatternMergeHierarchy)
}

// MetaclusterResult is one metacluster's share of the run output.
type MetaclusterResult struct {
	Size           int
	Seqlets        []Seqlet
	Submetacluster SubmetaclusterResult
}

// Equal compares two metacluster results field-for-field.
func (m *MetaclusterResult) Equal(o *MetaclusterResult) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Size == o.Size &&
		SeqletsEqual(m.Seqlets, o.Seqlets) &&
		m.Submetacluster.Equal(o.Submetacluster)
}

// TopLevelResult is the whole-run output of a motif-discovery analysis.
type TopLevelResult struct {
	TaskNames    []string
	FinalSeqlets []Seqlet

	// PerTaskSeqlets maps each task name to the seqlets its coordinate
	// producer contributed.
	PerTaskSeqlets map[string][]Seqlet

	// MetaclusterIndices assigns each final seqlet to a metacluster,
	// positionally aligned with FinalSeqlets.
	MetaclusterIndices []int

	Metaclusters map[int]*MetaclusterResult
}

// MetaclusterIDs returns the metacluster keys in ascending order.
func (r *TopLevelResult) MetaclusterIDs() []int {
	ids := make([]int, 0, len(r.Metaclusters))
	for id := range r.Metaclusters {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Equal compares two results field-for-field: tracks numerically equal, seqlet
// lists equal in order, hierarchy shape identical.
func (r *TopLevelResult) Equal(o *TopLevelResult) bool {
	if r == nil || o == nil {
		return r == o
	}
	if !stringsEqual(r.TaskNames, o.TaskNames) ||
		!SeqletsEqual(r.FinalSeqlets, o.FinalSeqlets) ||
		!intsEqual(r.MetaclusterIndices, o.MetaclusterIndices) {
		return false
	}
	if len(r.PerTaskSeqlets) != len(o.PerTaskSeqlets) {
		return false
	}
	for task, seqlets := range r.PerTaskSeqlets {
		other, ok := o.PerTaskSeqlets[task]
		if !ok || !SeqletsEqual(seqlets, other) {
			return false
		}
	}
	if len(r.Metaclusters) != len(o.Metaclusters) {
		return false
	}
	for id, mc := range r.Metaclusters {
		other, ok := o.Metaclusters[id]
		if !ok || !mc.Equal(other) {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants a result must satisfy before it is
// persisted: per-pattern track agreement, seqlet support on final patterns, and
// assignment vector alignment.
func (r *TopLevelResult) Validate() error {
	if len(r.MetaclusterIndices) != len(r.FinalSeqlets) {
		return fmt.Errorf("metacluster index count %d does not match seqlet count %d",
			len(r.MetaclusterIndices), len(r.FinalSeqlets))
	}
	for _, id := range r.MetaclusterIDs() {
		mc := r.Metaclusters[id]
		if !mc.Submetacluster.Success {
			continue
		}
		for j, p := range mc.Submetacluster.Patterns {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("metacluster %d pattern %d: %w", id, j, err)
			}
			if len(p.Seqlets) == 0 {
				return fmt.Errorf("metacluster %d pattern %d: final pattern has no supporting seqlets", id, j)
			}
		}
	}
	return nil
}

// MatrixEqual compares two float matrices element-wise.
func MatrixEqual(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
