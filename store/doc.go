// Package store serializes the motif result tree into the current archive
// layout and back.
//
// Three layers mirror the result's structure: pattern groups (tracks, seqlets,
// subclusters), the merge hierarchy forest, and the top-level result assembler.
// All loads are eager and all-or-nothing: the first missing or malformed entry
// aborts the call, and no partially populated result is ever returned.
//
// Ordering of every named collection (pattern lists, rounds, hierarchy roots
// and children) is recorded in an explicit name-list dataset next to the
// children, independent of any enumeration guarantee of the backing archive.
package store
