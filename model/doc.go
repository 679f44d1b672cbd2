// Package model defines the result tree produced by a motif-discovery run.
//
// # Core Types
//
//   - Seqlet: a coordinate reference to a short evidence span in one input example
//   - Pattern: an aggregated motif (sequence/contribution tracks + supporting seqlets)
//   - MergeHierarchyNode / Hierarchy: the forest recording how patterns were merged
//   - SubmetaclusterResult / MetaclusterResult / TopLevelResult: per-metacluster
//     and whole-run results
//
// All types are value-like: persistence is a pure transform between an in-memory
// tree and an archive, and no type retains handles to storage.
//
// # Orientation
//
// Forward-strand tracks are the single source of truth. Reverse-complement tracks
// are derived via ReverseComplement (reverse the length axis, reverse the channel
// axis under the fixed A/C/G/T channel convention) and are never trusted from
// storage.
package model
