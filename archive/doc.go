// Package archive implements the named hierarchical container that motif
// results are persisted into: a tree of groups holding typed datasets (float
// matrices and vectors, int vectors, scalars, string lists, JSON documents).
//
// # Encoding
//
// Every dataset is framed with a fixed little-endian header carrying a magic
// number, format version, logical type, compression, payload codec, shape, and
// a CRC32 of the uncompressed payload. Frames are self-describing, so an
// archive written with one compression or codec opens fine with any options.
//
// # Backends
//
//   - [NewMem]: in-memory, for tests and translator staging
//   - [Create]/[Open]: directory tree on disk; groups are directories,
//     datasets are files
//
// Writable directory archives stage into a temporary sibling directory and
// publish atomically by rename on Close, per the single-writer contract:
// concurrent readers of the destination path never see partial output.
//
// # Ordering
//
// Backends enumerate children sorted by name. Callers that need a semantic
// order (pattern lists, hierarchy children) store an explicit name-list
// dataset next to the children; the stores in package store do exactly that.
package archive
