// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// Production code uses fs.Default (which is [LocalFS]); tests inject [FaultyFS]
// to exercise the error paths of archive writes:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.SetLimit(1024) // fail writes after 1KB
//
// # Design Notes
//
// This package intentionally does NOT take context.Context. Local filesystem
// operations are fast and non-interruptible at the syscall level; cancellation
// belongs to the blobstore layer, whose backends may be remote.
package fs
