// Package blobstore moves packed result archives between machines.
//
// A directory archive is packed into a single .tar.gz blob (see Pack/Unpack)
// and pushed to any [BlobStore] backend:
//
//   - [LocalStore]: directory on the local filesystem
//   - [MemoryStore]: in-memory, for tests
//   - s3.Store: Amazon S3 via aws-sdk-go-v2
//   - minio.Store: MinIO and other S3-compatible object stores
//
// Upload and Download combine packing with a store and accept an optional
// resource.Controller to throttle transfer bandwidth.
package blobstore
