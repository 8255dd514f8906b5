// Package storage provides object storage abstractions with pluggable
// backends. StorageOutput nodes upload processed files through it.
//
// # Backends
//
//   - storage/local: local filesystem storage
//   - storage/s3: Amazon S3 and S3-compatible storage
//
// # Configuration
//
// Backend selection and settings are provided via Config:
//
//	storage:
//	  provider: "s3"
//	  bucket: "photos"
//	  region: "us-east-1"
package storage
