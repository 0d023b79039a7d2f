// Package s3api defines the interface over the object-storage operations the
// replication path uses, so transfers can be tested against mocks.
package s3api

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client consumed by the transfer planner and
// executor. Implementations must be safe for concurrent use; one client is
// shared by all download workers.
type S3API interface {
	// ListObjectsV2 lists a page of objects under a prefix
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	// GetObject retrieves an object, optionally restricted to a byte range
	GetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)
}

// Verify that the AWS S3 client implements our interface
var _ S3API = (*s3.Client)(nil)
