// Package planner turns a remote object listing into a concrete download
// plan. It pages through the dataset prefix, applies the folder filter
// predicate, and maps each surviving key to a destination path that mirrors
// the remote folder hierarchy.
package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/filter"
	"github.com/xtech-analytics/data-unifier/internal/s3api"
)

// Task is one planned object download.
type Task struct {
	// Bucket is the source bucket
	Bucket string

	// Key is the full source object key
	Key string

	// Size is the object size in bytes, taken from the listing
	Size int64

	// Dest is the local destination path
	Dest string
}

// Planner builds download plans from paginated listings.
type Planner struct {
	client s3api.S3API
}

// New creates a Planner using the given storage client.
func New(client s3api.S3API) *Planner {
	return &Planner{client: client}
}

// Plan lists every object under prefix and returns one task per key the
// predicate accepts, in listing order. The prefix's own directory marker and
// any key not under the prefix are skipped.
func (p *Planner) Plan(
	ctx context.Context,
	bucket, prefix, targetDir string,
	match filter.Predicate,
) ([]Task, error) {
	var tasks []Task

	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.NewError("plan", fmt.Errorf("%w: list objects: %v", errors.ErrNetwork, err))
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)

			// Guards against pagination cursor bugs; should not occur.
			if !strings.HasPrefix(key, prefix) {
				continue
			}

			rel := strings.TrimPrefix(key, prefix)
			if rel == "" {
				// The prefix's own directory marker.
				continue
			}
			if !match(rel) {
				continue
			}

			tasks = append(tasks, Task{
				Bucket: bucket,
				Key:    key,
				Size:   aws.ToInt64(obj.Size),
				Dest:   filepath.Join(targetDir, filepath.FromSlash(rel)),
			})
		}
	}

	return tasks, nil
}
