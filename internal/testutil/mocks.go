// Package testutil provides mock implementations for testing the replication
// path without a live object store.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MockS3Client implements s3api.S3API with configurable function fields.
type MockS3Client struct {
	ListObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObjectFunc     func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ListObjectsV2 calls the configured ListObjectsV2Func.
func (m *MockS3Client) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params, optFns...)
	}
	return nil, errors.New("ListObjectsV2 not configured")
}

// GetObject calls the configured GetObjectFunc.
func (m *MockS3Client) GetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params, optFns...)
	}
	return nil, errors.New("GetObject not configured")
}

// FakeObject is one object held by a FakeBucket.
type FakeObject struct {
	Key  string
	Body []byte
}

// FakeBucket is an in-memory object store backing a MockS3Client. It serves
// paginated listings in key order and honors byte-range GetObject requests,
// which is enough to drive the planner and executor end to end.
type FakeBucket struct {
	mu       sync.Mutex
	objects  []FakeObject
	PageSize int

	// GetCalls counts GetObject requests, range requests included
	GetCalls int

	// FailKeys maps object keys to the error their download returns
	FailKeys map[string]error
}

// NewFakeBucket creates a bucket serving the given objects in the given order.
func NewFakeBucket(pageSize int, objects ...FakeObject) *FakeBucket {
	return &FakeBucket{objects: objects, PageSize: pageSize}
}

// Client returns a MockS3Client backed by this bucket.
func (b *FakeBucket) Client() *MockS3Client {
	return &MockS3Client{
		ListObjectsV2Func: b.listObjectsV2,
		GetObjectFunc:     b.getObject,
	}
}

func (b *FakeBucket) listObjectsV2(
	_ context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prefix := aws.ToString(params.Prefix)

	var matched []FakeObject
	for _, obj := range b.objects {
		if strings.HasPrefix(obj.Key, prefix) {
			matched = append(matched, obj)
		}
	}

	start := 0
	if params.ContinuationToken != nil {
		var err error
		start, err = strconv.Atoi(aws.ToString(params.ContinuationToken))
		if err != nil {
			return nil, fmt.Errorf("bad continuation token: %w", err)
		}
	}

	pageSize := b.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	output := &s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(end < len(matched)),
	}
	for _, obj := range matched[start:end] {
		output.Contents = append(output.Contents, types.Object{
			Key:  aws.String(obj.Key),
			Size: aws.Int64(int64(len(obj.Body))),
		})
	}
	if end < len(matched) {
		output.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return output, nil
}

func (b *FakeBucket) getObject(
	_ context.Context,
	params *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	b.GetCalls++
	key := aws.ToString(params.Key)
	if err, ok := b.FailKeys[key]; ok {
		b.mu.Unlock()
		return nil, err
	}

	var body []byte
	found := false
	for _, obj := range b.objects {
		if obj.Key == key {
			body = obj.Body
			found = true
			break
		}
	}
	b.mu.Unlock()

	if !found {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}

	if params.Range != nil {
		start, end, err := parseRange(aws.ToString(params.Range), int64(len(body)))
		if err != nil {
			return nil, err
		}
		body = body[start : end+1]
	}

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(string(body))),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

// parseRange parses a "bytes=start-end" header value against the object size.
func parseRange(spec string, size int64) (int64, int64, error) {
	spec = strings.TrimPrefix(spec, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad range spec %q", spec)
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range start %q", parts[0])
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad range end %q", parts[1])
	}
	if start < 0 || end >= size || start > end {
		return 0, 0, fmt.Errorf("range %q out of bounds for size %d", spec, size)
	}
	return start, end, nil
}
