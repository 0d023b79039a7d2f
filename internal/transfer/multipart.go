package transfer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xtech-analytics/data-unifier/internal/planner"
)

// downloadParts fetches one large object as concurrent byte-range requests
// and writes the parts to the destination in order. In-flight and not yet
// written parts are bounded by the per-file part concurrency, which also
// bounds buffered memory to roughly maxParts * partSize.
func (e *Executor) downloadParts(ctx context.Context, task planner.Task) error {
	file, err := e.fs.Create(task.Dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer file.Close()

	numParts := int((task.Size + e.partSize - 1) / e.partSize)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	// One single-buffered channel per part. Window slots are acquired in
	// part order by the dispatch goroutine and released by the writer once
	// the part is on disk, so at most maxParts admitted-but-unwritten
	// parts exist at any time and the lowest unwritten part always holds
	// a slot. Out-of-order admission could fill the window with parts
	// ahead of the write cursor and deadlock against the in-order writer.
	parts := make([]chan []byte, numParts)
	for i := range parts {
		parts[i] = make(chan []byte, 1)
	}
	window := make(chan struct{}, e.maxParts)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < numParts; i++ {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}

			wg.Add(1)
			go func(part int) {
				defer wg.Done()

				data, err := e.fetchPart(ctx, task, part)
				if err != nil {
					fail(fmt.Errorf("part %d: %w", part+1, err))
					return
				}
				parts[part] <- data
			}(i)
		}
	}()

	for i := range parts {
		select {
		case data := <-parts[i]:
			if _, err := file.Write(data); err != nil {
				fail(fmt.Errorf("write part %d: %w", i+1, err))
				return firstError(&mu, &firstErr, ctx)
			}
			<-window
		case <-ctx.Done():
			return firstError(&mu, &firstErr, ctx)
		}
	}
	return nil
}

// fetchPart retrieves one byte range of the object.
func (e *Executor) fetchPart(ctx context.Context, task planner.Task, part int) ([]byte, error) {
	start := int64(part) * e.partSize
	end := start + e.partSize
	if end > task.Size {
		end = task.Size
	}

	output, err := e.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(task.Bucket),
		Key:    aws.String(task.Key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("get range: %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	return data, nil
}

// firstError reports the recorded failure, falling back to the context error
// when the run was cancelled from outside.
func firstError(mu *sync.Mutex, firstErr *error, ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if *firstErr != nil {
		return *firstErr
	}
	return ctx.Err()
}
