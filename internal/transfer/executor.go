// Package transfer executes a download plan against the destination
// filesystem. Concurrency is two-tiered: a bounded pool across files, and a
// second bound across ranged parts within any single large object.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/planner"
	"github.com/xtech-analytics/data-unifier/internal/s3api"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

const (
	// DefaultMaxParallelFiles bounds cross-file concurrency
	DefaultMaxParallelFiles = 10

	// DefaultMultipartThreshold is the object size above which ranged part
	// downloads are used
	DefaultMultipartThreshold = 25 * 1024 * 1024

	// DefaultMaxPartsPerFile bounds cross-part concurrency within one object
	DefaultMaxPartsPerFile = 10

	// DefaultPartSize is the byte range fetched per part request
	DefaultPartSize = 8 * 1024 * 1024

	// progressEvery is the completed-file cadence of progress reports
	progressEvery = 10
)

// Config tunes an Executor. Zero values fall back to the defaults above.
type Config struct {
	MaxParallelFiles   int
	MultipartThreshold int64
	MaxPartsPerFile    int
	PartSize           int64
	ProgressTracker    unifiertypes.ProgressTracker
	Logger             *slog.Logger
}

// Executor runs download plans with bounded parallelism.
type Executor struct {
	client s3api.S3API
	fs     fs.Filesystem

	maxFiles  int
	threshold int64
	maxParts  int
	partSize  int64

	tracker unifiertypes.ProgressTracker
	logger  *slog.Logger
}

// Result is the aggregate outcome of one native transfer run.
type Result struct {
	// TotalFiles is the number of planned downloads
	TotalFiles int

	// CompletedFiles is the number of downloads that finished
	CompletedFiles int

	// Duration is the wall-clock time of the run
	Duration time.Duration
}

// New creates an Executor over the given storage client and destination
// filesystem.
func New(client s3api.S3API, filesystem fs.Filesystem, cfg *Config) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}

	e := &Executor{
		client:    client,
		fs:        filesystem,
		maxFiles:  cfg.MaxParallelFiles,
		threshold: cfg.MultipartThreshold,
		maxParts:  cfg.MaxPartsPerFile,
		partSize:  cfg.PartSize,
		tracker:   cfg.ProgressTracker,
		logger:    cfg.Logger,
	}
	if e.maxFiles <= 0 {
		e.maxFiles = DefaultMaxParallelFiles
	}
	if e.threshold <= 0 {
		e.threshold = DefaultMultipartThreshold
	}
	if e.maxParts <= 0 {
		e.maxParts = DefaultMaxPartsPerFile
	}
	if e.partSize <= 0 {
		e.partSize = DefaultPartSize
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run downloads every task with bounded parallelism. The first failing file
// aborts the whole run: remaining workers are cancelled and the failure is
// returned as a transfer error carrying the failing key. Cancellation of the
// caller's context likewise aborts the run and is returned as an error, never
// as a partial success. Files already written stay on disk. An empty plan
// succeeds immediately without starting the pool.
func (e *Executor) Run(ctx context.Context, tasks []planner.Task) (*Result, error) {
	start := time.Now()
	result := &Result{TotalFiles: len(tasks)}

	if len(tasks) == 0 {
		e.logger.Info("no files matched, nothing to transfer")
		if e.tracker != nil {
			e.tracker.Complete()
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, e.maxFiles)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var completed int64
	total := int64(len(tasks))

dispatch:
	for _, task := range tasks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(task planner.Task) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if ctx.Err() != nil {
				return
			}

			if err := e.download(ctx, task); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.NewError("download",
						fmt.Errorf("%w: %v", errors.ErrTransfer, err)).WithKey(task.Key)
					cancel()
				}
				mu.Unlock()
				return
			}

			done := atomic.AddInt64(&completed, 1)
			if done%progressEvery == 0 {
				e.logger.Info("transfer progress", "completed", done, "total", total)
				if e.tracker != nil {
					e.tracker.Update(done, total)
				}
			}
		}(task)
	}

	wg.Wait()

	result.CompletedFiles = int(atomic.LoadInt64(&completed))
	result.Duration = time.Since(start)

	// Cancellation from outside leaves firstErr unset but the plan only
	// partially transferred; that must not look like success.
	if firstErr == nil && ctx.Err() != nil {
		firstErr = errors.NewError("download", fmt.Errorf("run cancelled: %w", ctx.Err()))
	}

	if firstErr != nil {
		if e.tracker != nil {
			e.tracker.Error(firstErr)
		}
		return result, firstErr
	}

	e.logger.Info("transfer complete", "files", result.CompletedFiles, "duration", result.Duration)
	if e.tracker != nil {
		e.tracker.Update(total, total)
		e.tracker.Complete()
	}
	return result, nil
}

// download fetches one object to its destination, choosing whole-object or
// ranged-part transfer by size.
func (e *Executor) download(ctx context.Context, task planner.Task) error {
	// Workers race to create overlapping directory trees; MkdirAll is
	// create-if-absent so concurrent calls are safe.
	if dir := filepath.Dir(task.Dest); dir != "" && dir != "." {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if task.Size > e.threshold {
		return e.downloadParts(ctx, task)
	}
	return e.downloadWhole(ctx, task)
}

// downloadWhole streams one object with a single request, overwriting any
// existing destination file.
func (e *Executor) downloadWhole(ctx context.Context, task planner.Task) error {
	output, err := e.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(task.Bucket),
		Key:    aws.String(task.Key),
	})
	if err != nil {
		return fmt.Errorf("get object: %w", err)
	}
	defer output.Body.Close()

	file, err := e.fs.Create(task.Dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, output.Body); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	return nil
}
