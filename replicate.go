// Package unifier provides dataset replication: credential acquisition,
// transfer path selection, and supervision of the chosen transfer.
package unifier

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/filter"
	"github.com/xtech-analytics/data-unifier/internal/planner"
	"github.com/xtech-analytics/data-unifier/internal/transfer"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

// transferStrategy is one way of moving a dataset to the target directory.
type transferStrategy interface {
	name() unifiertypes.Strategy
	execute(
		ctx context.Context,
		manifest *unifiertypes.Manifest,
		req *unifiertypes.ReplicationRequest,
	) (*unifiertypes.Outcome, error)
}

// Replicate copies one dataset into a local directory. It acquires scoped
// storage credentials, then transfers either through the delegated sync tool
// (when installed and not disabled) or through the client's own parallel
// download path. Any failure is terminal for the run; nothing is retried.
func (c *Client) Replicate(
	ctx context.Context,
	req *unifiertypes.ReplicationRequest,
) (*unifiertypes.Outcome, error) {
	if req == nil || req.Name == "" {
		return nil, errors.NewValidationError("replicate", "dataset name is required")
	}
	if req.TargetDir == "" {
		return nil, errors.NewValidationError("replicate", "target directory is required")
	}

	c.logger.Info("fetching replication credentials", "dataset", req.Name)

	manifest, err := c.broker.Acquire(ctx, req)
	if err != nil {
		c.logger.Error("credential acquisition failed", "dataset", req.Name, "error", err)
		return nil, withDataset(err, req.Name)
	}

	strategy := c.selectStrategy(req)
	c.logger.Info("starting transfer",
		"dataset", req.Name, "strategy", string(strategy.name()), "manifest", *manifest)

	outcome, err := strategy.execute(ctx, manifest, req)
	if err != nil {
		c.logger.Error("replication failed", "dataset", req.Name, "error", err)
		return nil, withDataset(err, req.Name)
	}

	c.logger.Info("replication complete",
		"dataset", req.Name, "strategy", string(outcome.Strategy), "duration", outcome.Duration)
	return outcome, nil
}

// selectStrategy picks the transfer path: the delegated tool when requested
// and installed, the native path otherwise.
func (c *Client) selectStrategy(req *unifiertypes.ReplicationRequest) transferStrategy {
	if !req.ForceNative {
		if c.runner.Available() {
			return &delegatedStrategy{client: c}
		}
		c.logger.Warn("delegated tool not found on PATH, falling back to native transfer",
			"dataset", req.Name)
	}
	return &nativeStrategy{client: c}
}

// withDataset attaches the dataset name to a typed error if it does not carry
// one already.
func withDataset(err error, dataset string) error {
	var uerr *errors.Error
	if stderrors.As(err, &uerr) && uerr.Dataset == "" {
		uerr.Dataset = dataset
	}
	return err
}

// delegatedStrategy hands the transfer to the external sync tool.
type delegatedStrategy struct {
	client *Client
}

func (s *delegatedStrategy) name() unifiertypes.Strategy {
	return unifiertypes.StrategyDelegated
}

func (s *delegatedStrategy) execute(
	ctx context.Context,
	manifest *unifiertypes.Manifest,
	req *unifiertypes.ReplicationRequest,
) (*unifiertypes.Outcome, error) {
	start := time.Now()

	inv := s.client.runner.BuildInvocation(manifest, req.TargetDir, req.BandwidthLimitMB, manifest.Folders)
	if err := s.client.runner.Execute(ctx, inv); err != nil {
		return nil, err
	}

	return &unifiertypes.Outcome{
		Dataset:  req.Name,
		Strategy: unifiertypes.StrategyDelegated,
		Duration: time.Since(start),
	}, nil
}

// nativeStrategy lists, plans, and downloads the dataset with the client's
// own bounded-parallel transfer code.
type nativeStrategy struct {
	client *Client
}

func (s *nativeStrategy) name() unifiertypes.Strategy {
	return unifiertypes.StrategyNative
}

func (s *nativeStrategy) execute(
	ctx context.Context,
	manifest *unifiertypes.Manifest,
	req *unifiertypes.ReplicationRequest,
) (*unifiertypes.Outcome, error) {
	c := s.client

	storage, err := c.newS3(ctx, manifest)
	if err != nil {
		return nil, err
	}

	// Listing wants the prefix as a directory boundary; the relative keys
	// the filter sees must not start with a separator.
	prefix := manifest.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	tasks, err := planner.New(storage).Plan(
		ctx, manifest.Bucket, prefix, req.TargetDir, filter.Compile(manifest.Folders))
	if err != nil {
		return nil, err
	}
	c.logger.Info("transfer plan built", "dataset", req.Name, "files", len(tasks))

	executor := transfer.New(storage, c.fs, &transfer.Config{
		MaxParallelFiles:   c.cfg.MaxParallelFiles,
		MultipartThreshold: c.cfg.MultipartThreshold,
		MaxPartsPerFile:    c.cfg.MaxPartsPerFile,
		PartSize:           c.cfg.PartSize,
		ProgressTracker:    c.cfg.Tracker,
		Logger:             c.logger,
	})

	result, err := executor.Run(ctx, tasks)
	if err != nil {
		return nil, err
	}

	return &unifiertypes.Outcome{
		Dataset:        req.Name,
		Strategy:       unifiertypes.StrategyNative,
		TotalFiles:     result.TotalFiles,
		CompletedFiles: result.CompletedFiles,
		Duration:       result.Duration,
	}, nil
}
