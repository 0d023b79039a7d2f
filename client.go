// Package unifier provides client initialization and configuration.
//
// The Client provides a high-level interface for the Unifier API, supporting
// dataset queries and replication of datasets into a local directory, with
// configurable options for concurrency tuning and error handling.
package unifier

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/joho/godotenv"

	"github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/api"
	"github.com/xtech-analytics/data-unifier/internal/broker"
	"github.com/xtech-analytics/data-unifier/internal/s3api"
	"github.com/xtech-analytics/data-unifier/internal/tool"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

// Environment variables consumed by NewFromEnv.
const (
	EnvURL   = "UNIFIER_URL"
	EnvUser  = "UNIFIER_USER"
	EnvToken = "UNIFIER_TOKEN"
)

// s3Factory builds a storage client scoped to one manifest's credentials.
type s3Factory func(ctx context.Context, manifest *unifiertypes.Manifest) (s3api.S3API, error)

// toolRunner is the delegated-tool surface the orchestrator depends on.
type toolRunner interface {
	Available() bool
	BuildInvocation(
		manifest *unifiertypes.Manifest,
		targetDir string,
		bandwidthLimitMB int,
		filters []string,
	) *tool.Invocation
	Execute(ctx context.Context, inv *tool.Invocation) error
}

// Client is a Unifier API client. It is safe for concurrent use: its
// configuration is fixed at construction and every replication run builds its
// own manifest-scoped storage client.
type Client struct {
	cfg    unifiertypes.ClientConfig
	api    *api.Client
	broker *broker.Broker
	runner toolRunner
	fs     fs.Filesystem
	logger *slog.Logger

	// newS3 is replaceable in tests
	newS3 s3Factory
}

// New creates a Unifier client from the given options. BaseURL, user, and
// token are required.
func New(opts ...unifiertypes.Option) (*Client, error) {
	cfg := unifiertypes.ClientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.BaseURL == "" {
		return nil, errors.NewValidationError("client initialization", "base URL is required")
	}
	if cfg.User == "" || cfg.Token == "" {
		return nil, errors.NewValidationError("client initialization", "user and token are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	apiClient := api.New(cfg.BaseURL, cfg.HTTPClient)

	return &Client{
		cfg:    cfg,
		api:    apiClient,
		broker: broker.New(apiClient, cfg.User, cfg.Token, cfg.BrokerTimeout),
		runner: tool.NewRunner(cfg.ToolName, logger),
		fs:     filesystem,
		logger: logger,
		newS3:  manifestS3Client,
	}, nil
}

// NewFromEnv creates a client configured from the environment, loading a
// .env file first if one is present. Explicit options override environment
// values.
func NewFromEnv(opts ...unifiertypes.Option) (*Client, error) {
	// A missing .env file is fine; the variables may be set directly.
	_ = godotenv.Load()

	base := []unifiertypes.Option{
		WithBaseURL(os.Getenv(EnvURL)),
		WithCredentials(os.Getenv(EnvUser), os.Getenv(EnvToken)),
	}
	return New(append(base, opts...)...)
}

// manifestS3Client builds an S3 client from a manifest's temporary
// credentials. A custom endpoint switches to path-style addressing, which
// S3-compatible stores generally require.
func manifestS3Client(
	ctx context.Context,
	manifest *unifiertypes.Manifest,
) (s3api.S3API, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(manifest.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			manifest.AccessKeyID, manifest.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, errors.NewError("storage client initialization", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if manifest.Endpoint != "" {
			o.BaseEndpoint = aws.String(manifest.Endpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}
