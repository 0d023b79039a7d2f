// Package unifier provides functional options for configuring the client.
// These options follow the functional options pattern for clean, composable
// configuration.
package unifier

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

// WithBaseURL sets the Unifier API endpoint.
func WithBaseURL(baseURL string) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithCredentials sets the API identity used for queries and credential
// acquisition.
func WithCredentials(user, token string) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.User = user
		c.Token = token
	}
}

// WithBrokerTimeout bounds the credential-fetch request.
// Default is 30 seconds.
func WithBrokerTimeout(timeout time.Duration) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.BrokerTimeout = timeout
	}
}

// WithHTTPClient overrides the HTTP client used for API calls.
// This is useful for testing or custom transport configuration.
func WithHTTPClient(httpClient *http.Client) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.HTTPClient = httpClient
	}
}

// WithLogger sets the logger receiving state transitions and progress output.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithMaxParallelFiles bounds cross-file download concurrency on the native
// path. Default is 10.
func WithMaxParallelFiles(n int) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		if n > 0 {
			c.MaxParallelFiles = n
		}
	}
}

// WithMultipartThreshold sets the object size above which ranged part
// downloads are used. Default is 25 MiB.
func WithMultipartThreshold(bytes int64) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		if bytes > 0 {
			c.MultipartThreshold = bytes
		}
	}
}

// WithMaxPartsPerFile bounds cross-part concurrency within one large object.
// Default is 10.
func WithMaxPartsPerFile(n int) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		if n > 0 {
			c.MaxPartsPerFile = n
		}
	}
}

// WithPartSize sets the byte range fetched per part request.
// Default is 8 MiB.
func WithPartSize(bytes int64) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		if bytes > 0 {
			c.PartSize = bytes
		}
	}
}

// WithToolName sets the delegated sync tool binary looked up on PATH.
// Default is "rclone".
func WithToolName(name string) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.ToolName = name
	}
}

// WithFilesystem sets the destination filesystem for native transfers.
// This is useful for testing with an in-memory filesystem.
func WithFilesystem(filesystem fs.Filesystem) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithProgressTracker registers a tracker receiving progress callbacks during
// native transfers. Implementations must be safe for concurrent use.
func WithProgressTracker(tracker unifiertypes.ProgressTracker) unifiertypes.Option {
	return func(c *unifiertypes.ClientConfig) {
		c.Tracker = tracker
	}
}
