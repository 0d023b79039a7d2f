// Package unifiertypes provides shared type definitions for the Unifier client.
package unifiertypes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// ClientConfig holds the configuration for a Unifier client.
// A config is assembled once by functional options and is immutable for the
// lifetime of the client; concurrent use of one client is safe by construction.
type ClientConfig struct {
	// BaseURL is the Unifier API endpoint
	BaseURL string

	// User identifies the caller to the Unifier API
	User string

	// Token authenticates the caller to the Unifier API
	Token string

	// BrokerTimeout bounds the credential-fetch request
	BrokerTimeout time.Duration

	// HTTPClient overrides the HTTP client used for API calls
	HTTPClient *http.Client

	// Logger receives state transitions and progress output
	Logger *slog.Logger

	// MaxParallelFiles bounds cross-file download concurrency
	MaxParallelFiles int

	// MultipartThreshold is the object size above which ranged part
	// downloads are used
	MultipartThreshold int64

	// MaxPartsPerFile bounds cross-part concurrency within one object
	MaxPartsPerFile int

	// PartSize is the byte range fetched per part request
	PartSize int64

	// ToolName is the delegated sync tool binary looked up on PATH
	ToolName string

	// Filesystem is the destination filesystem for native transfers
	Filesystem fs.Filesystem

	// Tracker receives progress callbacks during native transfers
	Tracker ProgressTracker
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// QueryConfig holds the optional parameters of one query call.
type QueryConfig struct {
	// Key restricts the query to a single key
	Key string

	// Keys restricts the query to a set of keys
	Keys []string

	// Limit caps the number of returned rows
	Limit int

	// AsofDate selects the snapshot date (YYYY-MM-DD)
	AsofDate string

	// AsofBackTo selects the earliest snapshot date to include
	AsofBackTo string

	// BackTo is the lower temporal bound
	BackTo string

	// UpTo is the upper temporal bound
	UpTo string

	// DisableView bypasses the server-side view
	DisableView bool
}

// QueryOption configures a QueryConfig.
type QueryOption func(*QueryConfig)

// ReplicationRequest describes one replication run. It is immutable input:
// every field is fixed before the run starts.
type ReplicationRequest struct {
	// Name is the dataset name
	Name string

	// TargetDir is the local directory the dataset is replicated into
	TargetDir string

	// AsofDate optionally pins the snapshot date (YYYY-MM-DD)
	AsofDate string

	// BackTo is the optional lower temporal bound
	BackTo string

	// UpTo is the optional upper temporal bound
	UpTo string

	// BandwidthLimitMB caps the delegated tool's transfer rate in MB/s.
	// Zero means unlimited. Ignored on the native path.
	BandwidthLimitMB int

	// ForceNative skips the delegated tool even when it is installed
	ForceNative bool
}

// Manifest is the credential and location bundle the service issues for
// exactly one replication run. It is a capability token: short-lived, held in
// memory only, never persisted and never reused across runs.
type Manifest struct {
	// AccessKeyID is the temporary object-storage access key
	AccessKeyID string

	// SecretAccessKey is the temporary object-storage secret key
	SecretAccessKey string

	// Endpoint is the object-storage endpoint URL (empty for AWS default)
	Endpoint string

	// Region is the object-storage region
	Region string

	// Bucket is the storage bucket holding the dataset
	Bucket string

	// Prefix is the key prefix of the dataset within the bucket
	Prefix string

	// Folders are the server-supplied folder filter patterns
	Folders []string
}

// DataPath returns the bucket and prefix joined as a single storage path.
func (m *Manifest) DataPath() string {
	if m.Prefix == "" {
		return m.Bucket
	}
	return m.Bucket + "/" + m.Prefix
}

// LogValue implements slog.LogValuer so a Manifest can never leak its
// credentials through logging.
func (m Manifest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", m.Bucket),
		slog.String("prefix", m.Prefix),
		slog.String("region", m.Region),
		slog.Int("folders", len(m.Folders)),
	)
}

// Strategy names the transfer path a replication run took.
type Strategy string

const (
	// StrategyDelegated is replication via the external sync tool
	StrategyDelegated Strategy = "delegated-tool"

	// StrategyNative is replication via the client's own transfer code
	StrategyNative Strategy = "native"
)

// Outcome is the terminal report of one replication run.
type Outcome struct {
	// Dataset is the replicated dataset name
	Dataset string

	// Strategy is the transfer path that ran
	Strategy Strategy

	// TotalFiles is the number of matched objects (native path only)
	TotalFiles int

	// CompletedFiles is the number of objects downloaded (native path only)
	CompletedFiles int

	// Duration is the wall-clock time of the run
	Duration time.Duration
}

// Record is one row of a query result, keyed by column name.
type Record map[string]any

// ProgressTracker receives file-count progress during a native transfer.
// Implementations must be safe for concurrent use.
type ProgressTracker interface {
	// Update is called as files complete
	Update(completedFiles, totalFiles int64)

	// Complete is called when the transfer finishes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}
