// Package broker acquires the scoped, time-limited storage credentials the
// service issues for one replication run and normalizes the response into a
// manifest.
package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/api"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

const (
	// DefaultTimeout bounds the credential-fetch request
	DefaultTimeout = 30 * time.Second

	// DefaultRegion is used when the service omits the storage region
	DefaultRegion = "us-east-1"
)

// Broker fetches replication manifests from the service.
type Broker struct {
	api     *api.Client
	user    string
	token   string
	timeout time.Duration
}

// New creates a Broker authenticating as the given user. A zero timeout falls
// back to DefaultTimeout.
func New(client *api.Client, user, token string, timeout time.Duration) *Broker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Broker{api: client, user: user, token: token, timeout: timeout}
}

type acquirePayload struct {
	Name     string `json:"name"`
	User     string `json:"user"`
	Token    string `json:"token"`
	AsofDate string `json:"asof_date,omitempty"`
	BackTo   string `json:"back_to,omitempty"`
	UpTo     string `json:"up_to,omitempty"`
}

type acquireResponse struct {
	Data struct {
		AccessKeyID     string `json:"access_key_id"`
		SecretAccessKey string `json:"secret_access_key"`
	} `json:"data"`
	DataPath string   `json:"data_path"`
	Folders  []string `json:"folders"`
	Endpoint string   `json:"endpoint"`
	Region   string   `json:"region"`
}

// Acquire requests credentials for one dataset replication and returns the
// manifest. The request carries the optional temporal bounds from the
// replication request and is bounded by the broker timeout.
func (b *Broker) Acquire(
	ctx context.Context,
	req *unifiertypes.ReplicationRequest,
) (*unifiertypes.Manifest, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	payload := acquirePayload{
		Name:     req.Name,
		User:     b.user,
		Token:    b.token,
		AsofDate: req.AsofDate,
		BackTo:   req.BackTo,
		UpTo:     req.UpTo,
	}

	var resp acquireResponse
	if err := b.api.PostJSON(ctx, "acquire", "/replicate", payload, &resp); err != nil {
		return nil, err
	}

	if resp.Data.AccessKeyID == "" || resp.Data.SecretAccessKey == "" {
		return nil, errors.NewError("acquire",
			fmt.Errorf("%w: manifest missing credentials", errors.ErrProtocol)).WithDataset(req.Name)
	}
	if resp.DataPath == "" {
		return nil, errors.NewError("acquire",
			fmt.Errorf("%w: manifest missing data path", errors.ErrProtocol)).WithDataset(req.Name)
	}

	bucket, prefix := splitDataPath(resp.DataPath)
	if bucket == "" {
		return nil, errors.NewError("acquire",
			fmt.Errorf("%w: manifest data path %q has no bucket", errors.ErrProtocol, resp.DataPath)).
			WithDataset(req.Name)
	}

	region := resp.Region
	if region == "" {
		region = DefaultRegion
	}

	return &unifiertypes.Manifest{
		AccessKeyID:     resp.Data.AccessKeyID,
		SecretAccessKey: resp.Data.SecretAccessKey,
		Endpoint:        resp.Endpoint,
		Region:          region,
		Bucket:          bucket,
		Prefix:          prefix,
		Folders:         resp.Folders,
	}, nil
}

// splitDataPath strips a storage URL scheme and splits the remainder into
// bucket and key prefix. Beyond the scheme the path is kept unchanged.
func splitDataPath(dataPath string) (bucket, prefix string) {
	path := dataPath
	for _, scheme := range []string{"s3://", "s3a://"} {
		if strings.HasPrefix(path, scheme) {
			path = strings.TrimPrefix(path, scheme)
			break
		}
	}

	bucket, prefix, found := strings.Cut(path, "/")
	if !found {
		return path, ""
	}
	return bucket, prefix
}
