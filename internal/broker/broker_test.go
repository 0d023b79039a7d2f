package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uerrors "github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/api"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

func newTestBroker(t *testing.T, handler http.HandlerFunc) *Broker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(api.New(server.URL, server.Client()), "alice", "tok-123", 0)
}

func manifestHandler(t *testing.T, body map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/replicate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}
}

func TestAcquire_FullManifest(t *testing.T) {
	var captured map[string]any
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{
				"access_key_id":     "AKIATEST",
				"secret_access_key": "secret",
			},
			"data_path": "s3://datasets/ds1",
			"folders":   []string{"2024/*"},
			"endpoint":  "https://storage.example.com",
			"region":    "eu-west-1",
		}))
	})

	m, err := b.Acquire(context.Background(), &unifiertypes.ReplicationRequest{
		Name:     "ds1",
		AsofDate: "2026-08-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "AKIATEST", m.AccessKeyID)
	assert.Equal(t, "secret", m.SecretAccessKey)
	assert.Equal(t, "https://storage.example.com", m.Endpoint)
	assert.Equal(t, "eu-west-1", m.Region)
	assert.Equal(t, "datasets", m.Bucket)
	assert.Equal(t, "ds1", m.Prefix)
	assert.Equal(t, []string{"2024/*"}, m.Folders)

	assert.Equal(t, "ds1", captured["name"])
	assert.Equal(t, "alice", captured["user"])
	assert.Equal(t, "tok-123", captured["token"])
	assert.Equal(t, "2026-08-01", captured["asof_date"])
	assert.NotContains(t, captured, "back_to", "unset temporal bounds are omitted")
	assert.NotContains(t, captured, "up_to")
}

func TestAcquire_DefaultsForOptionalFields(t *testing.T) {
	b := newTestBroker(t, manifestHandler(t, map[string]any{
		"data": map[string]string{
			"access_key_id":     "AKIATEST",
			"secret_access_key": "secret",
		},
		"data_path": "datasets/ds1/nested",
	}))

	m, err := b.Acquire(context.Background(), &unifiertypes.ReplicationRequest{Name: "ds1"})

	require.NoError(t, err)
	assert.Empty(t, m.Endpoint)
	assert.Equal(t, DefaultRegion, m.Region)
	assert.Equal(t, "datasets", m.Bucket)
	assert.Equal(t, "ds1/nested", m.Prefix)
	assert.Empty(t, m.Folders)
}

func TestAcquire_ServiceError(t *testing.T) {
	b := newTestBroker(t, manifestHandler(t, map[string]any{
		"error": "invalid token",
	}))

	_, err := b.Acquire(context.Background(), &unifiertypes.ReplicationRequest{Name: "ds1"})

	require.Error(t, err)
	assert.True(t, uerrors.IsAuth(err))
	assert.Contains(t, err.Error(), "invalid token")
}

func TestAcquire_IncompleteManifest(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "missing credentials",
			body: map[string]any{"data_path": "datasets/ds1"},
		},
		{
			name: "missing secret key",
			body: map[string]any{
				"data":      map[string]string{"access_key_id": "AKIATEST"},
				"data_path": "datasets/ds1",
			},
		},
		{
			name: "missing data path",
			body: map[string]any{
				"data": map[string]string{
					"access_key_id":     "AKIATEST",
					"secret_access_key": "secret",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBroker(t, manifestHandler(t, tt.body))
			_, err := b.Acquire(context.Background(), &unifiertypes.ReplicationRequest{Name: "ds1"})

			require.Error(t, err)
			assert.True(t, uerrors.IsProtocol(err))
			assert.Contains(t, err.Error(), "ds1", "protocol errors carry the dataset name")
		})
	}
}

func TestAcquire_TimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	b := New(api.New(server.URL, server.Client()), "alice", "tok-123", 50*time.Millisecond)
	_, err := b.Acquire(context.Background(), &unifiertypes.ReplicationRequest{Name: "ds1"})

	require.Error(t, err)
	assert.True(t, uerrors.IsNetwork(err))
}

func TestSplitDataPath(t *testing.T) {
	tests := []struct {
		dataPath string
		bucket   string
		prefix   string
	}{
		{"s3://datasets/ds1", "datasets", "ds1"},
		{"s3a://datasets/ds1/nested", "datasets", "ds1/nested"},
		{"datasets/ds1", "datasets", "ds1"},
		{"datasets", "datasets", ""},
		{"s3://datasets", "datasets", ""},
	}

	for _, tt := range tests {
		bucket, prefix := splitDataPath(tt.dataPath)
		assert.Equal(t, tt.bucket, bucket, tt.dataPath)
		assert.Equal(t, tt.prefix, prefix, tt.dataPath)
	}
}
