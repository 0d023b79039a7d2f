package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uerrors "github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

func testManifest() *unifiertypes.Manifest {
	return &unifiertypes.Manifest{
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
		Endpoint:        "https://storage.example.com",
		Region:          "eu-west-1",
		Bucket:          "datasets",
		Prefix:          "ds1",
	}
}

func TestBuildInvocation_Basic(t *testing.T) {
	r := NewRunner("", nil)
	inv := r.BuildInvocation(testManifest(), "/data/ds1", 0, nil)

	assert.Equal(t, "rclone", inv.Program)
	assert.Equal(t, []string{"copy", "unifier:datasets/ds1/", "/data/ds1", "--progress"}, inv.Args)
	assert.Equal(t, "s3", inv.Env["RCLONE_CONFIG_UNIFIER_TYPE"])
	assert.Equal(t, "AKIATEST", inv.Env["RCLONE_CONFIG_UNIFIER_ACCESS_KEY_ID"])
	assert.Equal(t, "secret", inv.Env["RCLONE_CONFIG_UNIFIER_SECRET_ACCESS_KEY"])
	assert.Equal(t, "eu-west-1", inv.Env["RCLONE_CONFIG_UNIFIER_REGION"])
	assert.Equal(t, "https://storage.example.com", inv.Env["RCLONE_CONFIG_UNIFIER_ENDPOINT"])
}

func TestBuildInvocation_SourceAlwaysEndsWithSeparator(t *testing.T) {
	m := testManifest()
	m.Prefix = "ds1/nested/"

	r := NewRunner("", nil)
	inv := r.BuildInvocation(m, "/data/ds1", 0, nil)

	assert.Equal(t, "unifier:datasets/ds1/nested/", inv.Args[1])
}

func TestBuildInvocation_BandwidthAndFilters(t *testing.T) {
	r := NewRunner("", nil)
	inv := r.BuildInvocation(testManifest(), "/data/ds1", 50, []string{"/2024/*", "archive/full.csv"})

	assert.Equal(t, []string{
		"copy", "unifier:datasets/ds1/", "/data/ds1", "--progress",
		"--bwlimit", "50M",
		"--include", "2024/**",
		"--include", "archive/full.csv",
	}, inv.Args)
}

func TestBuildInvocation_NoEndpointVariableForDefaultEndpoint(t *testing.T) {
	m := testManifest()
	m.Endpoint = ""

	r := NewRunner("", nil)
	inv := r.BuildInvocation(m, "/data/ds1", 0, nil)

	_, ok := inv.Env["RCLONE_CONFIG_UNIFIER_ENDPOINT"]
	assert.False(t, ok)
}

func TestAvailable(t *testing.T) {
	r := NewRunner("", nil)

	r.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	assert.True(t, r.Available())

	r.lookPath = func(name string) (string, error) { return "", errors.New("not found") }
	assert.False(t, r.Available())
}

func TestExecute_Success(t *testing.T) {
	r := NewRunner("", nil)
	err := r.Execute(context.Background(), &Invocation{Program: "sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)
}

func TestExecute_PassesScopedEnvironment(t *testing.T) {
	r := NewRunner("", nil)
	inv := &Invocation{
		Program: "sh",
		Args:    []string{"-c", `test "$RCLONE_CONFIG_UNIFIER_TYPE" = s3`},
		Env:     map[string]string{"RCLONE_CONFIG_UNIFIER_TYPE": "s3"},
	}
	require.NoError(t, r.Execute(context.Background(), inv))
}

func TestExecute_NonZeroExit(t *testing.T) {
	r := NewRunner("", nil)
	err := r.Execute(context.Background(), &Invocation{
		Program: "sh",
		Args:    []string{"-c", "echo transfer stalled >&2; exit 3"},
	})

	require.Error(t, err)
	assert.True(t, uerrors.IsToolExecution(err))
	assert.Contains(t, err.Error(), "code 3")
	assert.Contains(t, err.Error(), "transfer stalled")
}

func TestExecute_SpawnFailure(t *testing.T) {
	r := NewRunner("", nil)
	err := r.Execute(context.Background(), &Invocation{Program: "definitely-not-installed-tool"})

	require.Error(t, err)
	assert.True(t, uerrors.IsToolExecution(err))
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "final", lastLine("first\nsecond\nfinal\n"))
	assert.Equal(t, "only", lastLine("only"))
	assert.Equal(t, "", lastLine("\n\n"))
}
