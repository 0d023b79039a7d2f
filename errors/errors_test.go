package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op only",
			err:  NewError("query", ErrNetwork),
			want: "unifier.query: unifier: network failure",
		},
		{
			name: "with dataset",
			err:  NewError("replicate", ErrAuth).WithDataset("prices"),
			want: "unifier.replicate dataset prices: unifier: authentication rejected",
		},
		{
			name: "with key",
			err:  NewError("download", ErrTransfer).WithKey("2024/a.csv"),
			want: "unifier.download object 2024/a.csv: unifier: object transfer failed",
		},
		{
			name: "with dataset and key",
			err:  NewError("download", ErrTransfer).WithDataset("prices").WithKey("2024/a.csv"),
			want: "unifier.download prices 2024/a.csv: unifier: object transfer failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("%w: dataset not found", ErrAuth)
	err := NewError("replicate", inner)

	require.ErrorIs(t, err, ErrAuth)
	assert.True(t, IsAuth(err))
	assert.False(t, IsNetwork(err))
}

func TestSentinelPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"auth", NewError("replicate", ErrAuth), IsAuth},
		{"protocol", NewError("replicate", ErrProtocol), IsProtocol},
		{"network", NewError("query", ErrNetwork), IsNetwork},
		{"tool", NewError("rclone", ErrToolExecution), IsToolExecution},
		{"transfer", NewError("download", ErrTransfer), IsTransfer},
		{"invalid input", NewValidationError("replicate", "name cannot be empty"), IsInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("replicate", "target directory cannot be empty")

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "target directory cannot be empty")
}
