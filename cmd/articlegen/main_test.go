package main

import (
	"errors"
	"testing"

	cl "articlegen/internal/cli"
	"articlegen/internal/config"
	"articlegen/internal/game"
	"articlegen/internal/syncq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnit(t *testing.T) {
	b := config.DefaultBalance()
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1", want: 0},
		{in: "9", want: 8},
		{in: "ghost", want: 1},
		{in: " Integral ", want: 8},
		{in: "0", wantErr: true},
		{in: "10", wantErr: true},
		{in: "nobody", wantErr: true},
	}
	for _, tc := range tests {
		got, err := resolveUnit(b, tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, game.ErrUnknownUnit, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestCountArg(t *testing.T) {
	n, err := countArg(nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = countArg([]string{"7"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	_, err = countArg([]string{"11"}, 10)
	assert.Error(t, err)
	_, err = countArg([]string{"x"}, 10)
	assert.Error(t, err)
}

func TestQueueOnNetworkError(t *testing.T) {
	syncq.Dir = t.TempDir()
	c := syncq.Command{Method: "POST", Path: "/v1/slots/a/click", IdempotencyKey: "k"}

	apiErr := &cl.APIError{Status: 409, Message: "nope"}
	assert.Same(t, apiErr, queueOnNetworkError(apiErr, c))
	queued, err := syncq.Load()
	require.NoError(t, err)
	assert.Empty(t, queued)

	require.NoError(t, queueOnNetworkError(errors.New("dial tcp: connection refused"), c))
	queued, err = syncq.Load()
	require.NoError(t, err)
	assert.Equal(t, []syncq.Command{c}, queued)
}
