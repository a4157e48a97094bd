package syncq

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.New("connection refused")

func TestPushLoadReplay(t *testing.T) {
	Dir = t.TempDir()

	got, err := Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, Push(Command{Method: "POST", Path: "/v1/slots/x/" + key, IdempotencyKey: key}))
	}
	info, err := os.Stat(filepath.Join(Dir, "queue.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	sent, remaining, err := Replay(func(c Command) error {
		switch c.IdempotencyKey {
		case "b":
			return errOffline
		case "c":
			return errors.New("api status 409: duplicate")
		}
		return nil
	}, func(err error) bool { return errors.Is(err, errOffline) })
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].IdempotencyKey)

	got, err = Load()
	require.NoError(t, err)
	assert.Equal(t, remaining, got)
}
