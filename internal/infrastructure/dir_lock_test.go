package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockDir(t *testing.T) {
	dir := t.TempDir()

	unlock, err := LockDir(dir)
	require.NoError(t, err)

	_, err = LockDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirLocked)

	require.NoError(t, unlock())

	unlock, err = LockDir(dir)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
