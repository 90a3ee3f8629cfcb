package storage

import (
	"path/filepath"
	"testing"

	"github.com/nickwest/sunchaser/internal/core/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStoreRoundTrip(t *testing.T) {

	require := require.New(t)

	store := NewFileStateStore(filepath.Join(t.TempDir(), "state"), zap.NewNop())

	// missing file reads as empty, not an error
	value, err := store.Load()
	require.NoError(err)
	require.Empty(value)

	state := domain.AlignmentState{LastPowerWatt: 42.5, HighestPowerWatt: 50}
	require.NoError(store.Save(state.Encode()))

	value, err = store.Load()
	require.NoError(err)
	require.Equal(state, domain.DecodeAlignmentState(value))
	require.NoError(store.Close())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {

	require := require.New(t)

	store, err := NewSQLiteStateStore(filepath.Join(t.TempDir(), "state.db"), zap.NewNop())
	require.NoError(err)
	defer store.Close()

	value, err := store.Load()
	require.NoError(err)
	require.Empty(value)

	require.NoError(store.Save("5|8"))
	// second save overwrites, no second row
	require.NoError(store.Save("5|9"))

	value, err = store.Load()
	require.NoError(err)
	require.Equal("5|9", value)
}
