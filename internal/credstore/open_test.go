package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestOpen_MigratesAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "creds.db")

	s, db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, s.Set(ctx, KeyDeviceUUID, "uuid-1"))
	v, err := s.Get(ctx, KeyDeviceUUID)
	require.NoError(t, err)
	require.Equal(t, "uuid-1", v)
}

func TestOpen_IsIdempotentAcrossReopens(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "creds.db")

	s1, db1, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, KeyAuthToken, "tok-1"))
	require.NoError(t, db1.Close())

	s2, db2, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db2.Close() })

	v, err := s2.Get(ctx, KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "tok-1", v)
}
