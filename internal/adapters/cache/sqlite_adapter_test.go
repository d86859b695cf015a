package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	adapter, err := NewSQLiteAdapter(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter
}

func TestSQLiteSetGet(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "diagnosis:session", []byte(`{"id":"abc"}`), 0))

	value, err := adapter.Get(ctx, "diagnosis:session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"abc"}`), value)
}

func TestSQLiteGetMissing(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "absent")
	assert.Error(t, err)
}

func TestSQLiteOverwrite(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "key", []byte("first"), 0))
	require.NoError(t, adapter.Set(ctx, "key", []byte("second"), 0))

	value, err := adapter.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
}

func TestSQLiteExpiry(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "ephemeral", []byte("x"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err := adapter.Get(ctx, "ephemeral")
	assert.Error(t, err)

	// The expired row is deleted as a side effect of the read.
	keys, err := adapter.Keys(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLiteDelete(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "key", []byte("x"), 0))
	require.NoError(t, adapter.Delete(ctx, "key"))

	_, err := adapter.Get(ctx, "key")
	assert.Error(t, err)
}

func TestSQLiteKeysPrefix(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "diagnosis:enrichment:a", []byte("1"), 0))
	require.NoError(t, adapter.Set(ctx, "diagnosis:enrichment:b", []byte("2"), 0))
	require.NoError(t, adapter.Set(ctx, "other:key", []byte("3"), 0))

	keys, err := adapter.Keys(ctx, "diagnosis:enrichment:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"diagnosis:enrichment:a", "diagnosis:enrichment:b"}, keys)
}
