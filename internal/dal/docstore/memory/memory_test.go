package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/corray333/backend-labs/booking/internal/dal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialKeys() func() string {
	n := 0

	return func() string {
		n++

		return fmt.Sprintf("key-%03d", n)
	}
}

func TestStore_ReadOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	snap, err := s.ReadOnce(ctx, "orders/missing")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
	assert.Equal(t, "missing", snap.Key())

	require.NoError(t, s.Write(ctx, "orders/a", map[string]any{"title": "Trip", "bookingDate": 1700000000000}))

	snap, err = s.ReadOnce(ctx, "orders/a")
	require.NoError(t, err)
	require.True(t, snap.Exists())
	assert.JSONEq(t, `{"title":"Trip","bookingDate":1700000000000}`, string(snap.Raw()))

	snap, err = s.ReadOnce(ctx, "orders")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"title":"Trip","bookingDate":1700000000000}}`, string(snap.Raw()))

	_, err = s.ReadOnce(ctx, "orders/a.b")
	assert.ErrorIs(t, err, docstore.ErrInvalidPath)
}

func TestStore_Write(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Write(ctx, "orders/a", map[string]any{"title": "one", "extra": true}))
	require.NoError(t, s.Write(ctx, "orders/a", map[string]any{"title": "two"}))

	snap, err := s.ReadOnce(ctx, "orders/a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"two"}`, string(snap.Raw()))

	require.NoError(t, s.Write(ctx, "orders/a", nil))

	snap, err = s.ReadOnce(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "empty parents are pruned")
}

func TestStore_Merge(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Write(ctx, "orders/a", map[string]any{
		"title":   "Trip",
		"address": map[string]any{"city": "Berlin"},
	}))
	require.NoError(t, s.Merge(ctx, "orders/a", map[string]any{"title": "T2", "bookingDate": 1}))

	snap, err := s.ReadOnce(ctx, "orders/a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"T2","bookingDate":1,"address":{"city":"Berlin"}}`, string(snap.Raw()))

	require.NoError(t, s.Merge(ctx, "orders/b", map[string]any{"title": "created"}))

	snap, err = s.ReadOnce(ctx, "orders/b")
	require.NoError(t, err)
	assert.True(t, snap.Exists(), "merge creates absent paths")

	assert.ErrorIs(t, s.Merge(ctx, "orders/a", map[string]any{"a/b": 1}), docstore.ErrInvalidPath)
}

func TestStore_Insert(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithKeyGenerator(sequentialKeys()))

	k1, err := s.Insert(ctx, "orders", map[string]any{"title": "one"})
	require.NoError(t, err)
	k2, err := s.Insert(ctx, "orders/", map[string]any{"title": "two"})
	require.NoError(t, err)

	assert.Equal(t, "key-001", k1)
	assert.Equal(t, "key-002", k2)

	snap, err := s.ReadOnce(ctx, "orders")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key-001":{"title":"one"},"key-002":{"title":"two"}}`, string(snap.Raw()))
}

func TestStore_ReadContinuous(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewStore(WithKeyGenerator(sequentialKeys()))
	snapshots := make(chan docstore.Snapshot, 16)

	stop, err := s.ReadContinuous(ctx, "orders", func(snap docstore.Snapshot) {
		snapshots <- snap
	}, nil)
	require.NoError(t, err)
	defer stop()

	next := func() docstore.Snapshot {
		t.Helper()
		select {
		case snap := <-snapshots:
			return snap
		case <-time.After(time.Second):
			require.FailNow(t, "no snapshot delivered")

			return docstore.Snapshot{}
		}
	}

	assert.False(t, next().Exists(), "initial value is delivered")

	_, err = s.Insert(ctx, "orders", map[string]any{"title": "one"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key-001":{"title":"one"}}`, string(next().Raw()))

	require.NoError(t, s.Write(ctx, "users/x", map[string]any{"name": "n"}))
	require.NoError(t, s.Merge(ctx, "orders/key-001", map[string]any{"title": "two"}))
	assert.JSONEq(t, `{"key-001":{"title":"two"}}`, string(next().Raw()), "unrelated paths do not notify")

	stop()
	require.NoError(t, s.Write(ctx, "orders/key-001", nil))

	select {
	case snap := <-snapshots:
		assert.Failf(t, "unexpected snapshot after stop", "%s", snap.Raw())
	case <-time.After(50 * time.Millisecond):
	}
}
