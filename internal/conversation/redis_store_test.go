package conversation

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisSessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client)
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	got, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, got, "unknown user must yield nil session")

	sess := NewSession("U1")
	sess.State = StateWaitFilledImage
	sess.StoreName = "Blue Moon Cafe"
	sess.StoreID = 424242
	sess.SeatInfo = "2人席:4"
	sess.TimeSlots = []string{"18:00", "18:30"}
	sess.SheetURL = "https://docs.google.com/spreadsheets/d/x/edit"
	require.NoError(t, store.Put(ctx, sess))

	got, err = store.Get(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StateWaitFilledImage, got.State)
	assert.Equal(t, "Blue Moon Cafe", got.StoreName)
	assert.Equal(t, 424242, got.StoreID)
	assert.Equal(t, []string{"18:00", "18:30"}, got.TimeSlots)
	assert.Equal(t, sess.SheetURL, got.SheetURL)
}

func TestRedisSessionStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	sess := NewSession("U1")
	require.NoError(t, store.Put(ctx, sess))
	sess.State = StateDone
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StateDone, got.State)
}

func TestRedisSessionStoreIgnoresEmptyUserID(t *testing.T) {
	store := newTestRedisStore(t)
	require.NoError(t, store.Put(context.Background(), nil))
	require.NoError(t, store.Put(context.Background(), &Session{}))
}
