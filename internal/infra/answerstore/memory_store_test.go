package answerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAnswerRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.GetAnswer(ctx, "chi era dante")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.SaveAnswer(ctx, "chi era dante", "Dante Alighieri è stato un poeta.", time.Minute))

	answer, found, err := store.GetAnswer(ctx, "chi era dante")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Dante Alighieri è stato un poeta.", answer)
}

func TestMemoryStoreAnswerExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SaveAnswer(ctx, "chi era dante", "risposta", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := store.GetAnswer(ctx, "chi era dante")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreTopQueries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.IncrementQuery(ctx, "chi era dante", "Chi era Dante"))
	}
	require.NoError(t, store.IncrementQuery(ctx, "che tempo fa", "Che tempo fa"))

	top, err := store.TopQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "Chi era Dante", top[0].Query)
	require.Equal(t, int64(3), top[0].Count)
	require.Equal(t, "Che tempo fa", top[1].Query)
	require.Equal(t, int64(1), top[1].Count)
}

func TestMemoryStoreTopQueriesLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.IncrementQuery(ctx, "a", "a"))
	require.NoError(t, store.IncrementQuery(ctx, "b", "b"))
	require.NoError(t, store.IncrementQuery(ctx, "c", "c"))

	top, err := store.TopQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
}
