package linkcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
)

type countingStore struct {
	entries map[string]string
	gets    int
	seq     int
}

func (s *countingStore) Put(ctx context.Context, payload string) (string, error) {
	s.seq++
	key := fmt.Sprintf("key-%d", s.seq)
	s.entries[key] = payload
	return key, nil
}

func (s *countingStore) Get(ctx context.Context, key string) (string, error) {
	s.gets++
	payload, ok := s.entries[key]
	if !ok {
		return "", appErr.ErrNotFound
	}
	return payload, nil
}

func TestWrapLRUServesRepeatedGetsFromCache(t *testing.T) {
	backing := &countingStore{entries: map[string]string{}}
	store := WrapLRU(backing, 16, time.Minute)
	ctx := context.Background()

	key, err := store.Put(ctx, `{"token":"abc"}`)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		payload, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, `{"token":"abc"}`, payload)
	}
	// Put primed the cache, so the backing store never saw a read.
	require.Equal(t, 0, backing.gets)
}

func TestWrapLRUFillsOnMiss(t *testing.T) {
	backing := &countingStore{entries: map[string]string{"cold": "payload"}}
	store := WrapLRU(backing, 16, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "cold")
	require.NoError(t, err)
	_, err = store.Get(ctx, "cold")
	require.NoError(t, err)
	require.Equal(t, 1, backing.gets)
}

func TestWrapLRUMissPropagatesNotFound(t *testing.T) {
	backing := &countingStore{entries: map[string]string{}}
	store := WrapLRU(backing, 16, time.Minute)

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestWrapLRUDisabled(t *testing.T) {
	backing := &countingStore{entries: map[string]string{}}
	require.Equal(t, backing, WrapLRU(backing, 0, time.Minute).(*countingStore))
	require.Equal(t, backing, WrapLRU(backing, 16, 0).(*countingStore))
}
