package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memLockStore struct {
	values map[string]string
}

func newMemLockStore() *memLockStore {
	return &memLockStore{values: map[string]string{}}
}

func (s *memLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, held := s.values[key]; held {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *memLockStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *memLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newMemLockStore()
	lock, err := NewRedisLock(store, "trv:lock:sweep:test", time.Minute)
	require.NoError(t, err)

	claimed, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, claimed)

	rival, err := NewRedisLock(store, "trv:lock:sweep:test", time.Minute)
	require.NoError(t, err)
	claimed, err = rival.Acquire(context.Background())
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, lock.Release(context.Background()))
	claimed, err = rival.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestRedisLockReleaseSparesForeignHolder(t *testing.T) {
	store := newMemLockStore()
	lock, err := NewRedisLock(store, "trv:lock:sweep:test", time.Minute)
	require.NoError(t, err)

	claimed, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, claimed)

	// the lease expired under us and another replica claimed the key
	store.values["trv:lock:sweep:test"] = "someone-else"
	require.NoError(t, lock.Release(context.Background()))
	require.Equal(t, "someone-else", store.values["trv:lock:sweep:test"])
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newMemLockStore()
	lock, err := NewRedisLock(store, "trv:lock:sweep:test", time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))
}
