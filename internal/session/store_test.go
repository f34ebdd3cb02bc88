package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cb-discovery/internal/survey"
	"github.com/jonathan/cb-discovery/internal/types"
)

func sampleSession() survey.Session {
	s := survey.NewSession("sess-1", "jane", types.RoleUser, true, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	s.FixedAnswers["1"] = []string{"Retail", "SME"}
	s.FixedAnswers["2"] = 4
	return s
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func storesUnderTest(t *testing.T) map[string]Store {
	_, client := setupRedis(t)
	return map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  NewRedisStore(client, time.Hour),
	}
}

func TestStore_SaveGetDelete(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := sampleSession()

			require.NoError(t, store.Save(ctx, s))

			got, err := store.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, "jane", got.Username)
			assert.Equal(t, types.RoleUser, got.Role)
			assert.True(t, got.TestMode)
			assert.Equal(t, survey.StepFixed, got.Step)
			assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
			assert.Contains(t, got.FixedAnswers, "1")

			require.NoError(t, store.Delete(ctx, s.ID))
			_, err = store.Get(ctx, s.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(context.Background(), survey.Session{})
			assert.Error(t, err)
		})
	}
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, store.Delete(context.Background(), "nope"))
		})
	}
}

func TestStore_SaveBumpsVersion(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, sampleSession()))

			got, err := store.Get(ctx, "sess-1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), got.Version)

			got.OrgName = "Acme Bank"
			require.NoError(t, store.Save(ctx, got))

			got, err = store.Get(ctx, "sess-1")
			require.NoError(t, err)
			assert.Equal(t, int64(2), got.Version)
			assert.Equal(t, "Acme Bank", got.OrgName)
		})
	}
}

func TestStore_StaleSaveConflicts(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, sampleSession()))

			first, err := store.Get(ctx, "sess-1")
			require.NoError(t, err)
			second, err := store.Get(ctx, "sess-1")
			require.NoError(t, err)

			first.FixedAnswers["3"] = "first writer"
			require.NoError(t, store.Save(ctx, first))

			second.FixedIndex = 2
			err = store.Save(ctx, second)
			assert.ErrorIs(t, err, ErrConflict)

			got, err := store.Get(ctx, "sess-1")
			require.NoError(t, err)
			assert.Equal(t, "first writer", got.FixedAnswers["3"])
			assert.Equal(t, 0, got.FixedIndex)

			// A fresh session cannot overwrite an existing one.
			assert.ErrorIs(t, store.Save(ctx, sampleSession()), ErrConflict)
		})
	}
}

func TestStore_SaveAfterDelete(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, sampleSession()))
			got, err := store.Get(ctx, "sess-1")
			require.NoError(t, err)

			require.NoError(t, store.Delete(ctx, "sess-1"))
			assert.ErrorIs(t, store.Save(ctx, got), ErrNotFound)
		})
	}
}

func TestRedisStore_ConcurrentSaves(t *testing.T) {
	_, client := setupRedis(t)
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleSession()))
	loaded, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := loaded
			s.FixedIndex = i
			errs <- store.Save(ctx, s)
		}(i)
	}
	wg.Wait()
	close(errs)

	saved := 0
	for err := range errs {
		if err == nil {
			saved++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, saved)

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleSession()))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	got.FixedAnswers["1"] = "changed"

	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Retail", "SME"}, again.FixedAnswers["1"])
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), sampleSession()))
	assert.Equal(t, 1, store.Len())

	now = now.Add(2 * time.Minute)
	_, err := store.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestNewMemoryStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewMemoryStore(0).ttl)
}

func TestRedisStore_TTLAndKey(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, 30*time.Minute)

	require.NoError(t, store.Save(context.Background(), sampleSession()))
	assert.True(t, mr.Exists(KeyPrefix+"sess-1"))
	assert.Equal(t, 30*time.Minute, mr.TTL(KeyPrefix+"sess-1"))

	mr.FastForward(31 * time.Minute)
	_, err := store.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, 0)
	require.NoError(t, mr.Set(KeyPrefix+"bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Ping(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, 0)
	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestDialRedis(t *testing.T) {
	mr, _ := setupRedis(t)
	client, err := DialRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
