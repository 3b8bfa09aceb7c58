package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/cache"
)

func TestKey_SanitizesSegments(t *testing.T) {
	assert.Equal(t, "geocode:en:new_york", cache.Key("geocode", "en", "new york"))
	assert.Equal(t, "a_b:c", cache.Key("a:b", "c"))
	assert.Equal(t, "x__y", cache.Key("x{\ty"))
}

func TestMemory_GetOrCompute(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{Logger: zerolog.Nop()})

	calls := 0
	compute := func(_ context.Context) ([]byte, error) {
		calls++
		return []byte("payload"), nil
	}

	value, err := store.GetOrCompute(context.Background(), "k", time.Minute, nil, compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)

	// Second read within the TTL is served from the store.
	value, err = store.GetOrCompute(context.Background(), "k", time.Minute, nil, compute)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
	assert.Equal(t, 1, calls)
}

func TestMemory_TTLExpiry(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{Logger: zerolog.Nop()})

	calls := 0
	compute := func(_ context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	_, err := store.GetOrCompute(context.Background(), "k", 10*time.Millisecond, nil, compute)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = store.GetOrCompute(context.Background(), "k", 10*time.Millisecond, nil, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemory_ComputeErrorNotCached(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{Logger: zerolog.Nop()})

	calls := 0
	boom := errors.New("upstream down")

	_, err := store.GetOrCompute(context.Background(), "k", time.Minute, nil, func(_ context.Context) ([]byte, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	value, err := store.GetOrCompute(context.Background(), "k", time.Minute, nil, func(_ context.Context) ([]byte, error) {
		calls++
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), value)
	assert.Equal(t, 2, calls)
}

func TestMemory_InvalidateTag(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{Logger: zerolog.Nop()})

	calls := 0
	compute := func(_ context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	_, err := store.GetOrCompute(context.Background(), "a", time.Hour, []string{"loc:52.37:4.90"}, compute)
	require.NoError(t, err)
	_, err = store.GetOrCompute(context.Background(), "b", time.Hour, []string{"loc:52.37:4.90"}, compute)
	require.NoError(t, err)
	_, err = store.GetOrCompute(context.Background(), "c", time.Hour, []string{"loc:51.92:4.48"}, compute)
	require.NoError(t, err)

	require.NoError(t, store.InvalidateTag(context.Background(), "loc:52.37:4.90"))

	// Tagged entries recompute, the untagged key does not.
	_, err = store.GetOrCompute(context.Background(), "a", time.Hour, nil, compute)
	require.NoError(t, err)
	_, err = store.GetOrCompute(context.Background(), "c", time.Hour, nil, compute)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestMemory_ConcurrentMissesCoalesce(t *testing.T) {
	store := cache.NewMemory(cache.MemoryConfig{Logger: zerolog.Nop()})

	var calls int64
	compute := func(_ context.Context) ([]byte, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := store.GetOrCompute(context.Background(), "k", time.Minute, nil, compute)
			assert.NoError(t, err)
			assert.Equal(t, []byte("v"), value)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}
