package courier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCache_CachesUntilRefreshDeadline(t *testing.T) {
	var calls int32
	cache := &tokenCache{}
	fetch := func(ctx context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&calls, 1)
		return "token-1", time.Hour, nil
	}

	for i := 0; i < 5; i++ {
		token, err := cache.get(context.Background(), fetch)
		require.NoError(t, err)
		assert.Equal(t, "token-1", token)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenCache_InvalidateForcesRefresh(t *testing.T) {
	var calls int32
	cache := &tokenCache{}
	fetch := func(ctx context.Context) (string, time.Duration, error) {
		n := atomic.AddInt32(&calls, 1)
		return fmt.Sprintf("token-%d", n), time.Hour, nil
	}

	token, err := cache.get(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	cache.invalidate()

	token, err = cache.get(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenCache_ConcurrentGetsShareOneFetch(t *testing.T) {
	var calls int32
	cache := &tokenCache{}
	fetch := func(ctx context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "shared-token", time.Hour, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.get(context.Background(), fetch)
			assert.NoError(t, err)
			assert.Equal(t, "shared-token", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenCache_FetchErrorNotCached(t *testing.T) {
	var calls int32
	cache := &tokenCache{}
	failing := errors.New("login failed")
	fetch := func(ctx context.Context) (string, time.Duration, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", 0, failing
		}
		return "token-ok", time.Hour, nil
	}

	_, err := cache.get(context.Background(), fetch)
	require.ErrorIs(t, err, failing)

	token, err := cache.get(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "token-ok", token)
}

func TestRefreshBuffer(t *testing.T) {
	tests := []struct {
		name     string
		lifetime time.Duration
		want     time.Duration
	}{
		{"long lifetime uses ten percent", 10 * time.Hour, time.Hour},
		{"medium lifetime uses five minute floor", time.Hour, 5 * time.Minute},
		{"short lifetime keeps half usable", 4 * time.Minute, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refreshBuffer(tt.lifetime))
		})
	}
}
