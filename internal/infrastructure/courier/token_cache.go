package courier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// minTokenRefreshBuffer is the floor for how early a cached token is
// refreshed before its stated expiry.
const minTokenRefreshBuffer = 5 * time.Minute

// tokenFetchFunc authenticates against a courier and returns the bearer
// token together with its stated lifetime.
type tokenFetchFunc func(ctx context.Context) (token string, lifetime time.Duration, err error)

// tokenCache holds one courier's bearer token across concurrent requests.
// A token is served until its refresh deadline, which sits ahead of the
// real expiry by max(5 minutes, 10% of the lifetime). Concurrent refreshes
// collapse into a single upstream login via singleflight.
type tokenCache struct {
	mu        sync.RWMutex
	token     string
	refreshAt time.Time

	group singleflight.Group
}

// get returns the cached token, refreshing it through fetch when the
// refresh deadline has passed. Multiple callers arriving on an expired
// token share one fetch.
func (c *tokenCache) get(ctx context.Context, fetch tokenFetchFunc) (string, error) {
	c.mu.RLock()
	if c.token != "" && time.Now().Before(c.refreshAt) {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("token", func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		c.mu.RLock()
		if c.token != "" && time.Now().Before(c.refreshAt) {
			token := c.token
			c.mu.RUnlock()
			return token, nil
		}
		c.mu.RUnlock()

		token, lifetime, err := fetch(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.token = token
		c.refreshAt = time.Now().Add(lifetime - refreshBuffer(lifetime))
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// invalidate drops the cached token so the next get re-authenticates.
// Called when a courier rejects the token with a 401.
func (c *tokenCache) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.refreshAt = time.Time{}
	c.mu.Unlock()
}

// refreshBuffer returns how far ahead of expiry a token should be
// refreshed. Short-lived tokens keep at least half their lifetime usable.
func refreshBuffer(lifetime time.Duration) time.Duration {
	buffer := lifetime / 10
	if buffer < minTokenRefreshBuffer {
		buffer = minTokenRefreshBuffer
	}
	if buffer >= lifetime {
		buffer = lifetime / 2
	}
	return buffer
}
