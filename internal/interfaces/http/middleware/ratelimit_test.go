package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeClock lets tests advance the limiter's time
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows burst up to limit then blocks", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("a"), "request %d", i+1)
		}
		assert.False(t, rl.Allow("a"))
	})

	t.Run("separate buckets per key", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 1, time.Minute)
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
	})

	t.Run("refills over the window", func(t *testing.T) {
		rl, clock := newTestLimiter(t, 2, time.Minute)
		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))

		clock.Advance(30 * time.Second)
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
	})

	t.Run("remaining", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, rl.Remaining("new"))
		rl.Allow("new")
		rl.Allow("new")
		assert.Equal(t, 3, rl.Remaining("new"))
	})

	t.Run("retry after", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 1, time.Minute)
		assert.Zero(t, rl.RetryAfter("unknown"))
		require.True(t, rl.Allow("a"))
		assert.InDelta(t, time.Minute.Seconds(), rl.RetryAfter("a").Seconds(), 1)
		// asking does not consume the next token
		assert.InDelta(t, time.Minute.Seconds(), rl.RetryAfter("a").Seconds(), 1)
	})

	t.Run("idle buckets evicted", func(t *testing.T) {
		rl, clock := newTestLimiter(t, 1, time.Minute)
		rl.Allow("a")
		clock.Advance(3 * time.Minute)
		rl.evictIdle()

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Empty(t, rl.clients)
	})

	t.Run("concurrent access", func(t *testing.T) {
		rl, _ := newTestLimiter(t, 100, time.Minute)
		var allowed atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.Allow("shared") {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(100), allowed.Load())
	})
}

func TestRateLimiter_StopEndsJanitor(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(10, 10*time.Millisecond)
	rl.Stop()
	rl.Stop()
}

func TestRateLimit_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)

	r := gin.New()
	r.Use(RequestID(), ClientIdentity(), RateLimit(rl))
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	call := func(client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderClientID, client)
		return serve(r, req)
	}

	w := call("app-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("app-1").Code)

	w = call("app-1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, call("app-2").Code)
}
