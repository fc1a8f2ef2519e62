package notifier

import (
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

type RateLimitBucket struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RateLimitMonitor tracks Discord's per-webhook rate limit headers so an
// exhausted webhook fails fast instead of earning a 429.
type RateLimitMonitor struct {
	mu      sync.RWMutex
	buckets map[string]*RateLimitBucket
	now     func() time.Time
}

func NewRateLimitMonitor() *RateLimitMonitor {
	return &RateLimitMonitor{
		buckets: make(map[string]*RateLimitBucket),
		now:     time.Now,
	}
}

func (rlm *RateLimitMonitor) CanExecute(route string) bool {
	rlm.mu.RLock()
	bucket, exists := rlm.buckets[route]
	rlm.mu.RUnlock()

	if !exists {
		return true
	}

	if !rlm.now().Before(bucket.ResetAt) {
		return true
	}

	return bucket.Remaining > 0
}

// UpdateFromFastHTTPResponse reads the bucket headers; a 429 without them
// falls back to Retry-After.
func (rlm *RateLimitMonitor) UpdateFromFastHTTPResponse(resp *fasthttp.Response, route string) {
	remaining := string(resp.Header.Peek("X-RateLimit-Remaining"))
	limit := string(resp.Header.Peek("X-RateLimit-Limit"))
	resetAfter := string(resp.Header.Peek("X-RateLimit-Reset-After"))
	if resetAfter == "" {
		resetAfter = string(resp.Header.Peek("Retry-After"))
	}

	if remaining == "" && resetAfter == "" {
		return
	}

	bucket := &RateLimitBucket{Remaining: 1}

	if remaining != "" {
		bucket.Remaining, _ = strconv.Atoi(remaining)
	}
	if resp.StatusCode() == fasthttp.StatusTooManyRequests {
		bucket.Remaining = 0
	}
	if limit != "" {
		bucket.Limit, _ = strconv.Atoi(limit)
	}
	if resetAfter != "" {
		seconds, _ := strconv.ParseFloat(resetAfter, 64)
		bucket.ResetAt = rlm.now().Add(time.Duration(seconds * float64(time.Second)))
	}

	rlm.mu.Lock()
	rlm.buckets[route] = bucket
	rlm.mu.Unlock()
}

func (rlm *RateLimitMonitor) GetBucket(route string) *RateLimitBucket {
	rlm.mu.RLock()
	defer rlm.mu.RUnlock()

	return rlm.buckets[route]
}
