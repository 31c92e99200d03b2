package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/N4thh/homi-nah/internal/metrics"
	"github.com/N4thh/homi-nah/pkg/logger"
	pkgredis "github.com/N4thh/homi-nah/pkg/redis"
	"github.com/N4thh/homi-nah/pkg/response"
	"github.com/N4thh/homi-nah/pkg/telemetry"
)

// RateLimitTier is one fixed window in the limit stack
type RateLimitTier struct {
	// Name identifies the window in keys, headers and metrics
	Name string
	// Limit is the number of requests allowed per window
	Limit int
	// Window is the fixed window length
	Window time.Duration
}

// PaymentRateTiers returns the stacked windows applied to payment endpoints.
// A request must pass every tier.
func PaymentRateTiers() []RateLimitTier {
	return []RateLimitTier{
		{Name: "10s", Limit: 3, Window: 10 * time.Second},
		{Name: "1m", Limit: 10, Window: time.Minute},
		{Name: "1h", Limit: 100, Window: time.Hour},
	}
}

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	// Tiers are checked in order; empty uses PaymentRateTiers
	Tiers []RateLimitTier
	// RedisClient enables distributed counting; nil falls back to local counters
	RedisClient *pkgredis.Client
	// KeyPrefix for Redis keys
	KeyPrefix string
}

// fixedWindowScript counts a hit in the caller's current window atomically.
// The window TTL starts at the first hit; returns {count, remaining ttl ms}.
const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`

const fixedWindowScriptName = "ratelimit_fixed_window"

// redisWindow counts hits in Redis so limits hold across instances
type redisWindow struct {
	client *pkgredis.Client
	prefix string
}

func (w *redisWindow) hit(ctx context.Context, key string, tier RateLimitTier) (int64, time.Duration, error) {
	result := w.client.EvalWithFallback(ctx, fixedWindowScriptName, fixedWindowScript,
		[]string{w.prefix + key},
		tier.Window.Milliseconds(),
	)
	if result.Err() != nil {
		return 0, 0, result.Err()
	}

	values, err := result.Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected result length: %d", len(values))
	}

	count := toInt64(values[0])
	ttlMs := toInt64(values[1])
	if ttlMs < 0 {
		// PTTL -1/-2: key vanished between INCR and PTTL; treat as a fresh window
		ttlMs = tier.Window.Milliseconds()
	}
	return count, time.Duration(ttlMs) * time.Millisecond, nil
}

// toInt64 converts the value types Redis scripts may return
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// localEntry tracks one caller's count within the current window
type localEntry struct {
	count   int64
	resetAt time.Time
}

// localWindow is the in-process fallback when no Redis client is configured
type localWindow struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	stop    chan struct{}
}

func newLocalWindow() *localWindow {
	w := &localWindow{
		entries: make(map[string]*localEntry),
		stop:    make(chan struct{}),
	}
	go w.cleanup()
	return w
}

func (w *localWindow) hit(key string, tier RateLimitTier) (int64, time.Duration) {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &localEntry{resetAt: now.Add(tier.Window)}
		w.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.resetAt.Sub(now)
}

// cleanup periodically removes lapsed windows
func (w *localWindow) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			w.mu.Lock()
			for key, entry := range w.entries {
				if now.After(entry.resetAt) {
					delete(w.entries, key)
				}
			}
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (w *localWindow) Stop() {
	close(w.stop)
}

// RateLimiter enforces the stacked fixed windows per caller identity.
// Authenticated callers are keyed by user id and role, anonymous ones by IP.
// Redis failures let the request through.
func RateLimiter(config RateLimiterConfig) gin.HandlerFunc {
	if len(config.Tiers) == 0 {
		config.Tiers = PaymentRateTiers()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ratelimit:payment:"
	}

	var local *localWindow
	var remote *redisWindow
	if config.RedisClient != nil {
		remote = &redisWindow{client: config.RedisClient, prefix: config.KeyPrefix}
	} else {
		local = newLocalWindow()
	}

	log := logger.Get()

	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		identity := limiterKey(c)
		span.SetAttributes(attribute.String("identity", identity))

		// Track the tier closest to exhaustion for the response headers
		var tightest RateLimitTier
		tightestRemaining := int64(math.MaxInt64)
		var tightestReset time.Duration

		for _, tier := range config.Tiers {
			key := identity + ":" + tier.Name

			var count int64
			var reset time.Duration
			if remote != nil {
				var err error
				count, reset, err = remote.hit(ctx, key, tier)
				if err != nil {
					// Redis trouble must not block payments; skip this tier
					log.Warn(fmt.Sprintf("Rate limit check failed open: key=%s, error=%v", key, err))
					continue
				}
			} else {
				count, reset = local.hit(key, tier)
			}

			if count > int64(tier.Limit) {
				retryAfter := int(math.Ceil(reset.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				span.SetAttributes(attribute.String("tier", tier.Name))
				span.SetStatus(codes.Error, "rate limit exceeded")
				metrics.RecordRateLimitRejected(ctx, tier.Name)

				c.Header("X-RateLimit-Limit", strconv.Itoa(tier.Limit))
				c.Header("X-RateLimit-Remaining", "0")
				c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))
				c.Header("Retry-After", strconv.Itoa(retryAfter))

				c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error("TOO_MANY_REQUESTS",
					fmt.Sprintf("Rate limit exceeded. Please retry after %d second(s).", retryAfter)))
				return
			}

			remaining := int64(tier.Limit) - count
			if remaining < tightestRemaining {
				tightestRemaining = remaining
				tightest = tier
				tightestReset = reset
			}
		}

		if tightest.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(tightest.Limit))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(tightestRemaining, 10))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(tightestReset).Unix(), 10))
		}

		span.SetStatus(codes.Ok, "")
		c.Next()
	}
}

// limiterKey picks the identity the stacked windows count against
func limiterKey(c *gin.Context) string {
	if userID := c.GetString(ContextUserIDKey); userID != "" {
		return "user:" + userID + ":" + c.GetString(ContextRoleKey)
	}
	return "ip:" + c.ClientIP()
}
