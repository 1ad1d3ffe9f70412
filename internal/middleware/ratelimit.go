package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/config"
)

// tokenBucketScript refills the bucket at KEYS[1] and takes one token.
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_ms.
// Returns {allowed, remaining, wait_ms}.
var tokenBucketScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local bucket = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(bucket[1]) or capacity
local ts = tonumber(bucket[2]) or now

local steps = math.floor(math.max(0, now - ts) / interval)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	ts = ts + steps * interval
end
if tokens >= capacity then
	ts = now
end

local allowed, wait = 0, 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.max(0, interval - (now - ts))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {allowed, tokens, wait}
`)

const msgTooManyRequests = "Demasiadas solicitudes, intenta más tarde"

type bucketResult struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

// NewTokenBucket limits requests with a Redis token bucket per client IP,
// or per client IP and route when the policy says so.  Redis failures let
// the request through.
func NewTokenBucket(cfg config.RateLimitConfig, policy config.RateLimitPolicy, rdb redis.Scripter) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	limit := strconv.Itoa(policy.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, policy, c)
			raw, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				policy.Capacity,
				policy.RefillTokens,
				policy.RefillInterval.Milliseconds(),
				cfg.TTL.Milliseconds(),
			).Result()
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
				return next(c)
			}
			res, ok := parseBucketResult(raw)
			if !ok {
				log.Warn().Str("key", key).Interface("result", raw).Msg("unexpected rate limit result")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if res.allowed {
				return next(c)
			}

			secs := int(math.Ceil(res.wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Debug().Str("key", key).Str("policy", policy.Name).Dur("wait", res.wait).Msg("rate limited")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       msgTooManyRequests,
				"retry_after": secs,
			})
		}
	}
}

func parseBucketResult(v interface{}) (bucketResult, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	allowed, ok1 := arr[0].(int64)
	remaining, ok2 := arr[1].(int64)
	wait, ok3 := arr[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return bucketResult{}, false
	}
	return bucketResult{
		allowed:   allowed == 1,
		remaining: remaining,
		wait:      time.Duration(wait) * time.Millisecond,
	}, true
}

// rateKey is prefix:policy:ip, with ":METHOD /route" appended for per-route
// policies.
func rateKey(prefix string, p config.RateLimitPolicy, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	key := prefix + ":" + p.Name + ":" + ip
	if p.PerRoute {
		key += ":" + c.Request().Method + " " + c.Path()
	}
	return key
}
