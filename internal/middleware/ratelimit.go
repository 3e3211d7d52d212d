package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theater-management/internal/config"
)

// takeToken refills the bucket by whole intervals, then tries to take one
// token.  It returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval = tonumber(ARGV[4])
    local now = tonumber(ARGV[1])

    local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
    local last = tonumber(redis.call('HGET', KEYS[1], 'last_refill_ms'))
    if tokens == nil or last == nil then
        tokens, last = capacity, now
    end

    local steps = math.floor(math.max(0, now - last) / interval)
    if steps > 0 then
        tokens = math.min(capacity, tokens + steps * refill)
        last = last + steps * interval
    end

    local allowed, retry = 0, 0
    if tokens > 0 then
        allowed, tokens = 1, tokens - 1
    else
        retry = math.max(0, interval - (now - last))
    end

    redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill_ms', last)
    redis.call('PEXPIRE', KEYS[1], ARGV[5])
    return { allowed, tokens, retry }
`)

// NewTokenBucket limits requests with a token bucket kept in Redis.  Each
// bucket holds cfg.Capacity tokens and regains cfg.RefillTokens every
// cfg.RefillInterval.  Blocked requests get 429 with Retry-After.  Without
// Redis (or when disabled) the middleware passes everything through, and a
// Redis error fails open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            entry := log.WithField("key", key)

            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                cfg.TTL.Milliseconds(),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                entry.WithError(err).Warn("ratelimit: redis error, allowing request")
                return next(c)
            }
            allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }

            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                h.Set("Retry-After", strconv.Itoa(secs))
                entry.WithField("retry_ms", retryMs).Info("ratelimit: blocked")
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// buildRateKey names the bucket for a request.  The limiter sits in front of
// login, before any caller is known, so buckets are per client IP ("ip"),
// shared per route ("route"), or both (the default).
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "route":
        parts = append(parts, "route", route)
    default:
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
