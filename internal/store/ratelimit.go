package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitIPPrefix is the Redis key prefix for IP rate limits.
	rateLimitIPPrefix = "ratelimit:ip:"
	// rateLimitIPTTL is the TTL for IP rate limit keys.
	rateLimitIPTTL = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// tokenBucketScript implements the token bucket algorithm atomically:
// refill and consumption happen in a single server-side operation.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckIPRateLimit checks and updates the per-IP rate limit for the
// redirect path. IPs are hashed before keying to avoid storing raw
// addresses.
func (s *Store) CheckIPRateLimit(ctx context.Context, ip string, rps, burst int) (*RateLimitResult, error) {
	if !s.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}

	key := rateLimitIPPrefix + hashIP(ip)
	now := time.Now().Unix()

	values, err := tokenBucketScript.Run(ctx, s.client,
		[]string{key},
		rps, burst, now, int(rateLimitIPTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply length %d", len(values))
	}

	return &RateLimitResult{
		Allowed:    values[0] == 1,
		RetryAfter: time.Duration(values[1]) * time.Second,
		Remaining:  values[2],
	}, nil
}

// hashIP returns the first 8 bytes of SHA256(ip) as 16 hex chars.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
