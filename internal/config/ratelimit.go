package config

import "time"

// Key strategies understood by the claim rate limiter.  They decide
// which request attributes share one token bucket.
const (
    RateKeyIP        = "ip"
    RateKeyUser      = "user"
    RateKeyRoute     = "route"
    RateKeyIPUser    = "ip_user"
    RateKeyIPRoute   = "ip_route"
    RateKeyUserRoute = "user_route"
)

// RateLimitConfig configures the token bucket in front of seat claims.
// A customer hammering the claim endpoint gets Capacity attempts, then
// RefillTokens more every RefillInterval.  Buckets idle for TTL are
// evicted from Redis.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool // log every decision
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
    rl := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", RateKeyUserRoute),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "seat:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    return rl.normalized()
}

// normalized clamps values the Lua bucket cannot work with.  A bucket
// must outlive at least a few refills or it would reset to full.
func (rl RateLimitConfig) normalized() RateLimitConfig {
    if rl.Capacity < 1 {
        rl.Capacity = 1
    }
    if rl.RefillTokens < 1 {
        rl.RefillTokens = 1
    }
    if rl.RefillInterval <= 0 {
        rl.RefillInterval = time.Second
    }
    if floor := 5 * rl.RefillInterval; rl.TTL < floor {
        rl.TTL = floor
    }
    return rl
}
