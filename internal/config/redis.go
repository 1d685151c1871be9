package config

// Redis backs the claim rate limiter, the public response cache and the
// reminder ledger.  All three degrade gracefully when it is absent: the
// limiter and cache become pass-throughs and reminders are tracked in
// process memory.

import (
    "context"
    "crypto/tls"
    "log"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisOptionsFromEnv builds client options from:
//   REDIS_ADDR or REDIS_HOST + REDIS_PORT  (default localhost:6379)
//   REDIS_PASSWORD, REDIS_DB, REDIS_TLS
func RedisOptionsFromEnv() *redis.Options {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts
}

// NewRedisClient connects with RedisOptionsFromEnv and pings the server.
// It returns nil when REDIS_ENABLED=false or the server is unreachable.
func NewRedisClient() *redis.Client {
    if !envBool("REDIS_ENABLED", true) {
        return nil
    }
    opts := RedisOptionsFromEnv()
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis: %s unreachable, continuing without it: %v", opts.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
