package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the public response cache middleware.
// When Enabled is false or no Redis client is configured, caching is a
// no-op.  Methods lists the HTTP methods to cache; TTL is the entry
// lifetime; MaxBodyBytes caps the size of cached responses.  Event
// listings and availability snapshots tolerate the small staleness this
// introduces; booking and payment routes are never cached.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
            m[p] = true
        }
    }
    return m
}
