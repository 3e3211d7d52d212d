package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache placed in front of the
// public theater reads.  When Enabled is false or no Redis client is
// configured, caching is disabled.  Methods lists the HTTP methods to cache,
// TTL the lifetime of entries, and Prefix the key namespace that a purge
// clears after every theater mutation.  KeyStrategy "path" ignores the query
// string; "path_query" keeps it.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

const defaultCacheTTL = 30 * time.Second

// LoadCacheConfig reads the CACHE_* settings.  All methods are upper-cased
// and an unparsable TTL falls back to the default.
func LoadCacheConfig() CacheConfig {
    v := newViper()
    cfg := CacheConfig{
        Enabled:      v.GetBool("CACHE_ENABLED"),
        Methods:      parseMethods(v.GetString("CACHE_METHODS")),
        TTL:          v.GetDuration("CACHE_TTL"),
        KeyStrategy:  strings.ToLower(v.GetString("CACHE_KEY_STRATEGY")),
        Prefix:       v.GetString("CACHE_PREFIX"),
        MaxBodyBytes: v.GetInt("CACHE_MAX_BODY_BYTES"),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = defaultCacheTTL
    }
    return cfg
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range splitList(s) {
        m[strings.ToUpper(p)] = true
    }
    return m
}
