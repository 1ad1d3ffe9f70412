package config

import "time"

// RateLimitPolicy describes one token bucket.  Every key starts full and
// gains RefillTokens per RefillInterval up to Capacity.
type RateLimitPolicy struct {
	Name           string
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	// PerRoute keys the bucket by client IP and route instead of client IP
	// alone.
	PerRoute bool
}

// RateLimitConfig holds the general API bucket and the stricter bucket in
// front of login and registration.
type RateLimitConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
	Debug   bool
	API     RateLimitPolicy
	Auth    RateLimitPolicy
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "roomlock:rl"),
		TTL:     envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Debug:   envBool("RATE_LIMIT_DEBUG", false),
		API: normalizePolicy(RateLimitPolicy{
			Name:           "api",
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
			RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		}),
		Auth: normalizePolicy(RateLimitPolicy{
			Name:           "auth",
			Capacity:       envInt("RATE_LIMIT_AUTH_CAPACITY", 5),
			RefillTokens:   1,
			RefillInterval: envDur("RATE_LIMIT_AUTH_REFILL_INTERVAL", 12*time.Second),
			PerRoute:       true,
		}),
	}
	// Keys must outlive a full refill of the slowest bucket.
	for _, p := range []RateLimitPolicy{cfg.API, cfg.Auth} {
		if full := time.Duration(p.Capacity) * p.RefillInterval / time.Duration(p.RefillTokens); cfg.TTL < full {
			cfg.TTL = full
		}
	}
	return cfg
}

func normalizePolicy(p RateLimitPolicy) RateLimitPolicy {
	if p.Capacity < 1 {
		p.Capacity = 1
	}
	if p.RefillTokens < 1 {
		p.RefillTokens = 1
	}
	if p.RefillInterval <= 0 {
		p.RefillInterval = time.Second
	}
	return p
}
