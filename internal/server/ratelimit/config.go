package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" matches by prefix)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	DefaultBurst    int
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a configuration allowing perMinute requests per client
// and endpoint with the given burst. A zero perMinute disables limiting.
// whitelist and blacklist are comma-separated client IPs.
func NewConfig(perMinute, burst int, whitelist, blacklist string) *Config {
	if perMinute <= 0 {
		return &Config{Enabled: false}
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    perMinute,
		DefaultWindow:   time.Minute,
		DefaultBurst:    burst,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		Whitelist:       parseIPList(whitelist),
		Blacklist:       parseIPList(blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Sign-in attempts
		{Path: "/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},

		// Calls that reach the language model
		{Path: "/followups", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/questions/", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/admin/submissions/", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},

		// Everything else, including the wizard steps, uses the default limit.
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
