package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	config.CleanupInterval = 0
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(config)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("1.2.3.4", "/sessions", "POST")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 60 {
			t.Errorf("Expected limit 60, got %d", info.Limit)
		}
		if info.Remaining != 2-i {
			t.Errorf("Expected %d remaining, got %d", 2-i, info.Remaining)
		}
	}

	allowed, info := l.Allow("1.2.3.4", "/sessions", "POST")
	if allowed {
		t.Fatal("Expected 4th request to be denied")
	}
	if info.RetryAfter <= 0 || info.RetryAfter > time.Second {
		t.Errorf("Expected retry after within one second, got %v", info.RetryAfter)
	}
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 1})
	defer l.Stop()

	if allowed, _ := l.Allow("c", "/x", "GET"); !allowed {
		t.Fatal("Expected first request to be allowed")
	}
	if allowed, _ := l.Allow("c", "/x", "GET"); allowed {
		t.Fatal("Expected second request to be denied")
	}

	clock.Advance(1100 * time.Millisecond)
	if allowed, _ := l.Allow("c", "/x", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
}

func TestLimiter_SeparateBuckets(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute, DefaultBurst: 1})
	defer l.Stop()

	l.Allow("a", "/x", "GET")
	if allowed, _ := l.Allow("b", "/x", "GET"); !allowed {
		t.Error("Expected a different client to have its own bucket")
	}
	if allowed, _ := l.Allow("a", "/y", "GET"); !allowed {
		t.Error("Expected a different endpoint to have its own bucket")
	}
	if allowed, _ := l.Allow("a", "/x", "POST"); !allowed {
		t.Error("Expected a different method to have its own bucket")
	}
	if l.Len() != 4 {
		t.Errorf("Expected 4 buckets, got %d", l.Len())
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	config := NewConfig(1, 1, "10.0.0.1, 10.0.0.2", "")
	l, _ := newTestLimiter(config)
	defer l.Stop()

	for i := 0; i < 10; i++ {
		if allowed, _ := l.Allow("10.0.0.2", "/sessions", "POST"); !allowed {
			t.Fatalf("Expected whitelisted request %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	config := NewConfig(100, 10, "", "6.6.6.6")
	l, _ := newTestLimiter(config)
	defer l.Stop()

	if allowed, _ := l.Allow("6.6.6.6", "/health", "GET"); allowed {
		t.Error("Expected blacklisted client to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(NewConfig(0, 0, "", ""))
	defer l.Stop()

	for i := 0; i < 100; i++ {
		if allowed, _ := l.Allow("c", "/login", "POST"); !allowed {
			t.Fatal("Expected all requests to be allowed when disabled")
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	config := NewConfig(1000, 1000, "", "")
	l, _ := newTestLimiter(config)
	defer l.Stop()

	// /login allows a burst of 5
	for i := 0; i < 5; i++ {
		if allowed, _ := l.Allow("c", "/login", "POST"); !allowed {
			t.Fatalf("Expected login %d to be allowed", i+1)
		}
	}
	allowed, info := l.Allow("c", "/login", "POST")
	if allowed {
		t.Error("Expected 6th login to be denied")
	}
	if info.Limit != 10 {
		t.Errorf("Expected login limit 10, got %d", info.Limit)
	}

	// other routes use the default
	_, info = l.Allow("c", "/sessions", "POST")
	if info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestLimiter_ProbesUnlimited(t *testing.T) {
	l, _ := newTestLimiter(NewConfig(1, 1, "", ""))
	defer l.Stop()

	for _, path := range []string{"/health", "/metrics"} {
		for i := 0; i < 20; i++ {
			if allowed, _ := l.Allow("c", path, "GET"); !allowed {
				t.Fatalf("Expected %s to be unlimited", path)
			}
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour, DefaultBurst: 50})
	defer l.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow("c", "/x", "GET"); allowed {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 50 {
		t.Errorf("Expected exactly 50 requests granted, got %d", granted)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	config := &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTimeout: time.Hour}
	l, clock := newTestLimiter(config)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		l.Allow(fmt.Sprintf("client-%d", i), "/x", "GET")
	}
	clock.Advance(30 * time.Minute)
	l.Allow("fresh", "/x", "GET")

	clock.Advance(45 * time.Minute)
	l.cleanupBuckets()

	if l.Len() != 1 {
		t.Errorf("Expected only the fresh bucket to survive, got %d buckets", l.Len())
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(NewConfig(10, 1, "", ""))
	l.Stop()
	l.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()
	if allowed, _ := l.Allow("c", "/x", "GET"); !allowed {
		t.Error("Expected nil config to disable limiting")
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/admin/", Method: "POST", Limit: 1},
		{Path: "/admin/submissions/", Method: "POST", Limit: 2},
		{Path: "/login", Method: "POST", Limit: 3},
	}

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{"/login", "POST", 3, false},
		{"/admin/submissions/123/analysis", "POST", 2, false},
		{"/admin/other", "POST", 1, false},
		{"/login", "GET", 0, true},
		{"/health", "GET", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected no match, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Expected a match")
			}
			if got.Limit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %d", tt.wantLimit, got.Limit)
			}
		})
	}
}
