package stubserver

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	m := NewRateLimiter(60, 2, 0, nil)
	defer m.Close()

	if !m.Allow("ip:10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if !m.Allow("ip:10.0.0.1") {
		t.Error("second request should fit in the burst")
	}
	if m.Allow("ip:10.0.0.1") {
		t.Error("third request should exceed the burst capacity")
	}

	// A different client gets its own bucket
	if !m.Allow("ip:10.0.0.2") {
		t.Error("request from a new client should be allowed")
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	m := NewRateLimiter(60, 1, 20*time.Millisecond, nil)
	defer m.Close()

	m.Allow("ip:10.0.0.1")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.GetStats()["active_limiters"].(int) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("idle limiter was not evicted within the window, stats: %v", m.GetStats())
}

func TestRateLimiterDefaultEvictionWindow(t *testing.T) {
	m := NewRateLimiter(60, 1, 0, nil)
	defer m.Close()

	got := m.GetStats()["eviction_window"]
	if got != defaultEvictionWindow.String() {
		t.Errorf("eviction_window = %v, want %v", got, defaultEvictionWindow)
	}
}
