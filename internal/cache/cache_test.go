package cache

import (
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("token", "abc123")
	got, ok := c.Get("token")
	if !ok || got.(string) != "abc123" {
		t.Errorf("Get(token) = %v, %v", got, ok)
	}

	c.Delete("token")
	if _, ok := c.Get("token"); ok {
		t.Error("deleted key should miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Minute)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("entry should have expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("entry-specific TTL should override the default")
	}
}

func TestCacheFlush(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len() after Flush = %d, want 0", c.Len())
	}
}
