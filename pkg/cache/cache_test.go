package cache

import (
	"context"
	"testing"
	"time"
)

func TestNameCache(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		ttl      time.Duration
		actions  func(c *NameCache, t *testing.T)
	}{
		{
			name:     "set and get within TTL",
			capacity: 2,
			ttl:      time.Second,
			actions: func(c *NameCache, t *testing.T) {
				c.Set(1, "Pizza Margherita (1)")
				if v, ok := c.Get(1); !ok || v != "Pizza Margherita (1)" {
					t.Errorf("expected cached name, got=%q, ok=%v", v, ok)
				}
			},
		},
		{
			name:     "get after expiration",
			capacity: 2,
			ttl:      time.Millisecond * 50,
			actions: func(c *NameCache, t *testing.T) {
				c.Set(1, "Pizza")
				time.Sleep(time.Millisecond * 60)
				if _, ok := c.Get(1); ok {
					t.Errorf("expected key to be expired")
				}
			},
		},
		{
			name:     "evict oldest when over capacity",
			capacity: 2,
			ttl:      time.Second,
			actions: func(c *NameCache, t *testing.T) {
				c.Set(1, "a")
				c.Set(2, "b")
				c.Set(3, "c")
				if _, ok := c.Get(1); ok {
					t.Errorf("expected key 1 to be evicted")
				}
				if v, ok := c.Get(2); !ok || v != "b" {
					t.Errorf("expected 2=b, got %q", v)
				}
				if v, ok := c.Get(3); !ok || v != "c" {
					t.Errorf("expected 3=c, got %q", v)
				}
			},
		},
		{
			name:     "update value resets TTL",
			capacity: 2,
			ttl:      time.Millisecond * 50,
			actions: func(c *NameCache, t *testing.T) {
				c.Set(1, "old")
				time.Sleep(time.Millisecond * 30)
				c.Set(1, "new")
				time.Sleep(time.Millisecond * 30)
				if v, ok := c.Get(1); !ok || v != "new" {
					t.Errorf("expected updated value=new, got=%q", v)
				}
			},
		},
		{
			name:     "janitor removes expired",
			capacity: 2,
			ttl:      time.Millisecond * 50,
			actions: func(c *NameCache, t *testing.T) {
				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				c.Start(ctx)

				c.Set(1, "a")
				time.Sleep(time.Millisecond * 60)

				c.cleanup()

				if _, ok := c.Get(1); ok {
					t.Errorf("expected janitor cleanup to remove expired key")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewNameCache(tt.capacity, tt.ttl)
			tt.actions(c, t)
		})
	}
}
