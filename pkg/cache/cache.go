package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const janitorInterval = 2 * time.Minute

type entry struct {
	key        int64
	value      string
	expiration time.Time
}

// NameCache is an LRU cache with per-entry TTL mapping product codes to
// display names.
type NameCache struct {
	capacity int
	mu       sync.Mutex
	ll       *list.List
	cache    map[int64]*list.Element
	ttl      time.Duration
}

func NewNameCache(capacity int, ttl time.Duration) *NameCache {
	return &NameCache{
		capacity: capacity,
		ll:       list.New(),
		cache:    make(map[int64]*list.Element),
		ttl:      ttl,
	}
}

func (c *NameCache) Get(key int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.cache[key]; ok {
		ent := ele.Value.(*entry)
		if time.Now().After(ent.expiration) {
			c.removeElement(ele)
			return "", false
		}
		c.ll.MoveToFront(ele)
		return ent.value, true
	}
	return "", false
}

func (c *NameCache) Set(key int64, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.cache[key]; ok {
		c.ll.MoveToFront(ele)
		ent := ele.Value.(*entry)
		ent.value = value
		ent.expiration = time.Now().Add(c.ttl)
		return
	}

	ent := &entry{key: key, value: value, expiration: time.Now().Add(c.ttl)}
	ele := c.ll.PushFront(ent)
	c.cache[key] = ele

	if c.ll.Len() > c.capacity {
		c.removeOldest()
	}
}

func (c *NameCache) removeOldest() {
	ele := c.ll.Back()
	if ele != nil {
		c.removeElement(ele)
	}
}

func (c *NameCache) removeElement(e *list.Element) {
	c.ll.Remove(e)
	ent := e.Value.(*entry)
	delete(c.cache, ent.key)
}

func (c *NameCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Start launches the expiration janitor, it satisfies the app starter
// interface.
func (c *NameCache) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (c *NameCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for e := c.ll.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*entry).expiration) {
			c.removeElement(e)
		}
		e = prev
	}
}
