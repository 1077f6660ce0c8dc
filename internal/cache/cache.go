package cache

import (
	"container/list"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

// Cache stores defined log-perplexity scores keyed by model and scored text.
// Scoring is deterministic for fixed weights, so entries never go stale for
// the same artifact.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64) error
}

// Key derives the cache key for text scored by modelID with input truncated
// to maxLength tokens.
func Key(modelID string, maxLength int, normalized string) string {
	prefix := modelID + ":" + strconv.Itoa(maxLength)
	sum := sha1.Sum([]byte(prefix + "\x00" + normalized))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Memory is an in-process LRU with TTL.
type Memory struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List
}

type memoryItem struct {
	key       string
	value     float64
	expiresAt time.Time
}

func NewMemory(maxSize int, ttl time.Duration) *Memory {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Memory{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   map[string]*list.Element{},
		lru:     list.New(),
	}
}

func (c *Memory) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return 0, false, nil
	}
	item := el.Value.(*memoryItem)
	if c.ttl > 0 && c.now().After(item.expiresAt) {
		c.remove(el)
		return 0, false, nil
	}
	c.lru.MoveToFront(el)
	return item.value, true, nil
}

func (c *Memory) Set(_ context.Context, key string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		item := el.Value.(*memoryItem)
		item.value = value
		item.expiresAt = expires
		c.lru.MoveToFront(el)
		return nil
	}
	c.items[key] = c.lru.PushFront(&memoryItem{key: key, value: value, expiresAt: expires})
	for len(c.items) > c.maxSize {
		c.remove(c.lru.Back())
	}
	return nil
}

func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Memory) remove(el *list.Element) {
	if el == nil {
		return
	}
	delete(c.items, el.Value.(*memoryItem).key)
	c.lru.Remove(el)
}
