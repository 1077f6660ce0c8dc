package cache

import (
	"context"
	"sync"

	"github.com/willf/bloom"
)

// Bloom skips remote lookups for keys that were never stored. Seed it with
// the keys already in the shared tier; keys added by other processes later
// are missed until this process stores them too.
type Bloom struct {
	inner Cache

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func NewBloom(inner Cache, expectedItems uint, falsePositiveRate float64) *Bloom {
	if expectedItems == 0 {
		expectedItems = 100000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	return &Bloom{
		inner:  inner,
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

// Add marks key as possibly present without touching the inner cache.
func (b *Bloom) Add(key string) {
	b.mu.Lock()
	b.filter.Add([]byte(key))
	b.mu.Unlock()
}

func (b *Bloom) Get(ctx context.Context, key string) (float64, bool, error) {
	b.mu.Lock()
	maybe := b.filter.Test([]byte(key))
	b.mu.Unlock()
	if !maybe {
		return 0, false, nil
	}
	return b.inner.Get(ctx, key)
}

func (b *Bloom) Set(ctx context.Context, key string, value float64) error {
	if err := b.inner.Set(ctx, key, value); err != nil {
		return err
	}
	b.Add(key)
	return nil
}
