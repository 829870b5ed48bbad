// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type ttlCacheItem[V any] struct {
	value     V
	timestamp time.Time
}

// TTLCache is a cache with per-key TTL tracking and single-flight fetch.
// Expired entries are swept whenever the cache has grown by [sweepEvery]
// inserts, so keys chosen by callers cannot grow it without bound.
type TTLCache[K comparable, V any] struct {
	data       map[K]ttlCacheItem[V]
	ttl        time.Duration
	lock       sync.RWMutex
	sfGroup    singleflight.Group
	inserts    int
	sweepEvery int
}

const defaultSweepEvery = 1024

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data:       make(map[K]ttlCacheItem[V]),
		ttl:        ttl,
		sweepEvery: defaultSweepEvery,
	}
}

// Get returns the cached value for [key] if it is fresh, otherwise it fetches
// it with [fetchFunc]. Concurrent fetches for the same key are deduplicated.
// If [invalidate] is true the entry is dropped before fetching, so no caller
// can observe the stale value while the fetch is in flight.
// Failed fetches are not cached.
func (c *TTLCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.lock.Lock()
		delete(c.data, key)
		c.lock.Unlock()
	} else if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.sfGroup.Do(keyToString(key), func() (interface{}, error) {
		newValue, fetchErr := fetchFunc(key)
		if fetchErr != nil {
			return *new(V), fetchErr
		}
		c.put(key, newValue)
		return newValue, nil
	})
	if err != nil {
		return *new(V), err
	}
	return v.(V), nil
}

// Len returns the number of entries, fresh or not
func (c *TTLCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.data)
}

func (c *TTLCache[K, V]) lookup(key K) (V, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	item, ok := c.data[key]
	if !ok || time.Since(item.timestamp) >= c.ttl {
		return *new(V), false
	}
	return item.value, true
}

func (c *TTLCache[K, V]) put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := time.Now()
	c.data[key] = ttlCacheItem[V]{value: value, timestamp: now}
	c.inserts++
	if c.inserts < c.sweepEvery {
		return
	}
	c.inserts = 0
	for k, item := range c.data {
		if now.Sub(item.timestamp) >= c.ttl {
			delete(c.data, k)
		}
	}
}

// keyToString is defined to allow for both fmt.Stringer and primitive string types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}
