// Package cache — generic in-memory TTL cache.
//
// Sık okunan ama nadiren değişen verileri (geocoding sonuçları, gear listesi
// filtreleri vb.) bellekte tutmak için kullanılır. Her entry bir son kullanma
// tarihi taşır; süresi dolan entry Get'te miss olur, fiziksel silme arka plan
// goroutine'inde periyodik yapılır.
//
// sync.RWMutex ile thread-safe: birden fazla goroutine aynı anda okuyabilir.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, generic in-memory TTL cache.
//
//	c := cache.New[string, geo.Point](24*time.Hour, 10*time.Minute)
//	c.Set("kathmandu", pt)
//	pt, ok := c.Get("kathmandu")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration

	stopCleanup chan struct{}
}

// New, yeni bir TTLCache oluşturur ve temizleme goroutine'ini başlatır.
// cleanupInterval, süresi dolan entry'lerin map'ten ne sıklıkla silineceğini
// belirler — ttl'den küçük olmalı, aksi halde map gereksiz büyür.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, anahtarın değerini döner. Entry yoksa veya süresi dolmuşsa ok=false.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, anahtara değer yazar; süre şimdi+ttl olarak belirlenir.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Delete, anahtarı siler (invalidation için).
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Close, temizleme goroutine'ini durdurur.
func (c *TTLCache[K, V]) Close() {
	close(c.stopCleanup)
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
