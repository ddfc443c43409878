package render

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"zonecaster/internal/texture"
)

// TintKey identifies one shaded and fogged variant of a sprite texture.
// Shade and fog are quantized so nearby distances share an entry.
type TintKey struct {
	Texture  string
	ShadeIdx int
	FogIdx   int
	Fog      color.RGBA
}

// TintCache keeps pre-tinted sprite images so compositing never multiplies
// per pixel. Eviction is FIFO: once maxSize entries exist the oldest entries
// are dropped down to three quarters of the limit in one batch.
type TintCache struct {
	maxSize    int
	targetSize int
	cache      map[TintKey]*image.RGBA
	order      []TintKey
	mutex      sync.RWMutex
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// NewTintCache creates a cache holding at most maxSize tinted images
func NewTintCache(maxSize int) *TintCache {
	if maxSize < 4 {
		maxSize = 4
	}
	return &TintCache{
		maxSize:    maxSize,
		targetSize: maxSize * 3 / 4,
		cache:      make(map[TintKey]*image.RGBA, maxSize),
		order:      make([]TintKey, 0, maxSize),
	}
}

// GetOrCreate returns the tinted image for key, building it from tex on a miss.
func (tc *TintCache) GetOrCreate(key TintKey, tex *texture.Texture, shade, fogAlpha float64) *image.RGBA {
	tc.mutex.RLock()
	if img, ok := tc.cache[key]; ok {
		tc.mutex.RUnlock()
		tc.hits.Add(1)
		return img
	}
	tc.mutex.RUnlock()

	img := texture.Tint(tex.Image, shade, key.Fog, fogAlpha)

	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.misses.Add(1)

	// Check again in case another goroutine added it while we were tinting
	if cached, ok := tc.cache[key]; ok {
		return cached
	}

	if len(tc.cache) >= tc.maxSize {
		evict := len(tc.order) - tc.targetSize
		if evict > 0 && evict <= len(tc.order) {
			for _, k := range tc.order[:evict] {
				delete(tc.cache, k)
			}
			tc.order = append(tc.order[:0], tc.order[evict:]...)
		}
	}

	tc.cache[key] = img
	tc.order = append(tc.order, key)
	return img
}

// Len returns the number of cached images
func (tc *TintCache) Len() int {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return len(tc.cache)
}

// Stats returns the hit and miss counts
func (tc *TintCache) Stats() (hits, misses uint64) {
	return tc.hits.Load(), tc.misses.Load()
}

// Clear drops every entry
func (tc *TintCache) Clear() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	tc.cache = make(map[TintKey]*image.RGBA, tc.maxSize)
	tc.order = tc.order[:0]
}
