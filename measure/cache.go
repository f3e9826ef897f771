package measure

import (
	"sync"

	"github.com/ByLCY/songsheet/layout"
)

type fontKind uint8

const (
	lyricFont fontKind = iota
	chordFont
)

type cacheKey struct {
	kind fontKind
	size float64
	text string
}

// Cache 包装任意 Oracle，按 (字体, 字号, 文本) 缓存宽度。
// 缓存归调用方所有，可在多次规划间复用；并发安全。
type Cache struct {
	inner layout.Oracle

	mu     sync.Mutex
	widths map[cacheKey]float64
	hits   int
	misses int
}

// NewCache 创建包装 inner 的缓存。
func NewCache(inner layout.Oracle) *Cache {
	return &Cache{inner: inner, widths: map[cacheKey]float64{}}
}

func (c *Cache) LyricMeasurerAt(sizePt float64) layout.MeasureFunc {
	return c.measurer(lyricFont, sizePt, c.inner.LyricMeasurerAt(sizePt))
}

func (c *Cache) ChordMeasurerAt(sizePt float64) layout.MeasureFunc {
	return c.measurer(chordFont, sizePt, c.inner.ChordMeasurerAt(sizePt))
}

func (c *Cache) measurer(kind fontKind, size float64, fn layout.MeasureFunc) layout.MeasureFunc {
	return func(text string) float64 {
		key := cacheKey{kind: kind, size: size, text: text}
		c.mu.Lock()
		if w, ok := c.widths[key]; ok {
			c.hits++
			c.mu.Unlock()
			return w
		}
		c.misses++
		c.mu.Unlock()

		w := fn(text)

		c.mu.Lock()
		c.widths[key] = w
		c.mu.Unlock()
		return w
	}
}

// Stats 返回命中与未命中次数。
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len 返回已缓存的条目数。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.widths)
}

// Reset 清空缓存，例如在更换字体之后。
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.widths = map[cacheKey]float64{}
	c.hits, c.misses = 0, 0
}
