package server

import (
	"crypto/sha256"
	"sync"

	"github.com/teranos/tzmeta/classify"
	"github.com/teranos/tzmeta/metadata"
)

const defaultCacheEntries = 128

// classificationCache keeps recent classifications keyed by the sha256 of
// the raw document. Classification is pure, so a hit is always current.
// The oldest entry is evicted first.
type classificationCache struct {
	mu      sync.Mutex
	max     int
	entries map[[sha256.Size]byte]classify.Result
	order   [][sha256.Size]byte
}

func newClassificationCache(max int) *classificationCache {
	return &classificationCache{
		max:     max,
		entries: make(map[[sha256.Size]byte]classify.Result),
	}
}

// classify parses and classifies raw, reusing a cached result when the
// same bytes were seen before. Parse failures are not cached.
func (c *classificationCache) classify(raw []byte) (classify.Result, error) {
	key := sha256.Sum256(raw)

	c.mu.Lock()
	if hit, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return hit, nil
	}
	c.mu.Unlock()

	doc, err := metadata.Parse(raw)
	if err != nil {
		return classify.Result{}, err
	}
	result := classify.Classify(doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.max {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
		c.entries[key] = result
	}
	return result, nil
}

func (c *classificationCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
