package platform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/etstream/ssebop-tcorr-etl/internal/observability"
)

// Evaluator submits a serialized graph for remote evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, graph []byte) (map[string]float64, error)
}

// CachedEvaluator wraps an Evaluator with an in-memory LRU cache. Graphs
// are deterministic, so identical serializations always reduce to the same
// values and re-evaluating a replayed scene event is wasted platform quota.
type CachedEvaluator struct {
	inner   Evaluator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedEvaluator creates a cache decorator around an evaluator.
func NewCachedEvaluator(inner Evaluator, maxEntries int, metrics *observability.Metrics) *CachedEvaluator {
	return &CachedEvaluator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedEvaluator) Evaluate(ctx context.Context, graph []byte) (map[string]float64, error) {
	sum := sha256.Sum256(graph)
	key := hex.EncodeToString(sum[:])

	if values, ok := c.cache.get(key); ok {
		c.metrics.EvalCache.WithLabelValues("hit").Inc()
		return values, nil
	}
	c.metrics.EvalCache.WithLabelValues("miss").Inc()

	values, err := c.inner.Evaluate(ctx, graph)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, values)
	return values, nil
}

// lruCache is a simple thread-safe LRU cache for evaluation results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value map[string]float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (map[string]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
