package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"

	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// QueryCache is an LRU cache of retrieval results keyed by (query, k), with a
// TTL. Every entry remembers the corpus it was computed from and only answers
// lookups against that same corpus. Invalidate drops every entry and advances
// the generation.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front is most recently used
	maxSize int
	ttl     time.Duration
	gen     uint64
	now     func() time.Time
}

type cacheEntry struct {
	key     string
	corpus  Corpus
	hits    []domain.Hit
	expires time.Time
}

// Corpus identifies the chunk slice of one loaded knowledge base. Each load
// produces a fresh slice, so a replaced knowledge base never matches.
type Corpus struct {
	first *string
	n     int
}

// CorpusOf returns the identity of chunks.
func CorpusOf(chunks []string) Corpus {
	if len(chunks) == 0 {
		return Corpus{}
	}
	return Corpus{first: &chunks[0], n: len(chunks)}
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, k int) string {
	return strconv.Itoa(k) + "\x00" + query
}

// Get returns hits cached for (query, k) against corpus. An entry from another
// corpus is dropped.
func (c *QueryCache) Get(corpus Corpus, query string, k int) ([]domain.Hit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[cacheKey(query, k)]
	if !ok {
		return nil, false
	}

	entry := el.Value.(*cacheEntry)
	if entry.corpus != corpus || c.now().After(entry.expires) {
		c.remove(el)
		return nil, false
	}

	c.lru.MoveToFront(el)
	return entry.hits, true
}

// Put stores hits for the current generation.
func (c *QueryCache) Put(corpus Corpus, query string, k int, hits []domain.Hit) {
	c.PutAt(c.Generation(), corpus, query, k, hits)
}

// PutAt stores hits computed during generation gen. Hits from an earlier
// generation are dropped.
func (c *QueryCache) PutAt(gen uint64, corpus Corpus, query string, k int, hits []domain.Hit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	key := cacheKey(query, k)
	expires := c.now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.corpus = corpus
		entry.hits = hits
		entry.expires = expires
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxSize {
		c.remove(c.lru.Back())
	}

	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, corpus: corpus, hits: hits, expires: expires})
}

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.maxSize)
	c.lru.Init()
	c.gen++
}

// Generation returns the current invalidation generation.
func (c *QueryCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *QueryCache) remove(el *list.Element) {
	c.lru.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

// CachedRetriever serves repeated (query, k) lookups from a QueryCache.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string, index port.VectorIndex, chunks []string, k int) ([]domain.Hit, error) {
	corpus := CorpusOf(chunks)
	if hits, ok := r.cache.Get(corpus, query, k); ok {
		return hits, nil
	}

	gen := r.cache.Generation()
	hits, err := r.retriever.Retrieve(ctx, query, index, chunks, k)
	if err != nil {
		return nil, err
	}

	r.cache.PutAt(gen, corpus, query, k, hits)
	return hits, nil
}

// Invalidate drops all cached results.
func (r *CachedRetriever) Invalidate() {
	r.cache.Invalidate()
}
