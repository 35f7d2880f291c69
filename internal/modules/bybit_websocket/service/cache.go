package service

import (
	"sort"
	"sync"

	"hedge_bot/internal/models"
)

// Cache: последние mark price по инструментам. Движок его не читает.
type Cache struct {
	mu sync.RWMutex
	m  map[string]models.MarkQuote
}

func NewCache() *Cache {
	return &Cache{m: make(map[string]models.MarkQuote)}
}

func (c *Cache) Put(q models.MarkQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[q.Instrument] = q
}

func (c *Cache) Get(instrument string) (models.MarkQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.m[instrument]
	return q, ok
}

// Retain выкидывает инструменты, которых больше нет в подписке.
func (c *Cache) Retain(instruments []string) {
	keep := make(map[string]struct{}, len(instruments))
	for _, s := range instruments {
		keep[s] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if _, ok := keep[k]; !ok {
			delete(c.m, k)
		}
	}
}

func (c *Cache) Quotes() []models.MarkQuote {
	c.mu.RLock()
	out := make([]models.MarkQuote, 0, len(c.m))
	for _, q := range c.m {
		out = append(out, q)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}
