package service

import (
	"sync"
	"time"
)

type backoffState struct {
	fails int
	until time.Time
}

// Backoff: экспоненциальная пауза по инструменту после повторных сбоев биржи.
type Backoff struct {
	mu   sync.Mutex
	base time.Duration
	max  time.Duration
	m    map[string]backoffState
}

func NewBackoff(base, limit time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if limit < base {
		limit = base
	}
	return &Backoff{base: base, max: limit, m: make(map[string]backoffState)}
}

// Fail считает сбой и возвращает назначенную паузу.
func (b *Backoff) Fail(key string, now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.m[key]
	st.fails++

	d := b.base
	for i := 1; i < st.fails && d < b.max; i++ {
		d *= 2
	}
	if d > b.max {
		d = b.max
	}
	st.until = now.Add(d)
	b.m[key] = st
	return d
}

func (b *Backoff) Blocked(key string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.m[key]
	return ok && now.Before(st.until)
}

func (b *Backoff) Reset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, key)
}
