package service

import (
	"sync/atomic"
	"time"
)

// State: отметки живости движка и потока котировок для /healthz.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastOpener  atomic.Int64 // unix nano
	lastMonitor atomic.Int64
	tracked     atomic.Int64

	wsConnected  atomic.Bool
	lastTickUnix atomic.Int64 // unix seconds
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) TouchOpener(t time.Time)  { s.lastOpener.Store(t.UnixNano()) }
func (s *State) TouchMonitor(t time.Time) { s.lastMonitor.Store(t.UnixNano()) }
func (s *State) SetTracked(n int)         { s.tracked.Store(int64(n)) }

func (s *State) LastOpener() time.Time  { return fromNano(s.lastOpener.Load()) }
func (s *State) LastMonitor() time.Time { return fromNano(s.lastMonitor.Load()) }
func (s *State) Tracked() int           { return int(s.tracked.Load()) }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// Stale: цикл не отмечался дольше limit. До первой отметки не устаревает.
func (s *State) Stale(now time.Time, limit time.Duration) bool {
	for _, t := range []time.Time{s.LastOpener(), s.LastMonitor()} {
		if !t.IsZero() && now.Sub(t) > limit {
			return true
		}
	}
	return false
}

func fromNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
