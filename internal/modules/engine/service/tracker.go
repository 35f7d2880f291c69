package service

import (
	"sort"
	"sync"
	"time"

	"hedge_bot/internal/models"
)

// Tracker: таблица инструментов под мониторингом. Вставляет опенер,
// меняет и удаляет монитор и его горутины удержания.
type Tracker struct {
	mu    sync.Mutex
	m     map[string]*models.TrackedPosition
	locks map[string]*sync.Mutex
	gen   uint64
	now   func() time.Time
}

func NewTracker(now func() time.Time) *Tracker {
	return &Tracker{
		m:     make(map[string]*models.TrackedPosition),
		locks: make(map[string]*sync.Mutex),
		now:   now,
	}
}

// Insert регистрирует открытую пару, перезаписывая старую запись. Возвращает поколение записи.
func (t *Tracker) Insert(instrument string) uint64 {
	return t.insert(instrument, models.PhaseOpened)
}

// Claim занимает инструмент до выставления ордеров. Монитор такую запись не трогает.
func (t *Tracker) Claim(instrument string) uint64 {
	return t.insert(instrument, models.PhasePlacing)
}

func (t *Tracker) insert(instrument string, phase models.Phase) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	ts := t.now()
	t.m[instrument] = &models.TrackedPosition{
		Instrument: instrument,
		Phase:      phase,
		Gen:        t.gen,
		OpenedAt:   ts,
		UpdatedAt:  ts,
	}
	return t.gen
}

// Mutex сериализует работу опенера, монитора и удержания по одному инструменту.
func (t *Tracker) Mutex(instrument string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	mu, ok := t.locks[instrument]
	if !ok {
		mu = &sync.Mutex{}
		t.locks[instrument] = mu
	}
	return mu
}

func (t *Tracker) Get(instrument string) (models.TrackedPosition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.m[instrument]
	if !ok {
		return models.TrackedPosition{}, false
	}
	return *p, true
}

func (t *Tracker) Update(instrument string, fn func(p *models.TrackedPosition)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.m[instrument]
	if !ok {
		return false
	}
	fn(p)
	p.UpdatedAt = t.now()
	return true
}

// UpdateIf меняет запись, только если она того же поколения.
func (t *Tracker) UpdateIf(instrument string, gen uint64, fn func(p *models.TrackedPosition)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.m[instrument]
	if !ok || p.Gen != gen {
		return false
	}
	fn(p)
	p.UpdatedAt = t.now()
	return true
}

// RemoveIf снимает запись, только если её не заменила более свежая пара.
func (t *Tracker) RemoveIf(instrument string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.m[instrument]
	if !ok || p.Gen != gen {
		return false
	}
	delete(t.m, instrument)
	return true
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}

func (t *Tracker) Keys() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.m))
	for k := range t.m {
		keys = append(keys, k)
	}
	t.mu.Unlock()
	sort.Strings(keys)
	return keys
}

func (t *Tracker) Snapshot() []models.TrackedPosition {
	t.mu.Lock()
	out := make([]models.TrackedPosition, 0, len(t.m))
	for _, p := range t.m {
		out = append(out, *p)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}
