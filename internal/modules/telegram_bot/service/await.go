package service

import (
	"sync"
	"time"

	"hedge_bot/internal/models"
)

const (
	keyCoins     = "coins_pair"
	keyTradeSize = "trade_size"
	keyStopLoss  = "stop_loss"
	keyTrailing  = "trailing_stop_percentage"
	keyDuration  = "position_duration"
	keyStopBot   = "stop_bot"
)

// stagingStore: ожидаемый ввод и накопленные, ещё не применённые значения.
type stagingStore struct {
	mu     sync.Mutex
	await  map[int64]string // chatID -> key
	staged map[int64]models.ParamsUpdate
}

func newStagingStore() *stagingStore {
	return &stagingStore{
		await:  make(map[int64]string),
		staged: make(map[int64]models.ParamsUpdate),
	}
}

func (t *Telegram) setAwait(chatID int64, key string) {
	t.staging.mu.Lock()
	defer t.staging.mu.Unlock()
	t.staging.await[chatID] = key
}

func (t *Telegram) peekAwait(chatID int64) (string, bool) {
	t.staging.mu.Lock()
	defer t.staging.mu.Unlock()
	key, ok := t.staging.await[chatID]
	return key, ok
}

func (t *Telegram) clearAwait(chatID int64) {
	t.staging.mu.Lock()
	defer t.staging.mu.Unlock()
	delete(t.staging.await, chatID)
}

// stage меняет одно поле накопленного обновления и снимает ожидание.
func (t *Telegram) stage(chatID int64, fn func(u *models.ParamsUpdate)) {
	t.staging.mu.Lock()
	defer t.staging.mu.Unlock()
	u := t.staging.staged[chatID]
	fn(&u)
	t.staging.staged[chatID] = u
	delete(t.staging.await, chatID)
}

func (t *Telegram) staged(chatID int64) models.ParamsUpdate {
	t.staging.mu.Lock()
	defer t.staging.mu.Unlock()
	return t.staging.staged[chatID]
}

func (t *Telegram) dropStaged(chatID int64) {
	t.staging.mu.Lock()
	defer t.staging.mu.Unlock()
	delete(t.staging.staged, chatID)
	delete(t.staging.await, chatID)
}

func stageInstruments(v []string) func(u *models.ParamsUpdate) {
	return func(u *models.ParamsUpdate) { u.Instruments = &v }
}

func stageTradeSize(v float64) func(u *models.ParamsUpdate) {
	return func(u *models.ParamsUpdate) { u.TradeSize = &v }
}

func stageStopLoss(v float64) func(u *models.ParamsUpdate) {
	return func(u *models.ParamsUpdate) { u.StopLossPct = &v }
}

func stageTrailing(v float64) func(u *models.ParamsUpdate) {
	return func(u *models.ParamsUpdate) { u.TrailingStopPct = &v }
}

func stageDuration(v time.Duration) func(u *models.ParamsUpdate) {
	return func(u *models.ParamsUpdate) { u.HoldDuration = &v }
}
