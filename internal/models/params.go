package models

import (
	"fmt"
	"strings"
	"time"

	"hedge_bot/internal/apperr"
)

const (
	DefaultTradeSize       = 6.0
	DefaultStopLossPct     = 1.0
	DefaultTrailingStopPct = 1.0
	DefaultHoldDuration    = 10 * time.Second
)

// StrategyParameters: неизменяемый снимок настроек стратегии.
// Пустой список инструментов означает паузу открытия.
type StrategyParameters struct {
	Instruments     []string      `json:"instruments"`
	TradeSize       float64       `json:"trade_size"`
	StopLossPct     float64       `json:"stop_loss_pct"`
	TrailingStopPct float64       `json:"trailing_stop_pct"`
	HoldDuration    time.Duration `json:"hold_duration"`
}

func DefaultParameters() StrategyParameters {
	return StrategyParameters{
		Instruments:     []string{},
		TradeSize:       DefaultTradeSize,
		StopLossPct:     DefaultStopLossPct,
		TrailingStopPct: DefaultTrailingStopPct,
		HoldDuration:    DefaultHoldDuration,
	}
}

// Clone копирует слайс инструментов, чтобы снимок нельзя было поменять снаружи.
func (p StrategyParameters) Clone() StrategyParameters {
	out := p
	out.Instruments = append([]string(nil), p.Instruments...)
	if out.Instruments == nil {
		out.Instruments = []string{}
	}
	return out
}

func (p StrategyParameters) Paused() bool { return len(p.Instruments) == 0 }

func (p StrategyParameters) Validate() error {
	if !(p.TradeSize > 0) { // NaN тоже отсекаем
		return apperr.Validation("trade_size", "must be > 0")
	}
	if !(p.StopLossPct > 0) {
		return apperr.Validation("stop_loss", "must be > 0")
	}
	if !(p.TrailingStopPct > 0) {
		return apperr.Validation("trailing_stop_percentage", "must be > 0")
	}
	if p.HoldDuration <= 0 {
		return apperr.Validation("position_duration", "must be > 0")
	}
	seen := make(map[string]struct{}, len(p.Instruments))
	for _, s := range p.Instruments {
		if s == "" {
			return apperr.Validation("coins_pair", "empty instrument")
		}
		if _, dup := seen[s]; dup {
			return apperr.Validation("coins_pair", fmt.Sprintf("duplicate instrument %s", s))
		}
		seen[s] = struct{}{}
	}
	return nil
}

func (p StrategyParameters) Equal(o StrategyParameters) bool {
	if p.TradeSize != o.TradeSize || p.StopLossPct != o.StopLossPct ||
		p.TrailingStopPct != o.TrailingStopPct || p.HoldDuration != o.HoldDuration {
		return false
	}
	if len(p.Instruments) != len(o.Instruments) {
		return false
	}
	for i := range p.Instruments {
		if p.Instruments[i] != o.Instruments[i] {
			return false
		}
	}
	return true
}

func (p StrategyParameters) String() string {
	return fmt.Sprintf("instruments=[%s] trade_size=%g stop_loss=%g%% trailing=%g%% hold=%s",
		strings.Join(p.Instruments, " "), p.TradeSize, p.StopLossPct, p.TrailingStopPct, p.HoldDuration)
}

// ParamsUpdate: частичное обновление: nil означает «не менять».
type ParamsUpdate struct {
	Instruments     *[]string
	TradeSize       *float64
	StopLossPct     *float64
	TrailingStopPct *float64
	HoldDuration    *time.Duration
}

func (u ParamsUpdate) Empty() bool {
	return u.Instruments == nil && u.TradeSize == nil && u.StopLossPct == nil &&
		u.TrailingStopPct == nil && u.HoldDuration == nil
}

// Apply собирает новый снимок поверх base, не трогая base.
func (u ParamsUpdate) Apply(base StrategyParameters) (StrategyParameters, error) {
	next := base.Clone()
	if u.Instruments != nil {
		next.Instruments = append([]string{}, (*u.Instruments)...)
	}
	if u.TradeSize != nil {
		next.TradeSize = *u.TradeSize
	}
	if u.StopLossPct != nil {
		next.StopLossPct = *u.StopLossPct
	}
	if u.TrailingStopPct != nil {
		next.TrailingStopPct = *u.TrailingStopPct
	}
	if u.HoldDuration != nil {
		next.HoldDuration = *u.HoldDuration
	}
	if err := next.Validate(); err != nil {
		return base, err
	}
	return next, nil
}

// NormalizeInstruments приводит к верхнему регистру и убирает повторы, сохраняя порядок.
func NormalizeInstruments(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		s := strings.ToUpper(strings.TrimSpace(f))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
