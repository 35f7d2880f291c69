package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Reverse возвращает противоположную сторону.
func (s Side) Reverse() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Slot: positionIdx в hedge-режиме Bybit: 1 лонг, 2 шорт.
type Slot int

const (
	SlotLong  Slot = 1
	SlotShort Slot = 2
)

func (s Slot) Valid() bool { return s == SlotLong || s == SlotShort }

// Side: сторона открывающего ордера для слота.
func (s Slot) Side() Side {
	if s == SlotShort {
		return SideSell
	}
	return SideBuy
}

// CloseSide: сторона закрывающего ордера. Считается только от слота,
// который закрываем, а не от последней запрошенной позиции.
func (s Slot) CloseSide() Side { return s.Side().Reverse() }

func (s Slot) String() string {
	switch s {
	case SlotLong:
		return "long"
	case SlotShort:
		return "short"
	default:
		return "unknown"
	}
}

// Leg: одна открытая позиция хеджа на бирже.
type Leg struct {
	Instrument   string
	Slot         Slot
	Side         Side
	Size         decimal.Decimal
	AvgPrice     decimal.Decimal
	MarkPrice    decimal.Decimal
	StopLoss     decimal.Decimal
	TrailingStop decimal.Decimal
}

// Precision: число знаков после запятой для цены и количества.
type Precision struct {
	Price int32
	Qty   int32
}

type OrderRequest struct {
	Instrument string
	Side       Side
	Slot       Slot
	Qty        decimal.Decimal
	StopLoss   *decimal.Decimal
}

type OrderResult struct {
	OrderID     string
	OrderLinkID string
}

type Phase int

const (
	PhaseOpened    Phase = iota // пара открыта, стоп ещё не выставлен
	PhaseProtected              // стопы стоят на обеих ногах
	PhaseTrailing               // одна нога выбита, трейлинг + ожидание
	PhaseClosing                // закрытие не прошло, монитор повторит
	PhasePlacing                // опенер выставляет ордера пары
)

func (p Phase) String() string {
	switch p {
	case PhaseOpened:
		return "opened"
	case PhaseProtected:
		return "protected"
	case PhaseTrailing:
		return "trailing"
	case PhaseClosing:
		return "closing"
	case PhasePlacing:
		return "placing"
	default:
		return "unknown"
	}
}

// TrackedPosition: локальная подсказка о хедже по инструменту.
// Источник правды по числу ног: биржа.
type TrackedPosition struct {
	Instrument  string
	StopLossSet bool
	Phase       Phase
	Survivor    Slot
	Gen         uint64 // растёт при каждой новой паре по инструменту
	OpenedAt    time.Time
	UpdatedAt   time.Time
}
