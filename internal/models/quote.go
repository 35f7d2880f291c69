package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarkQuote: последняя mark price из потока тикеров. Только для показа оператору.
type MarkQuote struct {
	Instrument string
	Price      decimal.Decimal
	At         time.Time
}
