package helper

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DecimalsFromStep: число знаков после точки в tickSize/qtyStep ("0.010" -> 3, "1" -> 0).
func DecimalsFromStep(step string) int32 {
	step = strings.TrimSpace(step)
	i := strings.IndexByte(step, '.')
	if i < 0 {
		return 0
	}
	return int32(len(step) - i - 1)
}

// StopBelow: цена стопа для лонга: px × (1 − pct/100).
func StopBelow(px decimal.Decimal, pct float64, places int32) decimal.Decimal {
	k := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pct).Div(hundred))
	return px.Mul(k).Round(places)
}

// StopAbove: цена стопа для шорта: px × (1 + pct/100).
func StopAbove(px decimal.Decimal, pct float64, places int32) decimal.Decimal {
	k := decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct).Div(hundred))
	return px.Mul(k).Round(places)
}

// PctOf: абсолютная величина pct/100 × px.
func PctOf(px decimal.Decimal, pct float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(pct).Div(hundred).Mul(px).Round(places)
}

// QtyFor: количество контрактов на notional по цене px.
func QtyFor(notional float64, px decimal.Decimal, places int32) decimal.Decimal {
	if !px.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(notional).Div(px).Round(places)
}

// Fixed форматирует с фиксированным числом знаков для API.
func Fixed(v decimal.Decimal, places int32) string {
	if places < 0 {
		places = 0
	}
	return v.StringFixed(places)
}
