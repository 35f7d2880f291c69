package service

import (
	"fmt"
	"strings"
	"time"

	"hedge_bot/internal/models"
)

func formatInstruments(v []string) string {
	if len(v) == 0 {
		return "нет (открытие на паузе)"
	}
	return strings.Join(v, " ")
}

func formatParameters(p models.StrategyParameters) string {
	return fmt.Sprintf(
		"Монеты: %s\n"+
			"Размер сделки: %s USDT\n"+
			"Стоп лосс: %s%%\n"+
			"Trailing stop: %s%%\n"+
			"Время удержания: %s",
		formatInstruments(p.Instruments),
		f2(p.TradeSize),
		f2(p.StopLossPct),
		f2(p.TrailingStopPct),
		p.HoldDuration.String(),
	)
}

func formatStaged(u models.ParamsUpdate) string {
	if u.Empty() {
		return "Нет изменений, ожидающих применения."
	}
	var b strings.Builder
	b.WriteString("Ожидают применения:\n")
	if u.Instruments != nil {
		fmt.Fprintf(&b, "Монеты: %s\n", formatInstruments(*u.Instruments))
	}
	if u.TradeSize != nil {
		fmt.Fprintf(&b, "Размер сделки: %s USDT\n", f2(*u.TradeSize))
	}
	if u.StopLossPct != nil {
		fmt.Fprintf(&b, "Стоп лосс: %s%%\n", f2(*u.StopLossPct))
	}
	if u.TrailingStopPct != nil {
		fmt.Fprintf(&b, "Trailing stop: %s%%\n", f2(*u.TrailingStopPct))
	}
	if u.HoldDuration != nil {
		fmt.Fprintf(&b, "Время удержания: %s\n", u.HoldDuration.String())
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStatus(now time.Time, p models.StrategyParameters, u models.ParamsUpdate,
	tracked []models.TrackedPosition, quotes []models.MarkQuote) string {
	var b strings.Builder
	b.WriteString("📊 Текущие параметры:\n")
	b.WriteString(formatParameters(p))
	b.WriteString("\n\n")
	b.WriteString(formatStaged(u))
	b.WriteString("\n\n")

	if len(tracked) == 0 {
		b.WriteString("📭 Отслеживаемых позиций нет")
	} else {
		b.WriteString("Позиции под мониторингом:\n")
		for _, tp := range tracked {
			fmt.Fprintf(&b, "- %s: %s", tp.Instrument, tp.Phase)
			if tp.Phase == models.PhaseTrailing || tp.Phase == models.PhaseClosing {
				fmt.Fprintf(&b, " (%s)", tp.Survivor)
			}
			fmt.Fprintf(&b, ", открыта %s назад\n", now.Sub(tp.OpenedAt).Truncate(time.Second))
		}
	}

	if len(quotes) > 0 {
		b.WriteString("\n\nMark price:\n")
		for _, q := range quotes {
			fmt.Fprintf(&b, "- %s: %s\n", q.Instrument, q.Price.String())
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
