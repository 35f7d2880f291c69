package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
)

func (t *Telegram) askValue(ctx context.Context, chatID int64, key string) {
	t.setAwait(chatID, key)

	var hint string
	switch key {
	case keyCoins:
		hint = "Выберите монеты на которых будете торговать. Запишите через пробел как в образце" +
			"\n обязательно используйте только такой формат записи монет" +
			"\n(например: DOGEUSDT 1000PEPEUSDT BTCUSDT ETHUSDT):"
	case keyTradeSize:
		hint = "Введите размер депозита который вы хотите использовать для каждой монеты в USDT:"
	case keyStopLoss:
		hint = "Введите стоп лосс (%):"
	case keyTrailing:
		hint = "Введите процент trailing stop(%):"
	case keyDuration:
		hint = "Введите время в секундах на которое будет открыто прибыльное направление после закрытия убыточного:"
	case keyStopBot:
		hint = "Для остановки бота и продолжения мониторинга отправьте любой текст и нажмите `Обновить параметры`"
	default:
		hint = "Введите значение"
	}

	_, _ = t.Send(ctx, chatID, hint)
}

// handleAwaitValue разбирает ответ на последний запрос. При ошибке ожидание
// остаётся, остальные накопленные значения не трогаются.
func (t *Telegram) handleAwaitValue(ctx context.Context, chatID int64, text, key string) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "отмена") {
		t.clearAwait(chatID)
		_, _ = t.Send(ctx, chatID, "Ввод отменён.")
		return
	}

	var err error
	switch key {
	case keyCoins:
		var v []string
		if v, err = parseInstruments(text); err == nil {
			t.stage(chatID, stageInstruments(v))
		}
	case keyTradeSize:
		var v float64
		if v, err = parsePositive(key, text); err == nil {
			t.stage(chatID, stageTradeSize(v))
		}
	case keyStopLoss:
		var v float64
		if v, err = parsePositive(key, text); err == nil {
			t.stage(chatID, stageStopLoss(v))
		}
	case keyTrailing:
		var v float64
		if v, err = parsePositive(key, text); err == nil {
			t.stage(chatID, stageTrailing(v))
		}
	case keyDuration:
		var v time.Duration
		if v, err = parseSeconds(key, text); err == nil {
			t.stage(chatID, stageDuration(v))
		}
	case keyStopBot:
		// любой текст: пустой список монет, мониторинг продолжается
		t.stage(chatID, stageInstruments([]string{}))
		_, _ = t.Send(ctx, chatID, "Теперь нажмите обновить параметры.")
		return
	default:
		t.clearAwait(chatID)
		return
	}

	if err != nil {
		t.log.Debug("operator input rejected", zap.String("key", key), zap.Error(err))
		_, _ = t.Send(ctx, chatID, validationReply(key, err))
		return
	}
	t.sendWithApply(ctx, chatID, "Ваш выбор '"+text+"' сохранен.")
}

func validationReply(key string, err error) string {
	if key == keyCoins {
		return "❗️Укажите хотя бы одну монету, например `BTCUSDT ETHUSDT`"
	}
	if !apperr.IsValidation(err) {
		return "❗️" + err.Error()
	}
	return "❗️Нужно положительное число, например `1.5` (" + apperr.ValidationMessage(err) + ")"
}
