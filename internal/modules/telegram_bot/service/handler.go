package service

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
	params "hedge_bot/internal/modules/params/service"
)

const callbackApply = "update_parameters"

const menuText = "Указать монеты: /coins_pair; " +
	"\nстоп лосс: /stop_loss; \ntrailing stop: /trailing_stop_percentage; " +
	"\nвремя открытой сделки: /position_duration" +
	"\nУстановить размер депозита на каждую сделку: /trade_size; " +
	"\nОстановить бота: /stop_bot" +
	"\n\nСостояние: /status; несохранённое: /pending; сбросить: /cancel"

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// 1) Обычные сообщения
	if msg := update.Message; msg != nil {
		if msg.Chat == nil || msg.Chat.ID != t.operator {
			t.dropForeign(update.UpdateID, msg.Chat)
			return
		}
		chatID := msg.Chat.ID

		if msg.IsCommand() {
			t.handleCommand(ctx, chatID, msg.Command())
			return
		}

		if key, ok := t.peekAwait(chatID); ok {
			t.handleAwaitValue(ctx, chatID, msg.Text, key)
		}
		return
	}

	// 2) Inline-кнопки
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != t.operator {
			var chat *tgbotapi.Chat
			if cb.Message != nil {
				chat = cb.Message.Chat
			}
			t.dropForeign(update.UpdateID, chat)
			return
		}
		t.handleCallback(ctx, cb.Message.Chat.ID, cb)
	}
}

func (t *Telegram) dropForeign(updateID int, chat *tgbotapi.Chat) {
	var chatID int64
	if chat != nil {
		chatID = chat.ID
	}
	t.log.Debug("update from foreign chat dropped", zap.Int("update_id", updateID), zap.Int64("chat_id", chatID))
}

func (t *Telegram) handleCommand(ctx context.Context, chatID int64, cmd string) {
	switch cmd {
	case "start":
		t.clearAwait(chatID)
		t.sendWithApply(ctx, chatID, menuText)
	case keyCoins, keyTradeSize, keyStopLoss, keyTrailing, keyDuration, keyStopBot:
		t.askValue(ctx, chatID, cmd)
	case "status":
		t.handleStatus(ctx, chatID)
	case "pending":
		t.sendWithApply(ctx, chatID, formatStaged(t.staged(chatID)))
	case "cancel":
		t.dropStaged(chatID)
		_, _ = t.Send(ctx, chatID, "Несохранённые изменения сброшены.")
	default:
		_, _ = t.Send(ctx, chatID, "Неизвестная команда, список: /start")
	}
}

// sendWithApply: сообщение с кнопкой «Обновить параметры».
func (t *Telegram) sendWithApply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Обновить параметры", callbackApply),
		),
	)
	if _, err := t.SendMessage(ctx, msg); err != nil {
		t.log.Warn("send failed", zap.Error(err))
	}
}

func (t *Telegram) handleCallback(ctx context.Context, chatID int64, cb *tgbotapi.CallbackQuery) {
	// отвечаем ТГ, чтобы убрать "часики" на кнопке
	_, _ = t.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	switch cb.Data {
	case callbackApply:
		t.handleApply(ctx, chatID)
	default:
		t.log.Debug("unknown callback", zap.String("data", cb.Data))
	}
}

func (t *Telegram) handleApply(ctx context.Context, chatID int64) {
	upd := t.staged(chatID)
	next, err := t.params.ApplyUpdate(params.WithOperator(ctx, chatID), upd)
	if err != nil {
		t.log.Info("parameter update rejected", zap.Error(err))
		if apperr.IsValidation(err) {
			_, _ = t.Send(ctx, chatID, "❗️Параметры не обновлены: "+apperr.ValidationMessage(err))
			return
		}
		_, _ = t.Send(ctx, chatID, "❗️Параметры не обновлены: "+err.Error())
		return
	}

	t.dropStaged(chatID)
	_, _ = t.Send(ctx, chatID, "Параметры успешно обновлены!\n\n"+formatParameters(next))
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64) {
	text := formatStatus(
		t.now(),
		t.params.CurrentSnapshot(),
		t.staged(chatID),
		t.positions.Tracked(),
		t.quotes.Quotes(),
	)
	_, _ = t.Send(ctx, chatID, text)
}
