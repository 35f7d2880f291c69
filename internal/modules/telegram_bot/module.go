package telegram

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	bybitws "hedge_bot/internal/modules/bybit_websocket/service"
	"hedge_bot/internal/modules/config"
	engine "hedge_bot/internal/modules/engine/service"
	params "hedge_bot/internal/modules/params/service"
	"hedge_bot/internal/modules/telegram_bot/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Клиент Bot API
		fx.Provide(
			func(cfg *config.Config) (*tgbot.BotAPI, error) {
				return tgbot.NewBotAPI(cfg.Telegram.Token)
			},
		),

		// 2. Адаптер оператора
		fx.Provide(
			func(cfg *config.Config, bot *tgbot.BotAPI, store *params.Store, e *engine.Engine,
				cache *bybitws.Cache, log *zap.Logger) *service.Telegram {
				return service.NewTelegram(bot, cfg.Telegram.OperatorChatID, store, e, cache, log.Named("telegram"))
			},
		),

		// Запуск основного цикла через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, appCtx context.Context, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						t.Start(appCtx)
						return nil
					},
					OnStop: func(context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
