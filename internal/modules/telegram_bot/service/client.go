package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
)

// Sender: часть *tgbot.BotAPI, которой пользуется адаптер.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	Request(c tgbot.Chattable) (*tgbot.APIResponse, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

type ParamsStore interface {
	CurrentSnapshot() models.StrategyParameters
	ApplyUpdate(ctx context.Context, upd models.ParamsUpdate) (models.StrategyParameters, error)
}

// Positions: отслеживаемые движком инструменты для /status.
type Positions interface {
	Tracked() []models.TrackedPosition
}

type Quotes interface {
	Quotes() []models.MarkQuote
}

// Telegram: канал управления одного оператора.
type Telegram struct {
	bot      Sender
	operator int64

	params    ParamsStore
	positions Positions
	quotes    Quotes

	staging *stagingStore
	log     *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewTelegram(bot Sender, operator int64, params ParamsStore, positions Positions, quotes Quotes, log *zap.Logger) *Telegram {
	return &Telegram{
		bot:       bot,
		operator:  operator,
		params:    params,
		positions: positions,
		quotes:    quotes,
		staging:   newStagingStore(),
		log:       log,
		now:       time.Now,
	}
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

// SendService: служебное сообщение оператору.
func (t *Telegram) SendService(ctx context.Context, msg string) {
	if _, err := t.Send(ctx, t.operator, msg); err != nil {
		t.log.Warn("service message not delivered", zap.Error(err))
	}
}

// Start запускает чтение апдейтов в горутине.
func (t *Telegram) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	t.done = done

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		defer close(done)
		t.poll(ctx, updates)
	}()
}

// poll читает апдейты до отмены контекста. Паника в обработчике не роняет цикл.
func (t *Telegram) poll(ctx context.Context, updates tgbot.UpdatesChannel) {
	defer t.once.Do(t.bot.StopReceivingUpdates)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.safeHandle(ctx, update)
		}
	}
}

func (t *Telegram) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Telegram) safeHandle(ctx context.Context, update tgbot.Update) {
	defer func() {
		if p := recover(); p != nil {
			t.log.Error("telegram handler panic", zap.Any("panic", p), zap.Int("update_id", update.UpdateID))
		}
	}()
	t.handleUpdate(ctx, update)
}
