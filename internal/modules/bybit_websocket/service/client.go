package service

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
)

const reconnectDelay = time.Second

type Health interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type Params interface {
	CurrentSnapshot() models.StrategyParameters
}

// Client держит подписку tickers.<symbol> по инструментам из текущего снимка.
type Client struct {
	url    string
	ping   time.Duration
	dialer *websocket.Dialer

	cache  *Cache
	health Health
	params Params
	log    *zap.Logger

	changed chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewClient(url string, ping time.Duration, cache *Cache, health Health, params Params, log *zap.Logger) *Client {
	return &Client{
		url:     url,
		ping:    ping,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		cache:   cache,
		health:  health,
		params:  params,
		log:     log,
		changed: make(chan struct{}, 1),
	}
}

// OnApply: сигнал пересобрать подписку.
func (c *Client) OnApply(_ context.Context, prev, next models.StrategyParameters) {
	if stringsEqual(prev.Instruments, next.Instruments) {
		return
	}
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	c.done = done
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
}

func (c *Client) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run переподключается с паузой, пока контекст жив.
func (c *Client) Run(ctx context.Context) {
	for {
		err := c.session(ctx)
		c.health.SetWSConnected(false)
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("ticker stream dropped, reconnecting", zap.Error(err))

		t := time.NewTimer(reconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer func() {
		_ = conn.Close()
	}()
	c.health.SetWSConnected(true)
	c.log.Info("ticker stream connected", zap.String("url", c.url))

	subscribed := make(map[string]struct{})
	if err := c.resubscribe(conn, subscribed); err != nil {
		return err
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(conn)
	}()

	ping := time.NewTicker(c.ping)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-ping.C:
			if err := conn.WriteJSON(opRequest{Op: "ping"}); err != nil {
				return errors.Wrap(err, "ping")
			}
		case <-c.changed:
			if err := c.resubscribe(conn, subscribed); err != nil {
				return err
			}
		}
	}
}

// resubscribe приводит подписку к инструментам текущего снимка.
func (c *Client) resubscribe(conn *websocket.Conn, subscribed map[string]struct{}) error {
	want := c.params.CurrentSnapshot().Instruments
	sub, unsub := diffTopics(subscribed, want)

	for _, args := range chunk(unsub, maxArgsPerRequest) {
		if err := conn.WriteJSON(opRequest{Op: "unsubscribe", Args: args}); err != nil {
			return errors.Wrap(err, "unsubscribe")
		}
		for _, t := range args {
			delete(subscribed, t)
		}
	}
	for _, args := range chunk(sub, maxArgsPerRequest) {
		if err := conn.WriteJSON(opRequest{Op: "subscribe", Args: args}); err != nil {
			return errors.Wrap(err, "subscribe")
		}
		for _, t := range args {
			subscribed[t] = struct{}{}
		}
	}
	c.cache.Retain(want)

	if len(sub) > 0 || len(unsub) > 0 {
		c.log.Info("ticker subscription updated", zap.Strings("subscribe", sub), zap.Strings("unsubscribe", unsub))
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		q, ok := parseTicker(msg)
		if !ok {
			continue
		}
		c.cache.Put(q)
		c.health.TouchTick(q.At)
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
