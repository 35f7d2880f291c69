package service

import (
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"hedge_bot/internal/models"
)

const (
	topicPrefix = "tickers."
	// Bybit принимает не больше 10 аргументов в одном subscribe
	maxArgsPerRequest = 10
)

type opRequest struct {
	ReqID string   `json:"req_id,omitempty"`
	Op    string   `json:"op"`
	Args  []string `json:"args,omitempty"`
}

// tickerFrame: кадр тикера linear, snapshot или delta, в delta поля могут отсутствовать.
type tickerFrame struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Ts    int64  `json:"ts"`
	Data  struct {
		Symbol    string `json:"symbol"`
		MarkPrice string `json:"markPrice"`
	} `json:"data"`

	// ответы на subscribe/ping
	Op      string `json:"op"`
	Success *bool  `json:"success"`
	RetMsg  string `json:"ret_msg"`
}

func topic(instrument string) string { return topicPrefix + instrument }

// parseTicker достаёт mark price. ok=false для служебных кадров и delta без цены.
func parseTicker(msg []byte) (models.MarkQuote, bool) {
	var f tickerFrame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return models.MarkQuote{}, false
	}
	if !strings.HasPrefix(f.Topic, topicPrefix) || f.Data.MarkPrice == "" {
		return models.MarkQuote{}, false
	}
	px, err := decimal.NewFromString(f.Data.MarkPrice)
	if err != nil || !px.IsPositive() {
		return models.MarkQuote{}, false
	}
	symbol := f.Data.Symbol
	if symbol == "" {
		symbol = strings.TrimPrefix(f.Topic, topicPrefix)
	}
	at := time.Now()
	if f.Ts > 0 {
		at = time.UnixMilli(f.Ts)
	}
	return models.MarkQuote{Instrument: symbol, Price: px, At: at}, true
}

// diffTopics: что подписать и что отписать, чтобы из have получить want.
func diffTopics(have map[string]struct{}, want []string) (sub, unsub []string) {
	wantSet := make(map[string]struct{}, len(want))
	for _, s := range want {
		t := topic(s)
		wantSet[t] = struct{}{}
		if _, ok := have[t]; !ok {
			sub = append(sub, t)
		}
	}
	for t := range have {
		if _, ok := wantSet[t]; !ok {
			unsub = append(unsub, t)
		}
	}
	sort.Strings(unsub)
	return sub, unsub
}

func chunk(args []string, n int) [][]string {
	var out [][]string
	for len(args) > n {
		out = append(out, args[:n])
		args = args[n:]
	}
	if len(args) > 0 {
		out = append(out, args)
	}
	return out
}
