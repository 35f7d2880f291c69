package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
	"hedge_bot/internal/models"
	"hedge_bot/internal/modules/config"
)

// Client: REST-клиент Bybit v5 (USDT linear, hedge-режим).
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	apiSecret   string
	recvWindow  string
	callTimeout time.Duration
	now         func() time.Time
	log         *zap.Logger

	precMu     sync.RWMutex
	precisions map[string]models.Precision
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	return newClient(
		cfg.Bybit.BaseURL, cfg.Bybit.APIKey, cfg.Bybit.APISecret,
		cfg.Bybit.RecvWindow, cfg.Bybit.CallTimeout,
		&http.Client{Timeout: 2 * cfg.Bybit.CallTimeout},
		log,
	)
}

func newClient(baseURL, key, secret string, recvWindow int, callTimeout time.Duration, hc *http.Client, log *zap.Logger) *Client {
	return &Client{
		http:        hc,
		baseURL:     baseURL,
		apiKey:      key,
		apiSecret:   secret,
		recvWindow:  strconv.Itoa(recvWindow),
		callTimeout: callTimeout,
		now:         time.Now,
		log:         log,
		precisions:  make(map[string]models.Precision),
	}
}

func (c *Client) sign(ts, payload string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(ts + c.apiKey + c.recvWindow + payload))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, q.Encode(), out, retOK)
}

func (c *Client) post(ctx context.Context, op, path string, body map[string]any, out any, okCodes ...int) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "%s marshal", op)
	}
	return c.do(ctx, op, http.MethodPost, path, string(payload), out, append(okCodes, retOK)...)
}

// do выполняет подписанный запрос с собственным таймаутом на вызов.
func (c *Client) do(ctx context.Context, op, method, path, payload string, out any, okCodes ...int) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	span, ctx := opentracing.StartSpanFromContext(ctx, "bybit."+op)
	defer span.Finish()
	ext.HTTPMethod.Set(span, method)
	ext.HTTPUrl.Set(span, path)

	target := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if payload != "" {
			target += "?" + payload
		}
	} else {
		body = bytes.NewReader([]byte(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrapf(err, "%s new request", op)
	}

	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", c.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", c.recvWindow)
	req.Header.Set("X-BAPI-SIGN", c.sign(ts, payload))
	req.Header.Set("X-BAPI-SIGN-TYPE", "2")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		ext.Error.Set(span, true)
		return apperr.Transient(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transient(op, err)
	}
	ext.HTTPStatusCode.Set(span, uint16(resp.StatusCode))

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
		ext.Error.Set(span, true)
		return apperr.Transient(op, fmt.Errorf("http %d: %s", resp.StatusCode, string(data)))
	}
	if resp.StatusCode/100 != 2 {
		ext.Error.Set(span, true)
		return errors.Errorf("%s http %d: %s", op, resp.StatusCode, string(data))
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(err, "%s decode; body=%s", op, string(data))
	}

	if !acceptable(env.RetCode, okCodes) {
		ext.Error.Set(span, true)
		bErr := &BybitError{Op: op, Code: env.RetCode, Msg: env.RetMsg}
		switch env.RetCode {
		case retTooMany, retBusy, retRecvWindow:
			return apperr.Transient(op, bErr)
		}
		return errors.WithStack(bErr)
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Result, out); err != nil {
		return errors.Wrapf(err, "%s decode result; body=%s", op, string(data))
	}
	return nil
}

func acceptable(code int, ok []int) bool {
	for _, c := range ok {
		if code == c {
			return true
		}
	}
	return false
}
