package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hedge_bot/internal/apperr"
	"hedge_bot/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c := newClient(server.URL, "key", "secret", 5000, 2*time.Second, server.Client(), zap.NewNop())
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func writeResult(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":` + result + `}`))
}

func TestGetOpenLegsFiltersEmptyAndSigns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/position/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "linear" || r.URL.Query().Get("symbol") != "XYZUSDT" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		mac := hmac.New(sha256.New, []byte("secret"))
		mac.Write([]byte("1700000000000" + "key" + "5000" + r.URL.RawQuery))
		if got, want := r.Header.Get("X-BAPI-SIGN"), hex.EncodeToString(mac.Sum(nil)); got != want {
			t.Errorf("bad signature %s want %s", got, want)
		}
		writeResult(w, `{"category":"linear","list":[
			{"symbol":"XYZUSDT","side":"Buy","size":"0.06","avgPrice":"100","markPrice":"100.5","positionIdx":1,"stopLoss":"99","trailingStop":"0"},
			{"symbol":"XYZUSDT","side":"","size":"0","avgPrice":"0","markPrice":"100.5","positionIdx":2,"stopLoss":"","trailingStop":"0"}
		]}`)
	})

	legs, err := c.GetOpenLegs(context.Background(), "XYZUSDT")
	if err != nil {
		t.Fatalf("GetOpenLegs: %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("expected 1 open leg, got %d", len(legs))
	}
	if legs[0].Slot != models.SlotLong || legs[0].Side != models.SideBuy {
		t.Fatalf("unexpected leg %+v", legs[0])
	}
	if !legs[0].AvgPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected avg %s", legs[0].AvgPrice)
	}
}

func TestGetOpenLegsRejectsOneWayMode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, `{"list":[{"symbol":"XYZUSDT","side":"Buy","size":"1","positionIdx":0}]}`)
	})
	if _, err := c.GetOpenLegs(context.Background(), "XYZUSDT"); err == nil {
		t.Fatalf("expected error for one-way positionIdx")
	}
}

func TestGetInstrumentPrecisionCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeResult(w, `{"list":[{"symbol":"XYZUSDT","status":"Trading","priceFilter":{"tickSize":"0.01"},"lotSizeFilter":{"qtyStep":"0.001","minOrderQty":"0.001"}}]}`)
	})

	for i := 0; i < 3; i++ {
		p, err := c.GetInstrumentPrecision(context.Background(), "XYZUSDT")
		if err != nil {
			t.Fatalf("precision: %v", err)
		}
		if p.Price != 2 || p.Qty != 3 {
			t.Fatalf("unexpected precision %+v", p)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", calls.Load())
	}
}

func TestGetMarkPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/tickers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeResult(w, `{"list":[{"symbol":"XYZUSDT","markPrice":"105.00"}]}`)
	})
	px, err := c.GetMarkPrice(context.Background(), "XYZUSDT")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !px.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("unexpected mark %s", px)
	}
}

func TestPlaceMarketOrderBody(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v5/order/create" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		mac := hmac.New(sha256.New, []byte("secret"))
		mac.Write([]byte("1700000000000" + "key" + "5000" + string(raw)))
		if r.Header.Get("X-BAPI-SIGN") != hex.EncodeToString(mac.Sum(nil)) {
			t.Errorf("bad post signature")
		}
		_ = json.Unmarshal(raw, &body)
		writeResult(w, `{"orderId":"abc","orderLinkId":"x"}`)
	})

	sl := decimal.RequireFromString("99.00")
	res, err := c.PlaceMarketOrder(context.Background(), models.OrderRequest{
		Instrument: "XYZUSDT",
		Side:       models.SideBuy,
		Slot:       models.SlotLong,
		Qty:        decimal.RequireFromString("0.060"),
		StopLoss:   &sl,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if res.OrderID != "abc" || res.OrderLinkID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if body["side"] != "Buy" || body["orderType"] != "Market" || body["positionIdx"] != float64(1) {
		t.Fatalf("unexpected body %v", body)
	}
	if body["stopLoss"] != "99" || body["slTriggerBy"] != "MarkPrice" {
		t.Fatalf("unexpected stop fields %v", body)
	}
}

func TestClosePositionUsesSlotReverseSide(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeResult(w, `{"orderId":"c1"}`)
	})
	if err := c.ClosePosition(context.Background(), "XYZUSDT", models.SlotShort); err != nil {
		t.Fatalf("close: %v", err)
	}
	if body["side"] != "Buy" || body["positionIdx"] != float64(2) || body["reduceOnly"] != true || body["qty"] != "0" {
		t.Fatalf("unexpected close body %v", body)
	}
}

func TestTradingStopNotModifiedIsSuccess(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"retCode":34040,"retMsg":"not modified","result":{}}`))
	})
	if err := c.ClearStopLoss(context.Background(), "XYZUSDT", models.SlotLong); err != nil {
		t.Fatalf("expected not-modified to pass, got %v", err)
	}
	if body["stopLoss"] != "0" || body["tpslMode"] != "Full" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRateLimitIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10006,"retMsg":"Too many visits","result":{}}`))
	})
	_, err := c.GetMarkPrice(context.Background(), "XYZUSDT")
	if !apperr.IsTransient(err) {
		t.Fatalf("expected transient, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetOpenLegs(context.Background(), "XYZUSDT")
	if !apperr.IsTransient(err) {
		t.Fatalf("expected transient, got %v", err)
	}
}

func TestBusinessErrorNotTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":110007,"retMsg":"insufficient balance","result":{}}`))
	})
	_, err := c.PlaceMarketOrder(context.Background(), models.OrderRequest{
		Instrument: "XYZUSDT", Side: models.SideSell, Slot: models.SlotShort, Qty: decimal.NewFromInt(1),
	})
	if err == nil || apperr.IsTransient(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestCallTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	c.callTimeout = 50 * time.Millisecond
	_, err := c.GetMarkPrice(context.Background(), "XYZUSDT")
	if !apperr.IsTransient(err) {
		t.Fatalf("expected transient timeout, got %v", err)
	}
}
