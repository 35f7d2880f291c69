package service

import (
	"encoding/json"
	"fmt"
)

const (
	categoryLinear = "linear"

	retOK          = 0
	retNotModified = 34040 // trading-stop: значения уже такие же
	retTooMany     = 10006
	retBusy        = 10016
	retRecvWindow  = 10002
)

// BybitError: бизнес-ошибка API (retCode != 0).
type BybitError struct {
	Op   string
	Code int
	Msg  string
}

func (e *BybitError) Error() string {
	return fmt.Sprintf("%s bybit error %d: %s", e.Op, e.Code, e.Msg)
}

type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

type positionList struct {
	Category string `json:"category"`
	List     []struct {
		Symbol       string `json:"symbol"`
		Side         string `json:"side"`
		Size         string `json:"size"`
		AvgPrice     string `json:"avgPrice"`
		MarkPrice    string `json:"markPrice"`
		PositionIdx  int    `json:"positionIdx"`
		StopLoss     string `json:"stopLoss"`
		TrailingStop string `json:"trailingStop"`
	} `json:"list"`
	NextPageCursor string `json:"nextPageCursor"`
}

type instrumentsInfo struct {
	List []struct {
		Symbol      string `json:"symbol"`
		Status      string `json:"status"`
		PriceFilter struct {
			TickSize string `json:"tickSize"`
		} `json:"priceFilter"`
		LotSizeFilter struct {
			QtyStep     string `json:"qtyStep"`
			MinOrderQty string `json:"minOrderQty"`
		} `json:"lotSizeFilter"`
	} `json:"list"`
}

type tickers struct {
	List []struct {
		Symbol    string `json:"symbol"`
		MarkPrice string `json:"markPrice"`
		LastPrice string `json:"lastPrice"`
	} `json:"list"`
}

type orderCreated struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}
