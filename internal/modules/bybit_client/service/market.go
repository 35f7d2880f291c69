package service

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"hedge_bot/internal/helper"
	"hedge_bot/internal/models"
)

// GetInstrumentPrecision: знаки после запятой из tickSize и qtyStep.
// Шаги инструмента не меняются, поэтому кешируем на всё время жизни процесса.
func (c *Client) GetInstrumentPrecision(ctx context.Context, instrument string) (models.Precision, error) {
	c.precMu.RLock()
	p, ok := c.precisions[instrument]
	c.precMu.RUnlock()
	if ok {
		return p, nil
	}

	q := url.Values{}
	q.Set("category", categoryLinear)
	q.Set("symbol", instrument)

	var res instrumentsInfo
	if err := c.get(ctx, "GetInstrumentPrecision", "/v5/market/instruments-info", q, &res); err != nil {
		return models.Precision{}, err
	}
	if len(res.List) == 0 {
		return models.Precision{}, errors.Errorf("instrument %s not found", instrument)
	}
	info := res.List[0]
	if info.Status != "" && info.Status != "Trading" {
		return models.Precision{}, errors.Errorf("instrument %s not trading: status=%s", instrument, info.Status)
	}
	if info.PriceFilter.TickSize == "" || info.LotSizeFilter.QtyStep == "" {
		return models.Precision{}, errors.Errorf("instrument %s: empty tickSize/qtyStep", instrument)
	}

	p = models.Precision{
		Price: helper.DecimalsFromStep(info.PriceFilter.TickSize),
		Qty:   helper.DecimalsFromStep(info.LotSizeFilter.QtyStep),
	}

	c.precMu.Lock()
	c.precisions[instrument] = p
	c.precMu.Unlock()
	return p, nil
}

func (c *Client) GetMarkPrice(ctx context.Context, instrument string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("category", categoryLinear)
	q.Set("symbol", instrument)

	var res tickers
	if err := c.get(ctx, "GetMarkPrice", "/v5/market/tickers", q, &res); err != nil {
		return decimal.Zero, err
	}
	if len(res.List) == 0 {
		return decimal.Zero, errors.Errorf("ticker %s not found", instrument)
	}
	px, err := decimal.NewFromString(res.List[0].MarkPrice)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "GetMarkPrice %s: markPrice %q", instrument, res.List[0].MarkPrice)
	}
	if !px.IsPositive() {
		return decimal.Zero, errors.Errorf("GetMarkPrice %s: markPrice <= 0", instrument)
	}
	return px, nil
}
