package service

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"hedge_bot/internal/models"
)

// GetOpenLegs: открытые ноги по инструменту (size > 0).
func (c *Client) GetOpenLegs(ctx context.Context, instrument string) ([]models.Leg, error) {
	q := url.Values{}
	q.Set("category", categoryLinear)
	q.Set("symbol", instrument)

	var res positionList
	if err := c.get(ctx, "GetOpenLegs", "/v5/position/list", q, &res); err != nil {
		return nil, err
	}

	legs := make([]models.Leg, 0, 2)
	for _, p := range res.List {
		if p.Symbol != instrument {
			continue
		}
		size, err := decimal.NewFromString(p.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "GetOpenLegs %s size %q", instrument, p.Size)
		}
		if !size.IsPositive() {
			continue
		}

		slot := models.Slot(p.PositionIdx)
		if !slot.Valid() {
			return nil, errors.Errorf("GetOpenLegs %s: positionIdx=%d, account must be in hedge mode", instrument, p.PositionIdx)
		}

		legs = append(legs, models.Leg{
			Instrument:   p.Symbol,
			Slot:         slot,
			Side:         models.Side(p.Side),
			Size:         size,
			AvgPrice:     parseDecimal(p.AvgPrice),
			MarkPrice:    parseDecimal(p.MarkPrice),
			StopLoss:     parseDecimal(p.StopLoss),
			TrailingStop: parseDecimal(p.TrailingStop),
		})
	}
	return legs, nil
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
