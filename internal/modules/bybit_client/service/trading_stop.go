package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"hedge_bot/internal/models"
)

func (c *Client) SetStopLoss(ctx context.Context, instrument string, slot models.Slot, price decimal.Decimal) error {
	if !price.IsPositive() {
		return errors.Errorf("SetStopLoss %s: price <= 0", instrument)
	}
	return c.tradingStop(ctx, "SetStopLoss", instrument, slot, map[string]any{
		"stopLoss": price.String(),
	})
}

// SetTrailingStop: distance задаётся в цене, не в процентах.
func (c *Client) SetTrailingStop(ctx context.Context, instrument string, slot models.Slot, distance decimal.Decimal) error {
	if !distance.IsPositive() {
		return errors.Errorf("SetTrailingStop %s: distance <= 0", instrument)
	}
	return c.tradingStop(ctx, "SetTrailingStop", instrument, slot, map[string]any{
		"trailingStop": distance.String(),
	})
}

// ClearStopLoss: у Bybit "0" снимает стоп.
func (c *Client) ClearStopLoss(ctx context.Context, instrument string, slot models.Slot) error {
	return c.tradingStop(ctx, "ClearStopLoss", instrument, slot, map[string]any{
		"stopLoss": "0",
	})
}

func (c *Client) tradingStop(ctx context.Context, op, instrument string, slot models.Slot, fields map[string]any) error {
	if !slot.Valid() {
		return errors.Errorf("%s: invalid slot %d", op, slot)
	}
	body := map[string]any{
		"category":    categoryLinear,
		"symbol":      instrument,
		"slTriggerBy": "MarkPrice",
		"tpslMode":    "Full",
		"slOrderType": "Market",
		"positionIdx": int(slot),
	}
	for k, v := range fields {
		body[k] = v
	}
	return c.post(ctx, op, "/v5/position/trading-stop", body, nil, retNotModified)
}
