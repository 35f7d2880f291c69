package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
)

// PlaceMarketOrder: рыночный ордер в слот хеджа, опционально сразу со стопом.
func (c *Client) PlaceMarketOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if !req.Slot.Valid() {
		return models.OrderResult{}, errors.Errorf("PlaceMarketOrder: invalid slot %d", req.Slot)
	}
	if !req.Qty.IsPositive() {
		return models.OrderResult{}, errors.Errorf("PlaceMarketOrder: qty <= 0")
	}

	linkID := uuid.NewString()
	body := map[string]any{
		"category":    categoryLinear,
		"symbol":      req.Instrument,
		"side":        string(req.Side),
		"orderType":   "Market",
		"qty":         req.Qty.String(),
		"positionIdx": int(req.Slot),
		"orderLinkId": linkID,
	}
	if req.StopLoss != nil {
		body["stopLoss"] = req.StopLoss.String()
		body["slTriggerBy"] = "MarkPrice"
		body["tpslMode"] = "Full"
		body["slOrderType"] = "Market"
	}

	var res orderCreated
	if err := c.post(ctx, "PlaceMarketOrder", "/v5/order/create", body, &res); err != nil {
		return models.OrderResult{}, err
	}

	c.log.Info("order placed",
		zap.String("instrument", req.Instrument),
		zap.String("side", string(req.Side)),
		zap.Stringer("slot", req.Slot),
		zap.String("qty", req.Qty.String()),
		zap.String("order_id", res.OrderID),
	)
	return models.OrderResult{OrderID: res.OrderID, OrderLinkID: linkID}, nil
}

// ClosePosition закрывает ногу целиком: reduceOnly по рынку в обратную сторону.
// Сторона берётся из закрываемого слота того же инструмента.
func (c *Client) ClosePosition(ctx context.Context, instrument string, slot models.Slot) error {
	if !slot.Valid() {
		return errors.Errorf("ClosePosition: invalid slot %d", slot)
	}
	body := map[string]any{
		"category":       categoryLinear,
		"symbol":         instrument,
		"side":           string(slot.CloseSide()),
		"orderType":      "Market",
		"qty":            "0",
		"reduceOnly":     true,
		"closeOnTrigger": true,
		"positionIdx":    int(slot),
		"orderLinkId":    uuid.NewString(),
	}
	if err := c.post(ctx, "ClosePosition", "/v5/order/create", body, nil); err != nil {
		return err
	}
	c.log.Info("position closed", zap.String("instrument", instrument), zap.Stringer("slot", slot))
	return nil
}
