package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dan9191/shop-service/internal/models"
	"github.com/Dan9191/shop-service/internal/repository"
	"github.com/Dan9191/shop-service/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	maxOrderNoAttempts  = 10
	maxRefundNoAttempts = 10
)

// CreateOrderInput carries the customer supplied part of a new order
type CreateOrderInput struct {
	Address     json.RawMessage `json:"address"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Remark      string          `json:"remark"`
}

// CreateOrder builds a new order, assigns its number and persists it
func (s *Service) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (*models.Order, error) {
	if !in.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidOrder)
	}
	if len(in.Address) > 0 && !json.Valid(in.Address) {
		return nil, fmt.Errorf("%w: address must be a JSON document", ErrInvalidOrder)
	}

	no, err := s.findAvailableNo(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		No:           no,
		UserID:       userID,
		Address:      in.Address,
		TotalAmount:  in.TotalAmount.Round(2),
		Remark:       in.Remark,
		RefundStatus: models.RefundStatusPending,
		ShipStatus:   models.ShipStatusPending,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_no": order.No, "user_id": userID}).Info("Order created")
	return order, nil
}

// findAvailableNo generates an order number not yet used by another order
func (s *Service) findAvailableNo(ctx context.Context) (string, error) {
	for i := 0; i < maxOrderNoAttempts; i++ {
		no, err := utils.GenerateOrderNo(s.now())
		if err != nil {
			return "", err
		}
		exists, err := s.repo.OrderNoExists(ctx, no)
		if err != nil {
			return "", err
		}
		if !exists {
			return no, nil
		}
	}
	s.log.Warn("find order no failed")
	return "", ErrOrderNoUnavailable
}

// findAvailableRefundNo generates a refund number not yet used by another order
func (s *Service) findAvailableRefundNo(ctx context.Context) (string, error) {
	for i := 0; i < maxRefundNoAttempts; i++ {
		no := utils.GenerateRefundNo()
		exists, err := s.repo.RefundNoExists(ctx, no)
		if err != nil {
			return "", err
		}
		if !exists {
			return no, nil
		}
	}
	s.log.Warn("find refund no failed")
	return "", ErrRefundNoUnavailable
}

// GetOrder returns an order owned by userID
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ApplyRefund requests a refund for a paid order of userID
func (s *Service) ApplyRefund(ctx context.Context, userID, orderID int64, reason string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Paid() {
		return nil, fmt.Errorf("%w: order %s is not paid", ErrRefundNotAllowed, order.No)
	}
	if order.RefundStatus != models.RefundStatusPending {
		return nil, fmt.Errorf("%w: order %s refund is %s", ErrRefundNotAllowed, order.No, order.RefundStatus)
	}

	extra := map[string]interface{}{}
	if len(order.Extra) > 0 {
		if err := json.Unmarshal(order.Extra, &extra); err != nil {
			return nil, fmt.Errorf("failed to decode order extra: %w", err)
		}
	}
	extra["refund_reason"] = reason
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order extra: %w", err)
	}

	refundNo, err := s.findAvailableRefundNo(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.ApplyRefund(ctx, order.ID, refundNo, extraJSON)
	if err != nil {
		return nil, err
	}
	if !ok {
		// refund status changed concurrently
		return nil, fmt.Errorf("%w: order %s", ErrRefundNotAllowed, order.No)
	}

	order.RefundStatus = models.RefundStatusApplied
	order.RefundNo = refundNo
	order.Extra = extraJSON
	s.log.WithFields(logrus.Fields{"order_no": order.No, "refund_no": refundNo}).Info("Refund applied")
	return order, nil
}
