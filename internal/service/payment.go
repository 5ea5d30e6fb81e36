package service

import (
	"context"

	"github.com/Dan9191/shop-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Payment methods recorded on paid orders
const (
	PaymentMethodAlipay = "alipay"
	PaymentMethodWechat = "wechat"
)

// HandleOrderPaid records a confirmed gateway payment. Repeated notifications
// for the same order are accepted and ignored.
func (s *Service) HandleOrderPaid(ctx context.Context, method, orderNo, paymentNo string) error {
	updated, err := s.repo.MarkOrderPaid(ctx, orderNo, method, paymentNo, s.now())
	if err != nil {
		return err
	}

	fields := logrus.Fields{"order_no": orderNo, "payment_method": method, "payment_no": paymentNo}
	if !updated {
		s.log.WithFields(fields).Info("Payment notification ignored: order unknown or already paid")
		return nil
	}
	s.log.WithFields(fields).Info("Order paid")
	return nil
}

// HandleRefundResult records the gateway outcome of a refund
func (s *Service) HandleRefundResult(ctx context.Context, refundNo string, success bool) error {
	status := models.RefundStatusFailed
	if success {
		status = models.RefundStatusSuccess
	}

	updated, err := s.repo.UpdateRefundStatus(ctx, refundNo, status)
	if err != nil {
		return err
	}

	fields := logrus.Fields{"refund_no": refundNo, "refund_status": status}
	if !updated {
		s.log.WithFields(fields).Warn("Refund notification for unknown refund no")
		return nil
	}
	s.log.WithFields(fields).Info("Refund status updated")
	return nil
}
