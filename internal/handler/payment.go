package handler

import (
	"io"
	"net/http"

	"github.com/Dan9191/shop-service/internal/integrations/paynotify"
	"github.com/Dan9191/shop-service/internal/service"
)

const maxNotifyBody = 64 << 10

// AlipayNotify handles the asynchronous Alipay payment notification
func (h *Handler) AlipayNotify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNotifyBody)
	if err := r.ParseForm(); err != nil {
		h.log.WithError(err).Warn("Unreadable Alipay notification")
		http.Error(w, "fail", http.StatusBadRequest)
		return
	}

	res, err := h.gateway.AlipayPayment(r.PostForm)
	if err != nil {
		h.log.WithError(err).Warn("Rejected Alipay notification")
		http.Error(w, "fail", http.StatusBadRequest)
		return
	}

	if res.Success {
		if err := h.svc.HandleOrderPaid(r.Context(), service.PaymentMethodAlipay, res.OrderNo, res.PaymentNo); err != nil {
			h.log.WithError(err).WithField("order_no", res.OrderNo).Error("Failed to record Alipay payment")
			http.Error(w, "fail", http.StatusInternalServerError)
			return
		}
	}
	w.Write([]byte("success"))
}

// WechatPayNotify handles the asynchronous WeChat Pay payment notification
func (h *Handler) WechatPayNotify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotifyBody))
	if err != nil {
		writeXML(w, http.StatusBadRequest, paynotify.WechatReply(false, "unreadable body"))
		return
	}

	res, err := h.gateway.WechatPayment(body)
	if err != nil {
		h.log.WithError(err).Warn("Rejected WeChat Pay notification")
		writeXML(w, http.StatusBadRequest, paynotify.WechatReply(false, err.Error()))
		return
	}

	if res.Success {
		if err := h.svc.HandleOrderPaid(r.Context(), service.PaymentMethodWechat, res.OrderNo, res.PaymentNo); err != nil {
			h.log.WithError(err).WithField("order_no", res.OrderNo).Error("Failed to record WeChat Pay payment")
			writeXML(w, http.StatusInternalServerError, paynotify.WechatReply(false, "internal error"))
			return
		}
	}
	writeXML(w, http.StatusOK, paynotify.WechatReply(true, "OK"))
}

// WechatRefundNotify handles the asynchronous WeChat Pay refund notification
func (h *Handler) WechatRefundNotify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotifyBody))
	if err != nil {
		writeXML(w, http.StatusBadRequest, paynotify.WechatReply(false, "unreadable body"))
		return
	}

	res, err := h.gateway.WechatRefund(body)
	if err != nil {
		h.log.WithError(err).Warn("Rejected WeChat Pay refund notification")
		writeXML(w, http.StatusBadRequest, paynotify.WechatReply(false, err.Error()))
		return
	}

	if err := h.svc.HandleRefundResult(r.Context(), res.RefundNo, res.Success); err != nil {
		h.log.WithError(err).WithField("refund_no", res.RefundNo).Error("Failed to record WeChat Pay refund")
		writeXML(w, http.StatusInternalServerError, paynotify.WechatReply(false, "internal error"))
		return
	}
	writeXML(w, http.StatusOK, paynotify.WechatReply(true, "OK"))
}

func writeXML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
