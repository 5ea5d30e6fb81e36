package handler

import (
	"net/http"

	"github.com/Dan9191/shop-service/internal/config"
	"github.com/Dan9191/shop-service/internal/middleware"
	"github.com/gorilla/mux"
)

// Router wires every route. Payment gateway callbacks are registered outside
// the authenticated subrouter and listed in middleware.CSRFExemptPaths.
func (h *Handler) Router(cfg *config.Config) http.Handler {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/csrf-token", h.CSRFToken).Methods("GET")
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")

	// Payment gateway callbacks
	r.HandleFunc("/payment/ali_pay/notify", h.AlipayNotify).Methods("POST")
	r.HandleFunc("/payment/wechat_pay/notify", h.WechatPayNotify).Methods("POST")
	r.HandleFunc("/payment/wechat_pay/refund_notify", h.WechatRefundNotify).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/orders", h.CreateOrder).Methods("POST")
	authRouter.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods("GET")
	authRouter.HandleFunc("/orders/{id:[0-9]+}/refund", h.ApplyRefund).Methods("POST")
	authRouter.HandleFunc("/installments/{id:[0-9]+}", h.GetInstallment).Methods("GET")

	return middleware.CSRF(cfg.CSRFKey, cfg.CSRFSecure, middleware.CSRFExemptPaths)(r)
}
