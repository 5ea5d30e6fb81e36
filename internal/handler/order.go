package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/shop-service/internal/service"
)

// CreateOrder handles order creation for the authenticated user
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), userID, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetOrder returns an order of the authenticated user
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.svc.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ApplyRefund requests a refund for a paid order
func (h *Handler) ApplyRefund(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}

	order, err := h.svc.ApplyRefund(r.Context(), userID, orderID, req.Reason)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// GetInstallment returns an installment plan with its items and fines
func (h *Handler) GetInstallment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	installmentID, ok := pathID(r)
	if !ok {
		http.Error(w, "Invalid installment id", http.StatusBadRequest)
		return
	}

	view, err := h.svc.GetInstallment(r.Context(), userID, installmentID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
