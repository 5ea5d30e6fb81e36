package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNoUnavailable  = errors.New("no available order number")
	ErrRefundNoUnavailable = errors.New("no available refund number")
	ErrRefundNotAllowed    = errors.New("refund not allowed")
	ErrInstallmentNotFound = errors.New("installment not found")
)
