package domain

import "errors"

var (
	ErrValidation             = errors.New("invalid input")
	ErrNotFound               = errors.New("resource not found")
	ErrLineNotFound           = errors.New("item not found in cart")
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrOutOfStock             = errors.New("insufficient stock")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrRefundExceedsAvailable = errors.New("refund amount exceeds available amount")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrConcurrentModification = errors.New("order was modified concurrently")
	ErrSignatureVerification  = errors.New("webhook signature verification failed")
)
