package service

import "errors"

var (
	ErrEmptyCart       = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	ErrInvalidStatus   = errors.New("invalid order status")

	// Webhook rejections. Both are terminal for a delivery: the gateway is
	// told 400 and no local retry is scheduled.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)
