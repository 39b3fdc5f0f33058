package domain

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrNoOrderableLines  = errors.New("order has no line with a positive quantity")
	ErrUnconfirmedLines  = errors.New("every ordered line must be confirmed before completion")
	ErrInvalidQuantity   = errors.New("quantity must not be negative")
	ErrForeignProduct    = errors.New("product is not an active product of the order's supplier")
	ErrValidation        = errors.New("validation failed")
	ErrGatewayFailed     = errors.New("notification gateway failed")
)
