package service

import (
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
)

// Not-found errors - use domain.ENOTFOUND
var (
	ErrProductNotFound   = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrCartNotFound      = domain.Errorf(domain.ENOTFOUND, "", "Cart not found")
	ErrCartItemNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Cart item not found")
	ErrPromotionNotFound = domain.Errorf(domain.ENOTFOUND, "", "Promotion not found")
	ErrOrderNotFound     = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
	ErrUserNotFound      = domain.Errorf(domain.ENOTFOUND, "", "User not found")
)

// Validation errors - use domain.EINVALID
var (
	ErrInvalidQuantity        = domain.Errorf(domain.EINVALID, "", "Quantity must be greater than 0")
	ErrEmptyCart              = domain.Errorf(domain.EINVALID, "", "Cart is empty")
	ErrEmptySelection         = domain.Errorf(domain.EINVALID, "", "None of the selected products are in the cart")
	ErrInvalidOrderStatus     = domain.Errorf(domain.EINVALID, "", "Invalid order status")
	ErrIncompleteShippingInfo = domain.Errorf(domain.EINVALID, "", "Shipping information is incomplete")
)

// Conflict errors - use domain.ECONFLICT
var (
	ErrInsufficientStock = domain.Errorf(domain.ECONFLICT, "", "Insufficient stock for one or more items")
	ErrPromotionOverlap  = domain.Errorf(domain.ECONFLICT, "", "An active promotion of the same type already covers one of these products")
)

// Payment errors - use domain.EPAYMENT
var (
	ErrPaymentNotApproved = domain.Errorf(domain.EPAYMENT, "", "Payment has not been approved")
)
