package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidCoupon      = errors.New("coupon code is not valid")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus      = errors.New("unknown order status")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	ErrInvalidRole        = errors.New("unknown role")
	ErrImagesUnavailable  = errors.New("image storage is not configured")
	ErrPaymentUnavailable = errors.New("payment provider is not configured")

	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrDuplicateEvent  = errors.New("webhook event already processed")
	ErrMissingMetadata = errors.New("checkout is missing cart metadata")
	ErrCartMismatch    = errors.New("checkout cart does not belong to user")
)
