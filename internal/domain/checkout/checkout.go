// Package checkout owns the payment flow: creating gateway orders from
// catalog prices and deciding whether a payment confirmation is authentic.
package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for checkout validation.
var (
	ErrMissingFields     = fmt.Errorf("missing required fields")
	ErrInvalidQuantity   = fmt.Errorf("quantity must be at least 1")
	ErrSignatureMismatch = fmt.Errorf("invalid signature")
)

// ProductNotFoundError indicates the requested product is not in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// AmountMismatchError indicates the client-claimed amount disagrees with the
// total recomputed from the catalog. The claim is rejected rather than
// trusted; the catalog is the price authority.
type AmountMismatchError struct {
	Claimed  decimal.Decimal
	Expected decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount %s does not match expected %s", e.Claimed, e.Expected)
}

// UpstreamError wraps a failure of the payment provider call. Handlers map
// it to a 500 with a generic message; the cause is logged server-side only.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("payment provider: %s", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// CreateOrderRequest is the input for creating a payment order. Amount is
// the client-claimed total in major currency units.
type CreateOrderRequest struct {
	Amount    decimal.Decimal
	ProductID string
	Quantity  int
}

// VerifyPaymentRequest carries the three fields the Razorpay checkout
// callback hands to the browser. All three are untrusted input.
type VerifyPaymentRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}
