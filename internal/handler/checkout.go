package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pickleworks/storefront/internal/domain/checkout"
	"github.com/pickleworks/storefront/internal/razorpay"
)

// createOrderRequest is the order-creation payload. Amount is the claimed
// total in major currency units; the service recomputes it from the
// catalog before anything reaches the gateway.
type createOrderRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
}

// verifyPaymentRequest carries the fields the Razorpay checkout callback
// returns to the browser. All three are opaque, untrusted strings.
type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// CreateOrder handles POST /api/order/create.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.checkout.CreateOrder(r.Context(), checkout.CreateOrderRequest{
		Amount:    req.Amount,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCreateOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, order)
	})
}

func (h *Handler) writeCreateOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pnfErr *checkout.ProductNotFoundError
		amErr  *checkout.AmountMismatchError
	)
	switch {
	case errors.Is(err, checkout.ErrMissingFields),
		errors.Is(err, checkout.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &pnfErr):
		writeError(w, http.StatusBadRequest, pnfErr.Error())
	case errors.As(err, &amErr):
		writeError(w, http.StatusBadRequest, amErr.Error())
	default:
		// Provider failures and anything unexpected: log the cause, return
		// a generic message.
		zctx.From(r.Context()).Error("Create order failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create order")
	}
}

// VerifyPayment handles POST /api/payment/verify. It is the sole place
// that decides whether a payment is authentic; a client-reported success
// is never trusted.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVerifyError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.checkout.VerifyPayment(r.Context(), checkout.VerifyPaymentRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("success")
			e.Bool(true)
			e.FieldStart("message")
			e.Str("payment verified successfully")
			e.ObjEnd()
		})
	case errors.Is(err, checkout.ErrMissingFields):
		writeVerifyError(w, http.StatusBadRequest, "missing required fields")
	case errors.Is(err, checkout.ErrSignatureMismatch):
		writeVerifyMismatch(w)
	default:
		zctx.From(r.Context()).Error("Verify payment failed", zap.Error(err))
		writeVerifyError(w, http.StatusInternalServerError, "payment verification failed")
	}
}

// writeVerifyError writes a {"success": false, "error": message} body.
func writeVerifyError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(false)
		e.FieldStart("error")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeVerifyMismatch writes the security-relevant rejection for a
// signature that does not match.
func writeVerifyMismatch(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("success")
		e.Bool(false)
		e.FieldStart("message")
		e.Str("invalid signature")
		e.ObjEnd()
	})
}

// encodeOrder writes the provider order record verbatim.
func encodeOrder(e *jx.Encoder, o *razorpay.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("entity")
	e.Str(o.Entity)
	e.FieldStart("amount")
	e.Int64(o.Amount)
	e.FieldStart("amount_paid")
	e.Int64(o.AmountPaid)
	e.FieldStart("amount_due")
	e.Int64(o.AmountDue)
	e.FieldStart("currency")
	e.Str(o.Currency)
	e.FieldStart("receipt")
	e.Str(o.Receipt)
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("attempts")
	e.Int(o.Attempts)
	e.FieldStart("notes")
	encodeNotes(e, o.Notes)
	e.FieldStart("created_at")
	e.Int64(o.CreatedAt)
	e.ObjEnd()
}

func encodeNotes(e *jx.Encoder, notes map[string]string) {
	e.ObjStart()
	for _, k := range sortedKeys(notes) {
		e.FieldStart(k)
		e.Str(notes[k])
	}
	e.ObjEnd()
}
