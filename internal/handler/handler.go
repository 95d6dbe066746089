// Package handler exposes the storefront HTTP API: the product catalog,
// payment order creation, and payment signature verification.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/pickleworks/storefront/internal/domain/checkout"
	"github.com/pickleworks/storefront/internal/domain/product"
)

// Handler serves the storefront API endpoints, delegating business logic
// to the checkout service and product repository.
type Handler struct {
	products product.Repository
	checkout *checkout.Service
}

// New constructs a Handler with the required domain dependencies.
func New(products product.Repository, checkoutSvc *checkout.Service) *Handler {
	return &Handler{
		products: products,
		checkout: checkoutSvc,
	}
}

// Register attaches the API routes to the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/order/create", h.CreateOrder)
	mux.HandleFunc("POST /api/payment/verify", h.VerifyPayment)
}

// writeJSON encodes a response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes a {"error": message} body with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.Str(message)
		e.ObjEnd()
	})
}
