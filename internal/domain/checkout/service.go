package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pickleworks/storefront/internal/domain/product"
	"github.com/pickleworks/storefront/internal/razorpay"
)

const currency = "INR"

var minorUnitsPerRupee = decimal.NewFromInt(100)

// Gateway is the slice of the payment provider API the service needs.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
}

// Service encapsulates order creation and payment verification. It is the
// only place in the system that decides whether a payment is authentic.
type Service struct {
	products product.Repository
	gateway  Gateway
	secret   []byte
	now      func() time.Time

	ordersCreated metric.Int64Counter
	verifications metric.Int64Counter
}

// NewService creates a checkout Service. The secret is the gateway key
// secret shared for signature verification. meter may come from a noop
// provider in tests.
func NewService(products product.Repository, gateway Gateway, secret []byte, meter metric.Meter) (*Service, error) {
	ordersCreated, err := meter.Int64Counter("storefront.orders.created",
		metric.WithDescription("Payment orders created with the gateway"))
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	verifications, err := meter.Int64Counter("storefront.payments.verifications",
		metric.WithDescription("Payment signature verification outcomes"))
	if err != nil {
		return nil, errors.Wrap(err, "verifications counter")
	}

	return &Service{
		products:      products,
		gateway:       gateway,
		secret:        secret,
		now:           time.Now,
		ordersCreated: ordersCreated,
		verifications: verifications,
	}, nil
}

// CreateOrder validates the request, recomputes the total from the catalog
// price, converts it to minor units, and creates a gateway order. The
// provider's order record is returned verbatim.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*razorpay.Order, error) {
	if req.ProductID == "" || req.Amount.IsZero() || req.Quantity == 0 {
		return nil, ErrMissingFields
	}
	if req.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: req.ProductID}
		}
		return nil, fmt.Errorf("get product %q: %w", req.ProductID, err)
	}

	// The client-submitted amount is a claim, never the price authority.
	total := p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
	if !req.Amount.Equal(total) {
		return nil, &AmountMismatchError{Claimed: req.Amount, Expected: total}
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   total.Mul(minorUnitsPerRupee).IntPart(),
		Currency: currency,
		Receipt:  s.receipt(),
		Notes: map[string]string{
			"productId": req.ProductID,
			"quantity":  strconv.Itoa(req.Quantity),
		},
	})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	s.ordersCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("product.id", req.ProductID),
	))
	return order, nil
}

// VerifyPayment recomputes the checkout signature over the supplied order
// and payment IDs and compares it to the supplied signature in constant
// time. It is a pure function of its inputs and the shared secret.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) error {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return ErrMissingFields
	}

	if !razorpay.VerifyPaymentSignature(s.secret, req.OrderID, req.PaymentID, req.Signature) {
		s.verifications.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "mismatch"),
		))
		return ErrSignatureMismatch
	}

	s.verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "success"),
	))
	return nil
}

// receipt builds the per-attempt uniqueness token the gateway stores with
// the order.
func (s *Service) receipt() string {
	return "rcpt_" + strconv.FormatInt(s.now().UnixMilli(), 10)
}
