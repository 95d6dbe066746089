package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/pickleworks/storefront/internal/domain/product"
	"github.com/pickleworks/storefront/internal/razorpay"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) Upsert(_ context.Context, _ []product.Product) error {
	return nil
}

type mockGateway struct {
	lastReq *razorpay.OrderRequest
	order   *razorpay.Order
	err     error
}

func (m *mockGateway) CreateOrder(_ context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	m.lastReq = &req
	if m.err != nil {
		return nil, m.err
	}
	if m.order != nil {
		return m.order, nil
	}
	return &razorpay.Order{
		ID:       "order_abc",
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}, nil
}

// --- Helpers ---

func newTestProduct(id, name string, price decimal.Decimal) product.Product {
	return product.Product{
		ID:          id,
		Name:        name,
		Description: "test product",
		Price:       price,
		Image:       "/images/test.jpg",
		Tag:         "Bestseller",
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newTestService(t *testing.T, repo product.Repository, gw Gateway, secret string) *Service {
	t.Helper()
	svc, err := NewService(repo, gw, []byte(secret), noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

// --- CreateOrder tests ---

func TestCreateOrder_MinorUnitConversion(t *testing.T) {
	lemon := newTestProduct("lemon-pickle", "Lemon Pickle", decimal.RequireFromString("250"))
	gw := &mockGateway{}
	svc := newTestService(t, newProductRepo(lemon), gw, "s3cr3t")

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:    decimal.RequireFromString("500"),
		ProductID: "lemon-pickle",
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	require.NotNil(t, gw.lastReq)
	assert.Equal(t, int64(50000), gw.lastReq.Amount)
	assert.Equal(t, "INR", gw.lastReq.Currency)
	assert.Equal(t, "rcpt_1700000000000", gw.lastReq.Receipt)
	assert.Equal(t, map[string]string{"productId": "lemon-pickle", "quantity": "2"}, gw.lastReq.Notes)
}

func TestCreateOrder_MissingFields(t *testing.T) {
	lemon := newTestProduct("lemon-pickle", "Lemon Pickle", decimal.RequireFromString("250"))

	tests := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"zero amount", CreateOrderRequest{ProductID: "lemon-pickle", Quantity: 1}},
		{"empty product", CreateOrderRequest{Amount: decimal.RequireFromString("250"), Quantity: 1}},
		{"zero quantity", CreateOrderRequest{Amount: decimal.RequireFromString("250"), ProductID: "lemon-pickle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			svc := newTestService(t, newProductRepo(lemon), gw, "s3cr3t")

			_, err := svc.CreateOrder(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrMissingFields)
			assert.Nil(t, gw.lastReq, "provider must not be called")
		})
	}
}

func TestCreateOrder_NegativeQuantity(t *testing.T) {
	lemon := newTestProduct("lemon-pickle", "Lemon Pickle", decimal.RequireFromString("250"))
	gw := &mockGateway{}
	svc := newTestService(t, newProductRepo(lemon), gw, "s3cr3t")

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:    decimal.RequireFromString("-250"),
		ProductID: "lemon-pickle",
		Quantity:  -1,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Nil(t, gw.lastReq)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(t, newProductRepo(), gw, "s3cr3t")

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:    decimal.RequireFromString("250"),
		ProductID: "missing",
		Quantity:  1,
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
	assert.Nil(t, gw.lastReq)
}

func TestCreateOrder_AmountMismatch(t *testing.T) {
	lemon := newTestProduct("lemon-pickle", "Lemon Pickle", decimal.RequireFromString("250"))
	gw := &mockGateway{}
	svc := newTestService(t, newProductRepo(lemon), gw, "s3cr3t")

	// A malicious client claims a total of 1 rupee for two jars.
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:    decimal.RequireFromString("1"),
		ProductID: "lemon-pickle",
		Quantity:  2,
	})

	var amErr *AmountMismatchError
	require.ErrorAs(t, err, &amErr)
	assert.True(t, amErr.Expected.Equal(decimal.RequireFromString("500")))
	assert.Nil(t, gw.lastReq, "provider must not be called")
}

func TestCreateOrder_UpstreamError(t *testing.T) {
	lemon := newTestProduct("lemon-pickle", "Lemon Pickle", decimal.RequireFromString("250"))
	gw := &mockGateway{err: errors.New("connection refused")}
	svc := newTestService(t, newProductRepo(lemon), gw, "s3cr3t")

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:    decimal.RequireFromString("250"),
		ProductID: "lemon-pickle",
		Quantity:  1,
	})

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.ErrorContains(t, upErr.Err, "connection refused")
}

func TestCreateOrder_FractionalPrice(t *testing.T) {
	chili := newTestProduct("chili-pickle", "Chili Pickle", decimal.RequireFromString("199.50"))
	gw := &mockGateway{}
	svc := newTestService(t, newProductRepo(chili), gw, "s3cr3t")

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:    decimal.RequireFromString("598.50"),
		ProductID: "chili-pickle",
		Quantity:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(59850), order.Amount)
}

// --- VerifyPayment tests ---

const goldenSignature = "ee21698235c31aef5bb049b86d1c00014db7de75dbe78cb4ed9ffa8e90855655"

func TestVerifyPayment_Success(t *testing.T) {
	svc := newTestService(t, newProductRepo(), &mockGateway{}, "s3cr3t")

	err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_xyz",
		Signature: goldenSignature,
	})
	require.NoError(t, err)
}

func TestVerifyPayment_Mismatch(t *testing.T) {
	svc := newTestService(t, newProductRepo(), &mockGateway{}, "s3cr3t")

	err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_xyz",
		Signature: "forged",
	})
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyPayment_MissingFields(t *testing.T) {
	svc := newTestService(t, newProductRepo(), &mockGateway{}, "s3cr3t")

	tests := []struct {
		name string
		req  VerifyPaymentRequest
	}{
		{"no order id", VerifyPaymentRequest{PaymentID: "pay_xyz", Signature: goldenSignature}},
		{"no payment id", VerifyPaymentRequest{OrderID: "order_abc", Signature: goldenSignature}},
		{"no signature", VerifyPaymentRequest{OrderID: "order_abc", PaymentID: "pay_xyz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.VerifyPayment(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestVerifyPayment_Idempotent(t *testing.T) {
	svc := newTestService(t, newProductRepo(), &mockGateway{}, "s3cr3t")

	req := VerifyPaymentRequest{
		OrderID:   "order_abc",
		PaymentID: "pay_xyz",
		Signature: goldenSignature,
	}
	require.NoError(t, svc.VerifyPayment(context.Background(), req))
	require.NoError(t, svc.VerifyPayment(context.Background(), req))
}
