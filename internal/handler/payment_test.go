package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaadibazaarhub/marketplace/internal/model"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
)

// fakeGateway scripts the payment gateway for handler tests.
type fakeGateway struct {
	configured bool
	orderID    string
	orderErr   error
	validSig   string
	minted     []int64 // amounts passed to CreateOrder
}

func (g *fakeGateway) Configured() bool { return g.configured }
func (g *fakeGateway) KeyID() string    { return "rzp_test_abc" }

func (g *fakeGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	if g.orderErr != nil {
		return "", g.orderErr
	}
	g.minted = append(g.minted, amountPaise)
	return g.orderID, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == g.validSig
}

// fakeServices serves a fixed set of listings.
type fakeServices struct {
	services map[uint64]model.Service
}

func (s *fakeServices) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return model.Service{}, repository.ErrServiceNotFound
	}
	return svc, nil
}

// fakeOrders is an in-memory PaymentOrderStore keyed by gateway order id.
type fakeOrders struct {
	createErr error
	receipts  map[string]bool
	orders    map[string]model.PaymentOrder
	nextID    uint64
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{receipts: map[string]bool{}, orders: map[string]model.PaymentOrder{}}
}

func (s *fakeOrders) Create(ctx context.Context, o *model.PaymentOrder) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.receipts[o.Receipt] {
		return repository.ErrReceiptExists
	}
	s.receipts[o.Receipt] = true
	s.nextID++
	o.ID = s.nextID
	o.Status = model.OrderCreated
	s.orders[o.GatewayOrderID] = *o
	return nil
}

func (s *fakeOrders) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.PaymentOrder, error) {
	o, ok := s.orders[gatewayOrderID]
	if !ok {
		return model.PaymentOrder{}, repository.ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeOrders) MarkVerified(ctx context.Context, gatewayOrderID, paymentID string) error {
	o, ok := s.orders[gatewayOrderID]
	if !ok || o.Status != model.OrderCreated {
		return repository.ErrOrderNotUsable
	}
	o.Status = model.OrderVerified
	o.PaymentID = &paymentID
	s.orders[gatewayOrderID] = o
	return nil
}

// post builds an authenticated echo context carrying a JSON body.
func post(t *testing.T, path, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func paymentFixture() (*PaymentHandler, *fakeGateway, *fakeOrders) {
	gw := &fakeGateway{configured: true, orderID: "order_test_1", validSig: "sig_good"}
	services := &fakeServices{services: map[uint64]model.Service{
		7: {ID: 7, ProviderID: 3, Name: "Banquet Hall", Price: 25000, Location: "Jaipur"},
	}}
	orders := newFakeOrders()
	return NewPaymentHandler(gw, services, orders), gw, orders
}

func TestPaymentConfigUnconfigured(t *testing.T) {
	h, gw, _ := paymentFixture()
	gw.configured = false

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/payments/config", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Config(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPaymentConfig(t *testing.T) {
	h, _, _ := paymentFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/payments/config", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Config(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rzp_test_abc", decodeBody(t, rec)["key_id"])
}

func TestCreateOrderDerivesAmountFromService(t *testing.T) {
	h, gw, _ := paymentFixture()

	c, rec := post(t, "/v1/payments/create-order",
		`{"service_id":7,"currency":"INR","receipt":"svc_7_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "order_test_1", body["id"])
	assert.Equal(t, float64(2500000), body["amount"])
	assert.Equal(t, "rzp_test_abc", body["key_id"])
	assert.Equal(t, []int64{2500000}, gw.minted)
}

func TestCreateOrderRejectsTamperedAmount(t *testing.T) {
	h, gw, _ := paymentFixture()

	// Client claims a one-rupee price for a 25,000 rupee service.
	c, rec := post(t, "/v1/payments/create-order",
		`{"service_id":7,"amount":100,"currency":"INR","receipt":"svc_7_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gw.minted, "no gateway order for a mismatched amount")
}

func TestCreateOrderReplayedReceipt(t *testing.T) {
	h, _, _ := paymentFixture()

	c, rec := post(t, "/v1/payments/create-order",
		`{"service_id":7,"receipt":"svc_7_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = post(t, "/v1/payments/create-order",
		`{"service_id":7,"receipt":"svc_7_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateOrderGatewayDown(t *testing.T) {
	h, gw, _ := paymentFixture()
	gw.orderErr = errors.New("gateway 5xx")

	c, rec := post(t, "/v1/payments/create-order",
		`{"service_id":7,"receipt":"svc_7_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCreateOrderUnknownService(t *testing.T) {
	h, _, _ := paymentFixture()

	c, rec := post(t, "/v1/payments/create-order",
		`{"service_id":99,"receipt":"svc_99_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mintOrder(t *testing.T, h *PaymentHandler) {
	t.Helper()
	c, rec := post(t, "/v1/payments/create-order",
		`{"service_id":7,"receipt":"svc_7_1_abcd1234"}`, 1)
	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyGenuineSignature(t *testing.T) {
	h, _, orders := paymentFixture()
	mintOrder(t, h)

	c, rec := post(t, "/v1/payments/verify",
		`{"razorpay_order_id":"order_test_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig_good"}`, 1)
	require.NoError(t, h.Verify(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "verified", decodeBody(t, rec)["status"])
	assert.Equal(t, model.OrderVerified, orders.orders["order_test_1"].Status)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	h, _, orders := paymentFixture()
	mintOrder(t, h)

	c, rec := post(t, "/v1/payments/verify",
		`{"razorpay_order_id":"order_test_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig_forged"}`, 1)
	require.NoError(t, h.Verify(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.OrderCreated, orders.orders["order_test_1"].Status,
		"a rejected signature must not advance the order")
}

func TestVerifyForeignOrderForbidden(t *testing.T) {
	h, _, _ := paymentFixture()
	mintOrder(t, h)

	c, rec := post(t, "/v1/payments/verify",
		`{"razorpay_order_id":"order_test_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig_good"}`, 2)
	require.NoError(t, h.Verify(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyTwiceConflicts(t *testing.T) {
	h, _, _ := paymentFixture()
	mintOrder(t, h)

	body := `{"razorpay_order_id":"order_test_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig_good"}`
	c, rec := post(t, "/v1/payments/verify", body, 1)
	require.NoError(t, h.Verify(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = post(t, "/v1/payments/verify", body, 1)
	require.NoError(t, h.Verify(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
