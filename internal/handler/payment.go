package handler

import (
	"context"  // store interfaces
	"log"      // distinct logging for payment anomalies
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/shaadibazaarhub/marketplace/internal/model"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
)

// PaymentGateway is the slice of the Razorpay wrapper the payment
// endpoints need.  Tests substitute a scripted implementation.
type PaymentGateway interface {
	Configured() bool
	KeyID() string
	CreateOrder(amountPaise int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// ServiceStore is the slice of the service repository the payment and
// booking endpoints read listings through.
type ServiceStore interface {
	GetByID(ctx context.Context, id uint64) (model.Service, error)
}

// PaymentOrderStore persists and advances gateway orders.
type PaymentOrderStore interface {
	Create(ctx context.Context, o *model.PaymentOrder) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.PaymentOrder, error)
	MarkVerified(ctx context.Context, gatewayOrderID, paymentID string) error
}

// PaymentHandler serves the payment endpoints of the booking protocol:
// exposing the gateway config, minting payment orders and verifying
// payment signatures.  The server, not the client, is the authority on
// the payable amount: create-order re-derives it from the service row
// and rejects a mismatched client amount.
type PaymentHandler struct {
	Gateway  PaymentGateway
	Services ServiceStore
	Orders   PaymentOrderStore
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies must
// be non-nil.
func NewPaymentHandler(gw PaymentGateway, services ServiceStore, orders PaymentOrderStore) *PaymentHandler {
	if gw == nil || services == nil || orders == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Gateway: gw, Services: services, Orders: orders}
}

// Config handles GET /v1/payments/config.  It returns the public key id
// checkout clients need, or 503 when the gateway is not configured.
func (h *PaymentHandler) Config(c echo.Context) error {
	if !h.Gateway.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	}
	return c.JSON(http.StatusOK, echo.Map{"key_id": h.Gateway.KeyID()})
}

type createOrderReq struct {
	ServiceID uint64 `json:"service_id"`
	Amount    int64  `json:"amount"` // paise; must match the server-derived price
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
}

type orderResp struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id"`
}

// CreateOrder handles POST /v1/payments/create-order.  It mints a fresh
// gateway order for one booking attempt.  The receipt is the attempt's
// idempotency token: replaying one answers 409 instead of minting a
// second order.  The amount is recomputed from the service row so a
// tampered client price cannot lower the charge.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	customerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !h.Gateway.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ServiceID == 0 || req.Receipt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id and receipt required"})
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}
	if req.Currency != "INR" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported currency"})
	}

	ctx := c.Request().Context()
	svc, err := h.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}
	amount := svc.PricePaise()
	if amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service is not payable"})
	}
	if req.Amount != 0 && req.Amount != amount {
		log.Printf("payments: amount mismatch for service %d: client sent %d, server derived %d", svc.ID, req.Amount, amount)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount does not match service price"})
	}

	gatewayOrderID, err := h.Gateway.CreateOrder(amount, req.Currency, req.Receipt)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to create order"})
	}

	order := model.PaymentOrder{
		GatewayOrderID: gatewayOrderID,
		ServiceID:      svc.ID,
		CustomerID:     customerID,
		AmountPaise:    amount,
		Currency:       req.Currency,
		Receipt:        req.Receipt,
	}
	if err := h.Orders.Create(ctx, &order); err != nil {
		if err == repository.ErrReceiptExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "receipt already used"})
		}
		// The gateway order exists but we lost track of it; reconciliation
		// picks such orders up from the gateway dashboard.
		log.Printf("payments: minted order %s but failed to persist it: %v", gatewayOrderID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record order"})
	}

	return c.JSON(http.StatusOK, orderResp{
		ID:       order.GatewayOrderID,
		Amount:   order.AmountPaise,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		KeyID:    h.Gateway.KeyID(),
	})
}

type verifyReq struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// Verify handles POST /v1/payments/verify.  It recomputes the payment
// signature server-side and, when genuine, marks the stored order
// verified.  The checkout widget's client-side success callback is
// never trusted; only this check can advance an order.
func (h *PaymentHandler) Verify(c echo.Context) error {
	customerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !h.Gateway.Configured() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order id, payment id and signature required"})
	}

	ctx := c.Request().Context()
	order, err := h.Orders.GetByGatewayOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown order"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	if order.CustomerID != customerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if !h.Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		// Either tampering or a gateway integration bug; worth a distinct log line.
		log.Printf("payments: signature verification failed for order %s (customer %d)", req.RazorpayOrderID, customerID)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
	}

	if err := h.Orders.MarkVerified(ctx, req.RazorpayOrderID, req.RazorpayPaymentID); err != nil {
		if err == repository.ErrOrderNotUsable {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order not in a verifiable state"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record verification"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "verified"})
}
