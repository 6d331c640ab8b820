// Package gateway wraps the Razorpay server-side API: minting orders
// for booking attempts and verifying payment signatures.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// ErrNotConfigured is returned when the gateway keys are missing from the
// environment.  Handlers translate it into an HTTP 503 response.
var ErrNotConfigured = errors.New("razorpay is not configured")

// Razorpay is the production gateway backed by the Razorpay SDK.
// The zero value (no keys) reports unconfigured rather than erroring at
// construction so the server can start without payment credentials.
type Razorpay struct {
	keyID     string
	keySecret string
	client    *razorpay.Client
}

// New returns a Razorpay gateway for the given key pair.  When either
// key is empty the gateway is unconfigured and every call returns
// ErrNotConfigured.
func New(keyID, keySecret string) *Razorpay {
	g := &Razorpay{keyID: keyID, keySecret: keySecret}
	if g.Configured() {
		g.client = razorpay.NewClient(keyID, keySecret)
	}
	return g
}

// Configured reports whether both gateway keys are present.
func (g *Razorpay) Configured() bool {
	return g.keyID != "" && g.keySecret != ""
}

// KeyID returns the public key id handed to checkout clients.
func (g *Razorpay) KeyID() string { return g.keyID }

// CreateOrder mints an order with automatic payment capture.  The
// receipt is the caller's idempotency token and is echoed back by the
// gateway on the order object.
func (g *Razorpay) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	id, ok := order["id"].(string)
	if !ok || id == "" {
		return "", errors.New("create order: gateway response missing order id")
	}
	return id, nil
}

// VerifySignature recomputes HMAC-SHA256("order_id|payment_id", secret)
// and compares it in constant time against the signature the checkout
// widget handed to the client.  This is the only trusted success signal:
// the widget's client-side callback never is.
func (g *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if !g.Configured() {
		return false
	}
	return VerifySignature(g.keySecret, orderID, paymentID, signature)
}

// VerifySignature is the raw signature check, exported separately so
// tests can produce valid signatures for scripted orders.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := SignPayment(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignPayment computes the hex HMAC-SHA256 signature Razorpay issues for
// a captured payment.
func SignPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
