// Package client is the Go client for the marketplace API.  It covers
// the slice of the server contract the booking protocol consumes:
// gateway config, payment order minting, signature verification and
// booking creation, plus listing lookups.  Every request runs with a
// bounded timeout so a stalled network call cannot hang a booking
// attempt; only the checkout modal (owned by package checkout) is
// allowed to wait on the user indefinitely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RequestTimeout bounds each API call made by the client.
const RequestTimeout = 15 * time.Second

// Client calls the marketplace API.  The zero value is not usable;
// construct it with New.  The bearer token is optional for public
// endpoints and required for the authenticated ones.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New returns a Client for the API at baseURL (e.g. "https://api.example.com").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: RequestTimeout},
	}
}

// WithToken returns a copy of the client that authenticates with the
// given bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// APIError is a non-2xx answer from the server, carrying the HTTP
// status and the server's error message when one was decodable.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

// ----- wire shapes -----

// PaymentConfig is the answer of GET /v1/payments/config.
type PaymentConfig struct {
	KeyID string `json:"key_id"`
}

// CreateOrderRequest is the body of POST /v1/payments/create-order.
// Amount is in paise and the server re-derives it from the service row;
// Receipt is the attempt's idempotency token.
type CreateOrderRequest struct {
	ServiceID uint64 `json:"service_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
}

// PaymentOrder is the minted order returned by create-order.  ID is the
// gateway order id the checkout widget and the verify call both use.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"key_id"`
}

// BookingRequest is the body of POST /v1/bookings.  PaymentOrderID names
// the verified gateway order funding the booking; it stays empty for
// free listings.
type BookingRequest struct {
	ServiceID      uint64   `json:"service_id"`
	EventDate      string   `json:"event_date"`
	Quantity       uint32   `json:"quantity"`
	Notes          *string  `json:"notes,omitempty"`
	Address        *string  `json:"address,omitempty"`
	DurationHours  *float64 `json:"duration_hours,omitempty"`
	PaymentOrderID string   `json:"payment_order_id,omitempty"`
}

// Booking is the created booking record as returned by the server.
type Booking struct {
	ID         uint64 `json:"id"`
	ServiceID  uint64 `json:"service_id"`
	CustomerID uint64 `json:"customer_id"`
	EventDate  string `json:"event_date"`
	Quantity   uint32 `json:"quantity"`
	Status     string `json:"status"`
}

// Service is a listing as served by the public browse endpoints.
type Service struct {
	ID         uint64  `json:"id"`
	ProviderID uint64  `json:"provider_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Location   string  `json:"location"`
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// ----- operations -----

// PaymentConfig fetches the gateway's public key id.
func (c *Client) PaymentConfig(ctx context.Context) (PaymentConfig, error) {
	var out PaymentConfig
	err := c.do(ctx, http.MethodGet, "/v1/payments/config", nil, &out)
	return out, err
}

// CreatePaymentOrder asks the server to mint a fresh gateway order for
// one booking attempt.
func (c *Client) CreatePaymentOrder(ctx context.Context, req CreateOrderRequest) (PaymentOrder, error) {
	var out PaymentOrder
	err := c.do(ctx, http.MethodPost, "/v1/payments/create-order", req, &out)
	return out, err
}

// VerifyPayment forwards the gateway's payment result verbatim for
// server-side signature verification.  A nil error is the only
// affirmative verification outcome; any error means the payment must
// not fund a booking.
func (c *Client) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	body := verifyRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: signature,
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payments/verify", body, &out); err != nil {
		return err
	}
	if out.Status != "verified" {
		return &APIError{Status: http.StatusOK, Message: "verification not affirmative"}
	}
	return nil
}

// CreateBooking submits the booking record.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (Booking, error) {
	var out Booking
	err := c.do(ctx, http.MethodPost, "/v1/bookings", req, &out)
	return out, err
}

// GetService fetches a single listing.
func (c *Client) GetService(ctx context.Context, id uint64) (Service, error) {
	var out Service
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/services/%d", id), nil, &out)
	return out, err
}

// do executes one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var serverErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&serverErr)
		return &APIError{Status: resp.StatusCode, Message: serverErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
