package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/config", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"key_id": "rzp_test_abc"})
	}))
	defer srv.Close()

	cfg, err := New(srv.URL).PaymentConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_abc", cfg.KeyID)
}

func TestCreatePaymentOrderSendsBearerAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/create-order", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint64(7), req.ServiceID)
		assert.Equal(t, int64(2500000), req.Amount)

		json.NewEncoder(w).Encode(PaymentOrder{
			ID: "order_x", Amount: req.Amount, Currency: req.Currency,
			Receipt: req.Receipt, KeyID: "rzp_test_abc",
		})
	}))
	defer srv.Close()

	c := New(srv.URL).WithToken("tok123")
	order, err := c.CreatePaymentOrder(context.Background(), CreateOrderRequest{
		ServiceID: 7, Amount: 2500000, Currency: "INR", Receipt: "svc_7_1_abcd1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_x", order.ID)
	assert.Equal(t, "svc_7_1_abcd1234", order.Receipt)
}

func TestVerifyPayment(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/verify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"status": "verified"})
	}))
	defer srv.Close()

	err := New(srv.URL).VerifyPayment(context.Background(), "order_x", "pay_y", "sig_z")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"razorpay_order_id":   "order_x",
		"razorpay_payment_id": "pay_y",
		"razorpay_signature":  "sig_z",
	}, got, "payment result fields must be forwarded verbatim")
}

func TestVerifyPaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "signature verification failed"})
	}))
	defer srv.Close()

	err := New(srv.URL).VerifyPayment(context.Background(), "order_x", "pay_y", "sig_bad")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "signature verification failed", apiErr.Message)
}

func TestVerifyPaymentNonAffirmativeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	}))
	defer srv.Close()

	err := New(srv.URL).VerifyPayment(context.Background(), "order_x", "pay_y", "sig_z")
	require.Error(t, err, "anything but an explicit verified status is a failure")
}

func TestCreateBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bookings", r.URL.Path)
		var req BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "order_x", req.PaymentOrderID)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Booking{ID: 9, ServiceID: req.ServiceID, Status: "confirmed"})
	}))
	defer srv.Close()

	booking, err := New(srv.URL).CreateBooking(context.Background(), BookingRequest{
		ServiceID: 7, EventDate: "2026-11-14", Quantity: 1, PaymentOrderID: "order_x",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), booking.ID)
	assert.Equal(t, "confirmed", booking.Status)
}

func TestAPIErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).PaymentConfig(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "502")
}
