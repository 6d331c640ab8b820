package bookingflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaadibazaarhub/marketplace/client"
	"github.com/shaadibazaarhub/marketplace/client/checkout"
	"github.com/shaadibazaarhub/marketplace/internal/gateway"
)

const e2eSecret = "e2e_secret"

// scriptedServer fakes the marketplace payment and booking endpoints
// with real HTTP semantics, including server-side signature checks.
type scriptedServer struct {
	mu       sync.Mutex
	orderSeq int
	verified map[string]bool
	bookings []client.BookingRequest
}

func (s *scriptedServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/payments/config", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"key_id": "rzp_test_e2e"})
	})
	mux.HandleFunc("POST /v1/payments/create-order", func(w http.ResponseWriter, r *http.Request) {
		var req client.CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.orderSeq++
		id := "order_e2e_1"
		s.mu.Unlock()
		json.NewEncoder(w).Encode(client.PaymentOrder{
			ID: id, Amount: req.Amount, Currency: req.Currency,
			Receipt: req.Receipt, KeyID: "rzp_test_e2e",
		})
	})
	mux.HandleFunc("POST /v1/payments/verify", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderID   string `json:"razorpay_order_id"`
			PaymentID string `json:"razorpay_payment_id"`
			Signature string `json:"razorpay_signature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !gateway.VerifySignature(e2eSecret, req.OrderID, req.PaymentID, req.Signature) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "signature verification failed"})
			return
		}
		s.mu.Lock()
		s.verified[req.OrderID] = true
		s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": "verified"})
	})
	mux.HandleFunc("POST /v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		var req client.BookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		ok := s.verified[req.PaymentOrderID]
		if ok {
			s.bookings = append(s.bookings, req)
		}
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "payment order not usable"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client.Booking{ID: 101, ServiceID: req.ServiceID, Status: "confirmed"})
	})
	return mux
}

// signingWidget behaves like a gateway modal whose payment succeeds:
// it hands back a payment id signed by the gateway's secret.
type signingWidget struct{}

func (signingWidget) Open(ctx context.Context, p checkout.Params) (checkout.PaymentResult, error) {
	return checkout.PaymentResult{
		OrderID:   p.OrderID,
		PaymentID: "pay_e2e_1",
		Signature: gateway.SignPayment(e2eSecret, p.OrderID, "pay_e2e_1"),
	}, nil
}

// tamperingWidget returns a signature that will not verify.
type tamperingWidget struct{}

func (tamperingWidget) Open(ctx context.Context, p checkout.Params) (checkout.PaymentResult, error) {
	return checkout.PaymentResult{OrderID: p.OrderID, PaymentID: "pay_e2e_1", Signature: "forged"}, nil
}

func TestBookEndToEnd(t *testing.T) {
	script := &scriptedServer{verified: map[string]bool{}}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	api := client.New(srv.URL).WithToken("tok_customer")
	adapter := checkout.NewAdapter(func(ctx context.Context) (checkout.Widget, error) {
		return signingWidget{}, nil
	})
	f := NewFlow(api, adapter, "customer")

	booking, err := f.Book(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, uint64(101), booking.ID)
	assert.Equal(t, "confirmed", booking.Status)

	require.Len(t, script.bookings, 1)
	assert.Equal(t, "order_e2e_1", script.bookings[0].PaymentOrderID)
	assert.Equal(t, "2026-11-14", script.bookings[0].EventDate)
	assert.Equal(t, Succeeded, f.State())
}

func TestBookEndToEndRejectsForgedSignature(t *testing.T) {
	script := &scriptedServer{verified: map[string]bool{}}
	srv := httptest.NewServer(script.handler())
	defer srv.Close()

	api := client.New(srv.URL).WithToken("tok_customer")
	adapter := checkout.NewAdapter(func(ctx context.Context) (checkout.Widget, error) {
		return tamperingWidget{}, nil
	})
	f := NewFlow(api, adapter, "customer")

	_, err := f.Book(context.Background(), testRequest())
	fe := flowReason(t, err)
	assert.Equal(t, VerificationFailed, fe.Reason)
	assert.Empty(t, script.bookings)
}
