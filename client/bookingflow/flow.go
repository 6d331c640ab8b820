// Package bookingflow drives the booking-with-payment protocol: fetch
// the gateway config, mint a payment order, collect the payment through
// the checkout modal, verify the signature server-side, then record the
// booking.  The sequence is reified as an explicit state machine so a
// booking can never be created without an affirmative verification
// directly before it in the same attempt.
package bookingflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaadibazaarhub/marketplace/client"
	"github.com/shaadibazaarhub/marketplace/client/checkout"
)

// State is the position of a booking attempt in the protocol.
type State int

const (
	Idle State = iota
	FetchingConfig
	CreatingOrder
	AwaitingPayment
	VerifyingPayment
	CreatingBooking
	Succeeded
	Failed
)

var stateNames = map[State]string{
	Idle:             "idle",
	FetchingConfig:   "fetching_config",
	CreatingOrder:    "creating_order",
	AwaitingPayment:  "awaiting_payment",
	VerifyingPayment: "verifying_payment",
	CreatingBooking:  "creating_booking",
	Succeeded:        "succeeded",
	Failed:           "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FailureReason classifies a terminal failure of one attempt.
type FailureReason int

const (
	Unauthorized FailureReason = iota + 1
	ConfigUnavailable
	OrderCreationError
	GatewayUnavailable
	UserCancelled
	PaymentError
	VerificationFailed
	BookingAfterPaymentError
)

var reasonNames = map[FailureReason]string{
	Unauthorized:             "unauthorized",
	ConfigUnavailable:        "config_unavailable",
	OrderCreationError:       "order_creation_error",
	GatewayUnavailable:       "gateway_unavailable",
	UserCancelled:            "user_cancelled",
	PaymentError:             "payment_error",
	VerificationFailed:       "verification_failed",
	BookingAfterPaymentError: "booking_after_payment_error",
}

func (r FailureReason) String() string {
	if n, ok := reasonNames[r]; ok {
		return n
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// FlowError is the terminal error of a failed attempt.  OrderID is set
// once a gateway order exists, so a booking_after_payment failure can
// name the order that needs reconciliation.
type FlowError struct {
	Reason  FailureReason
	OrderID string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bookingflow: %s: %v", e.Reason, e.Err)
	}
	return "bookingflow: " + e.Reason.String()
}

func (e *FlowError) Unwrap() error { return e.Err }

// UserMessage is the text to show the customer.  A payment captured
// without a booking gets a distinct message steering the customer to
// support instead of a retry, which would risk a double charge.
func (e *FlowError) UserMessage() string {
	switch e.Reason {
	case Unauthorized:
		return "Please log in as a customer to book this service."
	case ConfigUnavailable:
		return "Payments are temporarily unavailable. Please try again shortly."
	case OrderCreationError:
		return "We could not start your payment. Please try again."
	case GatewayUnavailable:
		return "The payment window could not be loaded. Check your connection or disable blockers and try again."
	case UserCancelled:
		return "Payment cancelled. You can book again whenever you are ready."
	case PaymentError:
		return "The payment could not be completed. You have not been booked; please try again."
	case VerificationFailed:
		return "We could not confirm your payment with the gateway. No booking was made. If money was deducted it will be refunded automatically."
	case BookingAfterPaymentError:
		return fmt.Sprintf("Your payment went through but the booking could not be recorded. Do not pay again. Contact support and quote order %s.", e.OrderID)
	}
	return "Booking failed. Please try again."
}

// ErrAttemptInProgress is returned when Book is called while a prior
// attempt on the same Flow has not reached a terminal state.
var ErrAttemptInProgress = errors.New("bookingflow: a booking attempt is already in progress")

// StepTimeout bounds each server call in the flow.  Only the payment
// modal itself is allowed unbounded, user-paced time.
const StepTimeout = 20 * time.Second

// API is the slice of the marketplace client the flow drives.
// *client.Client satisfies it.
type API interface {
	PaymentConfig(ctx context.Context) (client.PaymentConfig, error)
	CreatePaymentOrder(ctx context.Context, req client.CreateOrderRequest) (client.PaymentOrder, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
	CreateBooking(ctx context.Context, req client.BookingRequest) (client.Booking, error)
}

// Collector opens the payment modal.  *checkout.Adapter satisfies it.
type Collector interface {
	Collect(ctx context.Context, p checkout.Params) (checkout.PaymentResult, error)
}

// Request describes one booking attempt.  Service is the listing as the
// customer currently sees it; the server re-derives the price from its
// own record, so a stale client price fails order creation instead of
// mischarging.
type Request struct {
	Service       client.Service
	EventDate     time.Time
	Quantity      uint32
	Notes         *string
	Address       *string
	DurationHours *float64
	Prefill       checkout.Prefill
}

// Flow runs booking attempts for one logged-in session.  A Flow is safe
// for concurrent use but admits only one in-flight attempt at a time.
type Flow struct {
	api     API
	gateway Collector
	role    string

	busy    atomic.Bool
	state   atomic.Int32
	onState func(State)
}

// Option configures a Flow.
type Option func(*Flow)

// WithStateObserver registers a callback invoked on every state
// transition, for UI that mirrors the attempt's progress.
func WithStateObserver(fn func(State)) Option {
	return func(f *Flow) { f.onState = fn }
}

// NewFlow returns a Flow using api for server calls and gateway for the
// payment modal.  role is the session's role; only customers may book.
func NewFlow(api API, gateway Collector, role string, opts ...Option) *Flow {
	f := &Flow{api: api, gateway: gateway, role: role}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State reports the current state of the in-flight attempt, or the
// terminal state of the last one.
func (f *Flow) State() State { return State(f.state.Load()) }

func (f *Flow) set(s State) {
	f.state.Store(int32(s))
	if f.onState != nil {
		f.onState(s)
	}
}

// newReceipt mints the idempotency token for one order-creation
// request.  Every attempt gets a fresh receipt so retries can never be
// mistaken for replays.
func newReceipt(serviceID uint64) string {
	return fmt.Sprintf("svc_%d_%d_%s", serviceID, time.Now().Unix(), uuid.NewString()[:8])
}

// paise converts a rupee price to minor currency units.
func paise(price float64) int64 {
	return int64(price*100 + 0.5)
}

// Book runs one attempt from Idle to a terminal state and returns the
// created booking.  On failure the returned error is a *FlowError whose
// Reason says where the protocol stopped.  No step is retried; the
// caller may call Book again, which starts over with a new order.
//
// ctx cancellation is honored up to and including the payment modal.
// Once the customer has paid, verification and booking creation run on
// a detached context with bounded timeouts, because abandoning the
// attempt there would orphan a captured payment.
func (f *Flow) Book(ctx context.Context, req Request) (client.Booking, error) {
	if !f.busy.CompareAndSwap(false, true) {
		return client.Booking{}, ErrAttemptInProgress
	}
	defer f.busy.Store(false)

	f.set(Idle)
	if f.role != "customer" {
		return f.fail(Unauthorized, "", fmt.Errorf("role %q cannot book", f.role))
	}

	f.set(FetchingConfig)
	cfgCtx, cancel := context.WithTimeout(ctx, StepTimeout)
	cfg, err := f.api.PaymentConfig(cfgCtx)
	cancel()
	if err != nil {
		return f.fail(ConfigUnavailable, "", err)
	}

	f.set(CreatingOrder)
	amount := paise(req.Service.Price)
	orderCtx, cancel := context.WithTimeout(ctx, StepTimeout)
	order, err := f.api.CreatePaymentOrder(orderCtx, client.CreateOrderRequest{
		ServiceID: req.Service.ID,
		Amount:    amount,
		Currency:  "INR",
		Receipt:   newReceipt(req.Service.ID),
	})
	cancel()
	if err != nil {
		return f.fail(OrderCreationError, "", err)
	}

	f.set(AwaitingPayment)
	result, err := f.gateway.Collect(ctx, checkout.Params{
		KeyID:       cfg.KeyID,
		OrderID:     order.ID,
		AmountPaise: order.Amount,
		Currency:    order.Currency,
		Name:        req.Service.Name,
		Description: "Booking for " + req.Service.Name,
		Prefill:     req.Prefill,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrCancelled), errors.Is(err, context.Canceled):
			return f.fail(UserCancelled, order.ID, err)
		case errors.Is(err, checkout.ErrGatewayUnavailable):
			return f.fail(GatewayUnavailable, order.ID, err)
		default:
			return f.fail(PaymentError, order.ID, err)
		}
	}

	// Past this point the customer has paid.  The remaining steps run
	// to completion even if ctx is cancelled, under their own timeouts.
	tail := context.WithoutCancel(ctx)

	f.set(VerifyingPayment)
	verifyCtx, cancel := context.WithTimeout(tail, StepTimeout)
	err = f.api.VerifyPayment(verifyCtx, result.OrderID, result.PaymentID, result.Signature)
	cancel()
	if err != nil {
		return f.fail(VerificationFailed, order.ID, err)
	}

	f.set(CreatingBooking)
	bookCtx, cancel := context.WithTimeout(tail, StepTimeout)
	booking, err := f.api.CreateBooking(bookCtx, client.BookingRequest{
		ServiceID:      req.Service.ID,
		EventDate:      req.EventDate.Format("2006-01-02"),
		Quantity:       req.Quantity,
		Notes:          req.Notes,
		Address:        req.Address,
		DurationHours:  req.DurationHours,
		PaymentOrderID: result.OrderID,
	})
	cancel()
	if err != nil {
		log.Printf("[flow] payment captured but booking failed, needs reconciliation: order=%s payment=%s err=%v",
			result.OrderID, result.PaymentID, err)
		return f.fail(BookingAfterPaymentError, order.ID, err)
	}

	f.set(Succeeded)
	return booking, nil
}

func (f *Flow) fail(reason FailureReason, orderID string, err error) (client.Booking, error) {
	f.set(Failed)
	return client.Booking{}, &FlowError{Reason: reason, OrderID: orderID, Err: err}
}
