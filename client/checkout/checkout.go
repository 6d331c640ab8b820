// Package checkout adapts a hosted payment widget (Razorpay's checkout
// script in production) behind a small interface the booking flow can
// drive.  Loading the widget is slow and global, so the adapter makes
// it idempotent: any number of concurrent callers share one load, a
// failed load can be retried, and a successful load is never repeated.
package checkout

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrGatewayUnavailable means the widget could not be loaded.
	ErrGatewayUnavailable = errors.New("checkout: payment gateway unavailable")
	// ErrCancelled means the customer dismissed the payment modal.
	ErrCancelled = errors.New("checkout: payment cancelled by customer")
	// ErrBusy means a payment modal is already open on this adapter.
	ErrBusy = errors.New("checkout: a payment is already in progress")
)

// Params configures one invocation of the payment modal.
type Params struct {
	KeyID       string
	OrderID     string
	AmountPaise int64
	Currency    string
	Name        string
	Description string
	Prefill     Prefill
}

// Prefill seeds the modal's contact fields from the customer's profile.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// PaymentResult is what the gateway hands back after the customer pays.
// All three fields go to the server verbatim for verification.
type PaymentResult struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Widget is a loaded payment widget.  Open blocks until the customer
// completes the payment, dismisses the modal, or ctx is cancelled;
// dismissal is reported as ErrCancelled.
type Widget interface {
	Open(ctx context.Context, p Params) (PaymentResult, error)
}

// Loader produces the widget, typically by fetching and evaluating the
// gateway's script.  It is called at most once per successful load.
type Loader func(ctx context.Context) (Widget, error)

// Adapter wraps a Loader with idempotent loading and a one-modal-at-a-
// time guard.  Safe for concurrent use.
type Adapter struct {
	load Loader

	mu      sync.Mutex
	widget  Widget
	loading chan struct{} // non-nil while a load is in flight

	modalMu sync.Mutex
	open    bool
}

// NewAdapter returns an Adapter around load.
func NewAdapter(load Loader) *Adapter {
	return &Adapter{load: load}
}

// EnsureLoaded loads the widget if it is not loaded yet.  Concurrent
// callers share a single in-flight load; they all see its outcome.  A
// failed load leaves the adapter retryable, so a later call attempts a
// fresh load instead of replaying the old error.
func (a *Adapter) EnsureLoaded(ctx context.Context) error {
	for {
		a.mu.Lock()
		if a.widget != nil {
			a.mu.Unlock()
			return nil
		}
		if a.loading != nil {
			done := a.loading
			a.mu.Unlock()
			select {
			case <-done:
				continue // re-check: the load either stored a widget or failed
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		done := make(chan struct{})
		a.loading = done
		a.mu.Unlock()

		w, err := a.load(ctx)

		a.mu.Lock()
		if err == nil {
			a.widget = w
		}
		a.loading = nil
		close(done)
		a.mu.Unlock()

		if err != nil {
			return errors.Join(ErrGatewayUnavailable, err)
		}
		return nil
	}
}

// Loaded reports whether a widget is available without forcing a load.
func (a *Adapter) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.widget != nil
}

// Collect loads the widget on demand and opens the payment modal.  At
// most one modal may be open per adapter; a second concurrent Collect
// fails fast with ErrBusy rather than stacking modals.
func (a *Adapter) Collect(ctx context.Context, p Params) (PaymentResult, error) {
	if err := a.EnsureLoaded(ctx); err != nil {
		return PaymentResult{}, err
	}

	a.modalMu.Lock()
	if a.open {
		a.modalMu.Unlock()
		return PaymentResult{}, ErrBusy
	}
	a.open = true
	a.modalMu.Unlock()

	defer func() {
		a.modalMu.Lock()
		a.open = false
		a.modalMu.Unlock()
	}()

	a.mu.Lock()
	w := a.widget
	a.mu.Unlock()
	return w.Open(ctx, p)
}
