// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios without string matching. ErrForbidden indicates the current
// user does not own the resource they are operating on; ErrReceiptExists
// signals a replayed order receipt; ErrOrderNotUsable covers a payment
// order that is missing, unverified, tied to a different service or
// customer, or already consumed by an earlier booking.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrServiceNotFound is returned when a service listing does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrServiceNotFound = errors.New("service not found")

// ErrReceiptExists is returned when a payment order insert collides with
// an existing receipt. Receipts are idempotency tokens generated fresh
// per booking attempt, so a collision means a replayed request.
// Handlers should translate this into an HTTP 409 response.
var ErrReceiptExists = errors.New("receipt already used")

// ErrOrderNotFound is returned when a payment order lookup by gateway
// order id matches no row.
var ErrOrderNotFound = errors.New("payment order not found")

// ErrOrderNotUsable is returned when a booking references a payment
// order that is not in the verified state for the same service and
// customer, or was already consumed by a previous booking. Handlers
// should translate this into an HTTP 409 response.
var ErrOrderNotUsable = errors.New("payment order not usable")
