package model

import "time"

// Booking status values stored in bookings.status.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking records a customer's booking of a service for a given event
// date.  For priced services the booking is tied to the payment order
// that funded it; PaymentOrderID stays nil for free listings.
//
// Fields:
//  ID             – primary key identifier.
//  ServiceID      – booked service.
//  CustomerID     – customer who made the booking.
//  EventDate      – date of the event (date only, UTC).
//  Quantity       – number of units booked, always >= 1.
//  Notes          – optional free-text notes for the provider.
//  Address        – optional venue address.
//  DurationHours  – optional duration of the engagement.
//  Status         – "pending", "confirmed" or "cancelled".
//  PaymentOrderID – payment order consumed by this booking, if any.
//  CreatedAt      – creation timestamp.
type Booking struct {
	ID             uint64     // bookings.id
	ServiceID      uint64     // bookings.service_id
	CustomerID     uint64     // bookings.customer_id
	EventDate      time.Time  // bookings.event_date
	Quantity       uint32     // bookings.quantity
	Notes          *string    // bookings.notes (nullable)
	Address        *string    // bookings.address (nullable)
	DurationHours  *float64   // bookings.duration_hours (nullable)
	Status         string     // bookings.status
	PaymentOrderID *uint64    // bookings.payment_order_id (nullable)
	CreatedAt      time.Time  // bookings.created_at
}
