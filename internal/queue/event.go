// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingPlacedEvent is published when a booking is successfully created.
// It carries enough information for downstream consumers to notify the
// provider (the original deployment forwarded these over WhatsApp)
// without querying the primary database.  AmountPaise is zero for free
// listings.
type BookingPlacedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	ServiceID   uint64 `json:"service_id"`
	ServiceName string `json:"service_name"`
	ProviderID  uint64 `json:"provider_id"`
	CustomerID  uint64 `json:"customer_id"`
	EventDate   string `json:"event_date"`
	Quantity    uint32 `json:"quantity"`
	AmountPaise int64  `json:"amount_paise"`
	Status      string `json:"status"`
	PlacedAt    string `json:"placed_at"`
}
