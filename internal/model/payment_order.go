package model

import "time"

// Payment order status values stored in payment_orders.status.  An order
// moves created -> verified -> consumed; a failed signature check never
// advances it past created.
const (
	OrderCreated  = "created"
	OrderVerified = "verified"
	OrderConsumed = "consumed"
)

// PaymentOrder mirrors one order minted at the payment gateway for a
// single booking attempt.  The receipt is the client-generated
// idempotency token, unique per attempt; the gateway order id is the
// authoritative reference used during signature verification.
//
// Fields:
//  ID             – primary key identifier.
//  GatewayOrderID – order id issued by the gateway (order_xxx).
//  ServiceID      – service the attempt is paying for.
//  CustomerID     – customer who initiated the attempt.
//  AmountPaise    – amount in paise, derived server-side from the listing price.
//  Currency       – ISO currency code, "INR".
//  Receipt        – client receipt token, unique.
//  Status         – "created", "verified" or "consumed".
//  PaymentID      – gateway payment id recorded on successful verification.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type PaymentOrder struct {
	ID             uint64     // payment_orders.id
	GatewayOrderID string     // payment_orders.gateway_order_id
	ServiceID      uint64     // payment_orders.service_id
	CustomerID     uint64     // payment_orders.customer_id
	AmountPaise    int64      // payment_orders.amount_paise
	Currency       string     // payment_orders.currency
	Receipt        string     // payment_orders.receipt
	Status         string     // payment_orders.status
	PaymentID      *string    // payment_orders.payment_id (nullable)
	CreatedAt      time.Time  // payment_orders.created_at
	UpdatedAt      time.Time  // payment_orders.updated_at
}
