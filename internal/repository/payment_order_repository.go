package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shaadibazaarhub/marketplace/internal/model"
)

// PaymentOrderRepo persists gateway orders minted for booking attempts.
// Each row tracks one attempt's order through created -> verified ->
// consumed.  The receipt column carries a UNIQUE index so a replayed
// idempotency token cannot mint a second order.
type PaymentOrderRepo struct {
	db *sql.DB
}

// NewPaymentOrderRepo returns a new PaymentOrderRepo bound to the given database.
func NewPaymentOrderRepo(db *sql.DB) *PaymentOrderRepo { return &PaymentOrderRepo{db: db} }

const orderCols = "id, gateway_order_id, service_id, customer_id, amount_paise, currency, receipt, status, payment_id, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (model.PaymentOrder, error) {
	var o model.PaymentOrder
	err := row.Scan(&o.ID, &o.GatewayOrderID, &o.ServiceID, &o.CustomerID, &o.AmountPaise, &o.Currency, &o.Receipt, &o.Status, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create records a freshly minted gateway order with status 'created'.
// A duplicate receipt maps to ErrReceiptExists.
func (r *PaymentOrderRepo) Create(ctx context.Context, o *model.PaymentOrder) error {
	const q = `INSERT INTO payment_orders (gateway_order_id, service_id, customer_id, amount_paise, currency, receipt, status) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, o.GatewayOrderID, o.ServiceID, o.CustomerID, o.AmountPaise, o.Currency, o.Receipt, model.OrderCreated)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrReceiptExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.OrderCreated
	return nil
}

// GetByGatewayOrderID looks an order up by the id the gateway issued.
func (r *PaymentOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.PaymentOrder, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM payment_orders WHERE gateway_order_id = ?", gatewayOrderID))
	if err == sql.ErrNoRows {
		return model.PaymentOrder{}, ErrOrderNotFound
	}
	return o, err
}

// MarkVerified records a successful signature verification: the gateway
// payment id is stored and the status moves from 'created' to
// 'verified'.  An order in any other state is left untouched and
// ErrOrderNotUsable is returned, so a second verification of the same
// order cannot reset a consumed one.
func (r *PaymentOrderRepo) MarkVerified(ctx context.Context, gatewayOrderID, paymentID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payment_orders SET status=?, payment_id=? WHERE gateway_order_id=? AND status=?",
		model.OrderVerified, paymentID, gatewayOrderID, model.OrderCreated)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotUsable
	}
	return nil
}

// consumeOrderTx atomically claims a verified order for a booking
// inside an existing transaction.  The order must be verified, belong
// to the same service and customer, and not have been consumed before;
// otherwise ErrOrderNotUsable is returned and the caller should roll
// back.  The conditional UPDATE is what makes "one booking per order"
// hold even under concurrent submissions.
func consumeOrderTx(ctx context.Context, tx *sql.Tx, orderID, serviceID, customerID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE payment_orders SET status=? WHERE id=? AND service_id=? AND customer_id=? AND status=?",
		model.OrderConsumed, orderID, serviceID, customerID, model.OrderVerified)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotUsable
	}
	return nil
}
