package repository

import (
	"context"
	"database/sql"

	"github.com/shaadibazaarhub/marketplace/internal/model"
)

// BookingRepo provides access to the bookings table.  Creating a
// booking for a priced service also consumes the funding payment order;
// both statements run in one transaction so a verified order can never
// fund two bookings and a paid booking never exists without one.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = "id, service_id, customer_id, event_date, quantity, notes, address, duration_hours, status, payment_order_id, created_at"

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.ServiceID, &b.CustomerID, &b.EventDate, &b.Quantity, &b.Notes, &b.Address, &b.DurationHours, &b.Status, &b.PaymentOrderID, &b.CreatedAt)
	return b, err
}

// Create inserts a booking.  When order is non-nil the insert runs in a
// transaction that first claims the order; ErrOrderNotUsable is
// returned and nothing is written if the order is not a verified,
// unconsumed order for the same service and customer.  On success the
// record is re-read so generated fields are populated.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking, order *model.PaymentOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if order != nil {
		if err := consumeOrderTx(ctx, tx, order.ID, b.ServiceID, b.CustomerID); err != nil {
			return err
		}
		b.PaymentOrderID = &order.ID
	}
	if err := r.createTx(ctx, tx, b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *BookingRepo) createTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (service_id, customer_id, event_date, quantity, notes, address, duration_hours, status, payment_order_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.ServiceID, b.CustomerID, b.EventDate, b.Quantity, b.Notes, b.Address, b.DurationHours, b.Status, b.PaymentOrderID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	got, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingCols+" FROM bookings WHERE id = ?", b.ID))
	if err != nil {
		return err
	}
	*b = got
	return nil
}

// BookingDetail is a booking joined with its service name and price for
// display in booking lists.
type BookingDetail struct {
	ID            uint64   `json:"id"`
	ServiceID     uint64   `json:"service_id"`
	ServiceName   string   `json:"service_name"`
	CustomerID    uint64   `json:"customer_id"`
	EventDate     string   `json:"event_date"`
	Quantity      uint32   `json:"quantity"`
	Notes         *string  `json:"notes,omitempty"`
	Address       *string  `json:"address,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	Status        string   `json:"status"`
	Price         float64  `json:"price"`
}

const detailQuery = `SELECT b.id, b.service_id, s.name, b.customer_id, DATE_FORMAT(b.event_date, '%Y-%m-%d'), b.quantity, b.notes, b.address, b.duration_hours, b.status, s.price
FROM bookings b
JOIN services s ON s.id = b.service_id`

func collectDetails(rows *sql.Rows) ([]BookingDetail, error) {
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.ServiceID, &d.ServiceName, &d.CustomerID, &d.EventDate, &d.Quantity, &d.Notes, &d.Address, &d.DurationHours, &d.Status, &d.Price); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByCustomer returns the customer's own bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailQuery+" WHERE b.customer_id = ? ORDER BY b.id DESC", customerID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ListByProvider returns bookings placed against any of the provider's
// listings, newest first.
func (r *BookingRepo) ListByProvider(ctx context.Context, providerID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailQuery+" WHERE s.provider_id = ? ORDER BY b.id DESC", providerID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}
