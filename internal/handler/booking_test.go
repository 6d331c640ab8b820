package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaadibazaarhub/marketplace/internal/model"
	"github.com/shaadibazaarhub/marketplace/internal/queue"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
)

// fakeBookings mimics the transactional create: the funding order must
// be a verified, unconsumed order for the same service and customer.
type fakeBookings struct {
	orders  *fakeOrders
	created []model.Booking
	nextID  uint64
}

func (s *fakeBookings) Create(ctx context.Context, b *model.Booking, order *model.PaymentOrder) error {
	if order != nil {
		stored, ok := s.orders.orders[order.GatewayOrderID]
		if !ok || stored.Status != model.OrderVerified ||
			stored.ServiceID != b.ServiceID || stored.CustomerID != b.CustomerID {
			return repository.ErrOrderNotUsable
		}
		stored.Status = model.OrderConsumed
		s.orders.orders[order.GatewayOrderID] = stored
		b.PaymentOrderID = &order.ID
	}
	s.nextID++
	b.ID = s.nextID
	s.created = append(s.created, *b)
	return nil
}

func (s *fakeBookings) ListByCustomer(ctx context.Context, customerID uint64) ([]repository.BookingDetail, error) {
	return []repository.BookingDetail{}, nil
}

func (s *fakeBookings) ListByProvider(ctx context.Context, providerID uint64) ([]repository.BookingDetail, error) {
	return []repository.BookingDetail{}, nil
}

func bookingFixture() (*BookingHandler, *fakeOrders, *fakeBookings, *[]queue.BookingPlacedEvent) {
	services := &fakeServices{services: map[uint64]model.Service{
		7: {ID: 7, ProviderID: 3, Name: "Banquet Hall", Price: 25000, Location: "Jaipur"},
		8: {ID: 8, ProviderID: 3, Name: "Venue Visit", Price: 0, Location: "Jaipur"},
	}}
	orders := newFakeOrders()
	bookings := &fakeBookings{orders: orders}
	h := NewBookingHandler(bookings, services, orders)
	events := &[]queue.BookingPlacedEvent{}
	h.Publish = func(ctx context.Context, ev queue.BookingPlacedEvent) error {
		*events = append(*events, ev)
		return nil
	}
	return h, orders, bookings, events
}

// seedOrder stores a gateway order in the given lifecycle state.
func seedOrder(orders *fakeOrders, status string) {
	orders.nextID++
	orders.orders["order_test_1"] = model.PaymentOrder{
		ID: orders.nextID, GatewayOrderID: "order_test_1",
		ServiceID: 7, CustomerID: 1, AmountPaise: 2500000,
		Currency: "INR", Receipt: "svc_7_1_abcd1234", Status: status,
	}
}

func TestCreateBookingConsumesVerifiedOrder(t *testing.T) {
	h, orders, bookings, events := bookingFixture()
	seedOrder(orders, model.OrderVerified)

	c, rec := post(t, "/v1/bookings",
		`{"service_id":7,"event_date":"2026-11-14","quantity":1,"payment_order_id":"order_test_1"}`, 1)
	require.NoError(t, h.CreateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "confirmed", body["status"])
	assert.Equal(t, "2026-11-14", body["event_date"])

	assert.Equal(t, model.OrderConsumed, orders.orders["order_test_1"].Status)
	require.Len(t, bookings.created, 1)
	require.NotNil(t, bookings.created[0].PaymentOrderID)

	require.Len(t, *events, 1)
	assert.Equal(t, int64(2500000), (*events)[0].AmountPaise)
	assert.Equal(t, uint64(3), (*events)[0].ProviderID)
}

func TestCreateBookingRequiresOrderForPaidService(t *testing.T) {
	h, _, bookings, _ := bookingFixture()

	c, rec := post(t, "/v1/bookings",
		`{"service_id":7,"event_date":"2026-11-14"}`, 1)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bookings.created)
}

func TestCreateBookingUnverifiedOrderConflicts(t *testing.T) {
	h, orders, bookings, _ := bookingFixture()
	seedOrder(orders, model.OrderCreated) // gateway callback claimed success; server never verified

	c, rec := post(t, "/v1/bookings",
		`{"service_id":7,"event_date":"2026-11-14","payment_order_id":"order_test_1"}`, 1)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, bookings.created)
}

func TestCreateBookingOrderUsedOnce(t *testing.T) {
	h, orders, bookings, _ := bookingFixture()
	seedOrder(orders, model.OrderVerified)

	body := `{"service_id":7,"event_date":"2026-11-14","payment_order_id":"order_test_1"}`
	c, rec := post(t, "/v1/bookings", body, 1)
	require.NoError(t, h.CreateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = post(t, "/v1/bookings", body, 1)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, bookings.created, 1, "one verified order funds exactly one booking")
}

func TestCreateBookingForeignOrderConflicts(t *testing.T) {
	h, orders, bookings, _ := bookingFixture()
	seedOrder(orders, model.OrderVerified) // belongs to customer 1

	c, rec := post(t, "/v1/bookings",
		`{"service_id":7,"event_date":"2026-11-14","payment_order_id":"order_test_1"}`, 2)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, bookings.created)
}

func TestCreateBookingFreeServiceSkipsPayment(t *testing.T) {
	h, _, bookings, events := bookingFixture()

	c, rec := post(t, "/v1/bookings",
		`{"service_id":8,"event_date":"2026-11-14"}`, 1)
	require.NoError(t, h.CreateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, float64(1), body["quantity"], "quantity defaults to 1")

	require.Len(t, bookings.created, 1)
	assert.Nil(t, bookings.created[0].PaymentOrderID)
	require.Len(t, *events, 1)
	assert.Zero(t, (*events)[0].AmountPaise)
}

func TestCreateBookingBadEventDate(t *testing.T) {
	h, _, _, _ := bookingFixture()

	c, rec := post(t, "/v1/bookings",
		`{"service_id":8,"event_date":"14-11-2026"}`, 1)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingPublishFailureStillSucceeds(t *testing.T) {
	h, _, _, _ := bookingFixture()
	h.Publish = func(ctx context.Context, ev queue.BookingPlacedEvent) error {
		return assert.AnError
	}

	c, rec := post(t, "/v1/bookings",
		`{"service_id":8,"event_date":"2026-11-14"}`, 1)
	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code, "notification failure must not fail the booking")
}

func TestMyBookingsUnauthorized(t *testing.T) {
	h, _, _, _ := bookingFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/my", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.MyBookings(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
