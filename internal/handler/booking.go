package handler

import (
	"context"  // context for the fire-and-forget publish
	"log"      // logging publish failures
	"net/http" // HTTP status codes
	"time"     // parsing the event date

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/shaadibazaarhub/marketplace/internal/model"
	"github.com/shaadibazaarhub/marketplace/internal/queue"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
	queue_publisher "github.com/shaadibazaarhub/marketplace/internal/service"
)

// BookingStore is the slice of the booking repository the handler needs.
// Tests substitute a scripted implementation.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking, order *model.PaymentOrder) error
	ListByCustomer(ctx context.Context, customerID uint64) ([]repository.BookingDetail, error)
	ListByProvider(ctx context.Context, providerID uint64) ([]repository.BookingDetail, error)
}

// BookingHandler serves booking creation and listing.  Creation upholds
// the payment invariant: a booking for a priced service is inserted in
// the same transaction that consumes a verified payment order for that
// (service, customer) pair, so no verified order funds two bookings and
// no paid booking exists without a verification.
type BookingHandler struct {
	Bookings BookingStore
	Services ServiceStore
	Orders   PaymentOrderStore
	// Publish emits the booking.placed event after commit.  Failures are
	// logged and ignored; notification delivery never blocks a booking.
	Publish func(ctx context.Context, ev queue.BookingPlacedEvent) error
}

// NewBookingHandler constructs a BookingHandler wired to the RabbitMQ
// publisher.  All stores must be non-nil.
func NewBookingHandler(bookings BookingStore, services ServiceStore, orders PaymentOrderStore) *BookingHandler {
	if bookings == nil || services == nil || orders == nil {
		panic("nil store passed to NewBookingHandler")
	}
	return &BookingHandler{
		Bookings: bookings,
		Services: services,
		Orders:   orders,
		Publish:  queue_publisher.PublishBookingPlaced,
	}
}

type createBookingReq struct {
	ServiceID      uint64   `json:"service_id"`
	EventDate      string   `json:"event_date"` // YYYY-MM-DD
	Quantity       uint32   `json:"quantity"`
	Notes          *string  `json:"notes"`
	Address        *string  `json:"address"`
	DurationHours  *float64 `json:"duration_hours"`
	PaymentOrderID string   `json:"payment_order_id"` // gateway order id; required for priced services
}

type bookingPart struct {
	ID            uint64   `json:"id"`
	ServiceID     uint64   `json:"service_id"`
	CustomerID    uint64   `json:"customer_id"`
	EventDate     string   `json:"event_date"`
	Quantity      uint32   `json:"quantity"`
	Notes         *string  `json:"notes,omitempty"`
	Address       *string  `json:"address,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	Status        string   `json:"status"`
}

// CreateBooking handles POST /v1/bookings.  Customers only (enforced by
// middleware).  For a priced service the request must name a verified,
// unconsumed payment order for the same service; consuming the order
// and inserting the booking happen in one transaction.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	customerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id required"})
	}
	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be YYYY-MM-DD"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.DurationHours != nil && *req.DurationHours <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_hours must be positive"})
	}

	ctx := c.Request().Context()
	svc, err := h.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}

	booking := model.Booking{
		ServiceID:     svc.ID,
		CustomerID:    customerID,
		EventDate:     eventDate,
		Quantity:      req.Quantity,
		Notes:         req.Notes,
		Address:       req.Address,
		DurationHours: req.DurationHours,
		Status:        model.BookingPending,
	}

	var order *model.PaymentOrder
	if svc.PricePaise() > 0 {
		if req.PaymentOrderID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_order_id required for paid services"})
		}
		got, err := h.Orders.GetByGatewayOrderID(ctx, req.PaymentOrderID)
		if err != nil {
			if err == repository.ErrOrderNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown payment order"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load payment order"})
		}
		order = &got
		booking.Status = model.BookingConfirmed // funds verified and captured
	}

	if err := h.Bookings.Create(ctx, &booking, order); err != nil {
		if err == repository.ErrOrderNotUsable {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment order not verified or already used"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	if h.Publish != nil {
		ev := queue.BookingPlacedEvent{
			BookingID:   booking.ID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			ProviderID:  svc.ProviderID,
			CustomerID:  customerID,
			EventDate:   booking.EventDate.Format("2006-01-02"),
			Quantity:    booking.Quantity,
			Status:      booking.Status,
			PlacedAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if order != nil {
			ev.AmountPaise = order.AmountPaise
		}
		if err := h.Publish(ctx, ev); err != nil {
			log.Printf("bookings: publish booking.placed failed: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, bookingPart{
		ID:            booking.ID,
		ServiceID:     booking.ServiceID,
		CustomerID:    booking.CustomerID,
		EventDate:     booking.EventDate.Format("2006-01-02"),
		Quantity:      booking.Quantity,
		Notes:         booking.Notes,
		Address:       booking.Address,
		DurationHours: booking.DurationHours,
		Status:        booking.Status,
	})
}

// MyBookings handles GET /v1/bookings/my.  Customers see their own
// bookings; providers see bookings placed against their listings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)

	ctx := c.Request().Context()
	var items []repository.BookingDetail
	if role == model.RoleProvider {
		items, err = h.Bookings.ListByProvider(ctx, userID)
	} else {
		items, err = h.Bookings.ListByCustomer(ctx, userID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
