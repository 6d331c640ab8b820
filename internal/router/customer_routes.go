package router

import (
	"github.com/labstack/echo/v4"

	"github.com/shaadibazaarhub/marketplace/internal/handler"
	"github.com/shaadibazaarhub/marketplace/internal/middleware"
	"github.com/shaadibazaarhub/marketplace/internal/model"
)

// RegisterPayments registers the payment endpoints of the booking
// protocol.  The config endpoint is public since it only exposes the
// gateway's publishable key; order creation and verification require a
// customer session.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler, jwtSecret string) {
	e.GET("/v1/payments/config", p.Config)

	g := e.Group("/v1/payments")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleCustomer))
	g.POST("/create-order", p.CreateOrder)
	g.POST("/verify", p.Verify)
}

// RegisterBookings registers booking creation (customers only) and the
// role-aware listing endpoint (customers see their bookings, providers
// see bookings against their listings).
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("", b.CreateBooking, middleware.RequireRole(model.RoleCustomer))
	g.GET("/my", b.MyBookings, middleware.RequireRole(model.RoleCustomer, model.RoleProvider))
}
