package router

import (
	"github.com/labstack/echo/v4"

	"github.com/shaadibazaarhub/marketplace/internal/handler"
	"github.com/shaadibazaarhub/marketplace/internal/middleware"
	"github.com/shaadibazaarhub/marketplace/internal/model"
)

// RegisterProvider registers the catalog CRUD endpoints.  Every route
// requires a provider session; ownership of individual listings is
// enforced in the repository layer.
func RegisterProvider(e *echo.Echo, p *handler.ProviderHandler, jwtSecret string) {
	g := e.Group("/v1/services")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleProvider))
	g.POST("", p.CreateService)
	g.GET("/my", p.MyServices)
	g.PUT("/:id", p.UpdateService)
	g.DELETE("/:id", p.DeleteService)
}
