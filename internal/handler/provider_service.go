package handler

import (
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/shaadibazaarhub/marketplace/internal/model"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
)

// ProviderHandler implements the catalog CRUD endpoints for providers.
// All methods assume JWT authentication and the provider role have been
// enforced by middleware; ownership of individual listings is enforced
// by the repository.
type ProviderHandler struct {
	Services *repository.ServiceRepo
}

// NewProviderHandler constructs a ProviderHandler.  The repository must be non-nil.
func NewProviderHandler(services *repository.ServiceRepo) *ProviderHandler {
	if services == nil {
		panic("nil repository passed to NewProviderHandler")
	}
	return &ProviderHandler{Services: services}
}

type serviceReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	PhotoURL    *string `json:"photo_url"`
	Location    string  `json:"location"`
}

// CreateService handles POST /v1/services.  It creates a listing owned
// by the authenticated provider and returns it with 201.
func (h *ProviderHandler) CreateService(c echo.Context) error {
	providerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Location == "" || req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/location required, price must be >= 0"})
	}
	s := model.Service{
		ProviderID:  providerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		Location:    req.Location,
	}
	if err := h.Services.Create(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create service"})
	}
	return c.JSON(http.StatusCreated, toServicePart(s))
}

// MyServices handles GET /v1/services/my and lists the provider's own
// listings.
func (h *ProviderHandler) MyServices(c echo.Context) error {
	providerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Services.ListByProvider(c.Request().Context(), providerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load services"})
	}
	out := make([]servicePart, 0, len(items))
	for _, s := range items {
		out = append(out, toServicePart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// UpdateService handles PUT /v1/services/:id.  Only the owning provider
// may update a listing; all mutable fields are rewritten.
func (h *ProviderHandler) UpdateService(c echo.Context) error {
	providerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.Location == "" || req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/location required, price must be >= 0"})
	}
	s := model.Service{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		PhotoURL:    req.PhotoURL,
		Location:    req.Location,
	}
	if err := h.Services.Update(c.Request().Context(), providerID, &s); err != nil {
		switch err {
		case repository.ErrServiceNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not owner"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}
	return c.JSON(http.StatusOK, toServicePart(s))
}

// DeleteService handles DELETE /v1/services/:id for the owning provider.
func (h *ProviderHandler) DeleteService(c echo.Context) error {
	providerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	if err := h.Services.Delete(c.Request().Context(), providerID, id); err != nil {
		switch err {
		case repository.ErrServiceNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not owner"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "deleted"})
}
