package handler

import (
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/shaadibazaarhub/marketplace/internal/model"
	"github.com/shaadibazaarhub/marketplace/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints: listing,
// searching and viewing service listings.  These routes sit behind the
// response-cache middleware since listings change far less often than
// they are read.
type PublicHandler struct {
	Services *repository.ServiceRepo
}

// NewPublicHandler constructs a PublicHandler.  The repository must be non-nil.
func NewPublicHandler(services *repository.ServiceRepo) *PublicHandler {
	if services == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Services: services}
}

// servicePart is the public JSON shape of a listing.
type servicePart struct {
	ID          uint64   `json:"id"`
	ProviderID  uint64   `json:"provider_id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Price       float64  `json:"price"`
	PhotoURL    *string  `json:"photo_url,omitempty"`
	Location    string   `json:"location"`
}

func toServicePart(s model.Service) servicePart {
	return servicePart{
		ID:          s.ID,
		ProviderID:  s.ProviderID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		PhotoURL:    s.PhotoURL,
		Location:    s.Location,
	}
}

// ListServices handles GET /v1/services.  Optional ?query= matches name
// and description; ?location= filters by area.  Returns an array,
// newest first.
func (h *PublicHandler) ListServices(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.Services.Search(ctx, c.QueryParam("query"), c.QueryParam("location"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load services"})
	}
	out := make([]servicePart, 0, len(items))
	for _, s := range items {
		out = append(out, toServicePart(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetService handles GET /v1/services/:id and returns a single listing.
func (h *PublicHandler) GetService(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	s, err := h.Services.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrServiceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load service"})
	}
	return c.JSON(http.StatusOK, toServicePart(s))
}
