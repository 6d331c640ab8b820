package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers GET /healthz with a plain "ok" for load balancer
// probes.  It deliberately touches no dependency; a degraded database
// or broker should surface in request errors, not take the process out
// of rotation.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
