package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers.  It reports the
// process only; dependencies degrade per request instead.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
