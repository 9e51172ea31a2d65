package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auction-marketplace/internal/auction"
)

// AdminHandler exposes live tuning of the engine settings and public
// reputation lookups.
type AdminHandler struct {
	Settings   SettingsWriter
	Reputation ReputationReader
}

func NewAdminHandler(settings SettingsWriter, reputation ReputationReader) *AdminHandler {
	if settings == nil || reputation == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Settings: settings, Reputation: reputation}
}

type settingRequest struct {
	Value string `json:"value"`
}

// PutSetting handles PUT /v1/admin/settings/:key.  The next engine
// operation reads the new value.
func (h *AdminHandler) PutSetting(c echo.Context) error {
	key := c.Param("key")
	var body settingRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	value := strings.TrimSpace(body.Value)
	if err := auction.ValidateSetting(key, value); err != nil {
		return writeError(c, err)
	}
	if err := h.Settings.Set(c.Request().Context(), key, value); err != nil {
		return writeError(c, err)
	}
	log.WithField("key", key).WithField("value", value).Info("setting updated")
	return c.JSON(http.StatusOK, echo.Map{"key": key, "value": value})
}

// GetReputation handles GET /v1/users/:id/ratings.
func (h *AdminHandler) GetReputation(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	rep, err := h.Reputation.Reputation(c.Request().Context(), userID)
	if err != nil {
		return notFoundOr(c, err, "user not found")
	}
	return c.JSON(http.StatusOK, rep)
}
