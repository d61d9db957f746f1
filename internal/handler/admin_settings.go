package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/settings"
)

// AdminSettingsHandler exposes the system flags to the admin tier.
type AdminSettingsHandler struct {
	Settings *settings.Store
}

func NewAdminSettingsHandler(st *settings.Store) *AdminSettingsHandler {
	return &AdminSettingsHandler{Settings: st}
}

type patchSettingsReq struct {
	RequireActivation *bool `json:"require_activation"`
	EarlyAccessOpen   *bool `json:"early_access_open"`
}

// Get handles GET /v1/admin/settings.
func (h *AdminSettingsHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	return c.JSON(http.StatusOK, h.Settings.SystemSettings(ctx))
}

// Patch handles PATCH /v1/admin/settings. Only the fields present in the
// body change. Store.Set invalidates the cache synchronously, so the
// response body and any read that follows it reflect the new values without
// waiting out the TTL.
func (h *AdminSettingsHandler) Patch(c echo.Context) error {
	var req patchSettingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RequireActivation == nil && req.EarlyAccessOpen == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no settings provided"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if req.RequireActivation != nil {
		if err := h.Settings.Set(ctx, settings.KeyRequireActivation, *req.RequireActivation); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.EarlyAccessOpen != nil {
		if err := h.Settings.Set(ctx, settings.KeyEarlyAccessOpen, *req.EarlyAccessOpen); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, h.Settings.SystemSettings(ctx))
}
