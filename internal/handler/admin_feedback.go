package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/authz"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/repository"
)

// FeedbackStore is the slice of the feedback repository moderation needs.
type FeedbackStore interface {
	GetByID(ctx context.Context, id uint64) (model.Feedback, error)
	List(ctx context.Context) ([]model.Feedback, error)
	SetShowcased(ctx context.Context, id uint64, showcased bool) (model.Feedback, error)
}

// AdminFeedbackHandler implements feedback moderation for the admin tier.
type AdminFeedbackHandler struct {
	Feedback FeedbackStore
}

func NewAdminFeedbackHandler(fb FeedbackStore) *AdminFeedbackHandler {
	return &AdminFeedbackHandler{Feedback: fb}
}

type moderateReq struct {
	Showcased bool `json:"showcased"`
}

type feedbackPart struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"user_id"`
	Type      string `json:"type"`
	Body      string `json:"body"`
	Showcased bool   `json:"showcased"`
}

func toFeedbackPart(f model.Feedback) feedbackPart {
	return feedbackPart{ID: f.ID, UserID: f.UserID, Type: string(f.Type), Body: f.Body, Showcased: f.Showcased}
}

// List handles GET /v1/admin/feedback.
func (h *AdminFeedbackHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Feedback.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list feedback failed"})
	}
	out := make([]feedbackPart, 0, len(entries))
	for _, f := range entries {
		out = append(out, toFeedbackPart(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": out})
}

// Moderate handles PATCH /v1/admin/feedback/:id. A request to showcase a
// non-positive entry is not an error; the policy silently downgrades it to
// not-showcased and the response shows what was actually stored.
func (h *AdminFeedbackHandler) Moderate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	entry, err := h.Feedback.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrFeedbackNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "feedback not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	effective := authz.SanitizeShowcase(entry.Type, req.Showcased)
	updated, err := h.Feedback.SetShowcased(ctx, id, effective)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": toFeedbackPart(updated)})
}
