package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	gatepkg "github.com/iliyamo/receipt-vault/internal/gate"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/queue"
	"github.com/iliyamo/receipt-vault/internal/repository"
	"github.com/iliyamo/receipt-vault/internal/storage"
)

// uploadURLTTL is how long an issued presigned PUT stays valid.
const uploadURLTTL = 15 * time.Minute

// ReceiptStore is the slice of the receipt repository the handlers need.
type ReceiptStore interface {
	Create(ctx context.Context, userID uint64, title, objectKey string) (uint64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Receipt, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) (string, error)
}

// ReceiptHandler exposes the gated receipt-scan surface: presigned upload
// URL issuance and deletion. Everything here sits behind the entitlement
// gate; the receipt domain itself (line items, rendering) lives elsewhere.
type ReceiptHandler struct {
	Receipts ReceiptStore
	Objects  storage.ObjectStore
	Gate     *gatepkg.Gate
	Cleanup  CleanupPublisher
}

func NewReceiptHandler(receipts ReceiptStore, objects storage.ObjectStore, g *gatepkg.Gate, cleanup CleanupPublisher) *ReceiptHandler {
	return &ReceiptHandler{Receipts: receipts, Objects: objects, Gate: g, Cleanup: cleanup}
}

type uploadURLReq struct {
	Title string `json:"title"`
}

// ensureEntitled runs the entitlement gate and writes the distinct
// machine-readable rejection when it fails. The bool reports whether the
// caller may proceed.
func (h *ReceiptHandler) ensureEntitled(c echo.Context, snap model.SessionSnapshot) bool {
	if err := h.Gate.EnsureActivated(c.Request().Context(), snap); err != nil {
		_ = c.JSON(http.StatusForbidden, echo.Map{
			"error": "activation required",
			"code":  "activation_required",
		})
		return false
	}
	return true
}

// UploadURL handles POST /v1/receipts/upload-url: records the receipt and
// returns a presigned PUT URL the client uploads the scan to directly.
func (h *ReceiptHandler) UploadURL(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !h.ensureEntitled(c, snap) {
		return nil
	}

	var req uploadURLReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	objectKey := fmt.Sprintf("receipts/%d/%s", snap.UserID, uuid.NewString())
	uploadURL, err := h.Objects.PresignPut(ctx, objectKey, uploadURLTTL)
	if err != nil {
		if err == storage.ErrNotConfigured {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "presign failed"})
	}

	id, err := h.Receipts.Create(ctx, snap.UserID, req.Title, objectKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create receipt failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"receipt_id": id,
		"object_key": objectKey,
		"upload_url": uploadURL,
	})
}

// List handles GET /v1/receipts for the authenticated owner.
func (h *ReceiptHandler) List(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !h.ensureEntitled(c, snap) {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	receipts, err := h.Receipts.ListByUser(ctx, snap.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list receipts failed"})
	}
	type receiptPart struct {
		ID        uint64    `json:"id"`
		Title     string    `json:"title"`
		ObjectKey string    `json:"object_key"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]receiptPart, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, receiptPart{ID: r.ID, Title: r.Title, ObjectKey: r.ObjectKey, CreatedAt: r.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"receipts": out})
}

// Delete handles DELETE /v1/receipts/:id. A receipt owned by someone else
// answers 404, identical to a missing one, so the endpoint never confirms
// existence of another user's data. The stored object is queued for
// best-effort deletion after the row is gone.
func (h *ReceiptHandler) Delete(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !h.ensureEntitled(c, snap) {
		return nil
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	key, err := h.Receipts.DeleteByIDAndOwner(ctx, id, snap.UserID)
	if err != nil {
		if err == repository.ErrReceiptNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receipt not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if h.Cleanup != nil {
		ev := queue.StorageCleanupEvent{UserID: snap.UserID, ObjectKeys: []string{key}, Reason: "receipt_deleted"}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.Cleanup(pubCtx, ev); err != nil {
				log.Printf("receipts: cleanup publish for receipt %d failed: %v", id, err)
			}
		}()
	}

	return c.NoContent(http.StatusNoContent)
}
