package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/authz"
	"github.com/iliyamo/receipt-vault/internal/config"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/queue"
	"github.com/iliyamo/receipt-vault/internal/repository"
	"github.com/iliyamo/receipt-vault/internal/utils"
)

// AdminUserHandler implements the admin user-management endpoints. The
// RequireStaff middleware guarantees the actor is ADMIN or SUPER_ADMIN;
// per-target decisions are delegated to the authz policy engine here.
type AdminUserHandler struct {
	Cfg     config.Config
	Users   UserStore
	Cleanup CleanupPublisher
}

func NewAdminUserHandler(cfg config.Config, users UserStore, cleanup CleanupPublisher) *AdminUserHandler {
	return &AdminUserHandler{Cfg: cfg, Users: users, Cleanup: cleanup}
}

type changeRoleReq struct {
	Role string `json:"role"`
}

// List handles GET /v1/admin/users.
func (h *AdminUserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get handles GET /v1/admin/users/:id. The actor already passed the staff
// check, so a missing user is a true 404; no permission masking is needed at
// this point.
func (h *AdminUserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(user)})
}

// ChangeRole handles PATCH /v1/admin/users/:id. When a SUPER_ADMIN re-roles
// their own account the response carries a freshly issued token, so the
// acting session is not left holding a stale role snapshot.
func (h *AdminUserHandler) ChangeRole(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req changeRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	newRole, ok := model.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if d := authz.CanChangeRole(snap.Role, target.Role, newRole); !d.Allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": d.Reason})
	}

	updated, err := h.Users.UpdateRole(ctx, id, newRole)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	resp := echo.Map{"user": toUserPart(updated)}
	if updated.ID == snap.UserID {
		// The actor just changed their own role; re-issue so their next
		// request carries the new snapshot instead of the stale one.
		token, exp, err := utils.IssueSessionToken(h.Cfg.JWTSecret, updated)
		if err == nil {
			setSessionCookie(c, token, exp)
			resp["token"] = token
			resp["expires"] = exp
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /v1/admin/users/:id. Self-deletion is denied before
// the hierarchy check, for every role. A successful cascade returns 204 and
// queues the user's receipt objects for best-effort storage cleanup.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if d := authz.CanDeleteUser(snap.Role, target.Role, target.ID == snap.UserID); !d.Allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": d.Reason})
	}

	keys, err := h.Users.DeleteCascade(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if len(keys) > 0 && h.Cleanup != nil {
		// Fire-and-forget: the records are gone, object cleanup is best
		// effort and must not delay or fail the response.
		ev := queue.StorageCleanupEvent{UserID: id, ObjectKeys: keys, Reason: "user_deleted"}
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.Cleanup(pubCtx, ev); err != nil {
				log.Printf("admin: cleanup publish for user %d failed: %v", id, err)
			}
		}()
	}

	return c.NoContent(http.StatusNoContent)
}
