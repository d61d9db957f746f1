// Package handler defines the HTTP handlers for the receipt-vault API.
// Handlers depend on narrow store/provider interfaces so tests can swap in
// fakes without a database or a payment account.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/middleware"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/queue"
)

// dbTimeout bounds every repository call made from a request handler.
const dbTimeout = 5 * time.Second

// UserStore is the slice of the credential store the handlers consume.
// *repository.UserRepo satisfies it in production.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, role model.Role, earlyAccess bool, firstName, lastName string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id uint64, role model.Role) (model.User, error)
	ActivateFromCheckout(ctx context.Context, id uint64, txnID string, at time.Time) error
	DeleteCascade(ctx context.Context, id uint64) ([]string, error)
}

// CleanupPublisher queues orphaned object keys for best-effort deletion.
// queue_publisher.PublishStorageCleanup satisfies it in production.
type CleanupPublisher func(ctx context.Context, event queue.StorageCleanupEvent) error

// userPart is the sanitized user representation returned by the API. The
// password hash never leaves the repository layer.
type userPart struct {
	ID               uint64 `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	IsActivated      bool   `json:"is_activated"`
	IsEarlyAccess    bool   `json:"is_early_access"`
	ActivationSource string `json:"activation_source,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:               u.ID,
		Email:            u.Email,
		Role:             string(u.Role),
		IsActivated:      u.IsActivated,
		IsEarlyAccess:    u.IsEarlyAccess,
		ActivationSource: string(u.ActivationSrc),
		FirstName:        u.FirstName,
		LastName:         u.LastName,
	}
}

// errUnauthenticated signals a request that reached a handler without a
// verified snapshot; handlers translate it to a generic 401.
var errUnauthenticated = errors.New("unauthenticated")

// session pulls the verified snapshot out of the context; a missing one
// means the route was registered without SessionAuth.
func session(c echo.Context) (model.SessionSnapshot, error) {
	snap, ok := middleware.Snapshot(c)
	if !ok {
		return model.SessionSnapshot{}, errUnauthenticated
	}
	return snap, nil
}

// setSessionCookie attaches the signed token as an http-only cookie.
func setSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
