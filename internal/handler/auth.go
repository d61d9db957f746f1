package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/config"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/repository"
	"github.com/iliyamo/receipt-vault/internal/settings"
	"github.com/iliyamo/receipt-vault/internal/utils"
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Settings *settings.Store
}

func NewAuthHandler(cfg config.Config, users UserStore, st *settings.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Settings: st}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Register creates a user and signs them in immediately. New accounts are
// plain USERs with two exceptions: the configured admin email is created as
// ADMIN, and registrations while EARLY_ACCESS_OPEN is set get the permanent
// early-access flag.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	role := model.RoleUser
	if h.Cfg.AdminEmail != "" && req.Email == strings.ToLower(h.Cfg.AdminEmail) {
		role = model.RoleAdmin
	}
	// EARLY_ACCESS_OPEN only affects registrations that happen while it is
	// set; the flag is never granted or revoked retroactively.
	earlyAccess := h.Settings.SystemSettings(ctx).EarlyAccessOpen

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	uid, err := h.Users.Create(ctx, req.Email, hash, role, earlyAccess, req.FirstName, req.LastName)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	token, exp, err := utils.IssueSessionToken(h.Cfg.JWTSecret, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	setSessionCookie(c, token, exp)

	return c.JSON(http.StatusCreated, authResp{User: toUserPart(user), Token: token, Expires: exp})
}

// Login verifies the password hash and issues a fresh token. Every
// credential mismatch, unknown email or wrong password alike, yields the
// same 401 body, so the response never confirms whether an account exists.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, exp, err := utils.IssueSessionToken(h.Cfg.JWTSecret, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	setSessionCookie(c, token, exp)

	return c.JSON(http.StatusOK, authResp{User: toUserPart(user), Token: token, Expires: exp})
}

// Me echoes the identity summary from the verified snapshot. It is a pure
// token decode: no database read, so it reports the state at issue time.
func (h *AuthHandler) Me(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":                snap.UserID,
		"email":             snap.Email,
		"role":              string(snap.Role),
		"is_activated":      snap.IsActivated,
		"is_early_access":   snap.IsEarlyAccess,
		"activation_source": string(snap.ActivationSrc),
		"expires":           snap.ExpiresAt,
	})
}
