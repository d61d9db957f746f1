package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/handler"
	"github.com/iliyamo/receipt-vault/internal/middleware"
)

// Handlers bundles every handler the router needs so the composition root
// passes a single value instead of a growing argument list.
type Handlers struct {
	Auth       *handler.AuthHandler
	Activation *handler.ActivationHandler
	Receipts   *handler.ReceiptHandler
	Users      *handler.AdminUserHandler
	Settings   *handler.AdminSettingsHandler
	Feedback   *handler.AdminFeedbackHandler
}

// Register wires the full HTTP surface onto the provided Echo instance.
//
// Route layout:
//
//	/healthz                          unauthenticated liveness probe
//	/v1/auth/*                        register/login, rate limited
//	/v1/activation/webhook            unauthenticated, signature-verified
//	/v1/*                             session required
//	/v1/admin/*                       session + staff role required
func Register(e *echo.Echo, h Handlers, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.  No auth, no limits.
	e.GET("/healthz", handler.Health)

	// Credential endpoints carry the rate limiter: they are the only routes
	// an attacker can hammer without holding a session token.
	auth := e.Group("/v1/auth", rateLimit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	// The payment provider calls the webhook directly, so it cannot present a
	// session.  Authenticity comes from the signature check inside the handler.
	e.POST("/v1/activation/webhook", h.Activation.Webhook)

	// Everything else requires a valid session token (Bearer header or cookie).
	v1 := e.Group("/v1", middleware.SessionAuth(jwtSecret))
	v1.GET("/me", h.Auth.Me)
	v1.POST("/activation/create-checkout", h.Activation.CreateCheckout, rateLimit)

	v1.POST("/receipts/upload-url", h.Receipts.UploadURL)
	v1.GET("/receipts", h.Receipts.List)
	v1.DELETE("/receipts/:id", h.Receipts.Delete)

	// Staff surface.  RequireStaff only checks the role tier; per-target rules
	// (who may delete or promote whom) live in the handlers via the policy
	// package, because they depend on the target row.
	admin := v1.Group("/admin", middleware.RequireStaff())
	admin.GET("/settings", h.Settings.Get)
	admin.PATCH("/settings", h.Settings.Patch)

	admin.GET("/users", h.Users.List)
	admin.GET("/users/:id", h.Users.Get)
	admin.PATCH("/users/:id", h.Users.ChangeRole)
	admin.DELETE("/users/:id", h.Users.Delete)

	admin.GET("/feedback", h.Feedback.List)
	admin.PATCH("/feedback/:id", h.Feedback.Moderate)
}
