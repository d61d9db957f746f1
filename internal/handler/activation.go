package handler

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/payment"
	"github.com/iliyamo/receipt-vault/internal/repository"
)

// maxWebhookBody caps how much of an inbound notification we read. Stripe
// events are small; anything bigger is garbage.
const maxWebhookBody = 1 << 20

// ActivationHandler drives the payment workflow: synchronous checkout
// creation inside a request, and the asynchronous, unauthenticated
// completion webhook that flips the activation flag exactly once.
type ActivationHandler struct {
	Users    UserStore
	Provider payment.CheckoutProvider
}

func NewActivationHandler(users UserStore, provider payment.CheckoutProvider) *ActivationHandler {
	return &ActivationHandler{Users: users, Provider: provider}
}

// CreateCheckout handles POST /v1/activation/create-checkout. The
// preconditions read the *live* user record, not the token snapshot: a user
// who was activated out-of-band since login must not be sold a second
// activation just because their token is stale.
func (h *ActivationHandler) CreateCheckout(c echo.Context) error {
	snap, err := session(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Users.GetByID(ctx, snap.UserID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
	}
	if user.IsActivated || user.IsEarlyAccess {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account does not need activation"})
	}

	cs, err := h.Provider.CreateCheckout(ctx, user.ID)
	if err != nil {
		if err == payment.ErrNotConfigured {
			log.Printf("activation: checkout requested but provider not configured")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payments unavailable"})
		}
		// Provider unreachable or timed out: fail closed.
		log.Printf("activation: create checkout failed for user %d: %v", user.ID, err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "checkout unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": cs.URL})
}

// Webhook handles POST /v1/activation/webhook. The route is unauthenticated;
// the provider signature is the only trust anchor. Processing rules, in
// order:
//
//   - signature failure       -> 400, no state change
//   - other event types       -> 200, acknowledged and ignored
//   - completed but unpaid    -> 200, acknowledged and ignored
//   - missing user metadata   -> 200, logged and ignored
//   - user already activated  -> 200, idempotent no-op (provider retries)
//   - otherwise               -> one conditional UPDATE flips activation
//
// Deliveries may arrive more than once and in any order relative to the
// checkout-creation response; the conditional write makes replays harmless.
func (h *ActivationHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	event, err := h.Provider.ParseWebhook(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if err == payment.ErrBadSignature {
			log.Printf("activation: webhook signature verification failed")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	if event.Type != payment.EventCheckoutCompleted || !event.Paid {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	if !event.HasUserID {
		log.Printf("activation: completed checkout %s has no user metadata, ignoring", event.SessionID)
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Users.ActivateFromCheckout(ctx, event.UserID, event.SessionID, time.Now().UTC())
	switch err {
	case nil:
		log.Printf("activation: user %d activated via checkout %s", event.UserID, event.SessionID)
	case repository.ErrAlreadyActivated:
		// At-least-once delivery: the first copy won, this one is a no-op.
		log.Printf("activation: duplicate completion for user %d, ignoring", event.UserID)
	case repository.ErrUserNotFound:
		log.Printf("activation: completed checkout %s references unknown user %d, ignoring",
			event.SessionID, event.UserID)
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
