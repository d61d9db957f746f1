// Package payment wraps the external checkout provider. Handlers depend on
// the CheckoutProvider interface so tests can substitute a fake; the Stripe
// implementation lives in stripe.go.
package payment

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no provider credentials are set. The
// checkout endpoint maps it to a server error rather than silently running
// without payments.
var ErrNotConfigured = errors.New("payment provider not configured")

// ErrBadSignature is returned when a webhook payload fails signature
// verification against the configured shared secret.
var ErrBadSignature = errors.New("invalid webhook signature")

// CheckoutSession is the provider-issued session a user gets redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is the decoded, provider-agnostic view of an inbound
// notification. UserID is only meaningful when HasUserID is true; events
// without our metadata are acknowledged and ignored upstream.
type WebhookEvent struct {
	Type      string
	SessionID string
	Paid      bool
	UserID    uint64
	HasUserID bool
}

// EventCheckoutCompleted is the only event type that can flip activation.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutProvider is the contract with the external payment processor.
type CheckoutProvider interface {
	// CreateCheckout opens a checkout session tagged with the user id as
	// opaque metadata and returns the redirect URL. Implementations fail
	// closed on provider timeouts.
	CreateCheckout(ctx context.Context, userID uint64) (CheckoutSession, error)

	// ParseWebhook authenticates and decodes a raw notification body.
	// Returns ErrBadSignature when a secret is configured and the signature
	// does not verify.
	ParseWebhook(payload []byte, sigHeader string) (WebhookEvent, error)
}
