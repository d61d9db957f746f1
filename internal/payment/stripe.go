package payment

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/iliyamo/receipt-vault/internal/config"
)

// metadataUserKey tags checkout sessions with the initiating user.
const metadataUserKey = "user_id"

// StripeProvider implements CheckoutProvider on the Stripe API.
type StripeProvider struct {
	secretKey     string
	webhookSecret string
	priceCents    int64
	currency      string
	successURL    string
	cancelURL     string
}

var _ CheckoutProvider = (*StripeProvider)(nil)

// NewStripeProvider configures the Stripe client from application config.
// An empty webhook secret switches ParseWebhook into the unsigned fallback;
// that is for local development only and is logged on every delivery.
func NewStripeProvider(cfg config.Config) *StripeProvider {
	stripe.Key = cfg.StripeSecretKey
	return &StripeProvider{
		secretKey:     cfg.StripeSecretKey,
		webhookSecret: cfg.StripeWebhookSecret,
		priceCents:    cfg.ActivationPriceCents,
		currency:      cfg.ActivationCurrency,
		successURL:    cfg.CheckoutSuccessURL,
		cancelURL:     cfg.CheckoutCancelURL,
	}
}

// CreateCheckout opens a one-item payment session for the activation fee.
// A fresh idempotency key guards against double submission on retries.
func (p *StripeProvider) CreateCheckout(ctx context.Context, userID uint64) (CheckoutSession, error) {
	if p.secretKey == "" {
		return CheckoutSession{}, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(p.priceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Account activation"),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())
	params.AddMetadata(metadataUserKey, strconv.FormatUint(userID, 10))

	s, err := session.New(params)
	if err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header when a secret is
// configured and decodes the event. Without a secret the payload is parsed
// unauthenticated; never deploy that path.
func (p *StripeProvider) ParseWebhook(payload []byte, sigHeader string) (WebhookEvent, error) {
	var event stripe.Event
	if p.webhookSecret != "" {
		ev, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
		if err != nil {
			return WebhookEvent{}, ErrBadSignature
		}
		event = ev
	} else {
		log.Printf("stripe-webhook: no webhook secret configured, accepting unsigned event")
		if err := json.Unmarshal(payload, &event); err != nil {
			return WebhookEvent{}, err
		}
	}

	out := WebhookEvent{Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return WebhookEvent{}, err
	}
	out.SessionID = cs.ID
	out.Paid = cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid

	if raw, ok := cs.Metadata[metadataUserKey]; ok {
		if uid, err := strconv.ParseUint(raw, 10, 64); err == nil && uid > 0 {
			out.UserID = uid
			out.HasUserID = true
		}
	}
	return out, nil
}
