package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/receipt-vault/internal/handler"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/payment"
)

// fakeProvider returns canned results for both provider operations.
type fakeProvider struct {
	session    payment.CheckoutSession
	createErr  error
	event      payment.WebhookEvent
	parseErr   error
	lastParsed []byte
}

func (f *fakeProvider) CreateCheckout(_ context.Context, _ uint64) (payment.CheckoutSession, error) {
	if f.createErr != nil {
		return payment.CheckoutSession{}, f.createErr
	}
	return f.session, nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, _ string) (payment.WebhookEvent, error) {
	f.lastParsed = payload
	if f.parseErr != nil {
		return payment.WebhookEvent{}, f.parseErr
	}
	return f.event, nil
}

func paidEvent(userID uint64) payment.WebhookEvent {
	return payment.WebhookEvent{
		Type:      payment.EventCheckoutCompleted,
		SessionID: "cs_test_123",
		Paid:      true,
		UserID:    userID,
		HasUserID: true,
	}
}

func TestCreateCheckout(t *testing.T) {
	t.Run("returns redirect url", func(t *testing.T) {
		store := newFakeUserStore()
		u := store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
		provider := &fakeProvider{session: payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}}
		h := handler.NewActivationHandler(store, provider)

		c, rec := newCtx(t, http.MethodPost, "/v1/activation/create-checkout", "")
		withSession(c, u.Snapshot())
		require.NoError(t, h.CreateCheckout(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://pay.example/cs_1", decodeBody(t, rec)["url"])
	})

	t.Run("already activated account is refused", func(t *testing.T) {
		store := newFakeUserStore()
		u := store.add(model.User{Email: "u@example.com", Role: model.RoleUser, IsActivated: true})
		h := handler.NewActivationHandler(store, &fakeProvider{})

		// The token still says unactivated; the live record must win.
		snap := u.Snapshot()
		snap.IsActivated = false

		c, rec := newCtx(t, http.MethodPost, "/v1/activation/create-checkout", "")
		withSession(c, snap)
		require.NoError(t, h.CreateCheckout(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("early access account is refused", func(t *testing.T) {
		store := newFakeUserStore()
		u := store.add(model.User{Email: "u@example.com", Role: model.RoleUser, IsEarlyAccess: true})
		h := handler.NewActivationHandler(store, &fakeProvider{})

		c, rec := newCtx(t, http.MethodPost, "/v1/activation/create-checkout", "")
		withSession(c, u.Snapshot())
		require.NoError(t, h.CreateCheckout(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider not configured", func(t *testing.T) {
		store := newFakeUserStore()
		u := store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
		h := handler.NewActivationHandler(store, &fakeProvider{createErr: payment.ErrNotConfigured})

		c, rec := newCtx(t, http.MethodPost, "/v1/activation/create-checkout", "")
		withSession(c, u.Snapshot())
		require.NoError(t, h.CreateCheckout(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("provider unreachable fails closed", func(t *testing.T) {
		store := newFakeUserStore()
		u := store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
		h := handler.NewActivationHandler(store, &fakeProvider{createErr: errors.New("timeout")})

		c, rec := newCtx(t, http.MethodPost, "/v1/activation/create-checkout", "")
		withSession(c, u.Snapshot())
		require.NoError(t, h.CreateCheckout(c))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("no session", func(t *testing.T) {
		h := handler.NewActivationHandler(newFakeUserStore(), &fakeProvider{})
		c, rec := newCtx(t, http.MethodPost, "/v1/activation/create-checkout", "")
		require.NoError(t, h.CreateCheckout(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWebhookActivatesExactlyOnce(t *testing.T) {
	store := newFakeUserStore()
	u := store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
	provider := &fakeProvider{event: paidEvent(u.ID)}
	h := handler.NewActivationHandler(store, provider)

	deliver := func() int {
		c, rec := newCtx(t, http.MethodPost, "/v1/activation/webhook", `{"raw":"event"}`)
		require.NoError(t, h.Webhook(c))
		return rec.Code
	}

	// First delivery flips the flag.
	assert.Equal(t, http.StatusOK, deliver())
	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActivated)
	assert.Equal(t, model.SourceStripe, got.ActivationSrc)
	assert.Equal(t, "cs_test_123", got.ActivationTxnID)
	require.NotNil(t, got.ActivatedAt)

	// Provider retries: replays are acknowledged and change nothing.
	first := *got.ActivatedAt
	assert.Equal(t, http.StatusOK, deliver())
	assert.Equal(t, http.StatusOK, deliver())

	got, err = store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.ActivatedAt)
	assert.Equal(t, "cs_test_123", got.ActivationTxnID)
	assert.Equal(t, 3, store.activateCalls)
}

func TestWebhookBadSignature(t *testing.T) {
	store := newFakeUserStore()
	store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
	h := handler.NewActivationHandler(store, &fakeProvider{parseErr: payment.ErrBadSignature})

	c, rec := newCtx(t, http.MethodPost, "/v1/activation/webhook", `{"forged":true}`)
	require.NoError(t, h.Webhook(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, store.activateCalls, "forged payload must not touch the store")
}

func TestWebhookIgnoresIrrelevantEvents(t *testing.T) {
	cases := []struct {
		name  string
		event payment.WebhookEvent
	}{
		{"other event type", payment.WebhookEvent{Type: "invoice.paid", Paid: true}},
		{"completed but unpaid", payment.WebhookEvent{Type: payment.EventCheckoutCompleted, Paid: false, UserID: 1, HasUserID: true}},
		{"missing user metadata", payment.WebhookEvent{Type: payment.EventCheckoutCompleted, Paid: true, SessionID: "cs_x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeUserStore()
			store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
			h := handler.NewActivationHandler(store, &fakeProvider{event: tc.event})

			c, rec := newCtx(t, http.MethodPost, "/v1/activation/webhook", `{}`)
			require.NoError(t, h.Webhook(c))

			assert.Equal(t, http.StatusOK, rec.Code, "must acknowledge so the provider stops retrying")
			assert.Equal(t, 0, store.activateCalls)
		})
	}
}

func TestWebhookUnknownUserAcknowledged(t *testing.T) {
	store := newFakeUserStore()
	h := handler.NewActivationHandler(store, &fakeProvider{event: paidEvent(999)})

	c, rec := newCtx(t, http.MethodPost, "/v1/activation/webhook", `{}`)
	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookStorageFailure(t *testing.T) {
	store := newFakeUserStore()
	store.add(model.User{Email: "u@example.com", Role: model.RoleUser})
	store.activateErr = errors.New("db down")
	h := handler.NewActivationHandler(store, &fakeProvider{event: paidEvent(1)})

	c, rec := newCtx(t, http.MethodPost, "/v1/activation/webhook", `{}`)
	require.NoError(t, h.Webhook(c))
	// 5xx tells the provider to redeliver later.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
