package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/receipt-vault/internal/config"
	"github.com/iliyamo/receipt-vault/internal/model"
	"github.com/iliyamo/receipt-vault/internal/queue"
	"github.com/iliyamo/receipt-vault/internal/repository"
	"github.com/iliyamo/receipt-vault/internal/settings"
)

func testConfig() config.Config {
	return config.Config{
		Env:        "test",
		JWTSecret:  "test-signing-key",
		BcryptCost: 4,
		AdminEmail: "admin@example.com",
	}
}

// newCtx builds an echo context for a handler-level test. body is JSON; an
// empty string means no body.
func newCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec
}

// withSession plants a verified snapshot the way SessionAuth would.
func withSession(c echo.Context, snap model.SessionSnapshot) {
	c.Set("session", snap)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// fakeUserStore is an in-memory UserStore with per-method fault injection.
type fakeUserStore struct {
	users  map[uint64]model.User
	nextID uint64

	activateCalls   int
	lastActivateTxn string
	deleteCalls     int

	createErr   error
	activateErr error
	deleteErr   error
	deletedKeys []string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]model.User{}, nextID: 1}
}

func (f *fakeUserStore) add(u model.User) model.User {
	if u.ID == 0 {
		u.ID = f.nextID
	}
	if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) Create(_ context.Context, email, hash string, role model.Role, earlyAccess bool, first, last string) (uint64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	u := f.add(model.User{
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		IsEarlyAccess: earlyAccess,
		FirstName:     first,
		LastName:      last,
		CreatedAt:     time.Now(),
	})
	return u.ID, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) UpdateRole(_ context.Context, id uint64, role model.Role) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	u.Role = role
	f.users[id] = u
	return u, nil
}

func (f *fakeUserStore) ActivateFromCheckout(_ context.Context, id uint64, txnID string, at time.Time) error {
	f.activateCalls++
	f.lastActivateTxn = txnID
	if f.activateErr != nil {
		return f.activateErr
	}
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if u.IsActivated {
		return repository.ErrAlreadyActivated
	}
	u.IsActivated = true
	u.ActivatedAt = &at
	u.ActivationSrc = model.SourceStripe
	u.ActivationTxnID = txnID
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) DeleteCascade(_ context.Context, id uint64) ([]string, error) {
	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(f.users, id)
	return f.deletedKeys, nil
}

// capturePublisher records cleanup events on a channel so tests can wait for
// the fire-and-forget goroutine.
func capturePublisher() (func(context.Context, queue.StorageCleanupEvent) error, chan queue.StorageCleanupEvent) {
	ch := make(chan queue.StorageCleanupEvent, 4)
	return func(_ context.Context, ev queue.StorageCleanupEvent) error {
		ch <- ev
		return nil
	}, ch
}

func waitForEvent(t *testing.T, ch chan queue.StorageCleanupEvent) queue.StorageCleanupEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cleanup event")
		return queue.StorageCleanupEvent{}
	}
}

// memKV backs a settings.Store without a database.
type memKV struct{ data map[string]string }

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func newSettingsStore(requireActivation, earlyAccessOpen bool) *settings.Store {
	kv := newMemKV()
	kv.data[settings.KeyRequireActivation] = boolStr(requireActivation)
	kv.data[settings.KeyEarlyAccessOpen] = boolStr(earlyAccessOpen)
	return settings.NewStore(kv)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
