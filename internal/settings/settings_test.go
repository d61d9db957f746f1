package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/receipt-vault/internal/repository"
)

// fakeKV is a map-backed KV with optional fault injection and call counting.
type fakeKV struct {
	data     map[string]string
	getCalls int
	getErr   error
	setErr   error
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.getCalls++
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(kv KV) (*Store, *clock) {
	ck := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(kv)
	s.now = ck.now
	return s, ck
}

func TestSystemSettingsCreatesMissingKeysWithDefaults(t *testing.T) {
	kv := newFakeKV()
	s, _ := newTestStore(kv)

	sys := s.SystemSettings(context.Background())
	assert.Equal(t, defaults, sys)

	// Lazy creation persisted the defaults.
	assert.Equal(t, "false", kv.data[KeyRequireActivation])
	assert.Equal(t, "true", kv.data[KeyEarlyAccessOpen])
}

func TestSystemSettingsReadsStoredValues(t *testing.T) {
	kv := newFakeKV()
	kv.data[KeyRequireActivation] = "true"
	kv.data[KeyEarlyAccessOpen] = "false"
	s, _ := newTestStore(kv)

	sys := s.SystemSettings(context.Background())
	assert.True(t, sys.RequireActivation)
	assert.False(t, sys.EarlyAccessOpen)
}

func TestCacheServedWithinTTL(t *testing.T) {
	kv := newFakeKV()
	kv.data[KeyRequireActivation] = "true"
	kv.data[KeyEarlyAccessOpen] = "true"
	s, ck := newTestStore(kv)

	_ = s.SystemSettings(context.Background())
	calls := kv.getCalls

	// A write behind the store's back is invisible while the cache is fresh.
	kv.data[KeyRequireActivation] = "false"
	ck.advance(59 * time.Second)

	sys := s.SystemSettings(context.Background())
	assert.True(t, sys.RequireActivation)
	assert.Equal(t, calls, kv.getCalls, "no storage reads while cached")
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	kv := newFakeKV()
	kv.data[KeyRequireActivation] = "true"
	kv.data[KeyEarlyAccessOpen] = "true"
	s, ck := newTestStore(kv)

	_ = s.SystemSettings(context.Background())
	kv.data[KeyRequireActivation] = "false"
	ck.advance(CacheTTL)

	sys := s.SystemSettings(context.Background())
	assert.False(t, sys.RequireActivation, "expired cache must re-read storage")
}

func TestSetInvalidatesCacheImmediately(t *testing.T) {
	kv := newFakeKV()
	kv.data[KeyRequireActivation] = "false"
	kv.data[KeyEarlyAccessOpen] = "true"
	s, _ := newTestStore(kv)

	sys := s.SystemSettings(context.Background())
	require.False(t, sys.RequireActivation)

	// Still inside the TTL window, yet the write must be visible at once.
	require.NoError(t, s.Set(context.Background(), KeyRequireActivation, true))
	sys = s.SystemSettings(context.Background())
	assert.True(t, sys.RequireActivation)
}

func TestSetPropagatesStorageError(t *testing.T) {
	kv := newFakeKV()
	kv.data[KeyRequireActivation] = "false"
	kv.data[KeyEarlyAccessOpen] = "true"
	s, _ := newTestStore(kv)

	_ = s.SystemSettings(context.Background())
	kv.setErr = errors.New("db down")

	err := s.Set(context.Background(), KeyRequireActivation, true)
	assert.Error(t, err)
}

func TestStorageFailureYieldsDefaultsWithoutCaching(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	s, _ := newTestStore(kv)

	sys := s.SystemSettings(context.Background())
	assert.Equal(t, defaults, sys)

	// Storage recovers with non-default values; the failure answer must not
	// have been cached, so the next read sees them.
	kv.getErr = nil
	kv.data[KeyRequireActivation] = "true"
	kv.data[KeyEarlyAccessOpen] = "false"

	sys = s.SystemSettings(context.Background())
	assert.True(t, sys.RequireActivation)
	assert.False(t, sys.EarlyAccessOpen)
}

func TestUnparseableValueFallsBackToDefault(t *testing.T) {
	kv := newFakeKV()
	kv.data[KeyRequireActivation] = "banana"
	kv.data[KeyEarlyAccessOpen] = "false"
	s, _ := newTestStore(kv)

	sys := s.SystemSettings(context.Background())
	assert.False(t, sys.RequireActivation, "corrupted value reads as default")
	assert.False(t, sys.EarlyAccessOpen)
}
