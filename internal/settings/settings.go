// Package settings exposes the admin-controlled system flags through a
// short-lived in-process cache. The Store is an injectable object rather
// than a package singleton so tests construct isolated instances.
package settings

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/iliyamo/receipt-vault/internal/repository"
)

const (
	// KeyRequireActivation gates paid features globally.
	KeyRequireActivation = "REQUIRE_ACTIVATION"
	// KeyEarlyAccessOpen controls whether new registrations get early access.
	KeyEarlyAccessOpen = "EARLY_ACCESS_OPEN"

	// CacheTTL bounds staleness of a process that never writes settings.
	CacheTTL = 60 * time.Second
)

// System is the typed view of the two flags the rest of the service reads.
type System struct {
	RequireActivation bool `json:"require_activation"`
	EarlyAccessOpen   bool `json:"early_access_open"`
}

// defaults are the documented safe values, used both for lazily creating
// missing keys and as the answer when durable storage is unreachable.
var defaults = System{RequireActivation: false, EarlyAccessOpen: true}

// KV is the durable storage the Store sits in front of. Get returns
// repository.ErrSettingNotFound for keys that have never been written.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Store caches SystemSettings for CacheTTL. Writes invalidate the cache
// synchronously so the next read on this process observes the new value
// without waiting for expiry; other processes converge within the TTL.
type Store struct {
	kv  KV
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	cached    System
	hasCache  bool
	fetchedAt time.Time
}

// NewStore returns a Store with the standard 60 second TTL.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, ttl: CacheTTL, now: time.Now}
}

// SystemSettings returns the current flags. Cached values are served while
// fresh; otherwise durable storage is re-read and missing keys are created
// with their defaults. A storage failure yields the hardcoded defaults;
// configuration reads are never allowed to fail the caller.
func (s *Store) SystemSettings(ctx context.Context) System {
	s.mu.Lock()
	if s.hasCache && s.now().Sub(s.fetchedAt) < s.ttl {
		out := s.cached
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	req, err1 := s.readBool(ctx, KeyRequireActivation, defaults.RequireActivation)
	open, err2 := s.readBool(ctx, KeyEarlyAccessOpen, defaults.EarlyAccessOpen)
	if err1 != nil || err2 != nil {
		// Storage unreachable: answer with safe defaults, keep no cache so
		// the next call retries storage.
		log.Printf("settings: falling back to defaults: %v %v", err1, err2)
		return defaults
	}

	out := System{RequireActivation: req, EarlyAccessOpen: open}
	s.mu.Lock()
	s.cached = out
	s.hasCache = true
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return out
}

// Set writes a flag to durable storage and invalidates the cache before
// returning, so a subsequent read on this process sees the new value even
// inside the TTL window.
func (s *Store) Set(ctx context.Context, key string, value bool) error {
	if err := s.kv.Set(ctx, key, strconv.FormatBool(value)); err != nil {
		return err
	}
	s.ClearCache()
	return nil
}

// ClearCache drops the cached view immediately.
func (s *Store) ClearCache() {
	s.mu.Lock()
	s.hasCache = false
	s.mu.Unlock()
}

// readBool fetches one flag, lazily creating it with its default when the
// key has never been written.
func (s *Store) readBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err == repository.ErrSettingNotFound {
		if err := s.kv.Set(ctx, key, strconv.FormatBool(def)); err != nil {
			return false, err
		}
		return def, nil
	}
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		// A corrupted value should not wedge the gate; treat as default.
		log.Printf("settings: unparseable value for %s: %q", key, raw)
		return def, nil
	}
	return b, nil
}
