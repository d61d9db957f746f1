// Package storage defines the object-store collaborator contract. Actual
// upload/download plumbing is outside this service; handlers only issue
// presigned PUT URLs and request best-effort deletions through it.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by the Disabled store. Handlers map it to a
// 503 so callers can tell "storage off" apart from a real failure.
var ErrNotConfigured = errors.New("object storage not configured")

// ObjectStore is the S3-compatible surface the service consumes.
type ObjectStore interface {
	// PresignPut returns a time-limited URL the client uploads directly to.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes an object. Failures are expected to be logged and
	// swallowed by callers; deletion is best-effort cleanup, never part of
	// the primary transaction.
	Delete(ctx context.Context, key string) error
}

// Disabled is the stand-in wired when no object store is deployed.
type Disabled struct{}

var _ ObjectStore = Disabled{}

func (Disabled) PresignPut(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error { return ErrNotConfigured }
