package model

import "time"

// SessionSnapshot is the token-derived view of a user: the small set of
// claims embedded in a session token at issue time. It is deliberately a
// distinct type from User so call sites declare whether they work with the
// point-in-time snapshot or the live record.
//
// A snapshot is immutable once issued and can be up to seven days stale.
// Anything that must observe *current* state (the checkout preconditions,
// admin mutations) re-fetches the User from the store.
type SessionSnapshot struct {
	UserID        uint64
	Email         string
	Role          Role
	IsActivated   bool
	IsEarlyAccess bool
	ActivationSrc ActivationSource
	IssuedAt      time.Time
	ExpiresAt     time.Time
}
