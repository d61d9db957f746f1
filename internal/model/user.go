package model

import "time"

// User mirrors the 'users' table. It is the store-derived record: handlers
// that need current role or activation state fetch one of these instead of
// trusting the token snapshot.
//
// Invariant: IsActivated implies ActivatedAt and ActivationSrc are set, and
// ActivationTxnID is set only when ActivationSrc is SourceStripe. The
// repository enforces this by writing all four fields in one statement.
type User struct {
	ID              uint64
	Email           string
	PasswordHash    string
	Role            Role
	IsActivated     bool
	ActivatedAt     *time.Time
	ActivationSrc   ActivationSource // empty until activated
	ActivationTxnID string           // external payment reference, stripe only
	IsEarlyAccess   bool
	FirstName       string
	LastName        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot freezes the identity and entitlement fields that ride inside a
// session token. Later role or activation changes do not reach existing
// snapshots; callers re-issue a token when they need fresh state.
func (u User) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		UserID:        u.ID,
		Email:         u.Email,
		Role:          u.Role,
		IsActivated:   u.IsActivated,
		IsEarlyAccess: u.IsEarlyAccess,
		ActivationSrc: u.ActivationSrc,
	}
}
