// Package repository defines sentinel errors reused across repositories.
// Higher layers switch on these values to pick HTTP status codes without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when a registration collides with an existing
// email (case-insensitive unique key on users.email).
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup or mutation matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrAlreadyActivated signals that an activation write was a no-op because
// the user is already activated. Callers treat it as success; it exists so
// webhook retries can be distinguished from first-time activations in logs.
var ErrAlreadyActivated = errors.New("user already activated")

// ErrSettingNotFound is returned when a system setting key has no row yet.
var ErrSettingNotFound = errors.New("setting not found")

// ErrFeedbackNotFound is returned when a feedback lookup matches no row.
var ErrFeedbackNotFound = errors.New("feedback not found")

// ErrReceiptNotFound is returned when a receipt is absent or owned by a
// different user. The two cases are deliberately indistinguishable so the
// API never confirms existence of another user's receipt.
var ErrReceiptNotFound = errors.New("receipt not found")
