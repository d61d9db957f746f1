package utils // session token issue/verify helpers

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/receipt-vault/internal/model"
)

// SessionTTL is the fixed session token lifetime. There is no server-side
// revocation; expiry is the only termination mechanism short of the client
// discarding the cookie.
const SessionTTL = 7 * 24 * time.Hour

// SessionClaims is the wire shape of a session token: the registered claims
// plus the identity/entitlement snapshot captured at issue time.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	Role          string `json:"role"`
	IsActivated   bool   `json:"activated"`
	IsEarlyAccess bool   `json:"early_access"`
	ActivationSrc string `json:"activation_source,omitempty"`
}

// errInvalidSession covers every verification failure. Callers never learn
// which check failed; any invalid token is uniformly "unauthenticated".
var errInvalidSession = errors.New("invalid session token")

// IssueSessionToken signs an HS256 token embedding the user's snapshot with
// a 7-day expiry from now. The returned expiry feeds the cookie lifetime.
func IssueSessionToken(secret string, user model.User) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(SessionTTL)
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:         user.Email,
		Role:          string(user.Role),
		IsActivated:   user.IsActivated,
		IsEarlyAccess: user.IsEarlyAccess,
		ActivationSrc: string(user.ActivationSrc),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifySessionToken parses and validates a raw token and rebuilds the
// snapshot it carries. Malformed tokens, bad signatures, wrong signing
// methods and expired tokens all come back as the same opaque error.
func VerifySessionToken(secret, raw string) (model.SessionSnapshot, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidSession
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return model.SessionSnapshot{}, errInvalidSession
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 {
		return model.SessionSnapshot{}, errInvalidSession
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return model.SessionSnapshot{}, errInvalidSession
	}

	snap := model.SessionSnapshot{
		UserID:        uid,
		Email:         claims.Email,
		Role:          role,
		IsActivated:   claims.IsActivated,
		IsEarlyAccess: claims.IsEarlyAccess,
		ActivationSrc: model.ActivationSource(claims.ActivationSrc),
	}
	if claims.IssuedAt != nil {
		snap.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		snap.ExpiresAt = claims.ExpiresAt.Time
	}
	return snap, nil
}
