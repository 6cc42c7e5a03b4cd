// Package auth validates inbound automation and user requests: static API
// key, optional timestamp-bound HMAC signature, and bearer sessions.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkarpenko/socialvault/internal/errs"
)

// MaxTimestampSkew bounds the replay window of a signed request.
const MaxTimestampSkew = 300 * time.Second

// Verifier checks automation-surface credentials. Secrets are read once at
// startup and never mutated.
type Verifier struct {
	apiKey []byte
	// RequireSignature rejects requests that carry no signature headers.
	// Default keeps signature verification opportunistic: mandatory when
	// offered, absent otherwise.
	RequireSignature bool

	now func() time.Time
}

// NewVerifier constructs a Verifier for the configured API key.
func NewVerifier(apiKey string) *Verifier {
	return &Verifier{apiKey: []byte(apiKey), now: time.Now}
}

// VerifyAPIKey compares the supplied key with the configured secret in
// constant time.
func (v *Verifier) VerifyAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: missing api key", errs.ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(key), v.apiKey) != 1 {
		return fmt.Errorf("%w: bad api key", errs.ErrUnauthorized)
	}
	return nil
}

// VerifySignature validates hex(HMAC-SHA256(key=apiKey, msg=timestamp))
// together with timestamp freshness. When both headers are absent the check
// is skipped unless RequireSignature is set; a partial pair is rejected.
// Signing the timestamp turns the static shared secret into a
// bounded-replay-window scheme without per-request nonces.
func (v *Verifier) VerifySignature(timestamp, signature string) error {
	if timestamp == "" && signature == "" {
		if v.RequireSignature {
			return fmt.Errorf("%w: signature required", errs.ErrUnauthorized)
		}
		return nil
	}
	if timestamp == "" || signature == "" {
		return fmt.Errorf("%w: incomplete signature headers", errs.ErrUnauthorized)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", errs.ErrUnauthorized)
	}
	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxTimestampSkew {
		return fmt.Errorf("%w: stale timestamp", errs.ErrUnauthorized)
	}

	mac := hmac.New(sha256.New, v.apiKey)
	mac.Write([]byte(timestamp))
	want := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(want), []byte(signature)) != 1 {
		return fmt.Errorf("%w: bad signature", errs.ErrUnauthorized)
	}
	return nil
}

// Sign produces the signature a client must send for the given timestamp.
// Exposed for automation clients and tests.
func Sign(apiKey string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sessions resolves bearer tokens from the auth collaborator to user IDs.
// Tokens are HS256 JWTs whose subject is the opaque user identifier.
type Sessions struct {
	signKey []byte
}

// NewSessions constructs a session resolver for the given signing key.
func NewSessions(signKey []byte) *Sessions {
	return &Sessions{signKey: signKey}
}

// Resolve validates a bearer token and returns the user ID it identifies.
func (s *Sessions) Resolve(bearer string) (string, error) {
	if bearer == "" {
		return "", fmt.Errorf("%w: missing bearer token", errs.ErrUnauthorized)
	}
	tok, err := jwt.Parse(bearer, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	})
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: invalid session", errs.ErrUnauthorized)
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: session without subject", errs.ErrUnauthorized)
	}
	return sub, nil
}
