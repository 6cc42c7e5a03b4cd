// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Platform identifies a third-party social/API platform. The set is closed:
// values are validated against the allow-list at the boundary.
type Platform string

// Known platforms.
const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformThreads   Platform = "threads"
	PlatformOpenAI    Platform = "openai"
	PlatformTikTok    Platform = "tiktok"
	PlatformPinterest Platform = "pinterest"
)

var knownPlatforms = map[Platform]struct{}{
	PlatformLinkedIn:  {},
	PlatformInstagram: {},
	PlatformYouTube:   {},
	PlatformTwitter:   {},
	PlatformFacebook:  {},
	PlatformThreads:   {},
	PlatformOpenAI:    {},
	PlatformTikTok:    {},
	PlatformPinterest: {},
}

// Valid reports whether p is on the platform allow-list.
func (p Platform) Valid() bool {
	_, ok := knownPlatforms[p]
	return ok
}

// Status is the lifecycle state of an integration record.
type Status string

// Integration statuses.
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
	StatusError    Status = "error"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending, StatusError, StatusExpired:
		return true
	}
	return false
}

// MaxCredentialBytes bounds the serialized credential document to cap
// storage and merge cost.
const MaxCredentialBytes = 50000

// RedactedCredentials is the fixed sentinel substituted for credential
// material in any outbound response.
const RedactedCredentials = "[encrypted]"

// IntegrationRecord is the persisted credential document for one
// (user, platform) pair. Exactly one record exists per pair.
//
// Credentials holds either a plain JSON document (legacy path,
// CredentialsEncrypted=false) or the "ivBase64:cipherBase64" wire form
// (CredentialsEncrypted=true). The two representations are never mixed.
type IntegrationRecord struct {
	ID                   uuid.UUID
	UserID               string // opaque identifier from the auth collaborator
	Platform             Platform
	Credentials          []byte
	CredentialsEncrypted bool
	Status               Status
	CreatedAt            time.Time
	UpdatedAt            time.Time // refreshed by every mutation
}

// AccountType classifies a normalized connected account.
type AccountType string

// Account types produced by the normalizer.
const (
	AccountPersonal AccountType = "personal"
	AccountCompany  AccountType = "company"
	AccountPage     AccountType = "page"
	AccountChannel  AccountType = "channel"
)

// PlatformAccount is the unified connected-account view derived from
// platform-specific credential metadata. Never persisted.
type PlatformAccount struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Avatar   string      `json:"avatar,omitempty"`
	Type     AccountType `json:"type"`
	Platform Platform    `json:"platform"`
}

// ExpiryStatus classifies token freshness.
type ExpiryStatus string

// Freshness classes.
const (
	ExpiryOK       ExpiryStatus = "ok"
	ExpiryWarning  ExpiryStatus = "warning"
	ExpiryExpiring ExpiryStatus = "expiring"
	ExpiryExpired  ExpiryStatus = "expired"
	ExpiryUnknown  ExpiryStatus = "unknown"
)

// TokenExpirationInfo is the derived freshness report for a stored document.
// Computed fresh on every read; never persisted.
type TokenExpirationInfo struct {
	AccessExpiresAt      *time.Time   `json:"access_expires_at,omitempty"`
	RefreshExpiresAt     *time.Time   `json:"refresh_expires_at,omitempty"`
	AccessDaysRemaining  *int         `json:"access_days_remaining,omitempty"`
	RefreshDaysRemaining *int         `json:"refresh_days_remaining,omitempty"`
	AccessStatus         ExpiryStatus `json:"access_status"`
	RefreshStatus        ExpiryStatus `json:"refresh_status"`
	NeedsReconnect       bool         `json:"needs_reconnect"`
	AccessDisplay        string       `json:"access_display,omitempty"`
	RefreshDisplay       string       `json:"refresh_display,omitempty"`
}
