// Package service contains the application service for platform integrations.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mkarpenko/socialvault/internal/accounts"
	"github.com/mkarpenko/socialvault/internal/crypto/credcrypto"
	"github.com/mkarpenko/socialvault/internal/errs"
	"github.com/mkarpenko/socialvault/internal/expiry"
	"github.com/mkarpenko/socialvault/internal/merge"
	"github.com/mkarpenko/socialvault/internal/model"
	"github.com/mkarpenko/socialvault/internal/repository"
)

// IntegrationService defines credential-store operations over integration
// records.
type IntegrationService interface {
	// Store encrypts and upserts a full credential document for the pair.
	Store(ctx context.Context, userID string, platform model.Platform, credentials map[string]any) (*model.IntegrationRecord, error)
	// Update merges a partial credential document and/or applies a status
	// change to an existing record. callerID must own the record.
	Update(ctx context.Context, callerID, userID string, platform model.Platform, partial map[string]any, status *model.Status) (*model.IntegrationRecord, error)
	// ListActive returns the user's active records for the platform set.
	ListActive(ctx context.Context, userID string, platforms []model.Platform) ([]model.IntegrationRecord, error)
	// Accounts returns the unified connected-account list for the platform set.
	Accounts(ctx context.Context, userID string, platforms []model.Platform) ([]model.PlatformAccount, error)
	// TokenStatus computes token freshness for one stored document.
	TokenStatus(ctx context.Context, userID string, platform model.Platform) (*model.TokenExpirationInfo, error)
}

type IntegrationServiceImpl struct {
	repo      repository.IntegrationRepository
	key       []byte // derived AES key, read once at startup
	opTimeout time.Duration
	now       func() time.Time
}

// NewIntegrationService constructs the service. opTimeout bounds storage and
// crypto calls; non-positive values fall back to 5s.
func NewIntegrationService(repo repository.IntegrationRepository, key []byte, opTimeout time.Duration) *IntegrationServiceImpl {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &IntegrationServiceImpl{repo: repo, key: key, opTimeout: opTimeout, now: time.Now}
}

// Store validates, encrypts and upserts a credential document.
// The record ends up active and encrypted regardless of its prior state.
func (s *IntegrationServiceImpl) Store(ctx context.Context, userID string, platform model.Platform, credentials map[string]any) (*model.IntegrationRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user_id", errs.ErrValidation)
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", errs.ErrValidation, platform)
	}
	if len(credentials) == 0 {
		return nil, fmt.Errorf("%w: empty credentials", errs.ErrValidation)
	}

	raw, err := marshalBounded(credentials)
	if err != nil {
		return nil, err
	}
	token, err := credcrypto.Encrypt(s.key, raw)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	rec := &model.IntegrationRecord{
		ID:                   id,
		UserID:               userID,
		Platform:             platform,
		Credentials:          []byte(token),
		CredentialsEncrypted: true,
		Status:               model.StatusActive,
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.repo.Upsert(ctx, rec)
}

// Update merges partial credentials into the stored document under a row
// lock and applies an optional status change. The ownership check runs
// before any mutation.
func (s *IntegrationServiceImpl) Update(ctx context.Context, callerID, userID string, platform model.Platform, partial map[string]any, status *model.Status) (*model.IntegrationRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user_id", errs.ErrValidation)
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", errs.ErrValidation, platform)
	}
	if callerID != "" && callerID != userID {
		return nil, fmt.Errorf("%w: caller does not own this integration", errs.ErrForbidden)
	}
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrValidation, *status)
	}
	if len(partial) == 0 && status == nil {
		return nil, fmt.Errorf("%w: nothing to update", errs.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.repo.UpdateWithLock(ctx, userID, platform, func(rec *model.IntegrationRecord) error {
		if rec.UserID != userID {
			return fmt.Errorf("%w: caller does not own this integration", errs.ErrForbidden)
		}
		if len(partial) > 0 {
			existing, err := s.decodeDocument(rec)
			if err != nil {
				return err
			}
			merged := merge.Merge(existing, partial)
			raw, err := marshalBounded(merged)
			if err != nil {
				return err
			}
			token, err := credcrypto.Encrypt(s.key, raw)
			if err != nil {
				return err
			}
			rec.Credentials = []byte(token)
			rec.CredentialsEncrypted = true
		}
		if status != nil {
			rec.Status = *status
		}
		return nil
	})
}

// ListActive returns active records for the requested platforms. Unknown
// platform names are dropped; an empty set means all known platforms.
func (s *IntegrationServiceImpl) ListActive(ctx context.Context, userID string, platforms []model.Platform) ([]model.IntegrationRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user_id", errs.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	return s.repo.ListActive(ctx, userID, normalizePlatformSet(platforms))
}

// Accounts normalizes the metadata of all matching active integrations into
// one PlatformAccount list.
func (s *IntegrationServiceImpl) Accounts(ctx context.Context, userID string, platforms []model.Platform) ([]model.PlatformAccount, error) {
	recs, err := s.ListActive(ctx, userID, platforms)
	if err != nil {
		return nil, err
	}
	out := []model.PlatformAccount{}
	for i := range recs {
		doc, err := s.decodeDocument(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, accounts.Normalize(recs[i].Platform, doc)...)
	}
	return out, nil
}

// TokenStatus evaluates token freshness for one record.
func (s *IntegrationServiceImpl) TokenStatus(ctx context.Context, userID string, platform model.Platform) (*model.TokenExpirationInfo, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user_id", errs.ErrValidation)
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", errs.ErrValidation, platform)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	rec, err := s.repo.Get(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	doc, err := s.decodeDocument(rec)
	if err != nil {
		return nil, err
	}
	info := expiry.Evaluate(doc, s.now())
	return &info, nil
}

// decodeDocument returns the plaintext credential document of a record,
// decrypting when the encrypted flag is set. The two representations are
// never mixed: the flag alone decides the path.
func (s *IntegrationServiceImpl) decodeDocument(rec *model.IntegrationRecord) (map[string]any, error) {
	if len(rec.Credentials) == 0 {
		return map[string]any{}, nil
	}
	raw := rec.Credentials
	if rec.CredentialsEncrypted {
		pt, err := credcrypto.Decrypt(s.key, string(rec.Credentials))
		if err != nil {
			return nil, err
		}
		raw = pt
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: stored document is not an object", errs.ErrValidation)
	}
	return doc, nil
}

// marshalBounded serializes a document and enforces the byte ceiling that
// bounds storage and merge cost.
func marshalBounded(doc map[string]any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: credentials not serializable", errs.ErrValidation)
	}
	if len(raw) > model.MaxCredentialBytes {
		return nil, fmt.Errorf("%w: credentials exceed %d bytes", errs.ErrValidation, model.MaxCredentialBytes)
	}
	return raw, nil
}

func normalizePlatformSet(platforms []model.Platform) []model.Platform {
	if len(platforms) == 0 {
		return []model.Platform{
			model.PlatformLinkedIn, model.PlatformInstagram, model.PlatformYouTube,
			model.PlatformTwitter, model.PlatformFacebook, model.PlatformThreads,
			model.PlatformOpenAI, model.PlatformTikTok, model.PlatformPinterest,
		}
	}
	out := make([]model.Platform, 0, len(platforms))
	for _, p := range platforms {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}
