package httpapi

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkarpenko/socialvault/internal/errs"
	"github.com/mkarpenko/socialvault/internal/model"
)

type storeRequest struct {
	UserID       string         `json:"user_id"`
	PlatformName string         `json:"platform_name"`
	Credentials  map[string]any `json:"credentials"`
}

type updateRequest struct {
	UserID       string  `json:"user_id"`
	PlatformName string  `json:"platform_name"`
	Updates      updates `json:"updates"`
}

type updates struct {
	Credentials map[string]any `json:"credentials"`
	Status      *string        `json:"status"`
}

// handleStoreIntegration stores a full credential document on behalf of the
// automation system. The API key authenticates the system; the body user_id
// names the owning account.
func (s *Server) handleStoreIntegration(c *gin.Context) {
	var req storeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}

	rec, err := s.svc.Store(c.Request.Context(), req.UserID, model.Platform(req.PlatformName), req.Credentials)
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, viewOf(rec))
}

// handleUpdateIntegration merges partial credentials and/or a status change
// into an existing record.
func (s *Server) handleUpdateIntegration(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}

	rec, err := s.svc.Update(c.Request.Context(), req.UserID, req.UserID,
		model.Platform(req.PlatformName), req.Updates.Credentials, statusPtr(req.Updates.Status))
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, viewOf(rec))
}

// handleUserUpdate is the session-scoped update: ownership is enforced from
// the session subject, so a caller can only touch their own integrations.
func (s *Server) handleUserUpdate(c *gin.Context) {
	var req struct {
		UserID  string  `json:"user_id"`
		Updates updates `json:"updates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortErr(c, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}

	caller := sessionUserID(c)
	target := req.UserID
	if target == "" {
		target = caller
	}

	rec, err := s.svc.Update(c.Request.Context(), caller, target,
		model.Platform(c.Param("platform")), req.Updates.Credentials, statusPtr(req.Updates.Status))
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, viewOf(rec))
}

// handleListIntegrations returns the caller's active records, credentials
// redacted.
func (s *Server) handleListIntegrations(c *gin.Context) {
	recs, err := s.svc.ListActive(c.Request.Context(), sessionUserID(c), platformsParam(c))
	if err != nil {
		abortErr(c, err)
		return
	}
	views := make([]integrationView, 0, len(recs))
	for i := range recs {
		views = append(views, viewOf(&recs[i]))
	}
	respondOK(c, views)
}

// handleListAccounts returns the unified connected-account list.
func (s *Server) handleListAccounts(c *gin.Context) {
	accs, err := s.svc.Accounts(c.Request.Context(), sessionUserID(c), platformsParam(c))
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, accs)
}

// handleTokenStatus reports token freshness for one platform.
func (s *Server) handleTokenStatus(c *gin.Context) {
	info, err := s.svc.TokenStatus(c.Request.Context(), sessionUserID(c), model.Platform(c.Param("platform")))
	if err != nil {
		abortErr(c, err)
		return
	}
	respondOK(c, info)
}

// platformsParam parses the comma-separated platforms query parameter.
func platformsParam(c *gin.Context) []model.Platform {
	raw := c.Query("platforms")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]model.Platform, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, model.Platform(p))
		}
	}
	return out
}

func statusPtr(s *string) *model.Status {
	if s == nil {
		return nil
	}
	st := model.Status(*s)
	return &st
}
