package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkarpenko/socialvault/internal/errs"
	"github.com/mkarpenko/socialvault/internal/model"
)

// response is the uniform API envelope.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// integrationView is the outbound shape of a record. Credential material is
// always redacted to the fixed sentinel.
type integrationView struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	PlatformName         string    `json:"platform_name"`
	Credentials          string    `json:"credentials"`
	CredentialsEncrypted bool      `json:"credentials_encrypted"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func viewOf(rec *model.IntegrationRecord) integrationView {
	return integrationView{
		ID:                   rec.ID.String(),
		UserID:               rec.UserID,
		PlatformName:         string(rec.Platform),
		Credentials:          model.RedactedCredentials,
		CredentialsEncrypted: rec.CredentialsEncrypted,
		Status:               string(rec.Status),
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

// abortErr maps sentinel errors to HTTP codes. Error text is fixed per
// class; wrapped detail (which may reference stored state) never leaves the
// process.
func abortErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal"
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrValidation):
		status, msg = http.StatusBadRequest, "validation failed"
	case errors.Is(err, errs.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "rate limited"
	case errors.Is(err, errs.ErrDecryption):
		status, msg = http.StatusInternalServerError, "decryption failed"
	case errors.Is(err, errs.ErrPersistence):
		status, msg = http.StatusInternalServerError, "persistence failure"
	}
	c.AbortWithStatusJSON(status, response{Success: false, Error: msg})
}
