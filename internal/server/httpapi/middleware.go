package httpapi

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxUserID = "sv.userID"

// requestLog logs request metadata only; payloads may carry credential
// material and are never logged.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// recovery converts panics into a plain 500 after logging the stack.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					response{Success: false, Error: "internal"})
			}
		}()
		c.Next()
	}
}

// apiKeyAuth enforces the automation-surface credentials: the static key is
// mandatory; the HMAC signature is verified whenever its headers are present.
func (s *Server) apiKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.verifier.VerifyAPIKey(c.GetHeader(HeaderAPIKey)); err != nil {
			abortErr(c, err)
			return
		}
		if err := s.verifier.VerifySignature(
			c.GetHeader(HeaderTimestamp), c.GetHeader(HeaderSignature)); err != nil {
			abortErr(c, err)
			return
		}
		c.Next()
	}
}

// sessionAuth resolves the bearer token to a user identity and stores it in
// the request context.
func (s *Server) sessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		bearer, _ := strings.CutPrefix(header, "Bearer ")
		userID, err := s.sessions.Resolve(strings.TrimSpace(bearer))
		if err != nil {
			abortErr(c, err)
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// sessionUserID fetches the authenticated user set by sessionAuth.
func sessionUserID(c *gin.Context) string {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(string)
	return id
}

// automationClientID buckets automation callers by API key, falling back to
// the peer address when the key is absent (it then fails auth anyway).
func automationClientID(c *gin.Context) string {
	if key := c.GetHeader(HeaderAPIKey); key != "" {
		return key
	}
	return c.ClientIP()
}

// sessionClientID buckets user-surface callers by authenticated identity.
func sessionClientID(c *gin.Context) string {
	if id := sessionUserID(c); id != "" {
		return id
	}
	return c.ClientIP()
}

// rateLimit applies the per-client window after authentication. Denials set
// Retry-After so callers can back off.
func (s *Server) rateLimit(clientID func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := s.lim.Allow(clientID(c))
		if !allowed {
			secs := int(retryAfter / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response{Success: false, Error: "rate limited"})
			return
		}
		c.Next()
	}
}
