// Package limiter defines interfaces and implementations for per-client
// request rate limiting.
package limiter

import "time"

// Defaults for the automation surface.
const (
	DefaultMax    = 100
	DefaultWindow = 60 * time.Second
)

// Limiter throttles requests per client identifier. Advisory: state is
// process-local and resets on restart.
type Limiter interface {
	// Allow reports whether the client may proceed and, when denied, how long
	// until the window resets.
	Allow(clientID string) (bool, time.Duration)
}
