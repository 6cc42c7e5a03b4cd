// Package expiry derives token-freshness classifications from stored
// credential documents. Pure: no I/O, nothing persisted.
package expiry

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mkarpenko/socialvault/internal/model"
)

// Historical field spellings seen across platform payloads.
var (
	accessFields  = []string{"access_token_expires_at", "accessTokenExpiresAt", "access_expires_at"}
	refreshFields = []string{"refresh_token_expires_at", "refreshTokenExpiresAt", "refresh_expires_at"}
)

// Classification thresholds in days.
const (
	accessExpiringDays = 7
	accessWarningDays  = 14
	refreshExpiringDays = 7
	refreshWarningDays  = 30
)

// Evaluate computes access/refresh freshness for a credential document.
// Absent or unparseable timestamps classify as unknown and never force a
// reconnect.
func Evaluate(doc map[string]any, now time.Time) model.TokenExpirationInfo {
	info := model.TokenExpirationInfo{
		AccessStatus:  model.ExpiryUnknown,
		RefreshStatus: model.ExpiryUnknown,
	}

	if exp, ok := lookupTime(doc, accessFields); ok {
		days := daysRemaining(exp, now)
		info.AccessExpiresAt = &exp
		info.AccessDaysRemaining = &days
		info.AccessStatus = classify(days, accessExpiringDays, accessWarningDays)
		info.AccessDisplay = Display(days)
	}
	if exp, ok := lookupTime(doc, refreshFields); ok {
		days := daysRemaining(exp, now)
		info.RefreshExpiresAt = &exp
		info.RefreshDaysRemaining = &days
		info.RefreshStatus = classify(days, refreshExpiringDays, refreshWarningDays)
		info.RefreshDisplay = Display(days)
	}

	info.NeedsReconnect = info.RefreshStatus == model.ExpiryExpired ||
		info.RefreshStatus == model.ExpiryExpiring
	return info
}

func daysRemaining(exp, now time.Time) int {
	return int(math.Floor(exp.Sub(now).Hours() / 24))
}

func classify(days, expiring, warning int) model.ExpiryStatus {
	switch {
	case days <= 0:
		return model.ExpiryExpired
	case days <= expiring:
		return model.ExpiryExpiring
	case days <= warning:
		return model.ExpiryWarning
	default:
		return model.ExpiryOK
	}
}

// Display renders a human-readable remaining-time string.
// Day granularity below a month, month granularity below a year, then years.
func Display(days int) string {
	switch {
	case days <= 0:
		return "Expired"
	case days == 1:
		return "Expires in 1 day"
	case days < 30:
		return fmt.Sprintf("Expires in %d days", days)
	case days < 365:
		months := days / 30
		rem := days % 30
		if rem == 0 {
			if months == 1 {
				return "1 month"
			}
			return fmt.Sprintf("%d months", months)
		}
		return fmt.Sprintf("%dmo %dd", months, rem)
	default:
		years := days / 365
		months := (days % 365) / 30
		if months == 0 {
			if years == 1 {
				return "1 year"
			}
			return fmt.Sprintf("%d years", years)
		}
		return fmt.Sprintf("%dy %dmo", years, months)
	}
}

func lookupTime(doc map[string]any, fields []string) (time.Time, bool) {
	for _, f := range fields {
		v, ok := doc[f]
		if !ok || v == nil {
			continue
		}
		if t, ok := parseTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseTime accepts RFC3339 strings and epoch numbers; epoch values above
// 1e12 are treated as milliseconds.
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
		if n, err := strconv.ParseFloat(t, 64); err == nil {
			return epochTime(n), true
		}
		return time.Time{}, false
	case float64:
		return epochTime(t), true
	case int64:
		return epochTime(float64(t)), true
	case int:
		return epochTime(float64(t)), true
	default:
		return time.Time{}, false
	}
}

func epochTime(n float64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(int64(n))
	}
	return time.Unix(int64(n), 0)
}
