package repository

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nudeploy/internal/logger"
)

// tokenExpiryWarning is how long before expiry a source token is reported
const tokenExpiryWarning = 24 * time.Hour

/**
 * Read the expiry of a source token
 * @param {string} token - Bearer token configured for a source
 * @returns {time.Time} Value of the "exp" claim
 * @returns {bool} false if the token is not a JWT or carries no expiry
 * @description
 * - The signature is not verified, the feed server does that
 */
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// checkToken warns about an expired or soon expiring source token. The
// request is still sent, opaque tokens are passed through unchecked.
func checkToken(source, token string, now time.Time) {
	if token == "" {
		return
	}
	exp, ok := tokenExpiry(token)
	if !ok {
		return
	}
	switch {
	case !now.Before(exp):
		logger.Warnf("Repository: token of source '%s' expired at %s", source, exp.Format(time.RFC3339))
	case exp.Sub(now) < tokenExpiryWarning:
		logger.Warnf("Repository: token of source '%s' expires at %s", source, exp.Format(time.RFC3339))
	}
}
