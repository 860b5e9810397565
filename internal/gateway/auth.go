package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/flemzord/stagewright/internal/security"
)

// authMiddleware validates Bearer token or Basic credentials in constant
// time. Attempts are counted against the "auth" rate limit bucket and
// reported to the audit logger; both collaborators are optional.
func authMiddleware(cfg AuthConfig, auditLogger *security.AuditLogger, rateLimiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rateLimiter != nil {
				if err := rateLimiter.Allow(security.BucketAuth); err != nil {
					emitAuthEvent(auditLogger, security.EventRateLimit, r, "auth rate limit exceeded")
					writeError(w, http.StatusTooManyRequests, "too many requests")
					return
				}
			}

			method, detail := authenticate(cfg, r)
			if method == "" {
				emitAuthEvent(auditLogger, security.EventAuthFailure, r, detail)
				if cfg.BasicUser != "" {
					w.Header().Set("WWW-Authenticate", `Basic realm="stagewright"`)
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			emitAuthEvent(auditLogger, security.EventAuthSuccess, r, method)
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate returns the accepted method ("bearer" or "basic"), or an
// empty method and the failure reason.
func authenticate(cfg AuthConfig, r *http.Request) (method, detail string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}

	if cfg.BearerToken != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && constantTimeEqual(token, cfg.BearerToken) {
			return "bearer", ""
		}
	}

	if cfg.BasicUser != "" && cfg.BasicPass != "" {
		user, pass, ok := r.BasicAuth()
		if ok && constantTimeEqual(user, cfg.BasicUser) && constantTimeEqual(pass, cfg.BasicPass) {
			return "basic", ""
		}
	}

	return "", "invalid credentials"
}

// emitAuthEvent logs an auth event to the audit logger if available.
func emitAuthEvent(logger *security.AuditLogger, eventType security.EventType, r *http.Request, detail string) {
	if logger == nil {
		return
	}
	logger.Log(security.AuditEvent{
		Type:   eventType,
		Detail: detail,
		Metadata: map[string]string{
			"remote_addr": r.RemoteAddr,
			"method":      r.Method,
			"path":        r.URL.Path,
		},
	})
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
