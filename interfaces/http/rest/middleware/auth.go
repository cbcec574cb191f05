package middleware

import (
	"net/http"
	"strings"

	"storyfront-backend/pkg/auth"
	"storyfront-backend/pkg/common"

	"go.uber.org/zap"
)

// Authenticate requires a valid bearer token on every request it guards.
// Requests are rate limited per client IP before validation and per user
// after it.
func Authenticate(validator *auth.JWTValidator, ipLimiter *auth.IPRateLimiter, userLimiter *auth.UserRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowIP(w, r, ipLimiter, logger) {
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			user, ok := validateAndBuildUser(w, r, validator, token, logger)
			if !ok {
				return
			}

			if userLimiter != nil {
				allowed, err := userLimiter.Allow(r.Context(), user.UserID)
				if err != nil {
					logger.Error("User rate limiter error", zap.Error(err))
				} else if !allowed {
					common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "User rate limit exceeded")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

// OptionalAuthenticate attaches the user context when a valid bearer token
// is presented and lets anonymous requests through untouched. A token that
// is present but invalid is still rejected rather than silently downgraded
// to anonymous.
func OptionalAuthenticate(validator *auth.JWTValidator, ipLimiter *auth.IPRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowIP(w, r, ipLimiter, logger) {
				return
			}

			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, ok := validateAndBuildUser(w, r, validator, token, logger)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

// RequireAdmin gates a route to callers holding the admin role. Must run
// after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserOrNil(r.Context())
		if user == nil {
			respondUnauthorized(w, "Unauthorized")
			return
		}
		if !user.IsAdmin() {
			common.RespondError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validateAndBuildUser(w http.ResponseWriter, r *http.Request, validator *auth.JWTValidator, token string, logger *zap.Logger) (*auth.UserContext, bool) {
	claims, err := validator.ValidateToken(token)
	if err != nil {
		logger.Warn("Invalid token",
			zap.Error(err),
			zap.String("ip", getClientIP(r)),
			zap.String("path", r.URL.Path),
		)
		switch err {
		case auth.ErrExpiredToken:
			respondUnauthorized(w, "Token has expired")
		case auth.ErrInvalidSignature:
			respondUnauthorized(w, "Invalid token signature")
		default:
			respondUnauthorized(w, "Invalid token")
		}
		return nil, false
	}

	return &auth.UserContext{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Roles:  claims.Roles,
	}, true
}

func allowIP(w http.ResponseWriter, r *http.Request, ipLimiter *auth.IPRateLimiter, logger *zap.Logger) bool {
	if ipLimiter == nil {
		return true
	}
	allowed, err := ipLimiter.Allow(r.Context(), getClientIP(r))
	if err != nil {
		// Limiter outage never blocks traffic.
		logger.Error("IP rate limiter error", zap.Error(err))
		return true
	}
	if !allowed {
		common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
		return false
	}
	return true
}

// extractToken pulls the bearer token from the Authorization header or the
// auth_token cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return authHeader
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
