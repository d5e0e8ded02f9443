package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"vton-rest-api/internal/model"
	"vton-rest-api/internal/service"
	"vton-rest-api/pkg/apierror"
)

// TokenDataKey is the key for storing token data in request context.
const TokenDataKey contextKey = "token_data"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService *service.TokenService
}

// NewAuthMiddleware creates a session authentication middleware.
// Requests must carry a valid X-Token header; the session data is
// stored in the request context for handlers.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Token")
			if token == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use the X-Token header."))
				return
			}

			tokenData, err := cfg.TokenService.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), TokenDataKey, tokenData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewAdminKeyMiddleware guards admin routes with the X-Login-Key header.
func NewAdminKeyMiddleware(loginKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if loginKey == "" {
				writeError(w, apierror.ServiceUnavailable("admin access is not configured"))
				return
			}

			provided := r.Header.Get("X-Login-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(loginKey)) != 1 {
				writeError(w, apierror.Forbidden("invalid login key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetTokenDataFromContext retrieves token data from request context.
func GetTokenDataFromContext(ctx context.Context) *model.TokenData {
	if data, ok := ctx.Value(TokenDataKey).(*model.TokenData); ok {
		return data
	}
	return nil
}
