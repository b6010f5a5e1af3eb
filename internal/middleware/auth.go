package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/token"
)

type contextKey string

const (
	ServiceNameKey contextKey = "service_name"
	ServiceScopes  contextKey = "service_scopes"
)

// ServiceAuth returns middleware that validates service capability tokens.
// Every non-admin route is service-to-service; end users never call this API.
func ServiceAuth(tokenService *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := tokenService.ValidateServiceToken(parts[1])
			if err != nil {
				if err == token.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ServiceNameKey, claims.ServiceName)
			ctx = context.WithValue(ctx, ServiceScopes, claims.Scopes)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetServiceName extracts the calling service name from context
func GetServiceName(ctx context.Context) string {
	if name, ok := ctx.Value(ServiceNameKey).(string); ok {
		return name
	}
	return ""
}

// GetServiceScopes extracts the caller's scopes from context
func GetServiceScopes(ctx context.Context) []string {
	if scopes, ok := ctx.Value(ServiceScopes).([]string); ok {
		return scopes
	}
	return nil
}

// RequireScope returns middleware that checks the caller holds one of the scopes
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			held := GetServiceScopes(r.Context())

			for _, want := range scopes {
				for _, have := range held {
					if want == have {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}
