package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/errors"
	"github.com/claimguard/insurance-fraud-backend/internal/domain/user"
	"github.com/claimguard/insurance-fraud-backend/internal/infrastructure/auth"
)

// authMiddleware validates the bearer token and stores the claims on the
// request context.
func authMiddleware(svc auth.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, errors.NewUnauthorizedError("missing authorization header"))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, errors.NewUnauthorizedError("invalid authorization header"))
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				writeError(w, errors.NewUnauthorizedError("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authClaims extracts the validated token claims from the context.
func authClaims(ctx context.Context) (*auth.TokenClaims, bool) {
	claims, ok := ctx.Value(contextKeyClaims).(*auth.TokenClaims)
	return claims, ok
}

// requireRoles wraps a handler so only the listed roles may call it.
func requireRoles(roles ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[user.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authClaims(r.Context())
			if !ok {
				writeError(w, errors.NewUnauthorizedError("authentication required"))
				return
			}
			if !allowed[claims.Role] {
				writeError(w, errors.NewForbiddenError("insufficient role"))
				return
			}
			next(w, r)
		}
	}
}
