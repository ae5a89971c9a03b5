package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"idregistry/internal/identity/models"
	"idregistry/pkg/requestcontext"
)

// Claims are the JWT claims callers present. The subject is the caller's
// registry address; services decide what that address may do.
type Claims struct {
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and injects the caller address
// into the request context.
func RequireAuth(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(signingKey), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				logger.WarnContext(r.Context(), "rejected bearer token", "error", err)
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), models.Address(claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssueToken mints a caller token. Used by deployment tooling and tests;
// there is no interactive login flow in this service.
func IssueToken(signingKey string, caller models.Address) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: string(caller.Normalize())},
	})
	return token.SignedString([]byte(signingKey))
}
