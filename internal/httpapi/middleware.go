package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamkart/storefront/internal/guestcart"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

const RoleAdmin = "admin"

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves the caller's identity from a Bearer token.
// Requests without a token are served as the shared guest identity;
// a present but invalid token is rejected.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				ctx := context.WithValue(r.Context(), userIDKey, guestcart.GuestUserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				respondError(w, http.StatusUnauthorized, "unauthorized", "malformed authorization header")
				return
			}

			claims := &authClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser guards routes that expose per-customer data. The shared
// guest identity may hold a cart but never reaches orders or checkout.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := getUserID(r.Context())
		if userID == "" || userID == guestcart.GuestUserID {
			respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin guards the back-office routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getRole(r.Context()) != RoleAdmin {
			respondError(w, http.StatusForbidden, "permission_denied", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}

func getRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
