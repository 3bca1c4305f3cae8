package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/socialchef/larder/internal/config"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AnonymousUserID identifies callers when authentication is disabled and no
// session header is sent.
const AnonymousUserID = "anonymous"

// SessionHeader lets anonymous clients keep separate sessions.
const SessionHeader = "X-Session-ID"

// AuthMiddleware validates Supabase JWT tokens. Without a configured JWT
// secret every request is let through under an anonymous user id.
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	if !cfg.AuthEnabled() {
		return anonymous
	}

	expectedIss := cfg.SupabaseURL + "/auth/v1"
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.SupabaseJWTSecret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Missing Authorization header")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				unauthorized(w, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, keyFunc,
				jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
				jwt.WithIssuer(expectedIss),
			)
			if err != nil || !token.Valid {
				unauthorized(w, "Invalid token")
				return
			}

			userID, err := token.Claims.GetSubject()
			if err != nil || userID == "" {
				unauthorized(w, "Missing sub claim")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := AnonymousUserID
		if id, err := uuid.Parse(r.Header.Get(SessionHeader)); err == nil {
			userID = AnonymousUserID + ":" + id.String()
		}
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// RequireAuth is a helper that returns 401 if no user ID in context
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			unauthorized(w, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized: " + msg, "code": "UNAUTHORIZED"})
}
