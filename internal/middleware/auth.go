package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/morabagipravin/task-manager-api/internal/service"
)

type contextKey int

const userIDKey contextKey = iota

// UserID extracts the authenticated owner id attached by the auth middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Auth verifies the bearer token, confirms the user still exists, and
// attaches the owner id to the request context.
func Auth(svc *service.AuthService, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "access denied: no token provided")
				return
			}
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "invalid token format: use Bearer <token>")
				return
			}
			tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if tokenString == "" {
				unauthorized(w, "access denied: no token provided")
				return
			}

			claims, err := svc.VerifyToken(tokenString)
			if err != nil {
				log.Warnf("Token rejected: %v", err)
				unauthorized(w, err.Error())
				return
			}

			if _, err := svc.GetUser(r.Context(), claims.UserID); err != nil {
				log.Warnf("Token valid but user %d no longer exists", claims.UserID)
				unauthorized(w, "token is valid but user no longer exists")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
