package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/repository"
)

type contextKey string

const UserContextKey contextKey = "user"

// GetUserFromContext retrieves the authenticated user from request context
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// UserAPIKeyAuth creates middleware that looks up users by API key hash and
// attaches the user to the request context
func UserAPIKeyAuth(userRepo repository.UserRepo, headerName string, skipPaths []string) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool)
	for _, p := range skipPaths {
		skipSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// Skip auth for explicit paths
			if skipSet[path] {
				next.ServeHTTP(w, r)
				return
			}

			// Skip auth for paths starting with skip prefixes
			for p := range skipSet {
				if strings.HasSuffix(p, "*") && strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Only authenticate API routes
			if !strings.HasPrefix(path, "/api") {
				next.ServeHTTP(w, r)
				return
			}

			// Get API key from header
			providedKey := r.Header.Get(headerName)
			if providedKey == "" {
				writeAuthError(w, http.StatusUnauthorized, "API key is required.")
				return
			}

			// Hash the provided key and look up user
			keyHash := models.HashAPIKey(providedKey)
			user, err := userRepo.GetByAPIKeyHash(r.Context(), keyHash)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "Internal server error.")
				return
			}

			if user == nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key.")
				return
			}

			if !user.IsActive {
				writeAuthError(w, http.StatusForbidden, "User account is disabled.")
				return
			}

			// Add user to context
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route subtree on the authenticated user holding the
// admin role. Must run after UserAPIKeyAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			writeAuthError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		if user.Role != models.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "Admin access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
