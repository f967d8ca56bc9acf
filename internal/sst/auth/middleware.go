package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// publicRoutes are served without a bearer token, keyed by method and path.
var publicRoutes = map[string]bool{
	"POST /api/auth/login": true,
	"GET /healthz":         true,
	"GET /metrics":         true,
}

// HTTPMiddleware rejects requests to protected routes that do not carry a
// valid bearer token and binds the token's actor to the request context.
func HTTPMiddleware(next http.Handler, jwtSecret string, logger *zap.Logger) http.Handler {
	logger = logger.Named("auth_middleware")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtectedRequest(r) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractTokenFromHeader(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}

		claims, err := validateToken(tokenString, jwtSecret)
		if err != nil {
			logger.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
			unauthorized(w, "invalid token")
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization format")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format")
	}

	return tokenString, nil
}

func isProtectedRequest(r *http.Request) bool {
	return !publicRoutes[r.Method+" "+r.URL.Path]
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
