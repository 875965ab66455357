package http

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/sha3"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const CallerContextKey = ContextKey("caller")

// Caller identifies who made an authenticated request.
type Caller struct {
	Scheme  string // "Bearer" or "ApiKey"
	Subject string
}

type AuthConfig struct {
	JWTSecret string
	// APIKeyHashes are base64url sha3-256 digests of the accepted keys.
	APIKeyHashes []string
}

// HashAPIKey returns the digest stored in API_KEY_HASHES for a plaintext key.
func HashAPIKey(plainTextKey string) string {
	hash := sha3.Sum256([]byte(plainTextKey))
	return base64.URLEncoding.EncodeToString(hash[:])
}

// CallerFromContext returns the caller stored by AuthMiddleware.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(CallerContextKey).(Caller)
	return c, ok
}

// AuthMiddleware accepts "Authorization: Bearer <HS256 JWT>" or
// "Authorization: ApiKey <key>".
func AuthMiddleware(cfg AuthConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[1] == "" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				respondWithError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			var caller Caller
			var err error
			switch parts[0] {
			case "Bearer":
				caller, err = validateJWT(parts[1], cfg.JWTSecret)
			case "ApiKey":
				caller, err = validateAPIKey(parts[1], cfg.APIKeyHashes)
			default:
				logger.WarnContext(r.Context(), "Unsupported Authorization scheme", "scheme", parts[0])
				respondWithError(w, http.StatusUnauthorized, "Unsupported Authorization scheme")
				return
			}
			if err != nil {
				logger.WarnContext(r.Context(), "Credential validation failed", "scheme", parts[0], "error", err)
				respondWithError(w, http.StatusUnauthorized, "Invalid or expired credentials")
				return
			}

			ctx := context.WithValue(r.Context(), CallerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateJWT(tokenString, secret string) (Caller, error) {
	if secret == "" {
		return Caller{}, fmt.Errorf("bearer tokens are not accepted: no JWT secret configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Caller{}, err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return Caller{}, err
	}
	return Caller{Scheme: "Bearer", Subject: subject}, nil
}

func validateAPIKey(key string, hashes []string) (Caller, error) {
	digest := HashAPIKey(key)
	for _, h := range hashes {
		if subtle.ConstantTimeCompare([]byte(digest), []byte(h)) == 1 {
			return Caller{Scheme: "ApiKey", Subject: "apikey:" + digest[:8]}, nil
		}
	}
	return Caller{}, fmt.Errorf("unknown API key")
}
