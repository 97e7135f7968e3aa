package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type userIDKey struct{}

// ContextWithUserID stores the authenticated user id in the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// JWTAuthMiddleware verifies HS256 bearer tokens signed with secret and puts the
// "sub" claim into the request context as the user id. audience is checked when non-empty.
func JWTAuthMiddleware(secret, audience string) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(opts...)

	keyFunc := func(*jwt.Token) (any, error) {
		if secret == "" {
			return nil, errors.New("jwt secret is not configured")
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, msg := bearerToken(r)
			if msg != "" {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Details: msg})
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Details: "invalid token"})
				return
			}
			if claims.Subject == "" {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Details: "token has no subject"})
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.Subject)))
		})
	}
}

// ServiceKeyMiddleware validates static bearer keys used by internal callers.
// If keys is empty, the check is disabled (pass-through).
func ServiceKeyMiddleware(keys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Details: msg})
				return
			}
			if _, ok := validKeys[token]; !ok {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Details: "invalid service key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
// A non-empty message describes why the header was rejected.
func bearerToken(r *http.Request) (token, msg string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}

	token = strings.TrimSpace(auth[len(bearerPrefix):])
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}
