package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-jwt-token"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func userToken(t *testing.T, sub string) string {
	t.Helper()
	return signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func userEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(id))
	})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/search", http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestJWTAuth_ValidToken_SetsUserID(t *testing.T) {
	h := JWTAuthMiddleware(testSecret, "authenticated")(userEcho())

	rr := serve(h, "Bearer "+userToken(t, "user-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "user-1" {
		t.Errorf("user id = %q, want user-1", rr.Body.String())
	}
}

func TestJWTAuth_MissingHeader_401(t *testing.T) {
	h := JWTAuthMiddleware(testSecret, "")(okHandler())

	rr := serve(h, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "Unauthorized" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Details != "missing authorization header" {
		t.Errorf("details = %q", resp.Details)
	}
}

func TestJWTAuth_RejectsBadTokens(t *testing.T) {
	expired := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongSecret := signToken(t, "other-secret", jwt.RegisteredClaims{Subject: "user-1"})
	noSubject := signToken(t, testSecret, jwt.RegisteredClaims{
		Audience: jwt.ClaimStrings{"authenticated"},
	})
	wrongAudience := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:  "user-1",
		Audience: jwt.ClaimStrings{"anon"},
	})
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"basic scheme":   "Basic dXNlcjpwYXNz",
		"empty bearer":   "Bearer ",
		"garbage":        "Bearer not-a-jwt",
		"expired":        "Bearer " + expired,
		"wrong secret":   "Bearer " + wrongSecret,
		"no subject":     "Bearer " + noSubject,
		"wrong audience": "Bearer " + wrongAudience,
		"alg none":       "Bearer " + noneAlg,
	}

	h := JWTAuthMiddleware(testSecret, "authenticated")(okHandler())
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if rr := serve(h, header); rr.Code != http.StatusUnauthorized {
				t.Errorf("got %d, want 401", rr.Code)
			}
		})
	}
}

func TestJWTAuth_EmptySecret_RejectsEverything(t *testing.T) {
	h := JWTAuthMiddleware("", "")(okHandler())

	tok := signToken(t, testSecret, jwt.RegisteredClaims{Subject: "user-1"})
	if rr := serve(h, "Bearer "+tok); rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rr.Code)
	}
}

func TestServiceKey_EmptyKeys_PassThrough(t *testing.T) {
	for _, keys := range [][]string{nil, {"", ""}} {
		h := ServiceKeyMiddleware(keys)(okHandler())
		if rr := serve(h, ""); rr.Code != http.StatusOK {
			t.Errorf("keys %q: got %d, want 200", keys, rr.Code)
		}
	}
}

func TestServiceKey_ValidAndInvalid(t *testing.T) {
	h := ServiceKeyMiddleware([]string{"key-1", "key-2"})(okHandler())

	tests := []struct {
		header string
		want   int
	}{
		{"Bearer key-1", http.StatusOK},
		{"Bearer key-2", http.StatusOK},
		{"Bearer wrong", http.StatusUnauthorized},
		{"key-1", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if rr := serve(h, tt.header); rr.Code != tt.want {
			t.Errorf("header %q: got %d, want %d", tt.header, rr.Code, tt.want)
		}
	}
}
