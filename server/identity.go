package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the authenticated user id, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// TokenVerifier authenticates a bearer token and resolves its user.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// HMACVerifier verifies tokens of the form "<userID>.<mac>" where mac is
// base64url(HMAC-SHA256(secret, userID)). Stateless on purpose: there is
// no token store to consult on the websocket hot path.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(token string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("auth secret is not configured")
	}

	userID, mac, ok := strings.Cut(token, ".")
	if !ok || userID == "" {
		return "", fmt.Errorf("malformed token")
	}

	want := computeMAC(v.secret, userID)
	if subtle.ConstantTimeCompare([]byte(mac), []byte(want)) != 1 {
		return "", fmt.Errorf("invalid token signature")
	}
	return userID, nil
}

// SignToken mints a token for userID. Used by provisioning tooling and
// tests; the server itself only verifies.
func SignToken(secret, userID string) string {
	return userID + "." + computeMAC([]byte(secret), userID)
}

func computeMAC(secret []byte, userID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(userID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// tokenFromRequest accepts the Authorization header or, for websocket
// upgrades where browsers cannot set headers, a token query parameter.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tok
		}
	}
	return r.URL.Query().Get("token")
}

// authMiddleware rejects unauthenticated requests and injects the user id
// into the request context.
func authMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
